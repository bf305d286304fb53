package notification

import (
	"context"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
)

// NoopNotifier logs notifications instead of sending them. Used when email is disabled.
type NoopNotifier struct {
	logger coreport.Logger
}

// NewNoopNotifier creates a notifier that only logs
func NewNoopNotifier(logger coreport.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// Notify logs the notification at debug level
func (n *NoopNotifier) Notify(_ context.Context, notification coreport.Notification) error {
	n.logger.Debug("Email delivery disabled, dropping notification", map[string]any{
		"kind":           notification.Kind,
		"user_id":        notification.UserID,
		"transaction_id": notification.TransactionID,
	})
	return nil
}

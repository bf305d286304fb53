package core

import (
	"context"
	"time"
)

// NotificationKind identifies the email template to render
type NotificationKind string

// Notification kinds
const (
	NotificationWalletRecharge NotificationKind = "wallet_recharge"
	NotificationWalletRefund   NotificationKind = "wallet_refund"
)

// Notification is an outbound message about a committed ledger entry
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	UserID        uint64           `json:"userId"`
	Email         string           `json:"email"`
	TransactionID uint64           `json:"transactionId"`
	Amount        string           `json:"amount"`
	Balance       string           `json:"balance"`
	Reference     string           `json:"reference,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// Notifier delivers notifications to an external channel.
// Failures are reported to the caller and never undo ledger writes.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

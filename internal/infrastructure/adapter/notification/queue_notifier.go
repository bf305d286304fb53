package notification

import (
	"context"
	"encoding/json"
	"fmt"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/redis/go-redis/v9"
)

// QueueNotifier renders notifications into email jobs and queues them in Redis
type QueueNotifier struct {
	redis        redis.Cmdable
	queue        string
	currency     string
	signature    string
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewQueueNotifier creates a notifier pushing to the given list
func NewQueueNotifier(client redis.Cmdable, queue, currency, signature string, timeProvider coreport.TimeProvider, logger coreport.Logger) *QueueNotifier {
	if queue == "" {
		queue = DefaultQueue
	}
	return &QueueNotifier{
		redis:        client,
		queue:        queue,
		currency:     currency,
		signature:    signature,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Notify queues one email for the notification
func (q *QueueNotifier) Notify(ctx context.Context, n coreport.Notification) error {
	if n.Email == "" {
		return fmt.Errorf("%w: no recipient for user %d", errs.ErrNotificationFailed, n.UserID)
	}

	subject, body, err := renderEmail(n, q.currency, q.signature)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrNotificationFailed, err)
	}

	job := EmailJob{
		To:      n.Email,
		Subject: subject,
		Body:    body,
		Kind:    string(n.Kind),
		Created: q.timeProvider.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: encode job: %v", errs.ErrNotificationFailed, err)
	}

	if err := q.redis.LPush(ctx, q.queue, string(data)).Err(); err != nil {
		q.logger.Error("Failed to queue email", map[string]any{
			"to":    n.Email,
			"kind":  n.Kind,
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", errs.ErrNotificationFailed, err)
	}

	q.logger.Info("Email queued", map[string]any{
		"to":             n.Email,
		"kind":           n.Kind,
		"transaction_id": n.TransactionID,
	})
	return nil
}

// QueueLength reports how many jobs are waiting
func (q *QueueNotifier) QueueLength(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, q.queue).Result()
}

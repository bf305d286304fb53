package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/redis/go-redis/v9"
)

// Sender delivers one rendered email
type Sender interface {
	Send(ctx context.Context, job EmailJob) error
}

// SMTPSender sends through an SMTP relay with optional PLAIN auth
type SMTPSender struct {
	From     string
	FromName string
	Host     string
	Port     int
	User     string
	Password string
}

// Send delivers the job
func (s *SMTPSender) Send(ctx context.Context, job EmailJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := fmt.Sprintf("From: %s <%s>\r\n", s.FromName, s.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n"
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.User != "" && s.Password != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	return smtp.SendMail(addr, auth, s.From, []string{job.To}, []byte(message))
}

// WorkerConfig tunes the delivery loop
type WorkerConfig struct {
	Queue       string
	MaxAttempts int
	RetryDelay  coreport.Duration
	PollTimeout time.Duration
}

// Worker drains the email queue. Failed sends are requeued until MaxAttempts,
// then moved to the dead-letter list.
type Worker struct {
	redis        redis.Cmdable
	sender       Sender
	cfg          WorkerConfig
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewWorker creates a queue worker
func NewWorker(client redis.Cmdable, sender Sender, cfg WorkerConfig, timeProvider coreport.TimeProvider, logger coreport.Logger) *Worker {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}
	return &Worker{
		redis:        client,
		sender:       sender,
		cfg:          cfg,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Run processes jobs until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Email worker started", map[string]any{"queue": w.cfg.Queue})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Email worker stopped", nil)
			return
		default:
			w.ProcessNext(ctx)
		}
	}
}

// ProcessNext pops and handles at most one job. It reports whether a job was popped.
func (w *Worker) ProcessNext(ctx context.Context) bool {
	result, err := w.redis.BRPop(ctx, w.cfg.PollTimeout, w.cfg.Queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Warn("Email queue poll failed", map[string]any{"error": err.Error()})
			_ = w.timeProvider.Sleep(ctx, w.cfg.RetryDelay)
		}
		return false
	}
	if len(result) < 2 {
		return false
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.logger.Error("Discarding malformed email job", map[string]any{"error": err.Error()})
		return true
	}

	job.Tries++
	if err := w.sender.Send(ctx, job); err != nil {
		w.handleFailure(ctx, job, err)
		return true
	}

	w.logger.Info("Email sent", map[string]any{
		"to":      job.To,
		"kind":    job.Kind,
		"attempt": job.Tries,
	})
	return true
}

// handleFailure requeues or dead-letters a job whose send failed. The job is
// written back even when ctx is done so that shutdown never loses it.
func (w *Worker) handleFailure(ctx context.Context, job EmailJob, sendErr error) {
	fields := map[string]any{
		"to":      job.To,
		"attempt": job.Tries,
		"error":   sendErr.Error(),
	}

	if errors.Is(sendErr, context.Canceled) || errors.Is(sendErr, context.DeadlineExceeded) {
		// Interrupted sends do not use up an attempt
		job.Tries--
		w.logger.Info("Email send interrupted, requeueing", fields)
		w.requeue(ctx, job, fields)
		return
	}

	if job.Tries < w.cfg.MaxAttempts {
		w.logger.Warn("Email send failed, requeueing", fields)
		// Cut short on shutdown; the job is still pushed back
		_ = w.timeProvider.Sleep(ctx, w.cfg.RetryDelay)
		w.requeue(ctx, job, fields)
		return
	}

	w.logger.Error("Email failed after final attempt", fields)
	failed := FailedJob{Job: job, Error: sendErr.Error(), FailedAt: w.timeProvider.Now()}
	data, err := json.Marshal(failed)
	if err == nil {
		err = w.redis.LPush(context.WithoutCancel(ctx), failedQueue(w.cfg.Queue), string(data)).Err()
	}
	if err != nil {
		fields["dead_letter_error"] = err.Error()
		w.logger.Error("Failed to move email to dead-letter list", fields)
	}
}

func (w *Worker) requeue(ctx context.Context, job EmailJob, fields map[string]any) {
	data, err := json.Marshal(job)
	if err == nil {
		err = w.redis.LPush(context.WithoutCancel(ctx), w.cfg.Queue, string(data)).Err()
	}
	if err != nil {
		fields["requeue_error"] = err.Error()
		w.logger.Error("Failed to requeue email", fields)
	}
}

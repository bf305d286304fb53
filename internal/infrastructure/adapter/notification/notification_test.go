package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	timeadapter "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func rechargeNotification() coreport.Notification {
	return coreport.Notification{
		Kind:          coreport.NotificationWalletRecharge,
		UserID:        7,
		Email:         "player@example.com",
		TransactionID: 11,
		Amount:        "100.00",
		Balance:       "250.50",
		OccurredAt:    fixedNow,
	}
}

func TestRenderEmail(t *testing.T) {
	t.Run("Recharge", func(t *testing.T) {
		subject, body, err := renderEmail(rechargeNotification(), "Rs", "Gamestore")
		require.NoError(t, err)
		assert.Equal(t, "Wallet recharged - Rs 100.00", subject)
		assert.Contains(t, body, "New balance: Rs 250.50")
		assert.Contains(t, body, "Transaction: #11")
	})

	t.Run("Refund", func(t *testing.T) {
		n := rechargeNotification()
		n.Kind = coreport.NotificationWalletRefund
		subject, _, err := renderEmail(n, "Rs", "Gamestore")
		require.NoError(t, err)
		assert.Equal(t, "Refund received - Rs 100.00", subject)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		n := rechargeNotification()
		n.Kind = "wallet_payment"
		_, _, err := renderEmail(n, "Rs", "Gamestore")
		assert.Error(t, err)
	})
}

func TestQueueNotifierNotify(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tp := timeadapter.NewManualTimeProvider(fixedNow)
	notifier := NewQueueNotifier(db, "", "Rs", "Gamestore", tp, logger.NewNoopLogger())

	mock.Regexp().ExpectLPush("emails", `.*player@example\.com.*`).SetVal(1)

	err := notifier.Notify(context.Background(), rechargeNotification())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueNotifierFailures(t *testing.T) {
	tp := timeadapter.NewManualTimeProvider(fixedNow)

	t.Run("Missing recipient", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		notifier := NewQueueNotifier(db, "emails", "Rs", "Gamestore", tp, logger.NewNoopLogger())

		n := rechargeNotification()
		n.Email = ""
		err := notifier.Notify(context.Background(), n)
		assert.ErrorIs(t, err, errs.ErrNotificationFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Redis unavailable", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		notifier := NewQueueNotifier(db, "emails", "Rs", "Gamestore", tp, logger.NewNoopLogger())

		mock.Regexp().ExpectLPush("emails", `.*`).SetErr(errors.New("connection refused"))

		err := notifier.Notify(context.Background(), rechargeNotification())
		assert.ErrorIs(t, err, errs.ErrNotificationFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	notifier := NewQueueNotifier(db, "emails", "Rs", "Gamestore", timeadapter.NewManualTimeProvider(fixedNow), logger.NewNoopLogger())

	mock.ExpectLLen("emails").SetVal(4)

	n, err := notifier.QueueLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

type stubSender struct {
	err  error
	sent []EmailJob
}

func (s *stubSender) Send(_ context.Context, job EmailJob) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, job)
	return nil
}

func encodedJob(t *testing.T, tries int) string {
	t.Helper()
	data, err := json.Marshal(EmailJob{
		To:      "player@example.com",
		Subject: "Wallet recharged - Rs 100.00",
		Body:    "Hi",
		Kind:    "wallet_recharge",
		Tries:   tries,
		Created: fixedNow,
	})
	require.NoError(t, err)
	return string(data)
}

func newTestWorker(t *testing.T, sender Sender) (*Worker, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	w := NewWorker(db, sender, WorkerConfig{
		Queue:       "emails",
		MaxAttempts: 3,
		RetryDelay:  coreport.Second,
		PollTimeout: 2 * time.Second,
	}, timeadapter.NewManualTimeProvider(fixedNow), logger.NewNoopLogger())
	return w, mock
}

func TestWorkerSendsJob(t *testing.T) {
	sender := &stubSender{}
	w, mock := newTestWorker(t, sender)

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", encodedJob(t, 0)})

	assert.True(t, w.ProcessNext(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 1, sender.sent[0].Tries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerRequeuesFailedSend(t *testing.T) {
	w, mock := newTestWorker(t, &stubSender{err: errors.New("relay refused")})

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", encodedJob(t, 0)})
	mock.Regexp().ExpectLPush("emails", `.*"tries":1.*`).SetVal(1)

	assert.True(t, w.ProcessNext(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerInterruptedSendKeepsAttempt(t *testing.T) {
	w, mock := newTestWorker(t, &stubSender{err: context.Canceled})

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", encodedJob(t, 1)})
	mock.Regexp().ExpectLPush("emails", `.*"tries":1.*`).SetVal(1)

	assert.True(t, w.ProcessNext(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// cancellingSender fails the send and stops the worker, as a shutdown arriving
// mid-delivery would
type cancellingSender struct {
	cancel context.CancelFunc
}

func (s cancellingSender) Send(context.Context, EmailJob) error {
	s.cancel()
	return errors.New("relay refused")
}

func TestWorkerRunStopsDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, mock := redismock.NewClientMock()
	w := NewWorker(db, cancellingSender{cancel: cancel}, WorkerConfig{
		Queue:       "emails",
		MaxAttempts: 3,
		RetryDelay:  coreport.Hour,
		PollTimeout: 2 * time.Second,
	}, timeadapter.NewRealTimeProvider(), logger.NewNoopLogger())

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", encodedJob(t, 0)})
	mock.Regexp().ExpectLPush("emails", `.*"tries":1.*`).SetVal(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker kept waiting out the retry delay after cancellation")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerLogsRequeueFailure(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	db, mock := redismock.NewClientMock()
	w := NewWorker(db, &stubSender{err: errors.New("relay refused")}, WorkerConfig{
		Queue:       "emails",
		MaxAttempts: 3,
		RetryDelay:  coreport.Second,
		PollTimeout: 2 * time.Second,
	}, timeadapter.NewManualTimeProvider(fixedNow), logger.NewZapLoggerFromCore(observed, coreport.LogLevelDebug))

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", encodedJob(t, 0)})
	mock.Regexp().ExpectLPush("emails", `.*`).SetErr(errors.New("connection reset"))

	assert.True(t, w.ProcessNext(context.Background()))

	entries := logs.FilterMessage("Failed to requeue email").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "connection reset", fields["requeue_error"])
	assert.Equal(t, "relay refused", fields["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerDeadLettersAfterFinalAttempt(t *testing.T) {
	w, mock := newTestWorker(t, &stubSender{err: errors.New("relay refused")})

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", encodedJob(t, 2)})
	mock.Regexp().ExpectLPush("emails:failed", `.*relay refused.*`).SetVal(1)

	assert.True(t, w.ProcessNext(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerIdleAndMalformed(t *testing.T) {
	w, mock := newTestWorker(t, &stubSender{})

	mock.ExpectBRPop(2*time.Second, "emails").RedisNil()
	assert.False(t, w.ProcessNext(context.Background()))

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", "{oops"})
	assert.True(t, w.ProcessNext(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopNotifier(t *testing.T) {
	n := NewNoopNotifier(logger.NewNoopLogger())
	assert.NoError(t, n.Notify(context.Background(), rechargeNotification()))
}

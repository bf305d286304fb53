package wallet

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/cache"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/memory"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/notification"
	timeadapter "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	mockcore "github.com/amirhossein-jamali/gamestore-ledger/mocks/port/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser uint64 = 7

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type walletFixture struct {
	store   *memory.Store
	useCase *WalletUseCase
}

type fixtureDeps struct {
	cache    coreport.Cache
	notifier coreport.Notifier
	metrics  coreport.MetricsRecorder
}

func newWalletFixture(t *testing.T, deps fixtureDeps) *walletFixture {
	t.Helper()

	tp := timeadapter.NewManualTimeProvider(fixedNow)
	store := memory.NewStore(tp)
	log := logger.NewNoopLogger()

	if deps.cache == nil {
		deps.cache = cache.NewNoopCache()
	}
	if deps.notifier == nil {
		deps.notifier = notification.NewNoopNotifier(log)
	}
	if deps.metrics == nil {
		deps.metrics = metrics.NoopRecorder{}
	}

	uc := NewWalletUseCase(memory.NewUnitOfWork(store, log), deps.cache, deps.notifier, deps.metrics, tp, log, coreport.Minute)
	return &walletFixture{store: store, useCase: uc}
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *walletFixture) post(t *testing.T, paymentType entity.PaymentType, value, reference string) *entity.WalletTransaction {
	t.Helper()
	posted, err := f.useCase.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		UserID:      testUser,
		Amount:      amount(value),
		PaymentType: paymentType,
		Reference:   reference,
	})
	require.NoError(t, err)
	return posted
}

func (f *walletFixture) balance(t *testing.T) string {
	t.Helper()
	resp, err := f.useCase.GetBalance(context.Background(), testUser)
	require.NoError(t, err)
	return resp.Balance
}

func TestPostTransaction_RechargeThenPayments(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	assert.Equal(t, "0.00", f.balance(t))

	t1 := f.post(t, entity.PaymentRecharge, "500.00", "")
	assert.Equal(t, "500.00", entity.FormatAmount(t1.BalanceAfter))
	assert.Equal(t, entity.DirectionCredit, t1.Direction)
	assert.Equal(t, "500.00", f.balance(t))

	t2 := f.post(t, entity.PaymentPayment, "200.00", "")
	assert.Equal(t, entity.DirectionDebit, t2.Direction)
	assert.Greater(t, t2.ID, t1.ID)
	assert.Equal(t, "300.00", f.balance(t))

	_, err := f.useCase.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		UserID:      testUser,
		Amount:      amount("400.00"),
		PaymentType: entity.PaymentPayment,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)

	shortfall, ok := errs.ShortfallOf(err)
	require.True(t, ok)
	assert.Equal(t, "100.00", shortfall)
	assert.Contains(t, err.Error(), "need Rs 100.00 more")

	assert.Equal(t, "300.00", f.balance(t))
	assert.Equal(t, 2, f.store.TransactionCount())
}

func TestPostTransaction_CurrencyInShortfallMessage(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	f.useCase.WithCurrency("USD")

	_, err := f.useCase.Pay(context.Background(), testUser, amount("5"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need USD 5.00 more")
}

func TestPostTransaction_PayExactBalanceLeavesZero(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	f.post(t, entity.PaymentRecharge, "10.50", "")
	f.post(t, entity.PaymentPayment, "10.50", "")
	assert.Equal(t, "0.00", f.balance(t))
}

func TestPostTransaction_BalanceMatchesLedgerAfterRandomSequence(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	rng := rand.New(rand.NewPCG(11, 5))
	types := []entity.PaymentType{entity.PaymentRecharge, entity.PaymentRefund, entity.PaymentPayment}

	var accepted, rejected int
	for i := 0; i < 300; i++ {
		value := decimal.New(int64(rng.IntN(50000)+1), -2)
		_, err := f.useCase.PostTransaction(context.Background(), usecase.PostTransactionRequest{
			UserID:      testUser,
			Amount:      value,
			PaymentType: types[rng.IntN(len(types))],
		})
		if err != nil {
			require.ErrorIs(t, err, errs.ErrInsufficientFunds)
			rejected++
			continue
		}
		accepted++

		// The balance never goes negative
		assert.False(t, amount(f.balance(t)).IsNegative())
	}
	assert.Equal(t, accepted, f.store.TransactionCount())

	report, err := f.useCase.Reconcile(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.Drift().IsZero())
	assert.Equal(t, int64(accepted), report.EntryCount)
	assert.Equal(t, f.balance(t), entity.FormatAmount(report.Balance))
}

func TestPostTransaction_ConcurrentPaymentsNeverOverdraw(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	f.post(t, entity.PaymentRecharge, "100.00", "")

	const payers = 30
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		overdrawn int
	)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.useCase.Pay(context.Background(), testUser, amount("10.00"), "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errs.IsInsufficientFundsError(err):
				overdrawn++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, payers-10, overdrawn)
	assert.Equal(t, "0.00", f.balance(t))
}

func TestPostTransaction_ConcurrentRechargesAreNotLost(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})

	const rechargers = 50
	var wg sync.WaitGroup
	for i := 0; i < rechargers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.useCase.Recharge(context.Background(), testUser, "", amount("1.25"), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "62.50", f.balance(t))
	report, err := f.useCase.Reconcile(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestPostTransaction_ReferenceReplay(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})

	first, err := f.useCase.Recharge(context.Background(), testUser, "", amount("50"), "topup-1")
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	again, err := f.useCase.Recharge(context.Background(), testUser, "", amount("50.00"), "topup-1")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Transaction.ID, again.Transaction.ID)
	assert.Equal(t, 1, f.store.TransactionCount())
	assert.Equal(t, "50.00", f.balance(t))

	t.Run("different amount", func(t *testing.T) {
		_, err := f.useCase.Recharge(context.Background(), testUser, "", amount("60"), "topup-1")
		assert.ErrorIs(t, err, errs.ErrDuplicateReference)
		assert.True(t, errs.IsDuplicateReferenceError(err))
	})

	t.Run("different payment type", func(t *testing.T) {
		_, err := f.useCase.Pay(context.Background(), testUser, amount("50"), "topup-1")
		assert.ErrorIs(t, err, errs.ErrDuplicateReference)
	})

	assert.Equal(t, 1, f.store.TransactionCount())
}

func TestPostTransaction_Rejections(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})

	tests := []struct {
		name string
		req  usecase.PostTransactionRequest
		want error
	}{
		{
			name: "zero user",
			req:  usecase.PostTransactionRequest{Amount: amount("1"), PaymentType: entity.PaymentRecharge},
			want: errs.ErrInvalidUserID,
		},
		{
			name: "zero amount",
			req:  usecase.PostTransactionRequest{UserID: testUser, Amount: decimal.Zero, PaymentType: entity.PaymentRecharge},
			want: errs.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			req:  usecase.PostTransactionRequest{UserID: testUser, Amount: amount("-3"), PaymentType: entity.PaymentRecharge},
			want: errs.ErrInvalidAmount,
		},
		{
			name: "unknown payment type",
			req:  usecase.PostTransactionRequest{UserID: testUser, Amount: amount("1"), PaymentType: "gift"},
			want: errs.ErrInvalidPaymentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.useCase.PostTransaction(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.store.TransactionCount())
}

func TestRecharge_Notifications(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		notifier := mockcore.NewMockNotifier(t)
		f := newWalletFixture(t, fixtureDeps{notifier: notifier})

		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n coreport.Notification) bool {
			return n.Kind == coreport.NotificationWalletRecharge &&
				n.UserID == testUser &&
				n.Email == "player@example.com" &&
				n.Amount == "100.00" &&
				n.Balance == "100.00" &&
				n.Reference == "topup-9"
		})).Return(nil).Once()

		result, err := f.useCase.Recharge(context.Background(), testUser, "player@example.com", amount("100"), "topup-9")
		require.NoError(t, err)
		assert.True(t, result.Notified)
		assert.Empty(t, result.NotificationError)

		replay, err := f.useCase.Recharge(context.Background(), testUser, "player@example.com", amount("100"), "topup-9")
		require.NoError(t, err)
		assert.True(t, replay.Replayed)
		assert.False(t, replay.Notified)
	})

	t.Run("failure keeps the entry", func(t *testing.T) {
		notifier := mockcore.NewMockNotifier(t)
		recorder := (&mockcore.MockMetricsRecorder{}).AllowAll()
		f := newWalletFixture(t, fixtureDeps{notifier: notifier, metrics: recorder})

		notifier.On("Notify", mock.Anything, mock.Anything).Return(errs.ErrNotificationFailed).Once()

		result, err := f.useCase.Refund(context.Background(), testUser, "player@example.com", amount("20"), "order-3")
		require.NoError(t, err)
		assert.False(t, result.Notified)
		assert.Equal(t, errs.ErrNotificationFailed.Error(), result.NotificationError)
		assert.Equal(t, entity.PaymentRefund, result.Transaction.PaymentType)
		assert.Equal(t, "20.00", f.balance(t))
		recorder.AssertCalled(t, "RecordNotification", string(coreport.NotificationWalletRefund), "error")
	})

	t.Run("no email", func(t *testing.T) {
		notifier := mockcore.NewMockNotifier(t)
		f := newWalletFixture(t, fixtureDeps{notifier: notifier})

		result, err := f.useCase.Recharge(context.Background(), testUser, "", amount("5"), "")
		require.NoError(t, err)
		assert.False(t, result.Notified)
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("payments are not announced", func(t *testing.T) {
		notifier := mockcore.NewMockNotifier(t)
		f := newWalletFixture(t, fixtureDeps{notifier: notifier})
		f.post(t, entity.PaymentRecharge, "5", "")

		_, err := f.useCase.Pay(context.Background(), testUser, amount("5"), "")
		require.NoError(t, err)
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})
}

func TestGetBalance_Cache(t *testing.T) {
	t.Run("miss then write", func(t *testing.T) {
		mockCache := mockcore.NewMockCache(t)
		f := newWalletFixture(t, fixtureDeps{cache: mockCache})

		fence := coreport.CacheFence{Tags: []string{"wallet:user:7"}, Generations: []int64{2}}
		mockCache.On("Get", mock.Anything, "wallet:balance:7", mock.Anything).Return(errs.ErrCacheMiss).Once()
		mockCache.On("Fence", mock.Anything, []string{"wallet:user:7"}).Return(fence, nil).Once()
		mockCache.On("Set", mock.Anything, "wallet:balance:7", mock.Anything, coreport.Minute, fence).
			Return(nil).Once()

		resp, err := f.useCase.GetBalance(context.Background(), testUser)
		require.NoError(t, err)
		assert.Equal(t, "0.00", resp.Balance)
		assert.Equal(t, testUser, resp.UserID)
	})

	t.Run("hit", func(t *testing.T) {
		mockCache := mockcore.NewMockCache(t)
		f := newWalletFixture(t, fixtureDeps{cache: mockCache})

		mockCache.On("Get", mock.Anything, "wallet:balance:7", mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*usecase.BalanceResponse) = usecase.BalanceResponse{UserID: testUser, WalletID: 1, Balance: "42.00"}
			}).
			Return(nil).Once()

		resp, err := f.useCase.GetBalance(context.Background(), testUser)
		require.NoError(t, err)
		assert.Equal(t, "42.00", resp.Balance)
	})

	t.Run("cache errors fall back to storage", func(t *testing.T) {
		mockCache := mockcore.NewMockCache(t)
		f := newWalletFixture(t, fixtureDeps{cache: mockCache})
		redisDown := errors.New("redis down")

		mockCache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(redisDown)
		mockCache.On("Fence", mock.Anything, []string{"wallet:user:7"}).Return(nil, redisDown)
		mockCache.On("InvalidateTags", mock.Anything, []string{"wallet:user:7"}).Return(redisDown).Once()

		f.post(t, entity.PaymentRecharge, "12.00", "")
		assert.Equal(t, "12.00", f.balance(t))
	})

	t.Run("zero user", func(t *testing.T) {
		f := newWalletFixture(t, fixtureDeps{})
		_, err := f.useCase.GetBalance(context.Background(), 0)
		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
	})
}

func TestPostTransaction_InvalidatesWalletTag(t *testing.T) {
	mockCache := mockcore.NewMockCache(t)
	recorder := (&mockcore.MockMetricsRecorder{}).AllowAll()
	f := newWalletFixture(t, fixtureDeps{cache: mockCache, metrics: recorder})

	mockCache.On("InvalidateTags", mock.Anything, []string{"wallet:user:7"}).Return(nil).Once()

	f.post(t, entity.PaymentRecharge, "3.00", "")
	recorder.AssertCalled(t, "RecordWalletTransaction", "recharge", 3.0)
	recorder.AssertCalled(t, "RecordCacheInvalidation", "ok")
}

func TestListTransactions(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	f.useCase.WithPageSize(2, 3)

	for _, value := range []string{"1", "2", "3", "4", "5"} {
		f.post(t, entity.PaymentRecharge, value, "")
	}

	page, err := f.useCase.ListTransactions(context.Background(), testUser, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "5.00", entity.FormatAmount(page.Transactions[0].Amount))
	assert.Equal(t, "4.00", entity.FormatAmount(page.Transactions[1].Amount))

	page, err = f.useCase.ListTransactions(context.Background(), testUser, 50, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Limit)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "2.00", entity.FormatAmount(page.Transactions[0].Amount))

	page, err = f.useCase.ListTransactions(context.Background(), testUser, 3, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)

	empty, err := f.useCase.ListTransactions(context.Background(), 99, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Transactions)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	f := newWalletFixture(t, fixtureDeps{})
	f.post(t, entity.PaymentRecharge, "100", "")
	f.post(t, entity.PaymentPayment, "40", "")

	report, err := f.useCase.Reconcile(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, "100.00", entity.FormatAmount(report.Credits))
	assert.Equal(t, "40.00", entity.FormatAmount(report.Debits))

	// Overwrite the balance without a ledger entry
	resp, err := f.useCase.GetBalance(context.Background(), testUser)
	require.NoError(t, err)
	tampered := entity.RestoreWalletAccount(resp.WalletID, testUser, amount("999"), fixedNow, fixedNow)
	require.NoError(t, f.useCase.uow.GetWalletRepository(context.Background()).UpdateBalance(context.Background(), tampered))

	report, err = f.useCase.Reconcile(context.Background(), testUser)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, "939.00", entity.FormatAmount(report.Drift()))
}

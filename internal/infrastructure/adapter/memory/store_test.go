package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	timeadapter "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var post1 = entity.VoteTarget{Type: entity.TargetPost, ID: 1}

func newTestUnitOfWork() (*Store, *UnitOfWork) {
	store := NewStore(timeadapter.NewManualTimeProvider(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)))
	store.AddTarget(post1, entity.VoteCounters{})
	return store, NewUnitOfWork(store, logger.NewNoopLogger())
}

func TestUnitOfWork_RollbackRestoresState(t *testing.T) {
	store, uow := newTestUnitOfWork()
	ctx := context.Background()

	wallet, err := uow.GetWalletRepository(ctx).GetOrCreate(ctx, 5)
	require.NoError(t, err)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	wallets := uow.GetWalletRepository(txCtx)
	locked, err := wallets.GetOrCreateForUpdate(txCtx, 5)
	require.NoError(t, err)
	require.Equal(t, wallet.ID, locked.ID)

	restored := entity.RestoreWalletAccount(locked.ID, 5, decimal.RequireFromString("25"), locked.CreatedAt, locked.UpdatedAt)
	require.NoError(t, wallets.UpdateBalance(txCtx, restored))
	require.NoError(t, wallets.CreateTransaction(txCtx, &entity.WalletTransaction{
		WalletID:     locked.ID,
		UserID:       5,
		Amount:       decimal.RequireFromString("25"),
		PaymentType:  entity.PaymentRecharge,
		Direction:    entity.DirectionCredit,
		BalanceAfter: decimal.RequireFromString("25"),
	}))

	votes := uow.GetVoteRepository(txCtx)
	_, err = votes.LockVote(txCtx, 9, post1)
	require.NoError(t, err)
	require.NoError(t, votes.Create(txCtx, &entity.VoteRecord{VoterID: 9, Target: post1, Direction: entity.VoteUp}))
	require.NoError(t, uow.GetVotableRepository(txCtx).AdjustCounters(txCtx, post1, entity.CounterDelta{Up: 1}))

	require.NoError(t, uow.Rollback(txCtx))

	after, err := uow.GetWalletRepository(ctx).GetOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.True(t, after.Balance().IsZero())
	assert.Equal(t, 0, store.TransactionCount())
	assert.Equal(t, entity.VoteCounters{}, store.VoteCount(post1))

	counters, err := uow.GetVotableRepository(ctx).GetCounters(ctx, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteCounters{}, counters)

	// A second rollback is a no-op
	assert.NoError(t, uow.Rollback(txCtx))
}

func TestUnitOfWork_UncommittedWritesStayPrivate(t *testing.T) {
	store, uow := newTestUnitOfWork()
	ctx := context.Background()
	store.AddTarget(post1, entity.VoteCounters{Up: 3})

	wallet, err := uow.GetWalletRepository(ctx).GetOrCreate(ctx, 5)
	require.NoError(t, err)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	votes := uow.GetVoteRepository(txCtx)
	_, err = votes.LockVote(txCtx, 9, post1)
	require.NoError(t, err)
	require.NoError(t, votes.Create(txCtx, &entity.VoteRecord{VoterID: 9, Target: post1, Direction: entity.VoteDown}))
	require.NoError(t, uow.GetVotableRepository(txCtx).AdjustCounters(txCtx, post1, entity.CounterDelta{Down: 1}))

	wallets := uow.GetWalletRepository(txCtx)
	locked, err := wallets.GetOrCreateForUpdate(txCtx, 5)
	require.NoError(t, err)
	credited := entity.RestoreWalletAccount(locked.ID, 5, decimal.RequireFromString("40"), locked.CreatedAt, locked.UpdatedAt)
	require.NoError(t, wallets.UpdateBalance(txCtx, credited))
	require.NoError(t, wallets.CreateTransaction(txCtx, &entity.WalletTransaction{
		WalletID:     wallet.ID,
		UserID:       5,
		Amount:       decimal.RequireFromString("40"),
		PaymentType:  entity.PaymentRecharge,
		Direction:    entity.DirectionCredit,
		BalanceAfter: decimal.RequireFromString("40"),
		Reference:    "topup-1",
	}))

	// The writing transaction sees its own work
	counters, err := uow.GetVotableRepository(txCtx).GetCounters(txCtx, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteCounters{Up: 3, Down: 1}, counters)
	own, err := votes.GetVote(txCtx, 9, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteDown, own.Direction)

	// Everyone else sees the committed state only
	counters, err = uow.GetVotableRepository(ctx).GetCounters(ctx, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteCounters{Up: 3}, counters)
	_, err = uow.GetVoteRepository(ctx).GetVote(ctx, 9, post1)
	assert.ErrorIs(t, err, errs.ErrVoteNotFound)
	outside, err := uow.GetVoteRepository(ctx).CountByDirection(ctx, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteCounters{}, outside)

	balance, err := uow.GetWalletRepository(ctx).GetOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.True(t, balance.Balance().IsZero())
	_, err = uow.GetWalletRepository(ctx).FindTransactionByReference(ctx, wallet.ID, "topup-1")
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
	totals, err := uow.GetWalletRepository(ctx).SumByDirection(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), totals.Count)

	require.NoError(t, uow.Commit(txCtx))

	counters, err = uow.GetVotableRepository(ctx).GetCounters(ctx, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteCounters{Up: 3, Down: 1}, counters)
	balance, err = uow.GetWalletRepository(ctx).GetOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "40.00", balance.Balance().StringFixed(2))
	page, total, err := uow.GetWalletRepository(ctx).ListTransactions(ctx, wallet.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, entity.VoteCounters{Down: 1}, store.VoteCount(post1))
}

func TestUnitOfWork_DeletedVoteCountsUntilCommit(t *testing.T) {
	store, uow := newTestUnitOfWork()
	ctx := context.Background()

	record := &entity.VoteRecord{VoterID: 4, Target: post1, Direction: entity.VoteUp}
	require.NoError(t, uow.GetVoteRepository(ctx).Create(ctx, record))

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.GetVoteRepository(txCtx).Delete(txCtx, record))

	assert.Equal(t, entity.VoteCounters{Up: 1}, store.VoteCount(post1))
	inside, err := uow.GetVoteRepository(txCtx).CountByDirection(txCtx, post1)
	require.NoError(t, err)
	assert.Equal(t, entity.VoteCounters{}, inside)

	require.NoError(t, uow.Rollback(txCtx))
	assert.Equal(t, entity.VoteCounters{Up: 1}, store.VoteCount(post1))
}

func TestUnitOfWork_CommitTwice(t *testing.T) {
	_, uow := newTestUnitOfWork()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Commit(txCtx))
	assert.Error(t, uow.Commit(txCtx))
	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
}

func TestUnitOfWork_BeginWithCanceledContext(t *testing.T) {
	_, uow := newTestUnitOfWork()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uow.Begin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRowLock_SerializesTransactions(t *testing.T) {
	_, uow := newTestUnitOfWork()
	ctx := context.Background()

	first, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = uow.GetWalletRepository(first).GetOrCreateForUpdate(first, 5)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := uow.Begin(ctx)
		if err != nil {
			return
		}
		if _, err := uow.GetWalletRepository(second).GetOrCreateForUpdate(second, 5); err == nil {
			close(acquired)
		}
		_ = uow.Commit(second)
	}()

	select {
	case <-acquired:
		t.Fatal("second transaction acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, uow.Commit(first))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second transaction never acquired the released lock")
	}
}

func TestRowLock_WaitHonorsContext(t *testing.T) {
	_, uow := newTestUnitOfWork()

	holder, err := uow.Begin(context.Background())
	require.NoError(t, err)
	_, err = uow.GetVotableRepository(holder).LockCounters(holder, post1)
	require.NoError(t, err)
	defer func() { _ = uow.Commit(holder) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	waiter, err := uow.Begin(ctx)
	require.NoError(t, err)

	_, err = uow.GetVotableRepository(waiter).LockCounters(waiter, post1)
	require.Error(t, err)
	assert.True(t, errs.IsTransientStorageError(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	require.NoError(t, uow.Rollback(waiter))
}

func TestVotableRepository_CountersNeverNegative(t *testing.T) {
	_, uow := newTestUnitOfWork()
	ctx := context.Background()

	err := uow.GetVotableRepository(ctx).AdjustCounters(ctx, post1, entity.CounterDelta{Down: -1})
	assert.ErrorIs(t, err, errs.ErrConstraintViolation)

	_, err = uow.GetVotableRepository(ctx).GetCounters(ctx, entity.VoteTarget{Type: entity.TargetReview, ID: 3})
	assert.ErrorIs(t, err, errs.ErrTargetNotFound)
}

func TestWalletRepository_ReferenceUniquePerWallet(t *testing.T) {
	_, uow := newTestUnitOfWork()
	ctx := context.Background()
	wallets := uow.GetWalletRepository(ctx)

	a, err := wallets.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	b, err := wallets.GetOrCreate(ctx, 2)
	require.NoError(t, err)

	entry := func(walletID, userID uint64) *entity.WalletTransaction {
		return &entity.WalletTransaction{
			WalletID:     walletID,
			UserID:       userID,
			Amount:       decimal.RequireFromString("1"),
			PaymentType:  entity.PaymentRecharge,
			Direction:    entity.DirectionCredit,
			BalanceAfter: decimal.RequireFromString("1"),
			Reference:    "ref-1",
		}
	}

	require.NoError(t, wallets.CreateTransaction(ctx, entry(a.ID, 1)))
	require.NoError(t, wallets.CreateTransaction(ctx, entry(b.ID, 2)))
	assert.ErrorIs(t, wallets.CreateTransaction(ctx, entry(a.ID, 1)), errs.ErrDuplicateReference)

	found, err := wallets.FindTransactionByReference(ctx, b.ID, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), found.UserID)
}

package memory

import (
	"context"
	"errors"
	"fmt"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
)

type contextKey string

const txKey contextKey = "memory_tx"

// ErrNoTransaction is returned when Commit or Rollback is called outside a transaction
var ErrNoTransaction = errors.New("no transaction found in context")

// UnitOfWork implements persistence.UnitOfWork on top of a Store
type UnitOfWork struct {
	store  *Store
	logger coreport.Logger
}

// NewUnitOfWork creates a new in-memory UnitOfWork
func NewUnitOfWork(store *Store, logger coreport.Logger) *UnitOfWork {
	return &UnitOfWork{store: store, logger: logger}
}

// Begin starts a new transaction
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return ctx, fmt.Errorf("failed to begin transaction: %w", err)
	}
	t := &tx{store: u.store, held: make(map[string]chan struct{})}
	return context.WithValue(ctx, txKey, t), nil
}

// Commit makes the transaction's writes permanent and releases its locks
func (u *UnitOfWork) Commit(ctx context.Context) error {
	t := txFrom(ctx)
	if t == nil {
		return ErrNoTransaction
	}
	if t.done {
		return fmt.Errorf("transaction has already been committed or rolled back")
	}
	t.commit()
	return nil
}

// Rollback undoes the transaction's writes and releases its locks
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	t := txFrom(ctx)
	if t == nil {
		return ErrNoTransaction
	}
	if t.done {
		u.logger.Debug("Transaction has already been committed or rolled back", nil)
		return nil
	}
	t.rollback()
	return nil
}

// GetWalletRepository returns a wallet repository bound to the current transaction
func (u *UnitOfWork) GetWalletRepository(ctx context.Context) persistence.WalletRepository {
	return &WalletRepository{store: u.store, tx: txFrom(ctx)}
}

// GetVoteRepository returns a vote repository bound to the current transaction
func (u *UnitOfWork) GetVoteRepository(ctx context.Context) persistence.VoteRepository {
	return &VoteRepository{store: u.store, tx: txFrom(ctx)}
}

// GetVotableRepository returns a votable repository bound to the current transaction
func (u *UnitOfWork) GetVotableRepository(ctx context.Context) persistence.VotableRepository {
	return &VotableRepository{store: u.store, tx: txFrom(ctx)}
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey).(*tx)
	return t
}

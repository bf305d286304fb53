package persistence

import (
	"context"
	"fmt"
)

// UnitOfWork defines an interface for coordinating transaction operations
// across multiple repositories to maintain data consistency
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetWalletRepository returns a wallet repository bound to the current transaction
	GetWalletRepository(ctx context.Context) WalletRepository

	// GetVoteRepository returns a vote repository bound to the current transaction
	GetVoteRepository(ctx context.Context) VoteRepository

	// GetVotableRepository returns a votable repository bound to the current transaction
	GetVotableRepository(ctx context.Context) VotableRepository
}

// WithinTransaction runs fn inside a unit of work. The transaction is committed
// when fn returns nil and rolled back on error, panic or context cancellation.
func WithinTransaction(ctx context.Context, uow UnitOfWork, fn func(txCtx context.Context) error) (err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if done {
			return
		}
		if r := recover(); r != nil {
			_ = uow.Rollback(txCtx)
			panic(r)
		}
		if rbErr := uow.Rollback(txCtx); rbErr != nil && err != nil {
			err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
	}()

	if err = fn(txCtx); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	done = true
	return uow.Commit(txCtx)
}

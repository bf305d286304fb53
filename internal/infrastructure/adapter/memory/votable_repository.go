package memory

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
)

// VotableRepository implements persistence.VotableRepository in memory
type VotableRepository struct {
	store *Store
	tx    *tx
}

// GetCounters reads the target's counters as committed, or as written by this transaction
func (r *VotableRepository) GetCounters(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error) {
	if err := ctx.Err(); err != nil {
		return entity.VoteCounters{}, errs.NewStorageError("get counters", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, ok := s.targets[target]
	counters, ok = visible(s, r.tx, targetRowKey(target), counters, ok)
	if !ok {
		return entity.VoteCounters{}, errs.ErrTargetNotFound
	}
	return counters, nil
}

// LockCounters reads the target's counters under its row lock
func (r *VotableRepository) LockCounters(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error) {
	if err := r.tx.lock(ctx, targetLockKey(target)); err != nil {
		return entity.VoteCounters{}, errs.NewStorageError("lock target", err)
	}
	return r.GetCounters(ctx, target)
}

// AdjustCounters applies delta in place. Like an UPDATE, it holds the target
// row lock until the transaction ends.
func (r *VotableRepository) AdjustCounters(ctx context.Context, target entity.VoteTarget, delta entity.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}
	if err := r.tx.lock(ctx, targetLockKey(target)); err != nil {
		return errs.NewStorageError("lock target", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, ok := s.targets[target]
	if !ok {
		return errs.ErrTargetNotFound
	}

	next := counters.Apply(delta)
	if next.Up < 0 || next.Down < 0 {
		return errs.ErrConstraintViolation
	}

	s.rememberLocked(r.tx, targetRowKey(target), counters, true)
	s.targets[target] = next
	r.tx.onRollback(func() {
		current := s.targets[target]
		s.targets[target] = current.Apply(entity.CounterDelta{Up: -delta.Up, Down: -delta.Down})
	})
	return nil
}

// SetCounters overwrites the target's counters
func (r *VotableRepository) SetCounters(ctx context.Context, target entity.VoteTarget, counters entity.VoteCounters) error {
	if err := r.tx.lock(ctx, targetLockKey(target)); err != nil {
		return errs.NewStorageError("lock target", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.targets[target]
	if !ok {
		return errs.ErrTargetNotFound
	}

	s.rememberLocked(r.tx, targetRowKey(target), prev, true)
	s.targets[target] = counters
	r.tx.onRollback(func() { s.targets[target] = prev })
	return nil
}

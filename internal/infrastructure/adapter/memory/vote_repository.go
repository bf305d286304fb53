package memory

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
)

// VoteRepository implements persistence.VoteRepository in memory
type VoteRepository struct {
	store *Store
	tx    *tx
}

// LockVote takes the (voter, target) pair lock and returns the current vote
func (r *VoteRepository) LockVote(ctx context.Context, voterID uint64, target entity.VoteTarget) (*entity.VoteRecord, error) {
	if err := r.tx.lock(ctx, voteLockKey(voterID, target)); err != nil {
		return nil, errs.NewStorageError("lock vote", err)
	}

	record, err := r.GetVote(ctx, voterID, target)
	if err == errs.ErrVoteNotFound {
		return nil, nil
	}
	return record, err
}

// Create inserts a new vote record
func (r *VoteRepository) Create(ctx context.Context, record *entity.VoteRecord) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("insert vote", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{voterID: record.VoterID, target: record.Target}
	if _, exists := s.votes[key]; exists {
		return errs.ErrConstraintViolation
	}

	s.nextVoteID++
	record.ID = s.nextVoteID
	s.rememberLocked(r.tx, voteRowKey(key), entity.VoteRecord{}, false)
	s.votes[key] = *record
	r.tx.onRollback(func() { delete(s.votes, key) })
	return nil
}

// UpdateDirection writes the record's direction
func (r *VoteRepository) UpdateDirection(ctx context.Context, record *entity.VoteRecord) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("update vote", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{voterID: record.VoterID, target: record.Target}
	prev, ok := s.votes[key]
	if !ok {
		return errs.ErrVoteNotFound
	}

	updated := prev
	updated.Direction = record.Direction
	updated.UpdatedAt = record.UpdatedAt
	s.rememberLocked(r.tx, voteRowKey(key), prev, true)
	s.votes[key] = updated
	r.tx.onRollback(func() { s.votes[key] = prev })
	return nil
}

// Delete removes the record
func (r *VoteRepository) Delete(ctx context.Context, record *entity.VoteRecord) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("delete vote", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{voterID: record.VoterID, target: record.Target}
	prev, ok := s.votes[key]
	if !ok {
		return errs.ErrVoteNotFound
	}

	s.rememberLocked(r.tx, voteRowKey(key), prev, true)
	delete(s.votes, key)
	r.tx.onRollback(func() { s.votes[key] = prev })
	return nil
}

// GetVote returns the voter's current vote
func (r *VoteRepository) GetVote(ctx context.Context, voterID uint64, target entity.VoteTarget) (*entity.VoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageError("get vote", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{voterID: voterID, target: target}
	record, ok := s.votes[key]
	record, ok = visible(s, r.tx, voteRowKey(key), record, ok)
	if !ok {
		return nil, errs.ErrVoteNotFound
	}
	return &record, nil
}

// CountByDirection counts the target's records per direction
func (r *VoteRepository) CountByDirection(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error) {
	if err := ctx.Err(); err != nil {
		return entity.VoteCounters{}, errs.NewStorageError("count votes", err)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(r.tx, target), nil
}

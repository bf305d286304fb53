package persistence

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
)

// VoteRepository defines methods to interact with vote records
type VoteRepository interface {
	// LockVote serializes concurrent votes by the same voter on the same target
	// and returns the voter's current vote, or nil when there is none.
	// The lock covers the absent-row case and lasts until the transaction ends.
	// Must be called inside a unit of work.
	//
	// Possible errors:
	// - ErrTransientStorage: If the lock could not be acquired or the connection failed
	LockVote(ctx context.Context, voterID uint64, target entity.VoteTarget) (*entity.VoteRecord, error)

	// Create inserts a new vote record and sets its ID
	//
	// Possible errors:
	// - ErrConstraintViolation: If the voter already voted on the target
	// - ErrTransientStorage: If the connection failed
	Create(ctx context.Context, record *entity.VoteRecord) error

	// UpdateDirection writes the record's direction
	//
	// Possible errors:
	// - ErrVoteNotFound: If the record doesn't exist
	// - ErrTransientStorage: If the connection failed
	UpdateDirection(ctx context.Context, record *entity.VoteRecord) error

	// Delete removes the record
	//
	// Possible errors:
	// - ErrVoteNotFound: If the record doesn't exist
	// - ErrTransientStorage: If the connection failed
	Delete(ctx context.Context, record *entity.VoteRecord) error

	// GetVote returns the voter's current vote without locking
	//
	// Possible errors:
	// - ErrVoteNotFound: If the voter has not voted on the target
	// - ErrTransientStorage: If the connection failed
	GetVote(ctx context.Context, voterID uint64, target entity.VoteTarget) (*entity.VoteRecord, error)

	// CountByDirection counts the target's records per direction
	//
	// Possible errors:
	// - ErrTransientStorage: If the connection failed
	CountByDirection(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error)
}

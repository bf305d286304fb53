package persistence

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
)

// VotableRepository defines methods to interact with the counters stored on votable entities
type VotableRepository interface {
	// GetCounters reads the target's current counters
	//
	// Possible errors:
	// - ErrTargetNotFound: If the target doesn't exist
	// - ErrTransientStorage: If the connection failed
	GetCounters(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error)

	// LockCounters reads the target's counters and holds its row lock
	// until the transaction ends
	//
	// Possible errors:
	// - ErrTargetNotFound: If the target doesn't exist
	// - ErrTransientStorage: If the connection failed
	LockCounters(ctx context.Context, target entity.VoteTarget) (entity.VoteCounters, error)

	// AdjustCounters applies delta as one atomic in-place increment.
	// Only non-zero components are written.
	//
	// Possible errors:
	// - ErrTargetNotFound: If the target doesn't exist
	// - ErrConstraintViolation: If a counter would become negative
	// - ErrTransientStorage: If the connection failed
	AdjustCounters(ctx context.Context, target entity.VoteTarget, delta entity.CounterDelta) error

	// SetCounters overwrites the target's counters
	//
	// Possible errors:
	// - ErrTargetNotFound: If the target doesn't exist
	// - ErrTransientStorage: If the connection failed
	SetCounters(ctx context.Context, target entity.VoteTarget, counters entity.VoteCounters) error
}

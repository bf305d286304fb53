package usecase

import (
	"context"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
)

// VoteResult is returned after a vote request is applied
type VoteResult struct {
	Target   entity.VoteTarget
	Counters entity.VoteCounters   // Re-read from storage after commit
	Action   entity.VoteAction     // Record mutation performed
	UserVote *entity.VoteDirection // Voter's direction after the request, nil when none
}

// VoteState describes a target's counters and the viewer's vote on it
type VoteState struct {
	Target   entity.VoteTarget
	Counters entity.VoteCounters
	UserVote *entity.VoteDirection
}

// RecountResult reports a counter repair
type RecountResult struct {
	Target entity.VoteTarget
	Before entity.VoteCounters
	After  entity.VoteCounters
}

// Changed reports whether the stored counters had drifted from the ledger
func (r RecountResult) Changed() bool {
	return r.Before != r.After
}

// VoteUseCase defines methods for vote-related business operations
type VoteUseCase interface {
	// ApplyVote toggles, switches or retracts the voter's vote on target and
	// returns the target's counters. A request with neither flag set is a no-op.
	ApplyVote(ctx context.Context, voterID uint64, target entity.VoteTarget, req entity.VoteRequest) (*VoteResult, error)

	// GetVoteState returns the target's counters and the voter's own vote.
	// voterID 0 means an anonymous viewer.
	GetVoteState(ctx context.Context, voterID uint64, target entity.VoteTarget) (*VoteState, error)

	// RecountCounters recomputes the target's counters from its vote records
	RecountCounters(ctx context.Context, target entity.VoteTarget) (*RecountResult, error)
}

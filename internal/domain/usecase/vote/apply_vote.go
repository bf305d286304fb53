package vote

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
)

// ApplyVote creates, flips or retracts the voter's vote on target and adjusts
// the target's counters in the same transaction. The returned counters are
// read back from storage after commit.
func (u *VoteUseCase) ApplyVote(
	ctx context.Context,
	voterID uint64,
	target entity.VoteTarget,
	req entity.VoteRequest,
) (*usecase.VoteResult, error) {
	if voterID == 0 {
		return nil, errs.ErrInvalidUserID
	}
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	direction, requested, err := req.Direction()
	if err != nil {
		u.metrics.RecordVoteFailure(string(target.Type), "validation")
		return nil, errs.NewValidationError("", "", err)
	}

	if !requested {
		return u.currentState(ctx, voterID, target)
	}

	var (
		action entity.VoteAction
		delta  entity.CounterDelta
	)

	err = persistence.WithinTransaction(ctx, u.uow, func(txCtx context.Context) error {
		votables := u.uow.GetVotableRepository(txCtx)
		if _, err := votables.GetCounters(txCtx, target); err != nil {
			return err
		}

		votes := u.uow.GetVoteRepository(txCtx)
		existing, err := votes.LockVote(txCtx, voterID, target)
		if err != nil {
			return err
		}

		var existingDirection *entity.VoteDirection
		if existing != nil {
			d := existing.Direction
			existingDirection = &d
		}
		action, delta = entity.ResolveVote(existingDirection, direction)

		now := u.timeProvider.Now()
		switch action {
		case entity.VoteActionCreate:
			err = votes.Create(txCtx, &entity.VoteRecord{
				VoterID:   voterID,
				Target:    target,
				Direction: direction,
				CreatedAt: now,
				UpdatedAt: now,
			})
		case entity.VoteActionFlip:
			existing.Direction = direction
			existing.UpdatedAt = now
			err = votes.UpdateDirection(txCtx, existing)
		case entity.VoteActionDelete:
			err = votes.Delete(txCtx, existing)
		}
		if err != nil {
			return err
		}

		return votables.AdjustCounters(txCtx, target, delta)
	})
	if err != nil {
		u.metrics.RecordVoteFailure(string(target.Type), failureReason(err))
		u.logger.Error("Failed to apply vote", map[string]any{
			"voter_id":   voterID,
			"target":     target.Tag(),
			"direction":  string(direction),
			"error":      err.Error(),
			"error_code": errs.ErrorCode(err),
		})
		return nil, errs.NewVoteError(voterID, string(target.Type), target.ID, "apply vote", err)
	}

	u.invalidate(ctx, target)
	u.metrics.RecordVote(string(target.Type), action.String())

	counters, err := u.uow.GetVotableRepository(ctx).GetCounters(ctx, target)
	if err != nil {
		u.logger.Error("Failed to re-read vote counters", map[string]any{
			"target": target.Tag(),
			"error":  err.Error(),
		})
		// The vote is committed; a retry must not apply it again
		return nil, errs.NewVoteError(voterID, string(target.Type), target.ID, "read counters",
			fmt.Errorf("%w: %v", errs.ErrInternalServer, err))
	}

	u.logger.Info("Vote applied", map[string]any{
		"voter_id":   voterID,
		"target":     target.Tag(),
		"action":     action.String(),
		"delta_up":   delta.Up,
		"delta_down": delta.Down,
		"upvotes":    counters.Up,
		"downvotes":  counters.Down,
	})

	result := &usecase.VoteResult{
		Target:   target,
		Counters: counters,
		Action:   action,
	}
	if action != entity.VoteActionDelete {
		result.UserVote = &direction
	}
	return result, nil
}

// currentState answers a request with neither direction set
func (u *VoteUseCase) currentState(ctx context.Context, voterID uint64, target entity.VoteTarget) (*usecase.VoteResult, error) {
	state, err := u.readState(ctx, voterID, target, false)
	if err != nil {
		u.metrics.RecordVoteFailure(string(target.Type), failureReason(err))
		return nil, err
	}
	u.metrics.RecordVote(string(target.Type), entity.VoteActionNone.String())
	return &usecase.VoteResult{
		Target:   target,
		Counters: state.Counters,
		Action:   entity.VoteActionNone,
		UserVote: state.UserVote,
	}, nil
}

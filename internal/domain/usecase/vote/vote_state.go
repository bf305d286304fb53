package vote

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/usecase"
)

// GetVoteState returns the target's counters, served from cache when possible,
// and the viewer's own vote
func (u *VoteUseCase) GetVoteState(ctx context.Context, voterID uint64, target entity.VoteTarget) (*usecase.VoteState, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	return u.readState(ctx, voterID, target, true)
}

func (u *VoteUseCase) readState(ctx context.Context, voterID uint64, target entity.VoteTarget, useCache bool) (*usecase.VoteState, error) {
	counters, err := u.counters(ctx, target, useCache)
	if err != nil {
		return nil, err
	}

	state := &usecase.VoteState{Target: target, Counters: counters}
	if voterID == 0 {
		return state, nil
	}

	record, err := u.uow.GetVoteRepository(ctx).GetVote(ctx, voterID, target)
	switch {
	case err == nil:
		direction := record.Direction
		state.UserVote = &direction
	case errors.Is(err, errs.ErrVoteNotFound):
	default:
		return nil, err
	}
	return state, nil
}

func (u *VoteUseCase) counters(ctx context.Context, target entity.VoteTarget, useCache bool) (entity.VoteCounters, error) {
	key := countersCacheKey(target)

	var fence coreport.CacheFence
	if useCache {
		var cached entity.VoteCounters
		err := u.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, errs.ErrCacheMiss) {
			u.logger.Warn("Vote cache read failed", map[string]any{"key": key, "error": err.Error()})
		}

		// A fence taken before the storage read keeps a concurrent vote's
		// invalidation from being overwritten with these counters
		if fence, err = u.cache.Fence(ctx, target.Tag()); err != nil {
			u.logger.Warn("Vote cache fence failed", map[string]any{"key": key, "error": err.Error()})
			useCache = false
		}
	}

	counters, err := u.uow.GetVotableRepository(ctx).GetCounters(ctx, target)
	if err != nil {
		return entity.VoteCounters{}, err
	}

	if useCache {
		if err := u.cache.Set(ctx, key, counters, u.cacheTTL, fence); err != nil {
			u.logger.Warn("Vote cache write failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
	return counters, nil
}

// RecountCounters rebuilds the target's counters from its vote records under
// the target's row lock
func (u *VoteUseCase) RecountCounters(ctx context.Context, target entity.VoteTarget) (*usecase.RecountResult, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	result := &usecase.RecountResult{Target: target}
	err := persistence.WithinTransaction(ctx, u.uow, func(txCtx context.Context) error {
		votables := u.uow.GetVotableRepository(txCtx)
		before, err := votables.LockCounters(txCtx, target)
		if err != nil {
			return err
		}

		after, err := u.uow.GetVoteRepository(txCtx).CountByDirection(txCtx, target)
		if err != nil {
			return err
		}

		result.Before, result.After = before, after
		if before == after {
			return nil
		}
		return votables.SetCounters(txCtx, target, after)
	})
	if err != nil {
		u.logger.Error("Failed to recount vote counters", map[string]any{
			"target": target.Tag(),
			"error":  err.Error(),
		})
		return nil, err
	}

	if result.Changed() {
		u.invalidate(ctx, target)
		u.logger.Warn("Vote counters drifted from ledger and were repaired", map[string]any{
			"target":      target.Tag(),
			"before_up":   result.Before.Up,
			"before_down": result.Before.Down,
			"after_up":    result.After.Up,
			"after_down":  result.After.Down,
		})
	}
	return result, nil
}

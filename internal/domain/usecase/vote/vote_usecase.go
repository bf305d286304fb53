package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
)

// VoteUseCase handles vote-related business logic
type VoteUseCase struct {
	uow          persistence.UnitOfWork
	cache        coreport.Cache
	metrics      coreport.MetricsRecorder
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	cacheTTL     coreport.Duration
}

// NewVoteUseCase creates a new VoteUseCase
func NewVoteUseCase(
	uow persistence.UnitOfWork,
	cache coreport.Cache,
	metrics coreport.MetricsRecorder,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	cacheTTL coreport.Duration,
) *VoteUseCase {
	return &VoteUseCase{
		uow:          uow,
		cache:        cache,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
		cacheTTL:     cacheTTL,
	}
}

// countersCacheKey is the read-through cache key for a target's counters
func countersCacheKey(target entity.VoteTarget) string {
	return fmt.Sprintf("votes:counters:%s", target.Tag())
}

// validateTarget checks the voter and target before any storage access
func validateTarget(target entity.VoteTarget) error {
	if !target.Type.IsValid() {
		return fmt.Errorf("%w: %s", errs.ErrInvalidTargetType, target.Type)
	}
	if target.ID == 0 {
		return errs.ErrInvalidTargetID
	}
	return nil
}

// invalidate drops cached state derived from target. Failures are logged only.
func (u *VoteUseCase) invalidate(ctx context.Context, target entity.VoteTarget) {
	if err := u.cache.InvalidateTags(ctx, target.Tag()); err != nil {
		u.metrics.RecordCacheInvalidation("error")
		u.logger.Warn("Failed to invalidate vote cache", map[string]any{
			"tag":   target.Tag(),
			"error": err.Error(),
		})
		return
	}
	u.metrics.RecordCacheInvalidation("ok")
}

// failureReason maps an error to a low-cardinality metrics label
func failureReason(err error) string {
	switch {
	case errs.IsValidationError(err):
		return "validation"
	case errs.IsNotFoundError(err):
		return "not_found"
	case errs.IsTransientStorageError(err):
		return "transient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

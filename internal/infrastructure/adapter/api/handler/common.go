package handler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/retry"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Options configures how handlers run use case calls
type Options struct {
	Retry          retry.Config
	RequestTimeout time.Duration
	Currency       string
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Retry:          retry.DefaultConfig(),
		RequestTimeout: 10 * time.Second,
		Currency:       "Rs",
	}
}

// run executes op under the request deadline, retrying transient storage
// failures. op must be one complete use case call.
func (o Options) run(c *gin.Context, logger coreport.Logger, op func(ctx context.Context) error) error {
	ctx := c.Request.Context()
	if o.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.RequestTimeout)
		defer cancel()
	}
	return retry.Do(ctx, o.Retry, op, logger)
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string, invalid error) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewValidationError(name, raw, invalid)
	}
	return id, nil
}

// parseTarget reads the :targetType/:targetId path parameters
func parseTarget(c *gin.Context) (entity.VoteTarget, error) {
	id, err := parseID(c, "targetId", errs.ErrInvalidTargetID)
	if err != nil {
		return entity.VoteTarget{}, err
	}
	target, err := entity.NewVoteTarget(c.Param("targetType"), id)
	if err != nil {
		return entity.VoteTarget{}, errs.NewValidationError("targetType", c.Param("targetType"), err)
	}
	return target, nil
}

// parseAmount reads a positive decimal amount field
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := entity.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, errs.NewValidationError("amount", raw, err)
	}
	return amount, nil
}

// bindError wraps a request binding failure
func bindError(err error) error {
	return errs.NewValidationError("", "", fmt.Errorf("%w: %v", errs.ErrInvalidRequest, err))
}

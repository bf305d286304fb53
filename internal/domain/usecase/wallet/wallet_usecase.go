package wallet

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
)

// Page size limits for ListTransactions
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// WalletUseCase handles wallet-related business logic
type WalletUseCase struct {
	uow          persistence.UnitOfWork
	cache        coreport.Cache
	notifier     coreport.Notifier
	metrics      coreport.MetricsRecorder
	timeProvider coreport.TimeProvider
	logger       coreport.Logger

	cacheTTL        coreport.Duration
	currency        string
	defaultPageSize int
	maxPageSize     int
}

// NewWalletUseCase creates a new WalletUseCase
func NewWalletUseCase(
	uow persistence.UnitOfWork,
	cache coreport.Cache,
	notifier coreport.Notifier,
	metrics coreport.MetricsRecorder,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	cacheTTL coreport.Duration,
) *WalletUseCase {
	return &WalletUseCase{
		uow:             uow,
		cache:           cache,
		notifier:        notifier,
		metrics:         metrics,
		timeProvider:    timeProvider,
		logger:          logger,
		cacheTTL:        cacheTTL,
		currency:        "Rs",
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
}

// WithPageSize overrides the default and maximum ListTransactions page sizes
func (u *WalletUseCase) WithPageSize(defaultSize, maxSize int) *WalletUseCase {
	if defaultSize > 0 {
		u.defaultPageSize = defaultSize
	}
	if maxSize >= u.defaultPageSize {
		u.maxPageSize = maxSize
	}
	return u
}

// WithCurrency sets the symbol used in insufficient funds messages
func (u *WalletUseCase) WithCurrency(symbol string) *WalletUseCase {
	if symbol != "" {
		u.currency = symbol
	}
	return u
}

// WalletTag is the cache tag for everything derived from a user's wallet
func WalletTag(userID uint64) string {
	return fmt.Sprintf("wallet:user:%d", userID)
}

func balanceCacheKey(userID uint64) string {
	return fmt.Sprintf("wallet:balance:%d", userID)
}

// invalidate drops cached state derived from the user's wallet. Failures are logged only.
func (u *WalletUseCase) invalidate(ctx context.Context, userID uint64) {
	if err := u.cache.InvalidateTags(ctx, WalletTag(userID)); err != nil {
		u.metrics.RecordCacheInvalidation("error")
		u.logger.Warn("Failed to invalidate wallet cache", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	u.metrics.RecordCacheInvalidation("ok")
}

// rejectionReason maps an error to a low-cardinality metrics label
func rejectionReason(err error) string {
	switch {
	case errs.IsInsufficientFundsError(err):
		return "insufficient_funds"
	case errs.IsDuplicateReferenceError(err):
		return "duplicate_reference"
	case errs.IsValidationError(err):
		return "validation"
	case errs.IsTransientStorageError(err):
		return "transient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

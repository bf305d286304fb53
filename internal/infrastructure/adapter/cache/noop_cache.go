package cache

import (
	"context"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
)

// NoopCache always misses. Used when caching is disabled.
type NoopCache struct{}

// NewNoopCache creates a cache that stores nothing
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

// Get always reports a miss
func (NoopCache) Get(context.Context, string, any) error { return errs.ErrCacheMiss }

// Fence returns generation zero for every tag
func (NoopCache) Fence(_ context.Context, tags ...string) (coreport.CacheFence, error) {
	return coreport.CacheFence{Tags: tags, Generations: make([]int64, len(tags))}, nil
}

// Set discards the value
func (NoopCache) Set(context.Context, string, any, coreport.Duration, coreport.CacheFence) error {
	return nil
}

// InvalidateTags has nothing to drop
func (NoopCache) InvalidateTags(context.Context, ...string) error { return nil }

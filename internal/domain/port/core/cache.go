package core

import "context"

// CacheFence is the generation of each tag as seen by a reader before it
// loads a value from storage
type CacheFence struct {
	Tags        []string
	Generations []int64
}

// Cache is a read-through cache whose entries can be invalidated by tag.
// Implementations must treat a missing key as errs.ErrCacheMiss.
type Cache interface {
	// Get decodes the cached value for key into dest
	Get(ctx context.Context, key string, dest any) error
	// Fence reads the current generation of each tag. Take it before the
	// storage read whose result is passed to Set.
	Fence(ctx context.Context, tags ...string) (CacheFence, error)
	// Set stores value under key and registers the key under the fence's tags.
	// Nothing is stored if any of those tags was invalidated after the fence
	// was taken.
	Set(ctx context.Context, key string, value any, ttl Duration, fence CacheFence) error
	// InvalidateTags drops every key registered under the given tags and
	// advances their generations
	InvalidateTags(ctx context.Context, tags ...string) error
}

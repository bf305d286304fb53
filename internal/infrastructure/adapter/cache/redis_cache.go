package cache

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/set_fenced.lua
var luaSetFenced string

var setFenced = redis.NewScript(luaSetFenced)

// generationTTL bounds how long an untouched tag generation is kept. It only
// has to outlive the longest read between Fence and Set.
const generationTTL = 24 * time.Hour

// RedisCache is a JSON read-through cache. Each tag is a Redis set holding the
// keys registered under it, so invalidation only touches the tagged keys, plus
// a generation counter that invalidation advances. Set compares generations
// and writes in one script, so a value read before an invalidation is never
// stored after it.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	logger coreport.Logger
}

// NewRedisCache creates a cache whose keys are namespaced by prefix
func NewRedisCache(client redis.Cmdable, prefix string, logger coreport.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (c *RedisCache) generationKey(tag string) string {
	return c.prefix + "gen:" + tag
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

func (c *RedisCache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}

// Get decodes the cached value for key into dest
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return errs.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		_ = c.client.Del(ctx, c.key(key)).Err()
		return errs.ErrCacheMiss
	}
	return nil
}

// Fence reads the generation of each tag. A tag never invalidated is at zero.
func (c *RedisCache) Fence(ctx context.Context, tags ...string) (coreport.CacheFence, error) {
	fence := coreport.CacheFence{Tags: tags, Generations: make([]int64, len(tags))}
	if len(tags) == 0 {
		return fence, nil
	}

	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = c.generationKey(tag)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fence, fmt.Errorf("cache fence: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		generation, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fence, fmt.Errorf("cache fence %s: %w", tags[i], err)
		}
		fence.Generations[i] = generation
	}
	return fence, nil
}

// Set stores value under key for ttl and registers it under the fence's tags,
// unless a tag has moved past its fenced generation
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl coreport.Duration, fence coreport.CacheFence) error {
	if len(fence.Tags) != len(fence.Generations) {
		return fmt.Errorf("cache set %s: fence has %d tags and %d generations", key, len(fence.Tags), len(fence.Generations))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	keys, args := c.setFencedArgs(key, string(data), ttl, fence)
	stored, err := setFenced.Run(ctx, c.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	if stored == 0 {
		c.logger.Debug("Skipped cache write behind an invalidation", map[string]any{
			"key":  key,
			"tags": fence.Tags,
		})
	}
	return nil
}

func (c *RedisCache) setFencedArgs(key, data string, ttl coreport.Duration, fence coreport.CacheFence) ([]string, []any) {
	keys := make([]string, 0, 1+2*len(fence.Tags))
	keys = append(keys, c.key(key))
	for _, tag := range fence.Tags {
		keys = append(keys, c.tagKey(tag))
	}
	for _, tag := range fence.Tags {
		keys = append(keys, c.generationKey(tag))
	}

	args := make([]any, 0, 2+len(fence.Generations))
	args = append(args, data, ttl.Std().Milliseconds())
	for _, generation := range fence.Generations {
		args = append(args, strconv.FormatInt(generation, 10))
	}
	return keys, args
}

// InvalidateTags advances each tag's generation, then deletes every key
// registered under it and the tag set itself
func (c *RedisCache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		generationKey := c.generationKey(tag)
		if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
			return fmt.Errorf("cache generation %s: %w", tag, err)
		}
		if err := c.client.Expire(ctx, generationKey, generationTTL).Err(); err != nil {
			return fmt.Errorf("cache generation expiry %s: %w", tag, err)
		}

		tagKey := c.tagKey(tag)
		members, err := c.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			return fmt.Errorf("cache tag members %s: %w", tag, err)
		}

		keys := append(members, tagKey)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache invalidate %s: %w", tag, err)
		}

		c.logger.Debug("Cache tag invalidated", map[string]any{
			"tag":  tag,
			"keys": len(members),
		})
	}
	return nil
}

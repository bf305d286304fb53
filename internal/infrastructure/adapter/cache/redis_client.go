package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSettings holds connection settings for the Redis client
type RedisSettings struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ClientName   string
}

// NewRedisClient opens a pooled Redis client and verifies it with PING
func NewRedisClient(ctx context.Context, settings RedisSettings) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:            fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Password:        settings.Password,
		DB:              settings.DB,
		DialTimeout:     settings.DialTimeout,
		ReadTimeout:     settings.ReadTimeout,
		WriteTimeout:    settings.WriteTimeout,
		PoolSize:        settings.PoolSize,
		MinIdleConns:    settings.MinIdleConns,
		ConnMaxIdleTime: 90 * time.Second,
		MaxRetries:      1,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 200 * time.Millisecond,
	}
	if settings.ClientName != "" {
		name := settings.ClientName
		opts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
			_ = cn.ClientSetName(ctx, name).Err()
			return nil
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

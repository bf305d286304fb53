package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*client
	rate         rate.Limit
	burst        int
	ttl          time.Duration
	lastPrune    time.Time
	timeProvider coreport.TimeProvider
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per client with bursts of
// burst. Clients idle for longer than ttl are forgotten.
func NewRateLimiter(rps float64, burst int, ttl time.Duration, timeProvider coreport.TimeProvider) *RateLimiter {
	return &RateLimiter{
		clients:      make(map[string]*client),
		rate:         rate.Limit(rps),
		burst:        burst,
		ttl:          ttl,
		lastPrune:    timeProvider.Now(),
		timeProvider: timeProvider,
	}
}

// Allow spends one token of key's bucket
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.timeProvider.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastPrune) > rl.ttl {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.ttl {
				delete(rl.clients, k)
			}
		}
		rl.lastPrune = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Clients returns how many buckets are tracked
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimit rejects clients that exceed the limiter. Signed-in users are
// keyed by user ID, everyone else by client IP.
func RateLimit(limiter *RateLimiter, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, ok := UserID(c); ok {
			key = "user:" + strconv.FormatUint(userID, 10)
		}
		if !limiter.Allow(key) {
			c.Header("Retry-After", "1")
			AbortWithError(c, logger, fmt.Errorf("%w: %s", errs.ErrRateLimited, key))
			return
		}
		c.Next()
	}
}

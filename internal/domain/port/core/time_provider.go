package core

import (
	"context"
	"time"
)

// Duration is the domain's time span. Config and TTL values are carried in it
// so that ports do not depend on a particular clock.
type Duration time.Duration

const (
	Millisecond Duration = Duration(time.Millisecond)
	Second               = Duration(time.Second)
	Minute               = Duration(time.Minute)
	Hour                 = Duration(time.Hour)
)

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TimeProvider is the clock used for ledger timestamps, request latency,
// worker back-off and operation deadlines. Now must return UTC.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) Duration
	// Sleep waits for d or until ctx is done, returning ctx.Err() in the
	// latter case
	Sleep(ctx context.Context, d Duration) error
	WithTimeout(ctx context.Context, timeout Duration) (context.Context, context.CancelFunc)
}

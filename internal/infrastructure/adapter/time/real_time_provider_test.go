package time

import (
	"context"
	"testing"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTimeProvider(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := NewManualTimeProvider(start)

	assert.Equal(t, start, clock.Now())

	require.NoError(t, clock.Sleep(context.Background(), core.Second*3))
	assert.Equal(t, start.Add(3*time.Second), clock.Now())
	assert.Equal(t, core.Duration(3*time.Second), clock.Since(start))

	clock.Advance(250 * time.Millisecond)
	assert.Equal(t, core.Second*3+core.Millisecond*250, clock.Since(start))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, clock.Sleep(cancelled, core.Hour), context.Canceled)
	assert.Equal(t, core.Second*3+core.Millisecond*250, clock.Since(start))
}

func TestRealTimeProvider(t *testing.T) {
	p := NewRealTimeProvider()

	assert.Equal(t, time.UTC, p.Now().Location())

	ctx, cancel := p.WithTimeout(context.Background(), core.Millisecond)
	defer cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	assert.GreaterOrEqual(t, p.Since(p.Now().Add(-time.Second)), core.Second)

	assert.NoError(t, p.Sleep(context.Background(), core.Millisecond))
}

func TestRealTimeProvider_SleepEndsWithContext(t *testing.T) {
	p := NewRealTimeProvider()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	err := p.Sleep(ctx, core.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

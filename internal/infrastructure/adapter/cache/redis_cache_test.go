package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())
	ctx := context.Background()

	t.Run("Hit decodes value", func(t *testing.T) {
		mock.ExpectGet("gsl:votes:counters:post:42").SetVal(`{"upvoteCount":3,"downvoteCount":1}`)

		var counters entity.VoteCounters
		require.NoError(t, c.Get(ctx, "votes:counters:post:42", &counters))
		assert.Equal(t, entity.VoteCounters{Up: 3, Down: 1}, counters)
	})

	t.Run("Missing key is a cache miss", func(t *testing.T) {
		mock.ExpectGet("gsl:wallet:balance:7").RedisNil()

		var out map[string]any
		err := c.Get(ctx, "wallet:balance:7", &out)
		assert.ErrorIs(t, err, errs.ErrCacheMiss)
	})

	t.Run("Undecodable entry is dropped", func(t *testing.T) {
		mock.ExpectGet("gsl:broken").SetVal("{not json")
		mock.ExpectDel("gsl:broken").SetVal(1)

		var out entity.VoteCounters
		err := c.Get(ctx, "broken", &out)
		assert.ErrorIs(t, err, errs.ErrCacheMiss)
	})

	t.Run("Connection failure is returned", func(t *testing.T) {
		mock.ExpectGet("gsl:down").SetErr(errors.New("connection refused"))

		var out entity.VoteCounters
		err := c.Get(ctx, "down", &out)
		require.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrCacheMiss)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheFence(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())
	ctx := context.Background()

	t.Run("Untouched tags are at zero", func(t *testing.T) {
		mock.ExpectMGet("gsl:gen:post:42", "gsl:gen:wallet:user:7").SetVal([]any{nil, "3"})

		fence, err := c.Fence(ctx, "post:42", "wallet:user:7")
		require.NoError(t, err)
		assert.Equal(t, []string{"post:42", "wallet:user:7"}, fence.Tags)
		assert.Equal(t, []int64{0, 3}, fence.Generations)
	})

	t.Run("No tags skips redis", func(t *testing.T) {
		fence, err := c.Fence(ctx)
		require.NoError(t, err)
		assert.Empty(t, fence.Tags)
	})

	t.Run("Connection failure is returned", func(t *testing.T) {
		mock.ExpectMGet("gsl:gen:post:1").SetErr(errors.New("connection refused"))

		_, err := c.Fence(ctx, "post:1")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheSetRegistersTags(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())
	ttl := coreport.Duration(30 * time.Second)
	fence := coreport.CacheFence{Tags: []string{"post:42"}, Generations: []int64{2}}

	mock.ExpectEvalSha(setFenced.Hash(),
		[]string{"gsl:votes:counters:post:42", "gsl:tag:post:42", "gsl:gen:post:42"},
		`{"upvoteCount":1,"downvoteCount":0}`, int64(30000), "2",
	).SetVal(int64(1))

	err := c.Set(context.Background(), "votes:counters:post:42", entity.VoteCounters{Up: 1}, ttl, fence)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheSetBehindInvalidationIsSkipped(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())
	fence := coreport.CacheFence{Tags: []string{"wallet:user:7"}, Generations: []int64{0}}

	// The script reports 0 when the generation moved on after the fence
	mock.ExpectEvalSha(setFenced.Hash(),
		[]string{"gsl:wallet:balance:7", "gsl:tag:wallet:user:7", "gsl:gen:wallet:user:7"},
		`"300.00"`, int64(60000), "0",
	).SetVal(int64(0))

	err := c.Set(context.Background(), "wallet:balance:7", "300.00", coreport.Minute, fence)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheSetRejectsMalformedFence(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())

	err := c.Set(context.Background(), "k", 1, coreport.Minute, coreport.CacheFence{Tags: []string{"post:1"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheInvalidateTags(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())

	mock.ExpectIncr("gsl:gen:wallet:user:7").SetVal(1)
	mock.ExpectExpire("gsl:gen:wallet:user:7", generationTTL).SetVal(true)
	mock.ExpectSMembers("gsl:tag:wallet:user:7").SetVal([]string{"gsl:wallet:balance:7"})
	mock.ExpectDel("gsl:wallet:balance:7", "gsl:tag:wallet:user:7").SetVal(2)
	mock.ExpectIncr("gsl:gen:post:1").SetVal(4)
	mock.ExpectExpire("gsl:gen:post:1", generationTTL).SetVal(true)
	mock.ExpectSMembers("gsl:tag:post:1").SetVal([]string{})
	mock.ExpectDel("gsl:tag:post:1").SetVal(0)

	err := c.InvalidateTags(context.Background(), "wallet:user:7", "post:1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheInvalidateFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "gsl:", logger.NewNoopLogger())

	mock.ExpectIncr("gsl:gen:post:9").SetVal(1)
	mock.ExpectExpire("gsl:gen:post:9", generationTTL).SetVal(true)
	mock.ExpectSMembers("gsl:tag:post:9").SetErr(errors.New("i/o timeout"))

	err := c.InvalidateTags(context.Background(), "post:9")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	ctx := context.Background()

	var out entity.VoteCounters
	assert.ErrorIs(t, c.Get(ctx, "any", &out), errs.ErrCacheMiss)
	fence, err := c.Fence(ctx, "post:1")
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, fence.Generations)
	assert.NoError(t, c.Set(ctx, "any", out, coreport.Second, fence))
	assert.NoError(t, c.InvalidateTags(ctx, "post:1"))
}

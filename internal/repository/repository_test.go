package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRateLimiter(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedisRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, 42, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, 42, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Другой пользователь считается отдельно.
	allowed, err = limiter.Allow(ctx, 43, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// После окончания окна счётчик сбрасывается.
	mr.FastForward(2 * time.Minute)
	allowed, err = limiter.Allow(ctx, 42, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, 1, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, 1, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestFailoverRateLimiter(t *testing.T) {
	logger := zerolog.Nop()
	limiter := NewFailoverRateLimiter(failingLimiter{}, NewMemoryRateLimiter(), &logger)
	ctx := context.Background()

	// Первый вызов падает на primary и уходит в память.
	allowed, err := limiter.Allow(ctx, 1, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, 1, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, 1, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverRecovers(t *testing.T) {
	mr, client := newTestRedis(t)
	logger := zerolog.Nop()
	primary := NewRedisRateLimiter(client)
	limiter := NewFailoverRateLimiter(primary, NewMemoryRateLimiter(), &logger)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, 7, 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Счётчик создан в Redis, а не в памяти.
	got, err := mr.Get("rate_limit:7")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	require.NoError(t, Ping(ctx, client))
}

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/infrastructure/cache"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newStore(ttl time.Duration) (*cache.IdempotencyStore, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)}
	return cache.NewIdempotencyStore(ttl).WithClock(clk.now), clk
}

func TestReplayAfterCompletion(t *testing.T) {
	s, _ := newStore(time.Hour)
	ctx := context.Background()

	replay, err := s.AcquireKey(ctx, "k1", "POST /payments/runs", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	require.NoError(t, s.CompleteKey(ctx, "k1", 201, "application/json", map[string]string{"id": "run-1"}))

	replay, err = s.AcquireKey(ctx, "k1", "POST /payments/runs", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"id":"run-1"}`, string(replay.Body))
}

func TestInFlightKeyConflicts(t *testing.T) {
	s, clk := newStore(time.Hour)
	ctx := context.Background()

	_, err := s.AcquireKey(ctx, "k1", "op", "h1")
	require.NoError(t, err)

	_, err = s.AcquireKey(ctx, "k1", "op", "h1")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeIdempotency, appErr.Code)

	// A pending key older than a minute is reclaimed.
	clk.t = clk.t.Add(2 * time.Minute)
	replay, err := s.AcquireKey(ctx, "k1", "op", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestKeyReuseWithDifferentBody(t *testing.T) {
	s, _ := newStore(time.Hour)
	ctx := context.Background()

	_, err := s.AcquireKey(ctx, "k1", "op", "h1")
	require.NoError(t, err)
	require.NoError(t, s.FailKey(ctx, "k1", 422, "application/json", map[string]string{"code": "X"}))

	_, err = s.AcquireKey(ctx, "k1", "op", "h2")
	assert.Error(t, err)
}

func TestExpiredKeysAreCleaned(t *testing.T) {
	s, clk := newStore(time.Minute)
	ctx := context.Background()

	_, err := s.AcquireKey(ctx, "k1", "op", "h1")
	require.NoError(t, err)
	require.NoError(t, s.CompleteKey(ctx, "k1", 200, "", nil))

	clk.t = clk.t.Add(2 * time.Minute)
	assert.Equal(t, 1, s.CleanupExpired(ctx))
	assert.Equal(t, 0, s.CleanupExpired(ctx))
}

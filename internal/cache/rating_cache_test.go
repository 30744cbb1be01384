package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/testutil"
)

func TestNilRatingCacheIsNoop(t *testing.T) {
	var c *RatingCache
	ctx := context.Background()

	got, _, err := c.GetMany(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, got)

	rating := 7.5
	assert.NoError(t, c.SetMany(ctx, map[int64]*float64{1: &rating}, Versions{1: 0}))
	assert.NoError(t, c.Invalidate(ctx, 1))
	assert.NoError(t, c.Close())
}

func TestParseRedisURL(t *testing.T) {
	t.Run("URL form", func(t *testing.T) {
		opts, err := parseRedisURL("redis://:secret@cache:6380/2")
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("bare address", func(t *testing.T) {
		opts, err := parseRedisURL("localhost:6379")
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := parseRedisURL("redis://host:port:extra/x")
		assert.Error(t, err)
	})
}

func TestNewRatingCache_Unreachable(t *testing.T) {
	// nothing listens on port 1
	c, err := NewRatingCache("redis://127.0.0.1:1/0", "", time.Minute)
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestRatingKey(t *testing.T) {
	assert.Equal(t, "rating:title:{42}", ratingKey(42))
	assert.Equal(t, "rating:title:{42}:gen", generationKey(42))
}

func newTestCache(t *testing.T) *RatingCache {
	t.Helper()
	_, client := testutil.NewRedis(t)
	return NewRatingCacheWithClient(client, time.Minute)
}

func TestRatingCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	got, seen, err := c.GetMany(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, Versions{1: 0, 2: 0, 3: 0}, seen)

	rating := 7.5
	require.NoError(t, c.SetMany(ctx, map[int64]*float64{1: &rating, 2: nil}, seen))

	got, _, err = c.GetMany(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Contains(t, got, int64(1))
	require.NotNil(t, got[1])
	assert.Equal(t, 7.5, *got[1])
	require.Contains(t, got, int64(2))
	assert.Nil(t, got[2], "no reviews is cached as a nil rating")
	assert.NotContains(t, got, int64(3))
}

func TestRatingCache_InvalidateBumpsGeneration(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, seen, err := c.GetMany(ctx, []int64{5})
	require.NoError(t, err)
	rating := 4.0
	require.NoError(t, c.SetMany(ctx, map[int64]*float64{5: &rating}, seen))

	require.NoError(t, c.Invalidate(ctx, 5))

	got, after, err := c.GetMany(ctx, []int64{5})
	require.NoError(t, err)
	assert.NotContains(t, got, int64(5))
	assert.Equal(t, seen[5]+1, after[5])
}

func TestRatingCache_DropsWriteAfterInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	// a reader sees the generation, then a writer invalidates before the
	// reader stores the rating it computed from the old rows
	_, seen, err := c.GetMany(ctx, []int64{9})
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 9))

	stale := 2.0
	require.NoError(t, c.SetMany(ctx, map[int64]*float64{9: &stale}, seen))

	got, current, err := c.GetMany(ctx, []int64{9})
	require.NoError(t, err)
	assert.NotContains(t, got, int64(9))

	fresh := 6.0
	require.NoError(t, c.SetMany(ctx, map[int64]*float64{9: &fresh}, current))
	got, _, err = c.GetMany(ctx, []int64{9})
	require.NoError(t, err)
	require.NotNil(t, got[9])
	assert.Equal(t, 6.0, *got[9])
}

func TestRatingCache_SkipsTitlesWithoutVersion(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	rating := 8.0
	require.NoError(t, c.SetMany(ctx, map[int64]*float64{3: &rating}, nil))

	got, _, err := c.GetMany(ctx, []int64{3})
	require.NoError(t, err)
	assert.NotContains(t, got, int64(3))
}

func TestRatingCache_HonoursTTL(t *testing.T) {
	srv, client := testutil.NewRedis(t)
	c := NewRatingCacheWithClient(client, time.Minute)
	ctx := context.Background()

	_, seen, err := c.GetMany(ctx, []int64{1})
	require.NoError(t, err)
	rating := 5.0
	require.NoError(t, c.SetMany(ctx, map[int64]*float64{1: &rating}, seen))
	assert.Equal(t, time.Minute, srv.TTL(ratingKey(1)))

	srv.FastForward(2 * time.Minute)
	got, _, err := c.GetMany(ctx, []int64{1})
	require.NoError(t, err)
	assert.NotContains(t, got, int64(1))
}

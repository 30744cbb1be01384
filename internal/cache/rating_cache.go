package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// noRating marks a title that has no reviews, so the miss is cached too.
const noRating = "none"

// Versions holds the per-title generation observed by GetMany. SetMany only
// stores a rating if its title's generation has not moved since.
type Versions map[int64]int64

// storeIfCurrent sets KEYS[1] unless KEYS[2] (the generation) changed.
// ARGV: observed generation, value, ttl in milliseconds.
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RatingCache keeps computed title ratings in Redis. A nil *RatingCache is
// valid and behaves as an always-empty cache.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingCache connects to redisURL (redis://host:port/db) and pings it.
func NewRatingCache(redisURL, password string, ttl time.Duration) (*RatingCache, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RatingCache{client: rdb, ttl: ttl}, nil
}

// NewRatingCacheWithClient wraps an existing client.
func NewRatingCacheWithClient(client *redis.Client, ttl time.Duration) *RatingCache {
	return &RatingCache{client: client, ttl: ttl}
}

func parseRedisURL(raw string) (*redis.Options, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}
	// bare host:port
	return &redis.Options{Addr: raw}, nil
}

// The hash tag keeps a title's value and generation in one cluster slot.
func ratingKey(titleID int64) string {
	return fmt.Sprintf("rating:title:{%d}", titleID)
}

func generationKey(titleID int64) string {
	return fmt.Sprintf("rating:title:{%d}:gen", titleID)
}

// GetMany returns the cached entries among titleIDs and the generation of
// every requested title. A present key with a nil value means "cached, no
// reviews". Pass the versions to SetMany when storing computed ratings.
func (c *RatingCache) GetMany(ctx context.Context, titleIDs []int64) (map[int64]*float64, Versions, error) {
	out := make(map[int64]*float64, len(titleIDs))
	versions := make(Versions, len(titleIDs))
	if c == nil || c.client == nil || len(titleIDs) == 0 {
		return out, versions, nil
	}

	keys := make([]string, 0, 2*len(titleIDs))
	for _, id := range titleIDs {
		keys = append(keys, ratingKey(id), generationKey(id))
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return out, nil, err
	}

	for i, id := range titleIDs {
		if g, ok := values[2*i+1].(string); ok {
			n, err := strconv.ParseInt(g, 10, 64)
			if err != nil {
				continue // unreadable generation, never store for this title
			}
			versions[id] = n
		} else {
			versions[id] = 0
		}

		s, ok := values[2*i].(string)
		if !ok {
			continue // miss
		}
		if s == noRating {
			out[id] = nil
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out[id] = &f
	}
	return out, versions, nil
}

// SetMany stores ratings with the cache TTL in one pipeline. A title is
// skipped when it has no entry in seen or when Invalidate ran after seen
// was read, so a rating computed before a write never outlives it.
func (c *RatingCache) SetMany(ctx context.Context, ratings map[int64]*float64, seen Versions) error {
	if c == nil || c.client == nil || len(ratings) == 0 {
		return nil
	}

	ttl := strconv.FormatInt(c.ttl.Milliseconds(), 10)
	pipe := c.client.Pipeline()
	queued := 0
	for id, rating := range ratings {
		gen, ok := seen[id]
		if !ok {
			continue
		}
		value := noRating
		if rating != nil {
			value = strconv.FormatFloat(*rating, 'f', 1, 64)
		}
		storeIfCurrent.Eval(ctx, pipe,
			[]string{ratingKey(id), generationKey(id)},
			strconv.FormatInt(gen, 10), value, ttl)
		queued++
	}
	if queued == 0 {
		return nil
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate bumps the title's generation and drops its cached rating.
// Call it after the write that changed the rating has committed.
func (c *RatingCache) Invalidate(ctx context.Context, titleID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, generationKey(titleID))
	pipe.Del(ctx, ratingKey(titleID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *RatingCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Package cache keeps per-user profile counters out of the database hot path.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"warbler/internal/model"
)

// StatsCache stores model.Stats per user id.
type StatsCache interface {
	// Stats reports ok=false on a miss.
	Stats(ctx context.Context, userID int64) (st model.Stats, ok bool, err error)
	StoreStats(ctx context.Context, userID int64, st model.Stats) error
	Invalidate(ctx context.Context, userIDs ...int64) error
}

type redisStats struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStats returns a StatsCache backed by Redis hashes that expire after ttl.
func NewRedisStats(rdb *redis.Client, ttl time.Duration) StatsCache {
	return &redisStats{rdb: rdb, ttl: ttl}
}

func statsKey(userID int64) string {
	return fmt.Sprintf("warbler:user:%d:stats", userID)
}

func (c *redisStats) Stats(ctx context.Context, userID int64) (model.Stats, bool, error) {
	values, err := c.rdb.HGetAll(ctx, statsKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return model.Stats{}, false, nil
		}
		return model.Stats{}, false, fmt.Errorf("failed to get stats from redis: %w", err)
	}
	if len(values) == 0 {
		return model.Stats{}, false, nil
	}

	var st model.Stats
	fields := map[string]*int64{
		"messages":  &st.Messages,
		"following": &st.Following,
		"followers": &st.Followers,
		"likes":     &st.Likes,
	}
	for name, dst := range fields {
		n, err := strconv.ParseInt(values[name], 10, 64)
		if err != nil {
			// A partial or corrupt hash counts as a miss.
			return model.Stats{}, false, nil
		}
		*dst = n
	}
	return st, true, nil
}

func (c *redisStats) StoreStats(ctx context.Context, userID int64, st model.Stats) error {
	key := statsKey(userID)

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"messages":  st.Messages,
			"following": st.Following,
			"followers": st.Followers,
			"likes":     st.Likes,
		})
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save stats to redis: %w", err)
	}
	return nil
}

func (c *redisStats) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, statsKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats: %w", err)
	}
	return nil
}

type nopStats struct{}

// NewNop returns a StatsCache that never hits.
func NewNop() StatsCache {
	return nopStats{}
}

func (nopStats) Stats(context.Context, int64) (model.Stats, bool, error) {
	return model.Stats{}, false, nil
}

func (nopStats) StoreStats(context.Context, int64, model.Stats) error { return nil }

func (nopStats) Invalidate(context.Context, ...int64) error { return nil }

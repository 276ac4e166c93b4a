package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counts 个人页展示的粉丝数/关注数
type Counts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// CountSource 从主库读取计数
type CountSource interface {
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}

// FollowCounts 按用户在 redis 缓存 Counts。client 为 nil 时不缓存。
type FollowCounts struct {
	source CountSource
	cache  *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewFollowCounts(source CountSource, cache *redis.Client, ttl time.Duration) *FollowCounts {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowCounts{source: source, cache: cache, ttl: ttl}
}

func countsKey(userID string) string { return fmt.Sprintf("follow_counts:%s", userID) }

func (c *FollowCounts) Get(ctx context.Context, userID string) (Counts, error) {
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, countsKey(userID)).Bytes(); err == nil {
			var out Counts
			if uErr := json.Unmarshal(data, &out); uErr == nil {
				c.hits.Add(1)
				return out, nil
			}
		}
	}
	c.misses.Add(1)

	followers, err := c.source.CountFollowers(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	following, err := c.source.CountFollowing(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	out := Counts{Followers: followers, Following: following}
	if c.cache != nil {
		if payload, err := json.Marshal(out); err == nil {
			_ = c.cache.Set(ctx, countsKey(userID), payload, c.ttl).Err()
		}
	}
	return out, nil
}

// Invalidate 删除缓存；关注边两端的计数一起失效。
func (c *FollowCounts) Invalidate(ctx context.Context, userIDs ...string) error {
	if c.cache == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = countsKey(id)
	}
	return c.cache.Del(ctx, keys...).Err()
}

// Stats 创建以来的命中/未命中次数
func (c *FollowCounts) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

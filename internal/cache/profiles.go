package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/break-social/internal/model"
)

// ProfileSource 从主库批量读取资料
type ProfileSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
}

// Profiles 署名用的资料快照缓存（会话列表、转发者名字），读穿透，批量走 MGET。
type Profiles struct {
	source ProfileSource
	cache  *redis.Client
	ttl    time.Duration
}

func NewProfiles(source ProfileSource, cache *redis.Client, ttl time.Duration) *Profiles {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Profiles{source: source, cache: cache, ttl: ttl}
}

func profileKey(id string) string { return fmt.Sprintf("profile:%s", id) }

// Load 按 id 返回资料，不存在的 id 不出现在结果里。
func (p *Profiles) Load(ctx context.Context, ids []string) (map[string]*model.Profile, error) {
	out := make(map[string]*model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	if p.cache != nil {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = profileKey(id)
		}
		if vals, err := p.cache.MGet(ctx, keys...).Result(); err == nil {
			for i, v := range vals {
				str, ok := v.(string)
				if !ok {
					continue
				}
				var snap model.Profile
				if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
					out[ids[i]] = &snap
				}
			}
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := p.source.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	var pipe redis.Pipeliner
	if p.cache != nil {
		pipe = p.cache.Pipeline()
	}
	for _, prof := range loaded {
		out[prof.ID] = prof
		if pipe == nil {
			continue
		}
		if payload, err := json.Marshal(prof); err == nil {
			pipe.Set(ctx, profileKey(prof.ID), payload, p.ttl)
		}
	}
	if pipe != nil {
		_, _ = pipe.Exec(ctx)
	}
	return out, nil
}

// Invalidate 资料修改后删除快照
func (p *Profiles) Invalidate(ctx context.Context, ids ...string) error {
	if p.cache == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}
	return p.cache.Del(ctx, keys...).Err()
}

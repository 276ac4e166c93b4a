package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/pkg/logger"
)

// RedisBus 通过 redis pub/sub 分发变更事件，每张表一个 channel。
type RedisBus struct {
	client *redis.Client
	prefix string
}

func NewRedisBus(client *redis.Client, prefix string) *RedisBus {
	return &RedisBus{client: client, prefix: prefix}
}

func (b *RedisBus) channel(table string) string { return b.prefix + table }

func (b *RedisBus) Publish(ctx context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel(ev.Table), payload).Err()
}

type redisSub struct {
	ps   *redis.PubSub
	once sync.Once
	err  error
}

// Subscribe 在 redis 确认订阅后才返回
func (b *RedisBus) Subscribe(ctx context.Context, table string, mask Op, h Handler) (Subscription, error) {
	if mask == 0 {
		mask = OpAll
	}
	ps := b.client.Subscribe(ctx, b.channel(table))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	ch := ps.Channel()
	go func() {
		for msg := range ch {
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("realtime: bad change payload", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if ev.Op&mask == 0 {
				continue
			}
			h(ev)
		}
	}()
	return &redisSub{ps: ps}, nil
}

func (s *redisSub) Close() error {
	s.once.Do(func() { s.err = s.ps.Close() })
	return s.err
}

func (b *RedisBus) Close() error { return nil }

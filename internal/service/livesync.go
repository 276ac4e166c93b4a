package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/pkg/logger"
)

// Unsubscribe 一次性拆除全部表订阅，重复调用无副作用。
type Unsubscribe func()

// Controller 把表变更转成 onChange 回调。
//
// 事件内容不参与判断，任何变更都触发一次 onChange。Controller 不做去抖，
// 短时间内的多次变更会各自触发；需要合并的调用方自行用 Debounce 包装。
type Controller struct {
	bus realtime.Bus
}

func NewController(bus realtime.Bus) *Controller {
	return &Controller{bus: bus}
}

// Subscribe 每张表一个订阅。部分表订阅失败时返回 SUBSCRIPTION_FAILED，
// 同时返回可用的 Unsubscribe 负责已建立的订阅（降级模式）。
func (c *Controller) Subscribe(ctx context.Context, tables []string, onChange func()) (Unsubscribe, error) {
	return c.SubscribeFiltered(ctx, tables, nil, onChange)
}

// SubscribeFiltered 与 Subscribe 相同，filter 返回 false 的事件被忽略。
func (c *Controller) SubscribeFiltered(ctx context.Context, tables []string, filter func(realtime.ChangeEvent) bool, onChange func()) (Unsubscribe, error) {
	handler := func(ev realtime.ChangeEvent) {
		if filter != nil && !filter(ev) {
			return
		}
		onChange()
	}

	subs := make([]realtime.Subscription, 0, len(tables))
	var errs []error
	for _, table := range tables {
		sub, err := c.bus.Subscribe(ctx, table, realtime.OpAll, handler)
		if err != nil {
			logger.Warn("live sync subscribe failed", zap.String("table", table), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		subs = append(subs, sub)
	}

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			for _, s := range subs {
				if err := s.Close(); err != nil {
					logger.Warn("live sync unsubscribe failed", zap.Error(err))
				}
			}
		})
	}
	if len(errs) > 0 {
		return unsub, newError(CodeSubscriptionFailed, "livesync.subscribe", errors.Join(errs...))
	}
	return unsub, nil
}

// Debounce 返回一个触发函数：静默 d 之后调用一次 fn。stop 取消尚未执行的调用。
func Debounce(d time.Duration, fn func()) (trigger func(), stop func()) {
	var (
		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
	)
	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fn)
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/pkg/logger"
)

var ErrBusClosed = errors.New("realtime: bus closed")

// MemoryBus 进程内投递。每个订阅独占一个带缓冲队列和一个 goroutine，
// 慢 handler 不会阻塞 Publish；队列满时丢弃并记日志。
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	buffer int
	closed bool
}

func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryBus{subs: make(map[string]map[*memorySub]struct{}), buffer: buffer}
}

type memorySub struct {
	bus   *MemoryBus
	table string
	mask  Op
	ch    chan ChangeEvent
	once  sync.Once
	done  chan struct{}
}

func (b *MemoryBus) Publish(_ context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	for s := range b.subs[ev.Table] {
		if s.mask&ev.Op == 0 {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			logger.Warn("realtime queue full, drop event",
				zap.String("table", ev.Table), zap.String("op", ev.Op.String()), zap.String("row", ev.RowID))
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, table string, mask Op, h Handler) (Subscription, error) {
	if mask == 0 {
		mask = OpAll
	}
	s := &memorySub{bus: b, table: table, mask: mask, ch: make(chan ChangeEvent, b.buffer), done: make(chan struct{})}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	if b.subs[table] == nil {
		b.subs[table] = make(map[*memorySub]struct{})
	}
	b.subs[table][s] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			select {
			case ev := <-s.ch:
				h(ev)
			case <-s.done:
				return
			}
		}
	}()
	return s, nil
}

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.table], s)
		s.bus.mu.Unlock()
		close(s.done)
	})
	return nil
}

// Close 停止全部订阅
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*memorySub
	for _, set := range b.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	b.mu.Unlock()

	for _, s := range all {
		_ = s.Close()
	}
	return nil
}

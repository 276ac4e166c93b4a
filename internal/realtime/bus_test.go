package realtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBus(t *testing.T) *RedisBus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBus(client, "test:")
}

func busesUnderTest(t *testing.T) map[string]Bus {
	return map[string]Bus{
		"memory": NewMemoryBus(8),
		"redis":  newRedisBus(t),
	}
}

func TestBusDeliversMatchingEvents(t *testing.T) {
	for name, bus := range busesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer bus.Close()
			ctx := context.Background()

			got := make(chan ChangeEvent, 4)
			sub, err := bus.Subscribe(ctx, TableLikes, OpInsert|OpDelete, func(ev ChangeEvent) { got <- ev })
			require.NoError(t, err)
			defer sub.Close()

			require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: TableLikes, Op: OpUpdate, RowID: "skip"}))
			require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: TablePosts, Op: OpInsert, RowID: "other-table"}))
			require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: TableLikes, Op: OpInsert, RowID: "l1", UserID: "u1"}))

			select {
			case ev := <-got:
				assert.Equal(t, "l1", ev.RowID)
				assert.Equal(t, OpInsert, ev.Op)
				assert.Equal(t, "u1", ev.UserID)
			case <-time.After(2 * time.Second):
				t.Fatal("event not delivered")
			}
			select {
			case ev := <-got:
				t.Fatalf("unexpected event %+v", ev)
			case <-time.After(100 * time.Millisecond):
			}
		})
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	for name, bus := range busesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer bus.Close()
			ctx := context.Background()

			var calls atomic.Int32
			sub, err := bus.Subscribe(ctx, TablePosts, OpAll, func(ChangeEvent) { calls.Add(1) })
			require.NoError(t, err)

			assert.NoError(t, sub.Close())
			assert.NotPanics(t, func() { _ = sub.Close() })

			require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: TablePosts, Op: OpInsert, RowID: "p1"}))
			time.Sleep(100 * time.Millisecond)
			assert.Equal(t, int32(0), calls.Load())
		})
	}
}

func TestMemoryBusDropsWhenQueueFull(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	sub, err := bus.Subscribe(ctx, TablePosts, OpAll, func(ChangeEvent) {
		calls.Add(1)
		<-release
	})
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: TablePosts, Op: OpInsert}))
	}
	close(release)

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Less(t, calls.Load(), int32(10))
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus(4)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, err := bus.Subscribe(context.Background(), TablePosts, OpAll, func(ChangeEvent) {})
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.ErrorIs(t, bus.Publish(context.Background(), ChangeEvent{Table: TablePosts, Op: OpInsert}), ErrBusClosed)
}

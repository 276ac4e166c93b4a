package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/internal/testutil"
)

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond

// flakyBus 拒绝订阅指定的表
type flakyBus struct {
	*realtime.MemoryBus
	reject string
}

func (b *flakyBus) Subscribe(ctx context.Context, table string, mask realtime.Op, h realtime.Handler) (realtime.Subscription, error) {
	if table == b.reject {
		return nil, errors.New("channel join timed out")
	}
	return b.MemoryBus.Subscribe(ctx, table, mask, h)
}

func TestControllerFiresOncePerEvent(t *testing.T) {
	buses := map[string]realtime.Bus{"memory": realtime.NewMemoryBus(16)}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	buses["redis"] = realtime.NewRedisBus(client, "break:")

	for name, bus := range buses {
		t.Run(name, func(t *testing.T) {
			defer bus.Close()
			ctx := context.Background()
			var calls atomic.Int32

			unsub, err := NewController(bus).Subscribe(ctx, FeedTables, func() { calls.Add(1) })
			require.NoError(t, err)
			defer unsub()

			for _, table := range []string{realtime.TablePosts, realtime.TableLikes, realtime.TableLikes} {
				require.NoError(t, bus.Publish(ctx, realtime.ChangeEvent{Table: table, Op: realtime.OpInsert}))
			}
			// 不相关的表不触发
			require.NoError(t, bus.Publish(ctx, realtime.ChangeEvent{Table: realtime.TableMessages, Op: realtime.OpInsert}))

			require.Eventually(t, func() bool { return calls.Load() == 3 }, waitFor, tick)
			time.Sleep(50 * time.Millisecond)
			assert.Equal(t, int32(3), calls.Load())
		})
	}
}

func TestControllerUnsubscribeIsIdempotent(t *testing.T) {
	bus := realtime.NewMemoryBus(16)
	defer bus.Close()
	ctx := context.Background()
	var calls atomic.Int32

	unsub, err := NewController(bus).Subscribe(ctx, []string{realtime.TablePosts}, func() { calls.Add(1) })
	require.NoError(t, err)
	unsub()
	unsub()

	require.NoError(t, bus.Publish(ctx, realtime.ChangeEvent{Table: realtime.TablePosts, Op: realtime.OpInsert}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestControllerDegradedSubscription(t *testing.T) {
	bus := &flakyBus{MemoryBus: realtime.NewMemoryBus(16), reject: realtime.TableLikes}
	defer bus.Close()
	ctx := context.Background()
	var calls atomic.Int32

	unsub, err := NewController(bus).Subscribe(ctx, FeedTables, func() { calls.Add(1) })
	require.Error(t, err)
	assert.True(t, IsSubscriptionFailed(err))
	require.NotNil(t, unsub)
	defer unsub()

	// 其余表照常工作
	require.NoError(t, bus.Publish(ctx, realtime.ChangeEvent{Table: realtime.TablePosts, Op: realtime.OpInsert}))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
}

func TestDebounce(t *testing.T) {
	var calls atomic.Int32
	trigger, stop := Debounce(30*time.Millisecond, func() { calls.Add(1) })
	defer stop()

	for i := 0; i < 5; i++ {
		trigger()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	trigger()
	stop()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotificationCounterMarkAsRead(t *testing.T) {
	env := newEnv(t)
	testutil.Notification(t, env.db, "n1", "u1", false)
	testutil.Notification(t, env.db, "n2", "u2", false)
	ctx := context.Background()

	c := NewNotificationService(env.notifications).Counter("u1")
	n, err := c.FetchUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.MarkAsRead(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, int64(0), c.Count())

	// 不能替别人标记已读
	_, err = c.MarkAsRead(ctx, "n2")
	require.NoError(t, err)
	other, err := env.notifications.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestNotificationCounterMarkAll(t *testing.T) {
	env := newEnv(t)
	for _, id := range []string{"n1", "n2", "n3"} {
		testutil.Notification(t, env.db, id, "u1", false)
	}
	testutil.Notification(t, env.db, "n4", "u1", true)

	c := NewNotificationCounter(env.notifications, "u1")
	n, err := c.FetchUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = c.MarkAllAsRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestNotificationCounterWatch(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	c := NewNotificationCounter(env.notifications, "u1")

	unsub, err := c.Watch(ctx, NewController(env.bus))
	require.NoError(t, err)
	defer unsub()

	other, err := model.NewNotification("", "u2", "hi", model.FollowPayload{FollowerID: "u3"})
	require.NoError(t, err)
	require.NoError(t, env.notifications.Create(ctx, other))
	mine, err := model.NewNotification("", "u1", "hi", model.FollowPayload{FollowerID: "u3"})
	require.NoError(t, err)
	require.NoError(t, env.notifications.Create(ctx, mine))

	require.Eventually(t, func() bool { return c.Count() == 1 }, waitFor, tick)
}

func TestNotificationServiceListDecodesPayload(t *testing.T) {
	env := newEnv(t)
	testutil.Notification(t, env.db, "n1", "u1", false)

	views, err := NewNotificationService(env.notifications).List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, &model.FollowPayload{FollowerID: "someone"}, views[0].Payload)
}

func TestFeedViewWatchRefreshes(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	view := NewFeedView(env.aggregator(AggregatorOptions{}), FeedQuery{})
	require.NoError(t, view.Refresh(ctx))
	require.Empty(t, view.Snapshot())

	unsub, err := view.Watch(ctx, NewController(env.bus))
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, env.posts.Create(ctx, &model.Post{AuthorID: "u1", Content: "fresh"}))
	require.Eventually(t, func() bool { return len(view.Snapshot()) == 1 }, waitFor, tick)
}

// slowPosts 第一次 List 读完数据后阻塞，模拟响应很慢的旧请求
type slowPosts struct {
	repository.PostRepository
	calls   atomic.Int32
	read    chan struct{}
	release chan struct{}
}

func (p *slowPosts) List(ctx context.Context, f repository.PostFilter) ([]*model.Post, error) {
	res, err := p.PostRepository.List(ctx, f)
	if p.calls.Add(1) == 1 {
		close(p.read)
		<-p.release
	}
	return res, err
}

// 已知限制：刷新不取消旧请求，最后返回的响应生效，慢的旧响应会覆盖新数据。
func TestFeedViewLastResponseWins(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	testutil.Post(t, env.db, "p1", "u1", "first", testutil.At(0))

	posts := &slowPosts{PostRepository: env.posts, read: make(chan struct{}), release: make(chan struct{})}
	view := NewFeedView(NewAggregator(posts, env.reposts, env.listings, AggregatorOptions{}), FeedQuery{})

	slow := make(chan error, 1)
	go func() { slow <- view.Refresh(ctx) }()
	<-posts.read

	testutil.Post(t, env.db, "p2", "u1", "second", testutil.At(1))
	require.NoError(t, view.Refresh(ctx))
	require.Len(t, view.Snapshot(), 2)

	close(posts.release)
	require.NoError(t, <-slow)

	snap := view.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "p1", snap[0].Key)
}

func TestFeedViewWatchesListingsWhenMergedByConfig(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	view := NewFeedView(env.aggregator(AggregatorOptions{IncludeListings: true}), FeedQuery{})
	require.NoError(t, view.Refresh(ctx))

	unsub, err := view.Watch(ctx, NewController(env.bus))
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, env.listings.Create(ctx, &model.Listing{
		SellerID: "s1", Title: "Lamp", Price: 12, Condition: model.ConditionGood, Status: model.ListingActive,
	}))
	require.Eventually(t, func() bool {
		snap := view.Snapshot()
		return len(snap) == 1 && snap[0].Kind == model.FeedItemListing
	}, waitFor, tick)
}

func TestListingViewToggle(t *testing.T) {
	env := newEnv(t)
	testutil.Listing(t, env.db, "l1", "s1", "Bike", testutil.At(0))
	view := NewListingView(env.aggregator(AggregatorOptions{}), ListingQuery{ViewerID: "u2"})
	require.NoError(t, view.Refresh(context.Background()))

	rollback := view.ApplyToggle(KindListingLike, "l1", true)
	snap := view.Snapshot()
	assert.True(t, snap[0].LikedByViewer)
	assert.Equal(t, 1, snap[0].LikesCount)

	rollback()
	snap = view.Snapshot()
	assert.False(t, snap[0].LikedByViewer)
	assert.Equal(t, 0, snap[0].LikesCount)

	// 其他种类不影响商品视图
	view.ApplyToggle(KindLike, "l1", true)
	assert.False(t, view.Snapshot()[0].LikedByViewer)
}

func TestFollowViewIgnoresOtherTargets(t *testing.T) {
	view := NewFollowView("u1", true, 3)
	view.ApplyToggle(KindFollow, "u9", false)
	following, followers := view.State()
	assert.True(t, following)
	assert.Equal(t, 3, followers)

	rollback := view.ApplyToggle(KindFollow, "u1", false)
	following, followers = view.State()
	assert.False(t, following)
	assert.Equal(t, 2, followers)
	rollback()
	following, followers = view.State()
	assert.True(t, following)
	assert.Equal(t, 3, followers)
}

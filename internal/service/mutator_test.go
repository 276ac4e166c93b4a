package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/internal/testutil"
)

type failingLikes struct {
	repository.LikeRepository
	err     error
	release chan struct{}
}

func (f *failingLikes) Create(ctx context.Context, postID, userID string) (*model.Like, error) {
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.LikeRepository.Create(ctx, postID, userID)
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...string) error {
	r.mu.Lock()
	r.ids = append(r.ids, ids...)
	r.mu.Unlock()
	return nil
}

type countingRefresher struct{ calls int }

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls++
	return nil
}

func TestToggleLikeNotifiesOwnerOnce(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	m := env.mutator(nil)
	ctx := context.Background()

	res, err := m.Toggle(ctx, ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, res.Engaged)
	assert.False(t, res.Benign)
	assert.True(t, res.Notified)
	assert.Equal(t, int64(1), env.notificationCount(t, "u1"))

	var n model.Notification
	require.NoError(t, env.db.Where("user_id = ?", "u1").First(&n).Error)
	assert.Equal(t, model.NotificationLike, n.Type)
	payload, err := n.Payload()
	require.NoError(t, err)
	assert.Equal(t, &model.LikePayload{PostID: "p1", UserID: "u2"}, payload)
}

func TestToggleLikeSelfDoesNotNotify(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	m := env.mutator(nil)

	res, err := m.Toggle(context.Background(), ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u1", OwnerID: "u1"})
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.Equal(t, int64(0), env.notificationCount(t, "u1"))
}

func TestToggleDuplicateLikeIsBenign(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	testutil.Like(t, env.db, "p1", "u2")
	m := env.mutator(nil)

	res, err := m.Toggle(context.Background(), ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Benign)
	assert.True(t, res.Engaged)
	assert.False(t, res.Notified)

	cnt, err := env.likes.Count(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.Equal(t, int64(0), env.notificationCount(t, "u1"))
}

func TestToggleConcurrentDoubleEngage(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	m := env.mutator(nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Toggle(context.Background(), ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1"})
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	cnt, err := env.likes.Count(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.Equal(t, int64(1), env.notificationCount(t, "u1"))
}

func TestToggleDisengageAbsentIsNoop(t *testing.T) {
	env := newEnv(t)
	m := env.mutator(nil)

	res, err := m.Toggle(context.Background(), ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2", Engaged: true})
	require.NoError(t, err)
	assert.False(t, res.Engaged)

	res, err = m.Toggle(context.Background(), ToggleRequest{Kind: KindListingLike, EntityID: "l1", UserID: "u2", Engaged: true})
	require.NoError(t, err)
	assert.False(t, res.Engaged)
}

func seededFeedView(t *testing.T, env *testEnv) *FeedView {
	t.Helper()
	testutil.Profile(t, env.db, "u1", "alice")
	testutil.Profile(t, env.db, "u2", "bob")
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	testutil.Repost(t, env.db, "r1", "u1", "p1", testutil.At(1))
	testutil.Like(t, env.db, "p1", "u1")

	view := NewFeedView(env.aggregator(AggregatorOptions{}), FeedQuery{ViewerID: "u2"})
	require.NoError(t, view.Refresh(context.Background()))
	require.Len(t, view.Snapshot(), 2)
	return view
}

func TestToggleRollbackOnFailure(t *testing.T) {
	env := newEnv(t)
	view := seededFeedView(t, env)
	before := view.Snapshot()

	m := env.mutator(nil)
	m.likes = &failingLikes{LikeRepository: env.likes, err: errors.New("connection refused")}

	_, err := m.Toggle(context.Background(), ToggleRequest{
		Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1", State: view,
	})
	require.Error(t, err)
	assert.True(t, IsWriteFailed(err))
	assert.Equal(t, before, view.Snapshot())
	assert.Equal(t, int64(0), env.notificationCount(t, "u1"))
}

func TestToggleAsyncAppliesOptimisticStateFirst(t *testing.T) {
	env := newEnv(t)
	view := seededFeedView(t, env)

	release := make(chan struct{})
	m := env.mutator(nil)
	m.likes = &failingLikes{LikeRepository: env.likes, release: release}

	ch, err := m.ToggleAsync(context.Background(), ToggleRequest{
		Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1", State: view,
	})
	require.NoError(t, err)

	// 原帖和转发条目同时翻转
	for _, it := range view.Snapshot() {
		assert.True(t, it.LikedByViewer, it.Key)
		assert.Equal(t, 2, it.LikesCount, it.Key)
	}

	close(release)
	select {
	case out := <-ch:
		require.NoError(t, out.Err)
		assert.True(t, out.Result.Engaged)
		assert.True(t, out.Result.Notified)
	case <-time.After(2 * time.Second):
		t.Fatal("toggle did not complete")
	}
	for _, it := range view.Snapshot() {
		assert.True(t, it.LikedByViewer)
	}
}

func waitOutcome(t *testing.T, ch <-chan ToggleOutcome) ToggleOutcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("toggle did not complete")
	}
	return ToggleOutcome{}
}

func TestToggleRollbackKeepsConcurrentRepost(t *testing.T) {
	env := newEnv(t)
	view := seededFeedView(t, env)

	release := make(chan struct{})
	m := env.mutator(nil)
	m.likes = &failingLikes{LikeRepository: env.likes, err: errors.New("connection reset"), release: release}
	ctx := context.Background()

	ch, err := m.ToggleAsync(ctx, ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1", State: view})
	require.NoError(t, err)

	res, err := m.Toggle(ctx, ToggleRequest{Kind: KindRepost, EntityID: "p1", UserID: "u2", State: view})
	require.NoError(t, err)
	require.True(t, res.Engaged)

	close(release)
	out := waitOutcome(t, ch)
	require.Error(t, out.Err)
	assert.True(t, IsWriteFailed(out.Err))

	// 只撤销点赞，转发保留
	for _, it := range view.Snapshot() {
		assert.False(t, it.LikedByViewer, it.Key)
		assert.Equal(t, 1, it.LikesCount, it.Key)
		assert.True(t, it.RepostedByViewer, it.Key)
		assert.Equal(t, 2, it.RepostCount, it.Key)
	}
}

func TestToggleRollbackSkippedAfterRefresh(t *testing.T) {
	env := newEnv(t)
	view := seededFeedView(t, env)

	release := make(chan struct{})
	m := env.mutator(nil)
	m.likes = &failingLikes{LikeRepository: env.likes, err: errors.New("connection reset"), release: release}
	ctx := context.Background()

	ch, err := m.ToggleAsync(ctx, ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1", State: view})
	require.NoError(t, err)

	// 其他用户点赞后视图刷新，刷新结果覆盖乐观状态
	testutil.Like(t, env.db, "p1", "u3")
	require.NoError(t, view.Refresh(ctx))

	close(release)
	out := waitOutcome(t, ch)
	require.Error(t, out.Err)

	for _, it := range view.Snapshot() {
		assert.False(t, it.LikedByViewer, it.Key)
		assert.Equal(t, 2, it.LikesCount, it.Key)
	}
}

func TestFollowViewRollbackOnlyUndoesOwnFlip(t *testing.T) {
	v := NewFollowView("u1", false, 3)
	rollback := v.ApplyToggle(KindFollow, "u1", true)
	following, followers := v.State()
	assert.True(t, following)
	assert.Equal(t, 4, followers)

	// 已经是目标状态的翻转不产生回滚动作
	noop := v.ApplyToggle(KindFollow, "u1", true)
	noop()
	following, _ = v.State()
	assert.True(t, following)

	rollback()
	following, followers = v.State()
	assert.False(t, following)
	assert.Equal(t, 3, followers)

	rollback()
	_, followers = v.State()
	assert.Equal(t, 3, followers)
}

func TestToggleRefetchMode(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	m := env.mutator(nil)
	ref := &countingRefresher{}

	_, err := m.Toggle(context.Background(), ToggleRequest{Kind: KindRepost, EntityID: "p1", UserID: "u2", Refresh: ref})
	require.NoError(t, err)
	assert.Equal(t, 1, ref.calls)
}

func TestToggleRepostByID(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	m := env.mutator(nil)
	ctx := context.Background()

	res, err := m.Toggle(ctx, ToggleRequest{Kind: KindRepost, EntityID: "p1", UserID: "u2"})
	require.NoError(t, err)
	require.NotEmpty(t, res.RepostID)
	assert.False(t, res.Notified)

	dup, err := m.Toggle(ctx, ToggleRequest{Kind: KindRepost, EntityID: "p1", UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, dup.Benign)
	assert.Equal(t, res.RepostID, dup.RepostID)

	_, err = m.Toggle(ctx, ToggleRequest{Kind: KindRepost, EntityID: "p1", UserID: "u2", Engaged: true, RepostID: res.RepostID})
	require.NoError(t, err)
	_, err = env.reposts.Find(ctx, "p1", "u2")
	assert.True(t, repository.IsNotFound(err))
}

func TestToggleRepostForeignIDIsNoop(t *testing.T) {
	env := newEnv(t)
	testutil.Post(t, env.db, "p1", "u1", "hello", testutil.At(0))
	testutil.Post(t, env.db, "p2", "u1", "other", testutil.At(1))
	testutil.Repost(t, env.db, "r1", "u1", "p1", testutil.At(2))
	m := env.mutator(nil)
	ctx := context.Background()

	// u2 拿 u1 的转发 id 取消自己对 p2 的转发
	_, err := m.Toggle(ctx, ToggleRequest{Kind: KindRepost, EntityID: "p2", UserID: "u2", Engaged: true, RepostID: "r1"})
	require.NoError(t, err)
	_, err = m.Toggle(ctx, ToggleRequest{Kind: KindRepost, EntityID: "p1", UserID: "u2", Engaged: true, RepostID: "r1"})
	require.NoError(t, err)

	left, err := env.reposts.List(ctx, repository.RepostFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "r1", left[0].ID)
}

func TestToggleListingLikeNotifiesSeller(t *testing.T) {
	env := newEnv(t)
	testutil.Listing(t, env.db, "l1", "s1", "Camera", testutil.At(0))
	m := env.mutator(nil)

	res, err := m.Toggle(context.Background(), ToggleRequest{Kind: KindListingLike, EntityID: "l1", UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, res.Notified)

	var n model.Notification
	require.NoError(t, env.db.Where("user_id = ?", "s1").First(&n).Error)
	assert.Equal(t, model.NotificationLikeListing, n.Type)
}

func TestToggleFollow(t *testing.T) {
	env := newEnv(t)
	inv := &recordingInvalidator{}
	m := env.mutator(inv)
	ctx := context.Background()

	_, err := m.Toggle(ctx, ToggleRequest{Kind: KindFollow, EntityID: "u1", UserID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFollowSelf)
	assert.True(t, IsInvalidInput(err))

	view := NewFollowView("u1", false, 0)
	res, err := m.Toggle(ctx, ToggleRequest{Kind: KindFollow, EntityID: "u1", UserID: "u2", State: view})
	require.NoError(t, err)
	assert.True(t, res.Notified)
	following, followers := view.State()
	assert.True(t, following)
	assert.Equal(t, 1, followers)
	assert.Equal(t, []string{"u2", "u1"}, inv.ids)

	// 重复关注：不报错、不重复通知
	res, err = m.Toggle(ctx, ToggleRequest{Kind: KindFollow, EntityID: "u1", UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, res.Benign)
	assert.Equal(t, int64(1), env.notificationCount(t, "u1"))

	_, err = m.Toggle(ctx, ToggleRequest{Kind: KindFollow, EntityID: "u1", UserID: "u2", Engaged: true})
	require.NoError(t, err)
	ok, err := env.follows.Exists(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleValidation(t *testing.T) {
	env := newEnv(t)
	m := env.mutator(nil)

	_, err := m.Toggle(context.Background(), ToggleRequest{Kind: "poke", EntityID: "p1", UserID: "u1"})
	assert.True(t, IsInvalidInput(err))
	_, err = m.Toggle(context.Background(), ToggleRequest{Kind: KindLike, UserID: "u1"})
	assert.True(t, IsInvalidInput(err))
}

func TestToggleNotificationFailureKeepsEngagement(t *testing.T) {
	env := newEnv(t)
	m := env.mutator(nil)
	m.notifications = failingNotifications{}

	res, err := m.Toggle(context.Background(), ToggleRequest{Kind: KindLike, EntityID: "p1", UserID: "u2", OwnerID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Engaged)
	assert.False(t, res.Notified)
	ok, err := env.likes.Exists(context.Background(), "p1", "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(context.Context, *model.Notification) error {
	return errors.New("notifications table locked")
}

package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/pkg/logger"
)

// FeedTables 帖子类 feed 需要监听的表
var FeedTables = []string{
	realtime.TablePosts, realtime.TableReposts, realtime.TableLikes, realtime.TableReplies,
}

// ListingTables 商品列表需要监听的表
var ListingTables = []string{realtime.TableListings, realtime.TableListingLikes}

// notifier 状态变化信号。通道容量为 1，连续多次变化合并为一次。
type notifier struct {
	once sync.Once
	ch   chan struct{}
}

func (n *notifier) init() { n.once.Do(func() { n.ch = make(chan struct{}, 1) }) }

// Changed 状态变化（刷新、乐观修改、回滚）后收到信号
func (n *notifier) Changed() <-chan struct{} {
	n.init()
	return n.ch
}

func (n *notifier) signal() {
	n.init()
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// itemSet 视图容器共用的条目存储。gen 在每次整体替换时递增。
type itemSet struct {
	notifier
	mu    sync.RWMutex
	items []*model.FeedItem
	gen   uint64
}

func (s *itemSet) replace(items []*model.FeedItem) {
	s.mu.Lock()
	s.items = items
	s.gen++
	s.mu.Unlock()
	s.signal()
}

// Snapshot 返回条目副本，调用方可以随意持有。
func (s *itemSet) Snapshot() []model.FeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FeedItem, len(s.items))
	for i, it := range s.items {
		out[i] = *it
	}
	return out
}

// toggleField 乐观修改涉及的一对字段：viewer 标记和计数
type toggleField int

const (
	fieldLike toggleField = iota
	fieldRepost
)

func (f toggleField) ptrs(it *model.FeedItem) (*bool, *int) {
	if f == fieldRepost {
		return &it.RepostedByViewer, &it.RepostCount
	}
	return &it.LikedByViewer, &it.LikesCount
}

type itemPatch struct {
	key          string
	prevRepostID string
}

// patch 翻转 entityID 对应的全部条目（原帖和转发条目共享计数），返回回滚函数。
//
// 回滚只撤销本次翻转的字段，且仅当该字段仍是乐观值时才撤销；其间发生过
// replace 则整体跳过，刷新得到的数据优先。
func (s *itemSet) patch(kind model.FeedItemKind, entityID string, f toggleField, engaged bool) func() {
	s.mu.Lock()
	gen := s.gen
	var patches []itemPatch
	for i, it := range s.items {
		if it.Kind != kind || it.EntityID() != entityID {
			continue
		}
		next := *it
		flag, count := f.ptrs(&next)
		if *flag == engaged {
			continue
		}
		p := itemPatch{key: it.Key, prevRepostID: next.ViewerRepostID}
		flip(engaged, flag, count)
		if f == fieldRepost && !engaged {
			next.ViewerRepostID = ""
		}
		s.items[i] = &next
		patches = append(patches, p)
	}
	s.mu.Unlock()
	if len(patches) > 0 {
		s.signal()
	}

	return func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		undone := false
		for _, p := range patches {
			for i, it := range s.items {
				if it.Key != p.key {
					continue
				}
				next := *it
				flag, count := f.ptrs(&next)
				if *flag != engaged {
					continue
				}
				flip(!engaged, flag, count)
				if f == fieldRepost && !engaged {
					next.ViewerRepostID = p.prevRepostID
				}
				s.items[i] = &next
				undone = true
			}
		}
		s.mu.Unlock()
		if undone {
			s.signal()
		}
	}
}

func flip(engaged bool, flag *bool, count *int) {
	if *flag == engaged {
		return
	}
	*flag = engaged
	if engaged {
		*count++
	} else if *count > 0 {
		*count--
	}
}

// FeedView 一个帖子 feed 的状态容器，由创建它的会话独占。
// Refresh 无条件接受最后返回的结果，不取消旧请求。
type FeedView struct {
	itemSet
	agg   *Aggregator
	query FeedQuery
}

func NewFeedView(agg *Aggregator, q FeedQuery) *FeedView {
	return &FeedView{agg: agg, query: q}
}

func (v *FeedView) Refresh(ctx context.Context) error {
	items, err := v.agg.Fetch(ctx, v.query)
	if err != nil {
		return err
	}
	v.replace(items)
	return nil
}

func (v *FeedView) ApplyToggle(kind EngagementKind, entityID string, engaged bool) func() {
	switch kind {
	case KindLike:
		return v.patch(model.FeedItemPost, entityID, fieldLike, engaged)
	case KindRepost:
		return v.patch(model.FeedItemPost, entityID, fieldRepost, engaged)
	case KindListingLike:
		return v.patch(model.FeedItemListing, entityID, fieldLike, engaged)
	}
	return func() {}
}

// Watch 表变更时刷新。刷新失败只记日志，视图保留旧数据。
func (v *FeedView) Watch(ctx context.Context, ctrl *Controller) (Unsubscribe, error) {
	tables := FeedTables
	if v.agg.mergesListings(v.query) {
		tables = append(append([]string{}, FeedTables...), ListingTables...)
	}
	return ctrl.Subscribe(ctx, tables, func() {
		if err := v.Refresh(ctx); err != nil {
			logger.Warn("feed refresh failed", zap.String("scope", string(v.query.Scope)), zap.Error(err))
		}
	})
}

// ListingView 商品列表状态容器
type ListingView struct {
	itemSet
	agg   *Aggregator
	query ListingQuery
}

func NewListingView(agg *Aggregator, q ListingQuery) *ListingView {
	return &ListingView{agg: agg, query: q}
}

func (v *ListingView) Refresh(ctx context.Context) error {
	items, err := v.agg.FetchListings(ctx, v.query)
	if err != nil {
		return err
	}
	v.replace(items)
	return nil
}

func (v *ListingView) ApplyToggle(kind EngagementKind, entityID string, engaged bool) func() {
	if kind != KindListingLike {
		return func() {}
	}
	return v.patch(model.FeedItemListing, entityID, fieldLike, engaged)
}

func (v *ListingView) Watch(ctx context.Context, ctrl *Controller) (Unsubscribe, error) {
	return ctrl.Subscribe(ctx, ListingTables, func() {
		if err := v.Refresh(ctx); err != nil {
			logger.Warn("listing refresh failed", zap.Error(err))
		}
	})
}

// FollowView 关注按钮状态：是否已关注与粉丝数
type FollowView struct {
	mu        sync.RWMutex
	targetID  string
	following bool
	followers int
}

func NewFollowView(targetID string, following bool, followers int) *FollowView {
	return &FollowView{targetID: targetID, following: following, followers: followers}
}

func (v *FollowView) ApplyToggle(kind EngagementKind, entityID string, engaged bool) func() {
	if kind != KindFollow || entityID != v.targetID {
		return func() {}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.following == engaged {
		return func() {}
	}
	flip(engaged, &v.following, &v.followers)
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.following == engaged {
			flip(!engaged, &v.following, &v.followers)
		}
	}
}

func (v *FollowView) State() (following bool, followers int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.following, v.followers
}

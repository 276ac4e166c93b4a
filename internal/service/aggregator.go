package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
)

const tracerName = "github.com/d60-Lab/break-social/internal/service"

// Scope 聚合范围
type Scope string

const (
	ScopeNone     Scope = "none"
	ScopeAuthor   Scope = "author"
	ScopeQuery    Scope = "query"
	ScopeTrending Scope = "trending"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeNone, ScopeAuthor, ScopeQuery, ScopeTrending:
		return true
	}
	return false
}

type FeedQuery struct {
	Scope    Scope
	AuthorID string
	Query    string
	ViewerID string
	// IncludeListings 仅对 ScopeNone 生效
	IncludeListings bool
}

type ListingQuery struct {
	SellerID string
	LikedBy  string
	Query    string
	ViewerID string
}

type AggregatorOptions struct {
	TrendingLimit   int
	IncludeListings bool
	Rank            RankConfig
	Now             func() time.Time
}

// Aggregator 每次调用都全量读取，没有分页。
type Aggregator struct {
	posts    repository.PostRepository
	reposts  repository.RepostRepository
	listings repository.ListingRepository
	opts     AggregatorOptions
	tracer   trace.Tracer
}

func NewAggregator(posts repository.PostRepository, reposts repository.RepostRepository, listings repository.ListingRepository, opts AggregatorOptions) *Aggregator {
	if opts.TrendingLimit <= 0 {
		opts.TrendingLimit = 10
	}
	if opts.Rank == (RankConfig{}) {
		opts.Rank = DefaultRankConfig
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{posts: posts, reposts: reposts, listings: listings, opts: opts, tracer: otel.Tracer(tracerName)}
}

// Fetch 构建一个范围内的 feed。任一读取失败则整体失败，返回 TRANSIENT_FETCH。
func (a *Aggregator) Fetch(ctx context.Context, q FeedQuery) (items []*model.FeedItem, err error) {
	if q.Scope == "" {
		q.Scope = ScopeNone
	}
	ctx, span := a.tracer.Start(ctx, "feed.Fetch", trace.WithAttributes(attribute.String("feed.scope", string(q.Scope))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("feed.items", len(items)))
		}
		span.End()
	}()

	switch q.Scope {
	case ScopeNone:
	case ScopeAuthor:
		if q.AuthorID == "" {
			return nil, invalid("feed.fetch", "author scope requires an author id")
		}
	case ScopeQuery:
		if q.Query == "" {
			return nil, invalid("feed.fetch", "query scope requires a query")
		}
	case ScopeTrending:
		return a.fetchTrending(ctx, q)
	default:
		return nil, invalid("feed.fetch", "unknown scope %q", q.Scope)
	}

	var (
		postFilter   repository.PostFilter
		repostFilter repository.RepostFilter
	)
	switch q.Scope {
	case ScopeAuthor:
		postFilter.AuthorID = q.AuthorID
		repostFilter.UserID = q.AuthorID
	case ScopeQuery:
		postFilter.ContentQuery = q.Query
		repostFilter.PostContentQuery = q.Query
	}
	withListings := a.mergesListings(q)

	var (
		posts    []*model.Post
		reposts  []*model.Repost
		listings []*model.Listing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = a.posts.List(gctx, postFilter)
		return err
	})
	g.Go(func() error {
		var err error
		reposts, err = a.reposts.List(gctx, repostFilter)
		return err
	})
	if withListings {
		g.Go(func() error {
			var err error
			listings, err = a.listings.List(gctx, repository.ListingFilter{Status: model.ListingActive})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, newError(CodeTransientFetch, "feed.fetch", err)
	}

	// 作者页的转发目标多数不是作者本人的帖子，需要补读
	var targets []*model.Post
	if q.Scope == ScopeAuthor {
		targets, err = a.repostTargets(ctx, posts, reposts)
		if err != nil {
			return nil, newError(CodeTransientFetch, "feed.fetch", err)
		}
	}

	items = buildFeed(posts, targets, reposts, q.ViewerID)
	if withListings {
		items = MergeFeeds(items, BuildListingItems(listings, q.ViewerID))
	}
	return items, nil
}

// mergesListings 首页 feed 是否混入在售商品（查询参数或全局配置任一开启）
func (a *Aggregator) mergesListings(q FeedQuery) bool {
	if q.Scope != "" && q.Scope != ScopeNone {
		return false
	}
	return (q.IncludeListings || a.opts.IncludeListings) && a.listings != nil
}

func (a *Aggregator) repostTargets(ctx context.Context, posts []*model.Post, reposts []*model.Repost) ([]*model.Post, error) {
	have := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		have[p.ID] = struct{}{}
	}
	var missing []string
	for _, r := range reposts {
		if _, ok := have[r.PostID]; ok {
			continue
		}
		have[r.PostID] = struct{}{}
		missing = append(missing, r.PostID)
	}
	if len(missing) == 0 {
		return nil, nil
	}
	return a.posts.List(ctx, repository.PostFilter{IDs: missing})
}

// fetchTrending 按热度取前 N 篇，再按时间排序输出。不含转发条目。
func (a *Aggregator) fetchTrending(ctx context.Context, q FeedQuery) ([]*model.FeedItem, error) {
	posts, err := a.posts.List(ctx, repository.PostFilter{})
	if err != nil {
		return nil, newError(CodeTransientFetch, "feed.trending", err)
	}
	top := SelectTrending(posts, a.opts.TrendingLimit, a.opts.Rank, a.opts.Now())
	return BuildFeed(top, nil, q.ViewerID), nil
}

// FetchListings 构建商品列表（只含 active）。
func (a *Aggregator) FetchListings(ctx context.Context, q ListingQuery) ([]*model.FeedItem, error) {
	if a.listings == nil {
		return nil, newError(CodeTransientFetch, "feed.listings", errors.New("listing repository not configured"))
	}
	ctx, span := a.tracer.Start(ctx, "feed.FetchListings")
	defer span.End()

	listings, err := a.listings.List(ctx, repository.ListingFilter{
		SellerID: q.SellerID,
		LikedBy:  q.LikedBy,
		Query:    q.Query,
		Status:   model.ListingActive,
	})
	if err != nil {
		span.RecordError(err)
		return nil, newError(CodeTransientFetch, "feed.listings", err)
	}
	return BuildListingItems(listings, q.ViewerID), nil
}

// FetchPost 详情页：单篇帖子的基础条目。
func (a *Aggregator) FetchPost(ctx context.Context, postID, viewerID string) (*model.FeedItem, error) {
	p, err := a.posts.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, "feed.post", err)
		}
		return nil, newError(CodeTransientFetch, "feed.post", err)
	}
	return postItem(p, viewerID), nil
}

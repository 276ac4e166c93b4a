package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

// EngagementKind 可切换的互动边
type EngagementKind string

const (
	KindLike        EngagementKind = "like"
	KindListingLike EngagementKind = "listing_like"
	KindRepost      EngagementKind = "repost"
	KindFollow      EngagementKind = "follow"
)

func (k EngagementKind) Valid() bool {
	switch k {
	case KindLike, KindListingLike, KindRepost, KindFollow:
		return true
	}
	return false
}

// EngagementState 视图容器的乐观更新入口。ApplyToggle 立即翻转本地状态并返回回滚函数。
type EngagementState interface {
	ApplyToggle(kind EngagementKind, entityID string, engaged bool) (rollback func())
}

// Refresher 写后重新拉取（refetch 模式）
type Refresher interface {
	Refresh(ctx context.Context) error
}

// CountInvalidator 关注数缓存失效
type CountInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string) error
}

type ToggleRequest struct {
	Kind EngagementKind
	// EntityID 帖子 / 商品 / 被关注用户 id
	EntityID string
	UserID   string
	// OwnerID 为空时写成功后按需查询
	OwnerID string
	// Engaged 调用方视图里的当前状态，Mutator 不会重新查询
	Engaged bool
	// RepostID 已知时取消转发按 id 删除
	RepostID string

	// State 非空为乐观模式；否则 Refresh 非空为写后刷新模式
	State   EngagementState
	Refresh Refresher
}

type ToggleResult struct {
	Engaged bool `json:"engaged"`
	// Benign 重复点赞或删除不存在的行，按成功处理
	Benign   bool   `json:"benign"`
	RepostID string `json:"repost_id,omitempty"`
	Notified bool   `json:"notified"`
}

type ToggleOutcome struct {
	Result *ToggleResult
	Err    error
}

type Mutator struct {
	likes         repository.LikeRepository
	listingLikes  repository.ListingLikeRepository
	reposts       repository.RepostRepository
	follows       repository.FollowRepository
	posts         repository.PostRepository
	listings      repository.ListingRepository
	notifications repository.NotificationRepository
	counts        CountInvalidator
	tracer        trace.Tracer
}

type MutatorDeps struct {
	Likes         repository.LikeRepository
	ListingLikes  repository.ListingLikeRepository
	Reposts       repository.RepostRepository
	Follows       repository.FollowRepository
	Posts         repository.PostRepository
	Listings      repository.ListingRepository
	Notifications repository.NotificationRepository
	Counts        CountInvalidator
}

func NewMutator(d MutatorDeps) *Mutator {
	return &Mutator{
		likes:         d.Likes,
		listingLikes:  d.ListingLikes,
		reposts:       d.Reposts,
		follows:       d.Follows,
		posts:         d.Posts,
		listings:      d.Listings,
		notifications: d.Notifications,
		counts:        d.Counts,
		tracer:        otel.Tracer(tracerName),
	}
}

type pendingToggle struct {
	req      ToggleRequest
	target   bool
	rollback func()
}

// Toggle 翻转一条互动边并等待写入完成。
func (m *Mutator) Toggle(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	p, err := m.begin(req)
	if err != nil {
		return nil, err
	}
	return m.finish(ctx, p)
}

// ToggleAsync 乐观翻转在返回前已生效，写入结果从通道异步送达。
func (m *Mutator) ToggleAsync(ctx context.Context, req ToggleRequest) (<-chan ToggleOutcome, error) {
	p, err := m.begin(req)
	if err != nil {
		return nil, err
	}
	ch := make(chan ToggleOutcome, 1)
	go func() {
		defer close(ch)
		res, err := m.finish(ctx, p)
		ch <- ToggleOutcome{Result: res, Err: err}
	}()
	return ch, nil
}

func (m *Mutator) begin(req ToggleRequest) (*pendingToggle, error) {
	const op = "engagement.toggle"
	if !req.Kind.Valid() {
		return nil, invalid(op, "unknown engagement kind %q", req.Kind)
	}
	if req.EntityID == "" || req.UserID == "" {
		return nil, invalid(op, "entity id and user id are required")
	}
	target := !req.Engaged
	if req.Kind == KindFollow && target && req.EntityID == req.UserID {
		return nil, newError(CodeInvalidInput, op, ErrFollowSelf)
	}
	p := &pendingToggle{req: req, target: target}
	if req.State != nil {
		p.rollback = req.State.ApplyToggle(req.Kind, req.EntityID, target)
	}
	return p, nil
}

func (m *Mutator) finish(ctx context.Context, p *pendingToggle) (res *ToggleResult, err error) {
	req := p.req
	ctx, span := m.tracer.Start(ctx, "engagement.Toggle", trace.WithAttributes(
		attribute.String("engagement.kind", string(req.Kind)),
		attribute.Bool("engagement.target", p.target),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res, created, err := m.write(ctx, req, p.target)
	if err != nil {
		if p.rollback != nil {
			p.rollback()
		}
		return nil, newError(CodeWriteFailed, "engagement.toggle", err)
	}

	if p.target && created {
		res.Notified = m.notify(ctx, req)
	}
	if req.Kind == KindFollow && m.counts != nil {
		if err := m.counts.Invalidate(ctx, req.UserID, req.EntityID); err != nil {
			logger.Warn("invalidate follow counts failed", zap.String("user", req.UserID), zap.Error(err))
		}
	}
	if req.State == nil && req.Refresh != nil {
		if err := req.Refresh.Refresh(ctx); err != nil {
			logger.Warn("refresh after toggle failed", zap.String("kind", string(req.Kind)), zap.Error(err))
		}
	}
	return res, nil
}

// write 执行插入/删除。created 表示本次确实新建了一行（良性重复为 false）。
func (m *Mutator) write(ctx context.Context, req ToggleRequest, engage bool) (*ToggleResult, bool, error) {
	res := &ToggleResult{Engaged: engage}
	switch req.Kind {
	case KindLike:
		if !engage {
			return res, false, m.likes.Delete(ctx, req.EntityID, req.UserID)
		}
		_, err := m.likes.Create(ctx, req.EntityID, req.UserID)
		return benign(res, err)

	case KindListingLike:
		if !engage {
			return res, false, m.listingLikes.Delete(ctx, req.EntityID, req.UserID)
		}
		_, err := m.listingLikes.Create(ctx, req.EntityID, req.UserID)
		return benign(res, err)

	case KindRepost:
		if !engage {
			if req.RepostID != "" {
				return res, false, m.reposts.Delete(ctx, req.RepostID, req.EntityID, req.UserID)
			}
			return res, false, m.reposts.DeleteByPair(ctx, req.EntityID, req.UserID)
		}
		rp, err := m.reposts.Create(ctx, req.EntityID, req.UserID)
		if err == nil {
			res.RepostID = rp.ID
			return res, true, nil
		}
		var created bool
		res, created, err = benign(res, err)
		if err == nil {
			if existing, ferr := m.reposts.Find(ctx, req.EntityID, req.UserID); ferr == nil {
				res.RepostID = existing.ID
			}
		}
		return res, created, err

	case KindFollow:
		if !engage {
			return res, false, m.follows.Delete(ctx, req.UserID, req.EntityID)
		}
		created, err := m.follows.Create(ctx, req.UserID, req.EntityID)
		if err != nil {
			return nil, false, err
		}
		if !created {
			res.Benign = true
			logger.Debug("benign duplicate follow", zap.String("follower", req.UserID), zap.String("following", req.EntityID))
		}
		return res, created, nil
	}
	return nil, false, fmt.Errorf("unknown engagement kind %q", req.Kind)
}

func benign(res *ToggleResult, err error) (*ToggleResult, bool, error) {
	if err == nil {
		return res, true, nil
	}
	if repository.IsUniqueViolation(err) {
		logger.Debug("benign duplicate engagement", zap.Error(err))
		res.Benign = true
		return res, false, nil
	}
	return nil, false, err
}

// notify 给所有者写一条通知；失败只记日志，不影响主操作。
func (m *Mutator) notify(ctx context.Context, req ToggleRequest) bool {
	if m.notifications == nil || req.Kind == KindRepost {
		return false
	}
	owner, err := m.ownerOf(ctx, req)
	if err == nil && (owner == "" || owner == req.UserID) {
		return false
	}
	if err == nil {
		var n *model.Notification
		n, err = engagementNotification(req, owner)
		if err == nil {
			err = m.notifications.Create(ctx, n)
		}
	}
	if err != nil {
		sideErr := newError(CodeNotificationSideEffect, "engagement.notify", err)
		logger.Warn("notification side effect failed",
			zap.String("kind", string(req.Kind)), zap.String("entity", req.EntityID), zap.Error(sideErr))
		return false
	}
	return true
}

func (m *Mutator) ownerOf(ctx context.Context, req ToggleRequest) (string, error) {
	if req.OwnerID != "" {
		return req.OwnerID, nil
	}
	switch req.Kind {
	case KindFollow:
		return req.EntityID, nil
	case KindLike:
		if m.posts == nil {
			return "", errors.New("post repository not configured")
		}
		p, err := m.posts.GetByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		return p.AuthorID, nil
	case KindListingLike:
		if m.listings == nil {
			return "", errors.New("listing repository not configured")
		}
		l, err := m.listings.GetByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		return l.SellerID, nil
	}
	return "", nil
}

func engagementNotification(req ToggleRequest, owner string) (*model.Notification, error) {
	switch req.Kind {
	case KindLike:
		return model.NewNotification("", owner, "Someone liked your post",
			model.LikePayload{PostID: req.EntityID, UserID: req.UserID})
	case KindListingLike:
		return model.NewNotification("", owner, "Someone liked your listing",
			model.LikeListingPayload{ListingID: req.EntityID, UserID: req.UserID})
	case KindFollow:
		return model.NewNotification("", owner, "Someone started following you",
			model.FollowPayload{FollowerID: req.UserID})
	}
	return nil, fmt.Errorf("no notification for %q", req.Kind)
}

package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

// NotificationCounter 当前用户的未读数。标记已读后总是重新计数，不做本地减一。
type NotificationCounter struct {
	notifier
	repo   repository.NotificationRepository
	userID string

	mu    sync.RWMutex
	count int64
}

func NewNotificationCounter(repo repository.NotificationRepository, userID string) *NotificationCounter {
	return &NotificationCounter{repo: repo, userID: userID}
}

func (c *NotificationCounter) FetchUnreadCount(ctx context.Context) (int64, error) {
	n, err := c.repo.CountUnread(ctx, c.userID)
	if err != nil {
		return c.Count(), newError(CodeTransientFetch, "notifications.count", err)
	}
	c.mu.Lock()
	c.count = n
	c.mu.Unlock()
	c.signal()
	return n, nil
}

func (c *NotificationCounter) MarkAsRead(ctx context.Context, notificationID string) (int64, error) {
	if err := c.repo.MarkRead(ctx, notificationID, c.userID); err != nil {
		return c.Count(), newError(CodeWriteFailed, "notifications.mark_read", err)
	}
	return c.FetchUnreadCount(ctx)
}

func (c *NotificationCounter) MarkAllAsRead(ctx context.Context) (int64, error) {
	if err := c.repo.MarkAllRead(ctx, c.userID); err != nil {
		return c.Count(), newError(CodeWriteFailed, "notifications.mark_all_read", err)
	}
	return c.FetchUnreadCount(ctx)
}

// Count 最近一次拉取的值
func (c *NotificationCounter) Count() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Watch 只响应 user_id 等于当前用户的通知变更。
func (c *NotificationCounter) Watch(ctx context.Context, ctrl *Controller) (Unsubscribe, error) {
	return ctrl.SubscribeFiltered(ctx, []string{realtime.TableNotifications},
		func(ev realtime.ChangeEvent) bool { return ev.UserID == c.userID },
		func() {
			if _, err := c.FetchUnreadCount(ctx); err != nil {
				logger.Warn("refresh unread count failed", zap.String("user", c.userID), zap.Error(err))
			}
		})
}

// NotificationView 附带按类型解码后的 payload
type NotificationView struct {
	*model.Notification
	Payload model.NotificationPayload `json:"payload,omitempty"`
}

// NotificationService 通知列表与计数器工厂
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]*NotificationView, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, newError(CodeTransientFetch, "notifications.list", err)
	}
	out := make([]*NotificationView, 0, len(rows))
	for _, n := range rows {
		v := &NotificationView{Notification: n}
		if p, err := n.Payload(); err == nil {
			v.Payload = p
		} else {
			logger.Warn("undecodable notification payload", zap.String("id", n.ID), zap.Error(err))
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *NotificationService) Counter(userID string) *NotificationCounter {
	return NewNotificationCounter(s.repo, userID)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead 只更新属于 userID 的通知
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationRepository struct{ base }

func NewNotificationRepository(db *gorm.DB, pub realtime.Publisher) NotificationRepository {
	return &notificationRepository{newBase(db, pub)}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return classify(realtime.TableNotifications, err)
	}
	r.publish(ctx, realtime.TableNotifications, realtime.OpInsert, n.ID, n.UserID)
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&res).Error
	return res, classify(realtime.TableNotifications, err)
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return classify(realtime.TableNotifications, res.Error)
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, realtime.TableNotifications, realtime.OpUpdate, id, userID)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return classify(realtime.TableNotifications, res.Error)
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, realtime.TableNotifications, realtime.OpUpdate, "", userID)
	}
	return nil
}

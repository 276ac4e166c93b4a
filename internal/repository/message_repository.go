package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	// ListForUser 该用户收发的全部私信，新的在前
	ListForUser(ctx context.Context, userID string) ([]*model.Message, error)
	// Conversation a 与 b 之间的私信，按时间正序
	Conversation(ctx context.Context, a, b string) ([]*model.Message, error)
	// MarkRead 只在 read_at 为空时写入，返回是否更新
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
}

type messageRepository struct{ base }

func NewMessageRepository(db *gorm.DB, pub realtime.Publisher) MessageRepository {
	return &messageRepository{newBase(db, pub)}
}

func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return classify(realtime.TableMessages, err)
	}
	r.publish(ctx, realtime.TableMessages, realtime.OpInsert, m.ID, m.ReceiverID)
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, classify(realtime.TableMessages, err)
	}
	return &m, nil
}

func (r *messageRepository) ListForUser(ctx context.Context, userID string) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&res).Error
	return res, classify(realtime.TableMessages, err)
}

func (r *messageRepository) Conversation(ctx context.Context, a, b string) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&res).Error
	return res, classify(realtime.TableMessages, err)
}

func (r *messageRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).Select("id", "receiver_id").Where("id = ?", id).First(&m).Error; err != nil {
		return false, classify(realtime.TableMessages, err)
	}
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if res.Error != nil {
		return false, classify(realtime.TableMessages, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.publish(ctx, realtime.TableMessages, realtime.OpUpdate, id, m.ReceiverID)
	return true, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	ListByPost(ctx context.Context, postID string) ([]*model.Reply, error)
}

type replyRepository struct{ base }

func NewReplyRepository(db *gorm.DB, pub realtime.Publisher) ReplyRepository {
	return &replyRepository{newBase(db, pub)}
}

func (r *replyRepository) Create(ctx context.Context, reply *model.Reply) error {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(reply).Error; err != nil {
		return classify(realtime.TableReplies, err)
	}
	r.publish(ctx, realtime.TableReplies, realtime.OpInsert, reply.ID, reply.AuthorID)
	return nil
}

func (r *replyRepository) ListByPost(ctx context.Context, postID string) ([]*model.Reply, error) {
	var res []*model.Reply
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&res).Error
	return res, classify(realtime.TableReplies, err)
}

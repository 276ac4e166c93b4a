package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type RepostFilter struct {
	UserID  string
	PostIDs []string
	// PostContentQuery 按被转发帖子的内容过滤
	PostContentQuery string
}

type RepostRepository interface {
	// Create 重复转发返回 unique ConflictError
	Create(ctx context.Context, postID, userID string) (*model.Repost, error)
	// Delete 按转发 id 删除，只删除属于 (postID, userID) 的行；不存在或不属于视为成功
	Delete(ctx context.Context, id, postID, userID string) error
	DeleteByPair(ctx context.Context, postID, userID string) error
	Find(ctx context.Context, postID, userID string) (*model.Repost, error)
	List(ctx context.Context, f RepostFilter) ([]*model.Repost, error)
}

type repostRepository struct{ base }

func NewRepostRepository(db *gorm.DB, pub realtime.Publisher) RepostRepository {
	return &repostRepository{newBase(db, pub)}
}

func (r *repostRepository) Create(ctx context.Context, postID, userID string) (*model.Repost, error) {
	rp := &model.Repost{ID: uuid.New().String(), PostID: postID, UserID: userID}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rp).Error; err != nil {
		return nil, classify(realtime.TableReposts, err)
	}
	r.publish(ctx, realtime.TableReposts, realtime.OpInsert, rp.ID, userID)
	return rp, nil
}

func (r *repostRepository) Delete(ctx context.Context, id, postID, userID string) error {
	return r.deleteWhere(ctx, r.db.WithContext(ctx).Where("id = ? AND post_id = ? AND user_id = ?", id, postID, userID))
}

func (r *repostRepository) DeleteByPair(ctx context.Context, postID, userID string) error {
	return r.deleteWhere(ctx, r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID))
}

func (r *repostRepository) deleteWhere(ctx context.Context, q *gorm.DB) error {
	var rows []model.Repost
	if err := q.Find(&rows).Error; err != nil {
		return classify(realtime.TableReposts, err)
	}
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, rp := range rows {
		ids[i] = rp.ID
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Repost{}).Error; err != nil {
		return classify(realtime.TableReposts, err)
	}
	for _, rp := range rows {
		r.publish(ctx, realtime.TableReposts, realtime.OpDelete, rp.ID, rp.UserID)
	}
	return nil
}

func (r *repostRepository) Find(ctx context.Context, postID, userID string) (*model.Repost, error) {
	var rp model.Repost
	err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&rp).Error
	if err != nil {
		return nil, classify(realtime.TableReposts, err)
	}
	return &rp, nil
}

func (r *repostRepository) List(ctx context.Context, f RepostFilter) ([]*model.Repost, error) {
	if f.PostIDs != nil && len(f.PostIDs) == 0 {
		return []*model.Repost{}, nil
	}
	q := r.db.WithContext(ctx).Model(&model.Repost{}).Preload("User")
	if f.UserID != "" {
		q = q.Where("reposts.user_id = ?", f.UserID)
	}
	if f.PostIDs != nil {
		q = q.Where("reposts.post_id IN ?", f.PostIDs)
	}
	if f.PostContentQuery != "" {
		q = q.Joins("JOIN posts ON posts.id = reposts.post_id").
			Where("LOWER(posts.content) LIKE ? ESCAPE '\\'", strings.ToLower(containsPattern(f.PostContentQuery)))
	}
	var res []*model.Repost
	if err := q.Order("reposts.created_at DESC").Find(&res).Error; err != nil {
		return nil, classify(realtime.TableReposts, err)
	}
	return res, nil
}

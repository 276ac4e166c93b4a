package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

// LikeRepository 帖子点赞。重复插入返回 unique ConflictError，删除不存在的行是 no-op。
type LikeRepository interface {
	Create(ctx context.Context, postID, userID string) (*model.Like, error)
	Delete(ctx context.Context, postID, userID string) error
	Exists(ctx context.Context, postID, userID string) (bool, error)
	Count(ctx context.Context, postID string) (int64, error)
}

type likeRepository struct{ base }

func NewLikeRepository(db *gorm.DB, pub realtime.Publisher) LikeRepository {
	return &likeRepository{newBase(db, pub)}
}

func (r *likeRepository) Create(ctx context.Context, postID, userID string) (*model.Like, error) {
	l := &model.Like{ID: uuid.New().String(), PostID: postID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, classify(realtime.TableLikes, err)
	}
	r.publish(ctx, realtime.TableLikes, realtime.OpInsert, l.ID, userID)
	return l, nil
}

func (r *likeRepository) Delete(ctx context.Context, postID, userID string) error {
	res := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.Like{})
	if res.Error != nil {
		return classify(realtime.TableLikes, res.Error)
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, realtime.TableLikes, realtime.OpDelete, postID, userID)
	}
	return nil
}

func (r *likeRepository) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *likeRepository) Count(ctx context.Context, postID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}

// ListingLikeRepository 商品收藏，语义同 LikeRepository
type ListingLikeRepository interface {
	Create(ctx context.Context, listingID, userID string) (*model.ListingLike, error)
	Delete(ctx context.Context, listingID, userID string) error
	Exists(ctx context.Context, listingID, userID string) (bool, error)
	Count(ctx context.Context, listingID string) (int64, error)
}

type listingLikeRepository struct{ base }

func NewListingLikeRepository(db *gorm.DB, pub realtime.Publisher) ListingLikeRepository {
	return &listingLikeRepository{newBase(db, pub)}
}

func (r *listingLikeRepository) Create(ctx context.Context, listingID, userID string) (*model.ListingLike, error) {
	l := &model.ListingLike{ID: uuid.New().String(), ListingID: listingID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, classify(realtime.TableListingLikes, err)
	}
	r.publish(ctx, realtime.TableListingLikes, realtime.OpInsert, l.ID, userID)
	return l, nil
}

func (r *listingLikeRepository) Delete(ctx context.Context, listingID, userID string) error {
	res := r.db.WithContext(ctx).Where("listing_id = ? AND user_id = ?", listingID, userID).Delete(&model.ListingLike{})
	if res.Error != nil {
		return classify(realtime.TableListingLikes, res.Error)
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, realtime.TableListingLikes, realtime.OpDelete, listingID, userID)
	}
	return nil
}

func (r *listingLikeRepository) Exists(ctx context.Context, listingID, userID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.ListingLike{}).
		Where("listing_id = ? AND user_id = ?", listingID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *listingLikeRepository) Count(ctx context.Context, listingID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.ListingLike{}).Where("listing_id = ?", listingID).Count(&cnt).Error
	return cnt, err
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type HashtagRepository interface {
	// AddForPost 重复的 (post, tag) 直接忽略
	AddForPost(ctx context.Context, postID string, tags []string, at time.Time) error
	// Trending since 之后出现次数最多的话题，次数相同按 tag 升序
	Trending(ctx context.Context, since time.Time, limit int) ([]model.HashtagCount, error)
}

type hashtagRepository struct{ base }

func NewHashtagRepository(db *gorm.DB, pub realtime.Publisher) HashtagRepository {
	return &hashtagRepository{newBase(db, pub)}
}

func (r *hashtagRepository) AddForPost(ctx context.Context, postID string, tags []string, at time.Time) error {
	if len(tags) == 0 {
		return nil
	}
	// 统一存 UTC，sqlite 下按字符串比较时间
	at = at.UTC()
	rows := make([]model.PostHashtag, len(tags))
	for i, tag := range tags {
		rows[i] = model.PostHashtag{ID: uuid.New().String(), PostID: postID, Tag: tag, CreatedAt: at}
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return classify(realtime.TablePostHashtags, res.Error)
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, realtime.TablePostHashtags, realtime.OpInsert, postID, "")
	}
	return nil
}

func (r *hashtagRepository) Trending(ctx context.Context, since time.Time, limit int) ([]model.HashtagCount, error) {
	if limit <= 0 {
		limit = 10
	}
	res := []model.HashtagCount{}
	err := r.db.WithContext(ctx).
		Model(&model.PostHashtag{}).
		Select("tag, COUNT(*) AS count").
		Where("created_at >= ?", since.UTC()).
		Group("tag").
		Order("COUNT(*) DESC, tag ASC").
		Limit(limit).
		Scan(&res).Error
	return res, classify(realtime.TablePostHashtags, err)
}

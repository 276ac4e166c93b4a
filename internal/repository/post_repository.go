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

// PostFilter 为空时返回全部帖子
type PostFilter struct {
	AuthorID     string
	ContentQuery string
	// IDs 非 nil 时只取这些 id（空切片返回空结果）
	IDs []string
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, f PostFilter) ([]*model.Post, error)
}

type postRepository struct{ base }

func NewPostRepository(db *gorm.DB, pub realtime.Publisher) PostRepository {
	return &postRepository{newBase(db, pub)}
}

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return classify(realtime.TablePosts, err)
	}
	r.publish(ctx, realtime.TablePosts, realtime.OpInsert, p.ID, p.AuthorID)
	return nil
}

func withEngagement(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Likes").
		Preload("Replies").
		Preload("Reposts").
		Preload("Reposts.User")
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := withEngagement(r.db.WithContext(ctx)).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, classify(realtime.TablePosts, err)
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, f PostFilter) ([]*model.Post, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []*model.Post{}, nil
	}
	q := withEngagement(r.db.WithContext(ctx)).Model(&model.Post{})
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.ContentQuery != "" {
		q = q.Where("LOWER(content) LIKE ? ESCAPE '\\'", strings.ToLower(containsPattern(f.ContentQuery)))
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	var res []*model.Post
	if err := q.Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, classify(realtime.TablePosts, err)
	}
	return res, nil
}

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type ListingFilter struct {
	SellerID string
	Status   model.ListingStatus
	// LikedBy 只返回该用户收藏过的商品
	LikedBy string
	Query   string
}

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	SetStatus(ctx context.Context, id string, status model.ListingStatus) error
	List(ctx context.Context, f ListingFilter) ([]*model.Listing, error)
}

type listingRepository struct{ base }

func NewListingRepository(db *gorm.DB, pub realtime.Publisher) ListingRepository {
	return &listingRepository{newBase(db, pub)}
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = model.ListingActive
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error; err != nil {
		return classify(realtime.TableListings, err)
	}
	r.publish(ctx, realtime.TableListings, realtime.OpInsert, l.ID, l.SellerID)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.db.WithContext(ctx).Preload("Seller").Preload("ListingLikes").Where("id = ?", id).First(&l).Error
	if err != nil {
		return nil, classify(realtime.TableListings, err)
	}
	return &l, nil
}

// Update 只写卖家可编辑的字段
func (r *listingRepository) Update(ctx context.Context, l *model.Listing) error {
	res := r.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"title":       l.Title,
		"description": l.Description,
		"price":       l.Price,
		"condition":   l.Condition,
		"image_url":   l.ImageURL,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		return classify(realtime.TableListings, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.publish(ctx, realtime.TableListings, realtime.OpUpdate, l.ID, l.SellerID)
	return nil
}

func (r *listingRepository) SetStatus(ctx context.Context, id string, status model.ListingStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return classify(realtime.TableListings, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.publish(ctx, realtime.TableListings, realtime.OpUpdate, id, "")
	return nil
}

func (r *listingRepository) List(ctx context.Context, f ListingFilter) ([]*model.Listing, error) {
	q := r.db.WithContext(ctx).Model(&model.Listing{}).Preload("Seller").Preload("ListingLikes")
	if f.SellerID != "" {
		q = q.Where("listings.seller_id = ?", f.SellerID)
	}
	if f.Status != "" {
		q = q.Where("listings.status = ?", f.Status)
	}
	if f.LikedBy != "" {
		q = q.Where("listings.id IN (?)",
			r.db.Model(&model.ListingLike{}).Select("listing_id").Where("user_id = ?", f.LikedBy))
	}
	if f.Query != "" {
		pat := strings.ToLower(containsPattern(f.Query))
		q = q.Where("(LOWER(listings.title) LIKE ? ESCAPE '\\' OR LOWER(listings.description) LIKE ? ESCAPE '\\')", pat, pat)
	}
	var res []*model.Listing
	if err := q.Order("listings.created_at DESC").Find(&res).Error; err != nil {
		return nil, classify(realtime.TableListings, err)
	}
	return res, nil
}

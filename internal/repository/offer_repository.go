package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
)

type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	ListByListing(ctx context.Context, listingID string) ([]*model.Offer, error)
}

type offerRepository struct{ base }

func NewOfferRepository(db *gorm.DB, pub realtime.Publisher) OfferRepository {
	return &offerRepository{newBase(db, pub)}
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = model.OfferPending
	}
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return classify(realtime.TableOffers, err)
	}
	r.publish(ctx, realtime.TableOffers, realtime.OpInsert, o.ID, o.BuyerID)
	return nil
}

func (r *offerRepository) ListByListing(ctx context.Context, listingID string) ([]*model.Offer, error) {
	var res []*model.Offer
	err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at DESC").Find(&res).Error
	return res, classify(realtime.TableOffers, err)
}

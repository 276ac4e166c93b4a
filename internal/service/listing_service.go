package service

import (
	"context"
	"strings"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
)

type ListingInput struct {
	Title       string                 `json:"title" validate:"required,max=200"`
	Description string                 `json:"description" validate:"max=5000"`
	Price       float64                `json:"price" validate:"gt=0"`
	Condition   model.ListingCondition `json:"condition" validate:"required,oneof=mint near_mint excellent good fair"`
	ImageURL    *string                `json:"image_url" validate:"omitempty,url"`
}

// Announcer 上架后通知粉丝
type Announcer interface {
	Enqueue(l *model.Listing)
}

type ListingService struct {
	listings  repository.ListingRepository
	announcer Announcer
}

func NewListingService(listings repository.ListingRepository, announcer Announcer) *ListingService {
	return &ListingService{listings: listings, announcer: announcer}
}

func (s *ListingService) Create(ctx context.Context, sellerID string, in ListingInput) (*model.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	if sellerID == "" {
		return nil, invalid("listing.create", "seller id is required")
	}
	if err := check("listing.create", in); err != nil {
		return nil, err
	}
	l := &model.Listing{
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Condition:   in.Condition,
		Status:      model.ListingActive,
		ImageURL:    in.ImageURL,
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, newError(CodeWriteFailed, "listing.create", err)
	}
	if s.announcer != nil {
		s.announcer.Enqueue(l)
	}
	return l, nil
}

// Update 只有卖家可以编辑
func (s *ListingService) Update(ctx context.Context, actorID, listingID string, in ListingInput) (*model.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := check("listing.update", in); err != nil {
		return nil, err
	}
	l, err := s.owned(ctx, "listing.update", actorID, listingID)
	if err != nil {
		return nil, err
	}
	l.Title, l.Description, l.Price, l.Condition, l.ImageURL = in.Title, in.Description, in.Price, in.Condition, in.ImageURL
	if err := s.listings.Update(ctx, l); err != nil {
		return nil, newError(CodeWriteFailed, "listing.update", err)
	}
	return l, nil
}

// SetStatus 卖家标记售出/删除（或重新上架）
func (s *ListingService) SetStatus(ctx context.Context, actorID, listingID string, status model.ListingStatus) error {
	if !status.Valid() {
		return invalid("listing.status", "unknown status %q", status)
	}
	l, err := s.owned(ctx, "listing.status", actorID, listingID)
	if err != nil {
		return err
	}
	if l.Status == status {
		return nil
	}
	if err := s.listings.SetStatus(ctx, listingID, status); err != nil {
		return newError(CodeWriteFailed, "listing.status", err)
	}
	return nil
}

func (s *ListingService) Get(ctx context.Context, listingID string) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, "listing.get", err)
		}
		return nil, newError(CodeTransientFetch, "listing.get", err)
	}
	return l, nil
}

func (s *ListingService) owned(ctx context.Context, op, actorID, listingID string) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, op, err)
		}
		return nil, newError(CodeTransientFetch, op, err)
	}
	if l.SellerID != actorID {
		return nil, forbidden(op)
	}
	return l, nil
}

func forbidden(op string) *Error {
	return &Error{Code: CodeForbidden, Op: op}
}

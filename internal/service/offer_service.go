package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

type OfferInput struct {
	ListingID string  `json:"-" validate:"required"`
	BuyerID   string  `json:"-" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Message   *string `json:"message" validate:"omitempty,max=1000"`
}

type OfferService struct {
	listings      repository.ListingRepository
	offers        repository.OfferRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
}

func NewOfferService(listings repository.ListingRepository, offers repository.OfferRepository, messages repository.MessageRepository, notifications repository.NotificationRepository) *OfferService {
	return &OfferService{listings: listings, offers: offers, messages: messages, notifications: notifications}
}

// MakeOffer 创建 pending 出价，随后给卖家写 new_offer 通知和一条私信。
// 后两步失败只记日志，出价本身已成功。
func (s *OfferService) MakeOffer(ctx context.Context, in OfferInput) (*model.Offer, error) {
	const op = "offer.create"
	if err := check(op, in); err != nil {
		return nil, err
	}
	l, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, op, err)
		}
		return nil, newError(CodeTransientFetch, op, err)
	}
	if l.SellerID == in.BuyerID {
		return nil, newError(CodeInvalidInput, op, ErrOfferSelf)
	}
	if l.Status != model.ListingActive {
		return nil, invalid(op, "listing is %s", l.Status)
	}

	o := &model.Offer{ListingID: l.ID, BuyerID: in.BuyerID, Amount: in.Amount, Message: in.Message, Status: model.OfferPending}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, newError(CodeWriteFailed, op, err)
	}

	n, err := model.NewNotification("", l.SellerID, fmt.Sprintf("New offer of $%.2f on %s", o.Amount, l.Title),
		model.NewOfferPayload{OfferID: o.ID, ListingID: l.ID, BuyerID: in.BuyerID, Amount: o.Amount})
	if err == nil {
		err = s.notifications.Create(ctx, n)
	}
	if err != nil {
		logger.Warn("offer notification failed", zap.String("offer", o.ID),
			zap.Error(newError(CodeNotificationSideEffect, op, err)))
	}

	content := fmt.Sprintf("I made an offer of $%.2f for %s", o.Amount, l.Title)
	if in.Message != nil && *in.Message != "" {
		content += ": " + *in.Message
	}
	listingID := l.ID
	msg := &model.Message{SenderID: in.BuyerID, ReceiverID: l.SellerID, Content: content, ListingID: &listingID}
	if err := s.messages.Create(ctx, msg); err != nil {
		logger.Warn("offer message failed", zap.String("offer", o.ID),
			zap.Error(newError(CodeNotificationSideEffect, op, err)))
	}
	return o, nil
}

func (s *OfferService) ListByListing(ctx context.Context, actorID, listingID string) ([]*model.Offer, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newError(CodeNotFound, "offer.list", err)
		}
		return nil, newError(CodeTransientFetch, "offer.list", err)
	}
	if l.SellerID != actorID {
		return nil, forbidden("offer.list")
	}
	res, err := s.offers.ListByListing(ctx, listingID)
	if err != nil {
		return nil, newError(CodeTransientFetch, "offer.list", err)
	}
	return res, nil
}

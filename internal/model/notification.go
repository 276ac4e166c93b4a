package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationNewOffer    NotificationType = "new_offer"
	NotificationNewMessage  NotificationType = "new_message"
	NotificationLike        NotificationType = "like"
	NotificationLikeListing NotificationType = "like_listing"
	NotificationFollow      NotificationType = "follow"
	NotificationListing     NotificationType = "listing"
)

// Notification 通知。Data 的结构由 Type 决定，见 Payload。
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string           `json:"user_id" gorm:"type:varchar(36);not null;index:idx_notification_user_read"`
	Type      NotificationType `json:"type" gorm:"type:varchar(32);not null"`
	Message   string           `json:"message" gorm:"type:text"`
	Data      datatypes.JSON   `json:"data"`
	Read      bool             `json:"read" gorm:"not null;default:false;index:idx_notification_user_read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationPayload 按通知类型区分的引用数据
type NotificationPayload interface {
	NotificationType() NotificationType
}

type LikePayload struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

type LikeListingPayload struct {
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
}

type FollowPayload struct {
	FollowerID string `json:"follower_id"`
}

type NewOfferPayload struct {
	OfferID   string  `json:"offer_id"`
	ListingID string  `json:"listing_id"`
	BuyerID   string  `json:"buyer_id"`
	Amount    float64 `json:"amount"`
}

type NewMessagePayload struct {
	MessageID string  `json:"message_id"`
	SenderID  string  `json:"sender_id"`
	ListingID *string `json:"listing_id,omitempty"`
}

type ListingPayload struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
}

func (LikePayload) NotificationType() NotificationType        { return NotificationLike }
func (LikeListingPayload) NotificationType() NotificationType { return NotificationLikeListing }
func (FollowPayload) NotificationType() NotificationType      { return NotificationFollow }
func (NewOfferPayload) NotificationType() NotificationType    { return NotificationNewOffer }
func (NewMessagePayload) NotificationType() NotificationType  { return NotificationNewMessage }
func (ListingPayload) NotificationType() NotificationType     { return NotificationListing }

// NewNotification 用 payload 的类型填充 Type 和 Data。
func NewNotification(id, recipientID, message string, p NotificationPayload) (*Notification, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ID:      id,
		UserID:  recipientID,
		Type:    p.NotificationType(),
		Message: message,
		Data:    datatypes.JSON(raw),
	}, nil
}

// Payload 按 Type 解码 Data。
func (n *Notification) Payload() (NotificationPayload, error) {
	var p NotificationPayload
	switch n.Type {
	case NotificationLike:
		p = &LikePayload{}
	case NotificationLikeListing:
		p = &LikeListingPayload{}
	case NotificationFollow:
		p = &FollowPayload{}
	case NotificationNewOffer:
		p = &NewOfferPayload{}
	case NotificationNewMessage:
		p = &NewMessagePayload{}
	case NotificationListing:
		p = &ListingPayload{}
	default:
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}
	if len(n.Data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(n.Data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", n.Type, err)
	}
	return p, nil
}

package model

import "time"

type ListingCondition string

const (
	ConditionMint      ListingCondition = "mint"
	ConditionNearMint  ListingCondition = "near_mint"
	ConditionExcellent ListingCondition = "excellent"
	ConditionGood      ListingCondition = "good"
	ConditionFair      ListingCondition = "fair"
)

func (c ListingCondition) Valid() bool {
	switch c {
	case ConditionMint, ConditionNearMint, ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}

type ListingStatus string

const (
	ListingActive  ListingStatus = "active"
	ListingSold    ListingStatus = "sold"
	ListingDeleted ListingStatus = "deleted"
)

func (s ListingStatus) Valid() bool {
	return s == ListingActive || s == ListingSold || s == ListingDeleted
}

// Listing 在售商品，只能由卖家修改
type Listing struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SellerID    string           `json:"seller_id" gorm:"type:varchar(36);index:idx_listing_seller;not null"`
	Title       string           `json:"title" gorm:"type:varchar(200);not null"`
	Description string           `json:"description" gorm:"type:text"`
	Price       float64          `json:"price" gorm:"type:decimal(12,2);not null"`
	Condition   ListingCondition `json:"condition" gorm:"type:varchar(16);not null"`
	Status      ListingStatus    `json:"status" gorm:"type:varchar(16);index:idx_listing_status;not null;default:active"`
	ImageURL    *string          `json:"image_url,omitempty" gorm:"type:text"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Seller       *Profile      `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	ListingLikes []ListingLike `json:"-" gorm:"foreignKey:ListingID"`
}

func (Listing) TableName() string { return "listings" }

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCancelled OfferStatus = "cancelled"
)

// Offer 买家出价。核心只负责创建，状态流转不在这里实现。
type Offer struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID string      `json:"listing_id" gorm:"type:varchar(36);index:idx_offer_listing;not null"`
	BuyerID   string      `json:"buyer_id" gorm:"type:varchar(36);index:idx_offer_buyer;not null"`
	Amount    float64     `json:"amount" gorm:"type:decimal(12,2);not null"`
	Message   *string     `json:"message,omitempty" gorm:"type:text"`
	Status    OfferStatus `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Offer) TableName() string { return "offers" }

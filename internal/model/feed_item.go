package model

import "time"

type FeedItemKind string

const (
	FeedItemPost    FeedItemKind = "post"
	FeedItemListing FeedItemKind = "listing"
)

// PostCard 渲染用的帖子内容（不带关联集合）
type PostCard struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Author    *Profile  `json:"author,omitempty"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingCard 渲染用的商品内容
type ListingCard struct {
	ID          string           `json:"id"`
	SellerID    string           `json:"seller_id"`
	Seller      *Profile         `json:"seller,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Condition   ListingCondition `json:"condition"`
	Status      ListingStatus    `json:"status"`
	ImageURL    *string          `json:"image_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FeedItem 每次聚合重新计算的派生条目，不落库。
// 转发条目的 Key 为 "<repost_id>-<post_id>"。
type FeedItem struct {
	Key       string       `json:"key"`
	Kind      FeedItemKind `json:"kind"`
	Post      *PostCard    `json:"post,omitempty"`
	Listing   *ListingCard `json:"listing,omitempty"`
	DisplayAt time.Time    `json:"display_at"`
	OrderAt   time.Time    `json:"order_at"`

	IsRepost       bool     `json:"is_repost"`
	RepostID       string   `json:"repost_id,omitempty"`
	OriginalPostID string   `json:"original_post_id,omitempty"`
	RepostedBy     *Profile `json:"reposted_by,omitempty"`
	RepostedByID   string   `json:"reposted_by_id,omitempty"`

	LikesCount       int  `json:"likes_count"`
	ReplyCount       int  `json:"reply_count"`
	RepostCount      int  `json:"repost_count"`
	LikedByViewer    bool `json:"liked_by_viewer"`
	RepostedByViewer bool `json:"reposted_by_viewer"`
	// ViewerRepostID 让取消转发可以按 id 删除
	ViewerRepostID string `json:"viewer_repost_id,omitempty"`
}

// EntityID 返回点赞/转发作用的实体 id。
func (it *FeedItem) EntityID() string {
	if it.Kind == FeedItemListing && it.Listing != nil {
		return it.Listing.ID
	}
	if it.Post != nil {
		return it.Post.ID
	}
	return ""
}

// OwnerID 返回实体所有者。
func (it *FeedItem) OwnerID() string {
	if it.Kind == FeedItemListing && it.Listing != nil {
		return it.Listing.SellerID
	}
	if it.Post != nil {
		return it.Post.AuthorID
	}
	return ""
}

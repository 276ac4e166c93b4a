package model

import "time"

// Repost 转发：只是指向 Post 的指针加元数据。
// 同一 (post, user) 最多一条，取消转发直接删除行。
type Repost struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index:idx_repost_user;index:ux_repost_pair,unique"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);not null;index:ux_repost_pair,unique"`
	CreatedAt time.Time `json:"created_at"`

	User *Profile `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Post *Post    `json:"post,omitempty" gorm:"foreignKey:PostID"`
}

func (Repost) TableName() string { return "reposts" }

// Like 点赞，(post_id, user_id) 唯一
type Like struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);not null;index:ux_like_pair,unique"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index:ux_like_pair,unique;index:idx_like_user"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string { return "likes" }

// ListingLike 商品收藏，(listing_id, user_id) 唯一
type ListingLike struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID string    `json:"listing_id" gorm:"type:varchar(36);not null;index:ux_listing_like_pair,unique"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index:ux_listing_like_pair,unique;index:idx_listing_like_user"`
	CreatedAt time.Time `json:"created_at"`
}

func (ListingLike) TableName() string { return "listing_likes" }

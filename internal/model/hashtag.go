package model

import "time"

// PostHashtag 帖子内容里出现的话题，(post_id, tag) 唯一，tag 统一小写不带 #
type PostHashtag struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);not null;index:ux_post_tag,unique"`
	Tag       string    `json:"tag" gorm:"type:varchar(64);not null;index:ux_post_tag,unique;index:idx_hashtag_tag"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_hashtag_created"`
}

func (PostHashtag) TableName() string { return "post_hashtags" }

// HashtagCount 时间窗内话题出现的帖子数
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

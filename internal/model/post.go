package model

import "time"

// Post 原创内容，创建后不可修改
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(36);index:idx_post_author;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	ImageURL  *string   `json:"image_url,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_post_created"`

	Author  *Profile `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Likes   []Like   `json:"-" gorm:"foreignKey:PostID"`
	Replies []Reply  `json:"-" gorm:"foreignKey:PostID"`
	Reposts []Repost `json:"-" gorm:"foreignKey:PostID"`
}

func (Post) TableName() string { return "posts" }

// Reply 回复，reply_count 的来源
type Reply struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);index:idx_reply_post;not null"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(36);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	Author *Profile `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (Reply) TableName() string { return "replies" }

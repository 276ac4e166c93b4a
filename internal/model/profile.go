package model

import "time"

// Profile 用户公开资料，用于作者/转发者署名
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	FullName  string    `json:"full_name" gorm:"type:varchar(128)"`
	Bio       string    `json:"bio" gorm:"type:text"`
	AvatarURL *string   `json:"avatar_url,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (Profile) TableName() string { return "profiles" }

package model

import "time"

// Message 私信，创建后只有接收方能写 read_at
type Message struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID   string     `json:"sender_id" gorm:"type:varchar(36);index:idx_message_sender;not null"`
	ReceiverID string     `json:"receiver_id" gorm:"type:varchar(36);index:idx_message_receiver;not null"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	ListingID  *string    `json:"listing_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

func (Message) TableName() string { return "messages" }

// Conversation 按对方分组的会话摘要
type Conversation struct {
	OtherUserID string   `json:"other_user_id"`
	LastMessage Message  `json:"last_message"`
	Unread      int      `json:"unread"`
	Other       *Profile `json:"other,omitempty"`
}

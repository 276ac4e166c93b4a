package model

// AllModels 迁移顺序
func AllModels() []interface{} {
	return []interface{}{
		&Profile{}, &Post{}, &Reply{}, &Repost{}, &Like{},
		&Listing{}, &ListingLike{}, &Offer{}, &Follow{}, &Message{}, &Notification{}, &PostHashtag{},
	}
}

package realtime

import (
	"context"
	"time"
)

// 变更事件里的表名
const (
	TablePosts         = "posts"
	TableReposts       = "reposts"
	TableLikes         = "likes"
	TableReplies       = "replies"
	TableListings      = "listings"
	TableListingLikes  = "listing_likes"
	TableOffers        = "offers"
	TableFollows       = "follows"
	TableMessages      = "messages"
	TableNotifications = "notifications"
	TableProfiles      = "profiles"
	TablePostHashtags  = "post_hashtags"
)

// Op 变更类型位掩码
type Op uint8

const (
	OpInsert Op = 1 << iota
	OpUpdate
	OpDelete

	OpAll = OpInsert | OpUpdate | OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpAll:
		return "*"
	}
	return "mixed"
}

// ChangeEvent 一次已提交的行变更。实时同步只把它当作信号使用；
// UserID 是该行的归属用户（接收者、所有者或操作者），供过滤订阅丢弃无关行。
type ChangeEvent struct {
	Table  string    `json:"table"`
	Op     Op        `json:"op"`
	RowID  string    `json:"row_id"`
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

type Handler func(ChangeEvent)

type Subscription interface {
	Close() error
}

// Publisher 仓储写成功后发布事件
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Bus 持久层的订阅端
type Bus interface {
	Publisher
	Subscribe(ctx context.Context, table string, mask Op, h Handler) (Subscription, error)
	Close() error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ChangeEvent) error { return nil }

// Nop 丢弃所有事件
var Nop Publisher = nopPublisher{}

// Package testutil 各包测试共用的夹具。
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/break-social/config"
	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/pkg/database"
)

// OpenDB 返回已迁移、测试独占的内存 sqlite。
func OpenDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(tb, err)
	db.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	require.NoError(tb, db.AutoMigrate(model.AllModels()...))
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Recorder 记录全部事件的 realtime.Publisher
type Recorder struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (r *Recorder) Publish(_ context.Context, ev realtime.ChangeEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []realtime.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.ChangeEvent(nil), r.events...)
}

// Tables 每个事件对应一个 "table:op"
func (r *Recorder) Tables() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Table + ":" + ev.Op.String()
	}
	return out
}

// T0 固定基准时间
var T0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// At 返回 T0 加 n 分钟
func At(n int) time.Time { return T0.Add(time.Duration(n) * time.Minute) }

func Profile(tb testing.TB, db *gorm.DB, id, username string) *model.Profile {
	tb.Helper()
	p := &model.Profile{ID: id, Username: username, FullName: username, CreatedAt: T0}
	require.NoError(tb, db.Create(p).Error)
	return p
}

func Post(tb testing.TB, db *gorm.DB, id, authorID, content string, at time.Time) *model.Post {
	tb.Helper()
	p := &model.Post{ID: id, AuthorID: authorID, Content: content, CreatedAt: at}
	require.NoError(tb, db.Create(p).Error)
	return p
}

func Repost(tb testing.TB, db *gorm.DB, id, userID, postID string, at time.Time) *model.Repost {
	tb.Helper()
	r := &model.Repost{ID: id, UserID: userID, PostID: postID, CreatedAt: at}
	require.NoError(tb, db.Create(r).Error)
	return r
}

func Like(tb testing.TB, db *gorm.DB, postID, userID string) {
	tb.Helper()
	require.NoError(tb, db.Create(&model.Like{ID: postID + ":" + userID, PostID: postID, UserID: userID}).Error)
}

func Listing(tb testing.TB, db *gorm.DB, id, sellerID, title string, at time.Time) *model.Listing {
	tb.Helper()
	l := &model.Listing{
		ID: id, SellerID: sellerID, Title: title, Price: 10,
		Condition: model.ConditionGood, Status: model.ListingActive, CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(tb, db.Create(l).Error)
	return l
}

func Notification(tb testing.TB, db *gorm.DB, id, userID string, read bool) *model.Notification {
	tb.Helper()
	n, err := model.NewNotification(id, userID, "hello", model.FollowPayload{FollowerID: "someone"})
	require.NoError(tb, err)
	n.Read = read
	require.NoError(tb, db.Create(n).Error)
	return n
}

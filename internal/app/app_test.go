package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/break-social/config"
	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/service"
)

func testConfig(redisAddr, realtimeDriver string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode, RateLimit: 100, RateBurst: 100},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Redis:    config.RedisConfig{Addr: redisAddr, ChannelPrefix: "test:"},
		Realtime: config.RealtimeConfig{Driver: realtimeDriver, Buffer: 16},
		Auth:     config.AuthConfig{JWTSecret: "s"},
		Feed:     config.FeedConfig{TrendingLimit: 5},
		Cache:    config.CacheConfig{FollowCountTTL: time.Minute},
	}
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	a, err := New(ctx, testConfig(mr.Addr(), "redis"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })
	require.NoError(t, a.Migrate())
	require.NotNil(t, a.Redis)

	// 关注后计数走 redis 缓存
	res, err := a.Mutator.Toggle(ctx, service.ToggleRequest{Kind: service.KindFollow, EntityID: "u1", UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, res.Engaged)
	counts, err := a.FollowCounts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Followers)
	assert.True(t, mr.Exists("follow_counts:u1"))
}

func TestNewRedisDriverNeedsRedis(t *testing.T) {
	_, err := New(context.Background(), testConfig("", "redis"))
	assert.Error(t, err)
}

func TestNewMemoryDriverToleratesMissingRedis(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig("127.0.0.1:1", "memory"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })
	assert.Nil(t, a.Redis)
}

func TestRouterAndWorkers(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig("", "memory"))
	require.NoError(t, err)
	require.NoError(t, a.Migrate())
	a.StartWorkers(1)

	w := httptest.NewRecorder()
	a.Router(false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	_, err = a.Repos.Follows.Create(ctx, "f1", "s1")
	require.NoError(t, err)
	a.Announcer.Enqueue(&model.Listing{ID: "l1", SellerID: "s1", Title: "Bike"})

	require.Eventually(t, func() bool {
		n, err := a.Repos.Notifications.CountUnread(ctx, "f1")
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, a.Close(ctx))
}

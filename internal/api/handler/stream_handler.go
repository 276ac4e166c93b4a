package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/logger"
	"github.com/d60-Lab/break-social/pkg/response"
)

// HeartbeatInterval SSE 保活注释的发送间隔
var HeartbeatInterval = 15 * time.Second

var errLiveDisabled = errors.New("live sync disabled")

// stream 先推送一次当前快照，之后 changed 每触发一次推送一次，直到客户端断开。
func stream(c *gin.Context, event string, changed <-chan struct{}, snapshot func() interface{}) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 订阅前 Refresh 留下的信号已包含在首个快照里
	select {
	case <-changed:
	default:
	}

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	first := true
	c.Stream(func(w io.Writer) bool {
		if first {
			first = false
			c.SSEvent(event, snapshot())
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-changed:
			c.SSEvent(event, snapshot())
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return false
			}
		}
		return true
	})
}

// watchFailed 订阅失败时降级：仍推送首个快照和已建立订阅的变更
func watchFailed(stream string, err error) {
	logger.Warn("stream subscribe degraded", zap.String("stream", stream), zap.Error(err))
}

// FeedStream feed 实时推送
// @Summary feed 实时推送（SSE）
// @Tags 动态
// @Produce text/event-stream
// @Param scope query string false "none/home/author/query/trending"
// @Param author_id query string false "scope=author 时必填"
// @Param q query string false "scope=query 时的关键字"
// @Param include_listings query bool false "合并商品"
// @Success 200 {array} model.FeedItem "event: feed"
// @Router /api/v1/feed/stream [get]
func (h *Handler) FeedStream(c *gin.Context) {
	if h.live == nil {
		response.ServiceUnavailable(c, errLiveDisabled)
		return
	}
	ctx := c.Request.Context()
	view := service.NewFeedView(h.agg, feedQuery(c))
	if err := view.Refresh(ctx); err != nil {
		fail(c, err)
		return
	}
	unsub, err := view.Watch(ctx, h.live)
	defer unsub()
	if err != nil {
		watchFailed("feed", err)
	}
	stream(c, "feed", view.Changed(), func() interface{} { return view.Snapshot() })
}

// NotificationStream 未读数实时推送
// @Summary 未读通知数实时推送（SSE）
// @Tags 通知
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {object} map[string]int64 "event: unread"
// @Router /api/v1/notifications/stream [get]
func (h *Handler) NotificationStream(c *gin.Context) {
	if h.live == nil {
		response.ServiceUnavailable(c, errLiveDisabled)
		return
	}
	ctx := c.Request.Context()
	counter := h.notifications.Counter(viewer(c))
	if _, err := counter.FetchUnreadCount(ctx); err != nil {
		fail(c, err)
		return
	}
	unsub, err := counter.Watch(ctx, h.live)
	defer unsub()
	if err != nil {
		watchFailed("notifications", err)
	}
	stream(c, "unread", counter.Changed(), func() interface{} { return gin.H{"unread": counter.Count()} })
}

// HashtagStream 热门话题实时推送
// @Summary 热门话题实时推送（SSE）
// @Tags 话题
// @Produce text/event-stream
// @Success 200 {array} model.HashtagCount "event: hashtags"
// @Router /api/v1/hashtags/stream [get]
func (h *Handler) HashtagStream(c *gin.Context) {
	if h.live == nil {
		response.ServiceUnavailable(c, errLiveDisabled)
		return
	}
	ctx := c.Request.Context()
	view := h.hashtags.View()
	if err := view.Refresh(ctx); err != nil {
		fail(c, err)
		return
	}
	unsub, err := view.Watch(ctx, h.live)
	defer unsub()
	if err != nil {
		watchFailed("hashtags", err)
	}
	stream(c, "hashtags", view.Changed(), func() interface{} { return view.Snapshot() })
}

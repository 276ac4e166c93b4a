package router

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/break-social/docs"
	"github.com/d60-Lab/break-social/internal/api/handler"
	"github.com/d60-Lab/break-social/internal/api/middleware"
)

type Options struct {
	ServiceName string
	Tokens      *middleware.TokenParser
	Limiter     *middleware.RateLimiter
	// Sentry 为 true 时挂载 sentrygin（需先 telemetry.InitSentry）
	Sentry bool
}

// StreamPaths SSE 接口
var StreamPaths = []string{
	"/api/v1/feed/stream",
	"/api/v1/hashtags/stream",
	"/api/v1/notifications/stream",
}

// New 构建 gin 引擎并注册全部路由。
func New(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.AccessLog())
	// SSE 需要逐条 flush，不能走 gzip 缓冲
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(StreamPaths)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limit := func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware()
	}

	v1 := r.Group("/api/v1")

	// 公共读接口：带 token 时附带 viewer 相关字段
	public := v1.Group("")
	public.Use(middleware.OptionalAuth(opts.Tokens))
	{
		public.GET("/feed", h.Feed)
		public.GET("/feed/stream", h.FeedStream)
		public.GET("/posts/:id", h.GetPost)
		public.GET("/posts/:id/replies", h.ListReplies)
		public.GET("/listings", h.ListListings)
		public.GET("/listings/:id", h.GetListing)
		public.GET("/people", h.SearchPeople)
		public.GET("/profiles/:user_id", h.GetProfile)
		public.GET("/hashtags/trending", h.TrendingHashtags)
		public.GET("/hashtags/stream", h.HashtagStream)
		public.GET("/relations/:user_id/following", h.ListFollowing)
		public.GET("/relations/:user_id/followers", h.ListFollowers)
		public.GET("/relations/:user_id/summary", h.RelationSummary)
	}

	authed := v1.Group("")
	authed.Use(middleware.Auth(opts.Tokens))
	{
		authed.GET("/listings/:id/offers", h.ListOffers)
		authed.GET("/conversations", h.Conversations)
		authed.GET("/conversations/:user_id", h.Conversation)
		authed.GET("/notifications", h.ListNotifications)
		authed.GET("/notifications/unread-count", h.UnreadCount)
		authed.GET("/notifications/stream", h.NotificationStream)
	}

	// 写接口限流
	writes := v1.Group("")
	writes.Use(middleware.Auth(opts.Tokens), limit)
	{
		writes.PUT("/profile", h.UpdateProfile)

		writes.POST("/posts", h.CreatePost)
		writes.POST("/posts/:id/replies", h.CreateReply)
		writes.POST("/posts/:id/like", h.LikePost)
		writes.DELETE("/posts/:id/like", h.LikePost)
		writes.POST("/posts/:id/repost", h.RepostPost)
		writes.DELETE("/posts/:id/repost", h.RepostPost)

		writes.POST("/listings", h.CreateListing)
		writes.PUT("/listings/:id", h.UpdateListing)
		writes.PATCH("/listings/:id/status", h.SetListingStatus)
		writes.POST("/listings/:id/like", h.LikeListing)
		writes.DELETE("/listings/:id/like", h.LikeListing)
		writes.POST("/listings/:id/offers", h.MakeOffer)

		writes.POST("/relations/follow", h.Follow)
		writes.POST("/relations/unfollow", h.Unfollow)

		writes.POST("/messages", h.SendMessage)
		writes.POST("/messages/:id/read", h.MarkMessageRead)

		writes.POST("/notifications/:id/read", h.MarkNotificationRead)
		writes.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	}
	return r
}

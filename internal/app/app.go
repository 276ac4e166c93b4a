// Package app 按配置组装仓储、服务和传输层。
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/break-social/config"
	"github.com/d60-Lab/break-social/internal/api/handler"
	"github.com/d60-Lab/break-social/internal/api/middleware"
	"github.com/d60-Lab/break-social/internal/api/router"
	"github.com/d60-Lab/break-social/internal/cache"
	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/realtime"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/database"
	"github.com/d60-Lab/break-social/pkg/logger"
)

type Repositories struct {
	Posts         repository.PostRepository
	Reposts       repository.RepostRepository
	Likes         repository.LikeRepository
	ListingLikes  repository.ListingLikeRepository
	Replies       repository.ReplyRepository
	Listings      repository.ListingRepository
	Offers        repository.OfferRepository
	Follows       repository.FollowRepository
	Messages      repository.MessageRepository
	Notifications repository.NotificationRepository
	Profiles      repository.ProfileRepository
	Hashtags      repository.HashtagRepository
}

type App struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis 未配置地址时为 nil，缓存随之关闭
	Redis *redis.Client
	Bus   realtime.Bus
	Repos Repositories

	Aggregator    *service.Aggregator
	Mutator       *service.Mutator
	FollowCounts  *cache.FollowCounts
	Announcer     *service.ListingAnnouncer
	Notifications *service.NotificationService
	handler       *handler.Handler

	stopAnnouncer func(context.Context) error
}

// New 打开数据库、redis 与实时总线并构建服务。调用方负责 Close。
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{Config: cfg, DB: db}

	if cfg.Redis.Addr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			if cfg.Realtime.Driver == "redis" {
				_ = a.Close(ctx)
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			logger.Warn("redis unavailable, caches disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = a.Redis.Close()
			a.Redis = nil
		}
	}

	switch cfg.Realtime.Driver {
	case "redis":
		if a.Redis == nil {
			_ = a.Close(ctx)
			return nil, errors.New("realtime driver redis requires redis.addr")
		}
		a.Bus = realtime.NewRedisBus(a.Redis, cfg.Redis.ChannelPrefix)
	default:
		a.Bus = realtime.NewMemoryBus(cfg.Realtime.Buffer)
	}

	a.wire()
	return a, nil
}

func (a *App) wire() {
	db, bus, cfg := a.DB, a.Bus, a.Config
	a.Repos = Repositories{
		Posts:         repository.NewPostRepository(db, bus),
		Reposts:       repository.NewRepostRepository(db, bus),
		Likes:         repository.NewLikeRepository(db, bus),
		ListingLikes:  repository.NewListingLikeRepository(db, bus),
		Replies:       repository.NewReplyRepository(db, bus),
		Listings:      repository.NewListingRepository(db, bus),
		Offers:        repository.NewOfferRepository(db, bus),
		Follows:       repository.NewFollowRepository(db, bus),
		Messages:      repository.NewMessageRepository(db, bus),
		Notifications: repository.NewNotificationRepository(db, bus),
		Profiles:      repository.NewProfileRepository(db, bus),
		Hashtags:      repository.NewHashtagRepository(db, bus),
	}
	r := a.Repos

	a.FollowCounts = cache.NewFollowCounts(r.Follows, a.Redis, cfg.Cache.FollowCountTTL)
	profiles := cache.NewProfiles(r.Profiles, a.Redis, cfg.Cache.FollowCountTTL)

	a.Aggregator = service.NewAggregator(r.Posts, r.Reposts, r.Listings, service.AggregatorOptions{
		TrendingLimit:   cfg.Feed.TrendingLimit,
		IncludeListings: cfg.Feed.IncludeListings,
	})
	a.Mutator = service.NewMutator(service.MutatorDeps{
		Likes:         r.Likes,
		ListingLikes:  r.ListingLikes,
		Reposts:       r.Reposts,
		Follows:       r.Follows,
		Posts:         r.Posts,
		Listings:      r.Listings,
		Notifications: r.Notifications,
		Counts:        a.FollowCounts,
	})
	a.Announcer = service.NewListingAnnouncer(r.Follows, r.Notifications, 1024, 500)
	a.Notifications = service.NewNotificationService(r.Notifications)

	a.handler = handler.New(handler.Deps{
		Aggregator:    a.Aggregator,
		Mutator:       a.Mutator,
		Posts:         service.NewPostService(r.Posts, r.Replies, r.Hashtags),
		Listings:      service.NewListingService(r.Listings, a.Announcer),
		Offers:        service.NewOfferService(r.Listings, r.Offers, r.Messages, r.Notifications),
		Messages:      service.NewMessageService(r.Messages, r.Notifications, profiles),
		Notifications: a.Notifications,
		Relations:     service.NewRelationshipService(r.Follows, r.Profiles, a.FollowCounts),
		Hashtags:      service.NewHashtagService(r.Hashtags, cfg.Feed.HashtagWindow, cfg.Feed.HashtagLimit),
		Profiles:      service.NewProfileService(r.Profiles, profiles),
		Live:          service.NewController(a.Bus),
	})
}

// Migrate 建表与索引
func (a *App) Migrate() error {
	return a.DB.AutoMigrate(model.AllModels()...)
}

// StartWorkers 启动上架通知 worker，Close 时停止。
func (a *App) StartWorkers(n int) {
	if a.stopAnnouncer == nil {
		a.stopAnnouncer = a.Announcer.Start(n)
	}
}

// Router 返回挂好全部路由的 gin 引擎。
func (a *App) Router(sentryEnabled bool) *gin.Engine {
	cfg := a.Config
	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = cfg.Tracing.ServiceName
	}
	return router.New(a.handler, router.Options{
		ServiceName: serviceName,
		Tokens:      middleware.NewTokenParser(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Limiter:     middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		Sentry:      sentryEnabled,
	})
}

// Close 按创建的逆序释放资源，合并返回全部错误。
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.stopAnnouncer != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		errs = append(errs, a.stopAnnouncer(stopCtx))
		cancel()
		a.stopAnnouncer = nil
	}
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

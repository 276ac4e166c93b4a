package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/internal/api/middleware"
	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/response"
)

// Deps 各 handler 依赖的服务
type Deps struct {
	Aggregator    *service.Aggregator
	Mutator       *service.Mutator
	Posts         *service.PostService
	Listings      *service.ListingService
	Offers        *service.OfferService
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Relations     service.RelationshipService
	Hashtags      *service.HashtagService
	Profiles      *service.ProfileService
	// Live 为 nil 时 /stream 接口返回 503
	Live *service.Controller
}

type Handler struct {
	agg           *service.Aggregator
	mutator       *service.Mutator
	postService   *service.PostService
	listingSvc    *service.ListingService
	offerService  *service.OfferService
	messageSvc    *service.MessageService
	notifications *service.NotificationService
	relService    service.RelationshipService
	hashtags      *service.HashtagService
	profiles      *service.ProfileService
	live          *service.Controller
}

func New(d Deps) *Handler {
	return &Handler{
		agg:           d.Aggregator,
		mutator:       d.Mutator,
		postService:   d.Posts,
		listingSvc:    d.Listings,
		offerService:  d.Offers,
		messageSvc:    d.Messages,
		notifications: d.Notifications,
		relService:    d.Relations,
		hashtags:      d.Hashtags,
		profiles:      d.Profiles,
		live:          d.Live,
	}
}

// fail 按服务层错误码映射 HTTP 状态
func fail(c *gin.Context, err error) {
	switch service.CodeOf(err) {
	case service.CodeInvalidInput:
		response.BadRequest(c, err.Error())
	case service.CodeForbidden:
		response.Forbidden(c, err.Error())
	case service.CodeNotFound:
		response.NotFound(c, err.Error())
	case service.CodeTransientFetch:
		response.ServiceUnavailable(c, err)
	default:
		response.InternalError(c, err)
	}
}

func viewer(c *gin.Context) string { return middleware.ViewerID(c) }

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// toggle POST 为互动，DELETE 为取消
func (h *Handler) toggle(c *gin.Context, kind service.EngagementKind, entityID string) {
	req := service.ToggleRequest{
		Kind:     kind,
		EntityID: entityID,
		UserID:   viewer(c),
		Engaged:  c.Request.Method == "DELETE",
		RepostID: c.Query("repost_id"),
	}
	res, err := h.mutator.Toggle(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

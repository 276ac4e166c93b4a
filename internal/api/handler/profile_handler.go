package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/response"
)

// TrendingHashtags 热门话题
// @Summary 热门话题
// @Tags 话题
// @Produce json
// @Param window query string false "时间窗，如 24h，默认取配置"
// @Param limit query int false "条数，默认取配置"
// @Success 200 {object} response.Response{data=[]model.HashtagCount}
// @Failure 400 {object} response.Response
// @Router /api/v1/hashtags/trending [get]
func (h *Handler) TrendingHashtags(c *gin.Context) {
	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			response.BadRequest(c, "invalid window")
			return
		}
		window = d
	}
	tags, err := h.hashtags.TrendingHashtags(c.Request.Context(), window, queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, tags)
}

// GetProfile 用户资料
// @Summary 用户资料
// @Tags 用户
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{user_id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateProfile 修改自己的资料
// @Summary 修改资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "资料"
// @Success 200 {object} response.Response{data=model.Profile}
// @Failure 400 {object} response.Response
// @Router /api/v1/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var in service.UpdateProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in.UserID = viewer(c)
	p, err := h.profiles.Update(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

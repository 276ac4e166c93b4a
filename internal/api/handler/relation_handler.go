package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/response"
)

type followRequest struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

// Follow 关注用户
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "关注信息"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	h.follow(c, false)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "取消关注信息"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	h.follow(c, true)
}

func (h *Handler) follow(c *gin.Context, engaged bool) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.mutator.Toggle(c.Request.Context(), service.ToggleRequest{
		Kind:     service.KindFollow,
		EntityID: req.ToUserID,
		UserID:   viewer(c),
		Engaged:  engaged,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID := c.Param("user_id")
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 10)
	list, err := h.relService.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	userID := c.Param("user_id")
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 10)
	list, err := h.relService.ListFollowers(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// RelationSummary 粉丝数、关注数，登录时附带是否已关注
// @Summary 关系概要
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/summary [get]
func (h *Handler) RelationSummary(c *gin.Context) {
	userID := c.Param("user_id")
	counts, err := h.relService.Counts(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	out := gin.H{"followers": counts.Followers, "following": counts.Following}
	if v := viewer(c); v != "" && v != userID {
		ok, err := h.relService.IsFollowing(c.Request.Context(), v, userID)
		if err != nil {
			fail(c, err)
			return
		}
		out["is_following"] = ok
	}
	response.Success(c, out)
}

// SearchPeople 按用户名/昵称搜索
// @Summary 搜索用户
// @Tags 关系链
// @Param q query string true "关键字"
// @Param limit query int false "数量" default(20)
// @Success 200 {object} response.Response{data=[]model.Profile}
// @Router /api/v1/people [get]
func (h *Handler) SearchPeople(c *gin.Context) {
	list, err := h.relService.SearchPeople(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 20))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

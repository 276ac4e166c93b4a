package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/response"
)

// Feed 时间线
// @Summary 获取 feed
// @Description scope: none(首页) / author(个人页) / query(搜索) / trending(热门)
// @Tags 动态
// @Produce json
// @Param scope query string false "范围" Enums(none, author, query, trending)
// @Param author_id query string false "作者ID（scope=author）"
// @Param q query string false "关键字（scope=query）"
// @Param include_listings query bool false "首页混排商品"
// @Success 200 {object} response.Response{data=[]model.FeedItem}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	items, err := h.agg.Fetch(c.Request.Context(), feedQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, items)
}

// GetPost 帖子详情
// @Summary 帖子详情
// @Tags 动态
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.FeedItem}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	it, err := h.agg.FetchPost(c.Request.Context(), c.Param("id"), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, it)
}

// CreatePost 发帖
// @Summary 发帖
// @Tags 动态
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "内容（最多 280 字）"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var in service.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in.AuthorID = viewer(c)
	p, err := h.postService.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, p)
}

// CreateReply 回复
// @Summary 回复帖子
// @Tags 动态
// @Accept json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param request body service.CreateReplyInput true "回复内容"
// @Success 201 {object} response.Response{data=model.Reply}
// @Router /api/v1/posts/{id}/replies [post]
func (h *Handler) CreateReply(c *gin.Context) {
	var in service.CreateReplyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in.PostID, in.AuthorID = c.Param("id"), viewer(c)
	r, err := h.postService.Reply(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, r)
}

// ListReplies 回复列表
// @Summary 回复列表
// @Tags 动态
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=[]model.Reply}
// @Router /api/v1/posts/{id}/replies [get]
func (h *Handler) ListReplies(c *gin.Context) {
	list, err := h.postService.Replies(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// LikePost 点赞 / 取消点赞
// @Summary 点赞（POST）或取消（DELETE）
// @Tags 互动
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Router /api/v1/posts/{id}/like [post]
// @Router /api/v1/posts/{id}/like [delete]
func (h *Handler) LikePost(c *gin.Context) {
	h.toggle(c, service.KindLike, c.Param("id"))
}

// RepostPost 转发 / 取消转发
// @Summary 转发（POST）或取消（DELETE，可带 repost_id）
// @Tags 互动
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param repost_id query string false "转发ID"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Router /api/v1/posts/{id}/repost [post]
// @Router /api/v1/posts/{id}/repost [delete]
func (h *Handler) RepostPost(c *gin.Context) {
	h.toggle(c, service.KindRepost, c.Param("id"))
}

func feedQuery(c *gin.Context) service.FeedQuery {
	return service.FeedQuery{
		Scope:           service.Scope(c.DefaultQuery("scope", string(service.ScopeNone))),
		AuthorID:        c.Query("author_id"),
		Query:           c.Query("q"),
		ViewerID:        viewer(c),
		IncludeListings: c.Query("include_listings") == "true",
	}
}

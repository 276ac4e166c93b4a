package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/internal/service"
	"github.com/d60-Lab/break-social/pkg/response"
)

// SendMessage 私信
// @Summary 发送私信
// @Tags 私信
// @Accept json
// @Security BearerAuth
// @Param request body service.SendMessageInput true "私信"
// @Success 201 {object} response.Response{data=model.Message}
// @Failure 400 {object} response.Response
// @Router /api/v1/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var in service.SendMessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in.SenderID = viewer(c)
	m, err := h.messageSvc.Send(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, m)
}

// Conversations 会话列表
// @Summary 会话列表
// @Tags 私信
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Conversation}
// @Router /api/v1/conversations [get]
func (h *Handler) Conversations(c *gin.Context) {
	list, err := h.messageSvc.Conversations(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// Conversation 与某人的消息
// @Summary 会话详情
// @Tags 私信
// @Security BearerAuth
// @Param user_id path string true "对方用户ID"
// @Success 200 {object} response.Response{data=[]model.Message}
// @Router /api/v1/conversations/{user_id} [get]
func (h *Handler) Conversation(c *gin.Context) {
	list, err := h.messageSvc.Conversation(c.Request.Context(), viewer(c), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// MarkMessageRead 标记已读（仅接收方）
// @Summary 私信已读
// @Tags 私信
// @Security BearerAuth
// @Param id path string true "消息ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/messages/{id}/read [post]
func (h *Handler) MarkMessageRead(c *gin.Context) {
	if err := h.messageSvc.MarkRead(c.Request.Context(), viewer(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

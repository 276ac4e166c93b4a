package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/break-social/pkg/response"
)

// ListNotifications 通知列表
// @Summary 我的通知
// @Tags 通知
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.NotificationView}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// UnreadCount 未读数
// @Summary 未读通知数
// @Tags 通知
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.Counter(viewer(c)).FetchUnreadCount(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"unread": n})
}

// MarkNotificationRead 标记单条已读，返回最新未读数
// @Summary 标记通知已读
// @Tags 通知
// @Security BearerAuth
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifications.Counter(viewer(c)).MarkAsRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"unread": n})
}

// MarkAllNotificationsRead 全部已读
// @Summary 全部通知已读
// @Tags 通知
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/notifications/read-all [post]
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.Counter(viewer(c)).MarkAllAsRead(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"unread": n})
}

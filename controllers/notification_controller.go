package controllers

import (
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
)

// ListNotifications handles GET /api/v1/notifications?unread=true
func ListNotifications(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := services.NewNotificationService(config.GetDB()).List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, notifications)
}

// MarkNotificationRead handles PUT /api/v1/notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	notification, err := services.NewNotificationService(config.GetDB()).MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, notification)
}

// MarkAllNotificationsRead handles PUT /api/v1/notifications/read-all
func MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	updated, err := services.NewNotificationService(config.GetDB()).MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": updated})
}

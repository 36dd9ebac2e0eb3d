package controllers

import (
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage handles POST /api/v1/orders/:id/messages - sends a message on an order
func SendMessage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	message, err := services.NewMessageService(config.GetDB()).Send(c.Request.Context(), userID, orderID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, message)
}

// GetMessages handles GET /api/v1/orders/:id/messages - oldest first
func GetMessages(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	messages, err := services.NewMessageService(config.GetDB()).List(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, messages)
}

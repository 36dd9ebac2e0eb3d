package controllers

import (
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
)

// CreateReview handles POST /api/v1/reviews - the customer reviews a delivered order
func CreateReview(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var in services.CreateReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := services.NewReviewService(config.GetDB()).Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, review)
}

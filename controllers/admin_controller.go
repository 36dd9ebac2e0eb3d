package controllers

import (
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
)

// VerifyTailorRequest represents the request body for (un)verifying a tailor
type VerifyTailorRequest struct {
	Verified *bool `json:"verified"`
}

// GetPlatformStats handles GET /api/v1/admin/stats
func GetPlatformStats(c *gin.Context) {
	stats, err := services.NewStatsService(config.GetDB()).Platform(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// VerifyTailor handles PUT /api/v1/admin/tailors/:id/verify. An empty body verifies.
func VerifyTailor(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	verified := true
	if c.Request.ContentLength != 0 {
		var req VerifyTailorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if req.Verified != nil {
			verified = *req.Verified
		}
	}

	tailor, err := services.NewTailorService(config.GetDB()).SetVerified(c.Request.Context(), id, verified)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tailor)
}

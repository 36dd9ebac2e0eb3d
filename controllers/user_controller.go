package controllers

import (
	"net/http"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/middleware"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncUser handles POST /api/v1/users/sync - creates or refreshes the caller's
// profile. With Auth0 configured the profile comes from the /userinfo endpoint,
// otherwise from the optional JSON body.
func SyncUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var profile services.ProfileInput
	cfg := config.GetConfig()
	if cfg != nil && cfg.UsesAuth0() {
		accessToken, err := middleware.GetAccessToken(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
			return
		}

		userInfo, err := services.NewAuth0Service(cfg).GetUserInfo(c.Request.Context(), accessToken)
		if err != nil {
			logger.FromCtx(c.Request.Context()).Warn("userinfo lookup failed", zap.Error(err))
			abortWithError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
			return
		}
		if userInfo.Email == "" {
			abortWithError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
			return
		}
		profile = userInfo.Profile()
	} else if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&profile); err != nil {
			respondBindError(c, err)
			return
		}
	}

	user, err := services.NewUserService(config.GetDB()).Upsert(c.Request.Context(), userID, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// GetCurrentUser handles GET /api/v1/users/me
func GetCurrentUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	user, err := services.NewUserService(config.GetDB()).Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// UpdateCurrentUser handles PUT /api/v1/users/me - writes only the supplied fields
func UpdateCurrentUser(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var profile services.ProfileInput
	if err := c.ShouldBindJSON(&profile); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).Upsert(c.Request.Context(), userID, profile)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

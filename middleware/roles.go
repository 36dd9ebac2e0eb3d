package middleware

import (
	"errors"
	"net/http"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireRole loads the caller's user record and lets the request through
// only when the stored role is one of roles. Token claims are not trusted for roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			return
		}

		var user models.User
		if err := config.GetDB().WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "USER_NOT_FOUND",
						"message": "User profile not found. Please create a profile first.",
					},
				})
				return
			}
			logger.FromCtx(c.Request.Context()).Error("failed to load user for role check", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to check permissions",
				},
			})
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Set("current_user", &user)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to access this resource",
			},
		})
	}
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/middleware"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/blousecraft/blousecraft-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError maps a service error onto the response envelope.
// Unclassified errors are logged and reported as INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	var uploadErr *utils.FileUploadError
	switch {
	case errors.As(err, &uploadErr):
		abortWithError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.Is(err, errors.NotValid):
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, errors.NotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.Forbidden):
		abortWithError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, errors.AlreadyExists), errors.Is(err, services.ErrConflict):
		abortWithError(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		abortWithError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
	default:
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// callerID returns the authenticated user id, writing a 401 when it is absent.
func callerID(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return "", false
	}
	return userID, true
}

// uintParam parses a positive numeric path parameter, writing a 400 otherwise.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

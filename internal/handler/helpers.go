package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errcode"
	appErr "github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errors"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case err == appErr.ErrUnauthorized:
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case err == appErr.ErrForbidden:
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrConflict:
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		// Hard failures carry a plain {"error": ...} body, same shape as the
		// 503 warm-up response the chat handler writes.
		c.JSON(500, gin.H{"error": "internal error"})
	}
}

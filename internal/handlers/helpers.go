package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"connect-service/internal/models"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userFromContext(c *gin.Context) (models.UserInfo, bool) {
	val, ok := c.Get("user")
	if !ok {
		return models.UserInfo{}, false
	}
	user, ok := val.(models.UserInfo)
	return user, ok && user.ID != ""
}

func userIDFromContext(c *gin.Context) *string {
	if user, ok := userFromContext(c); ok {
		id := user.ID
		return &id
	}
	if header := c.GetHeader("X-User-ID"); header != "" {
		id := header
		return &id
	}
	return nil
}

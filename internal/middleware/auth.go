package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"connect-service/internal/auth"
)

// AuthMiddleware validates the Authorization header against the session
// service and stores the signed-in user on the context.
func AuthMiddleware(sessions auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		user, err := sessions.Validate(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the session when a bearer token is present
// but never rejects the request. Endpoints that own their authorization
// semantics (channel grants return 403, not 401) use this variant.
func OptionalAuthMiddleware(sessions auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if user, err := sessions.Validate(c.Request.Context(), parts[1]); err == nil {
				c.Set("user", user)
				c.Set("userID", user.ID)
			}
		}
		c.Next()
	}
}

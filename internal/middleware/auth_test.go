package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"connect-service/internal/auth"
	"connect-service/internal/models"
)

func setupRouter(sessions auth.Sessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(sessions))
	r.GET("/me", func(c *gin.Context) {
		user := c.MustGet("user").(models.UserInfo)
		c.JSON(http.StatusOK, user)
	})
	return r
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	sessions := auth.NewTokenSessions("secret")
	router := setupRouter(sessions)

	token, err := sessions.Issue(models.UserInfo{ID: "u1", Name: "alice"}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	router := setupRouter(auth.NewTokenSessions("secret"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	router := setupRouter(auth.NewTokenSessions("secret"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token whatever")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	sessions := auth.NewTokenSessions("secret")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalAuthMiddleware(sessions))
	r.GET("/whoami", func(c *gin.Context) {
		if user, ok := c.Get("user"); ok {
			c.JSON(http.StatusOK, user)
			return
		}
		c.JSON(http.StatusOK, gin.H{"anonymous": true})
	})

	// no token: request passes through without a session
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "anonymous")

	// valid token: session is resolved
	token, err := sessions.Issue(models.UserInfo{ID: "u1", Name: "alice"}, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "u1")
}

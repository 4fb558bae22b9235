package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"connect-service/internal/mocks"
	"connect-service/internal/models"
	"connect-service/internal/push"
)

func setupPushRouter(t *testing.T, repo *mocks.PushRepositoryMock) *gin.Engine {
	t.Helper()
	notifier, err := push.NewNotifier(repo, "mailto:ops@example.com", "", "")
	require.NoError(t, err)
	handler := NewPushHandler(repo, notifier)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", testUser)
		c.Next()
	})
	r.POST("/push/subscribe", handler.Subscribe)
	r.POST("/push/unsubscribe", handler.Unsubscribe)
	r.GET("/push/vapid-key", handler.VAPIDKey)
	return r
}

func TestPushSubscribe(t *testing.T) {
	repo := new(mocks.PushRepositoryMock)
	router := setupPushRouter(t, repo)

	repo.On("SaveSubscription", mock.Anything, "u1", "https://push.example.com/ep1", "p256", "authsecret").
		Return(models.PushSubscription{ID: "s1", UserID: "u1", Endpoint: "https://push.example.com/ep1"}, nil).Once()

	body := bytes.NewBufferString(`{"endpoint":"https://push.example.com/ep1","keys":{"p256dh":"p256","auth":"authsecret"}}`)
	req := httptest.NewRequest(http.MethodPost, "/push/subscribe", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	repo.AssertExpectations(t)
}

func TestPushSubscribeMissingKeys(t *testing.T) {
	router := setupPushRouter(t, new(mocks.PushRepositoryMock))

	body := bytes.NewBufferString(`{"endpoint":"https://push.example.com/ep1"}`)
	req := httptest.NewRequest(http.MethodPost, "/push/subscribe", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushUnsubscribe(t *testing.T) {
	repo := new(mocks.PushRepositoryMock)
	router := setupPushRouter(t, repo)

	repo.On("DeleteByEndpoint", mock.Anything, "https://push.example.com/ep1").Return(nil).Once()

	body := bytes.NewBufferString(`{"endpoint":"https://push.example.com/ep1"}`)
	req := httptest.NewRequest(http.MethodPost, "/push/unsubscribe", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}

func TestPushVAPIDKey(t *testing.T) {
	router := setupPushRouter(t, new(mocks.PushRepositoryMock))

	req := httptest.NewRequest(http.MethodGet, "/push/vapid-key", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["publicKey"])
}

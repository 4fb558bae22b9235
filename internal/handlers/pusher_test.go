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

	"connect-service/internal/auth"
	"connect-service/internal/mocks"
	"connect-service/internal/models"
	"connect-service/internal/pubsub"
	"connect-service/internal/push"
)

func setupPusherRouter(handler *PusherHandler, withSession bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if withSession {
			c.Set("user", testUser)
		}
		c.Next()
	})
	r.POST("/pusher", handler.Publish)
	r.POST("/pusher/auth", handler.Authorize)
	r.GET("/users/online", handler.OnlineUsers)
	return r
}

func TestPublishFansOutToChannel(t *testing.T) {
	broker := pubsub.NewBroker()
	handler := NewPusherHandler(broker, auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, true)

	sub := &collectingSubscriber{}
	broker.Subscribe("private-chat1", sub, nil)

	body := bytes.NewBufferString(`{"channel":"private-chat1","event":"message-event","data":{"text":"hi","sender":{"id":"u1","name":"alice"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sub.events, 1)
	assert.Equal(t, pubsub.EventMessage, sub.events[0].Name)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(1), resp["delivered"])
}

func TestOnlineUsersListsPersonalChannelHolders(t *testing.T) {
	broker := pubsub.NewBroker()
	handler := NewPusherHandler(broker, auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, true)

	tab1 := &collectingSubscriber{}
	tab2 := &collectingSubscriber{}
	broker.Subscribe("private-user-u3", tab1, nil)
	broker.Subscribe("private-user-u3", tab2, nil)
	broker.Subscribe("private-user-u2", &collectingSubscriber{}, nil)
	// Non-personal channels never count as online.
	broker.Subscribe("private-chat1", &collectingSubscriber{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/online", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Online []string `json:"online"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"u2", "u3"}, resp.Online)
}

func TestOnlineUsersRequiresSession(t *testing.T) {
	handler := NewPusherHandler(pubsub.NewBroker(), auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, false)

	req := httptest.NewRequest(http.MethodGet, "/users/online", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublishRejectsUnknownEvent(t *testing.T) {
	handler := NewPusherHandler(pubsub.NewBroker(), auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, true)

	body := bytes.NewBufferString(`{"channel":"private-chat1","event":"typing-event","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishRejectsSpoofedSender(t *testing.T) {
	handler := NewPusherHandler(pubsub.NewBroker(), auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, true)

	body := bytes.NewBufferString(`{"channel":"private-chat1","event":"message-event","data":{"text":"hi","sender":{"id":"u9","name":"mallory"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublishAlertFallsBackToWebPush(t *testing.T) {
	pushRepo := new(mocks.PushRepositoryMock)
	notifier, err := push.NewNotifier(pushRepo, "mailto:ops@example.com", "", "")
	require.NoError(t, err)

	handler := NewPusherHandler(pubsub.NewBroker(), auth.NewAuthorizer("key", "secret"), notifier, nil)
	router := setupPusherRouter(handler, true)

	// nobody subscribed to the personal stream, so stored endpoints are looked up
	pushRepo.On("ListForUser", mock.Anything, "u2").Return([]models.PushSubscription{}, nil).Once()

	body := bytes.NewBufferString(`{"channel":"private-user-u2","event":"message-alert-event","data":{"text":"hi","sender":{"id":"u1","name":"alice"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	pushRepo.AssertExpectations(t)
}

func TestPublishAlertSkipsWebPushWithLiveSubscriber(t *testing.T) {
	pushRepo := new(mocks.PushRepositoryMock)
	notifier, err := push.NewNotifier(pushRepo, "mailto:ops@example.com", "", "")
	require.NoError(t, err)

	broker := pubsub.NewBroker()
	handler := NewPusherHandler(broker, auth.NewAuthorizer("key", "secret"), notifier, nil)
	router := setupPusherRouter(handler, true)

	sub := &collectingSubscriber{}
	broker.Subscribe("private-user-u2", sub, nil)

	body := bytes.NewBufferString(`{"channel":"private-user-u2","event":"message-alert-event","data":{"text":"hi","sender":{"id":"u1","name":"alice"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sub.events, 1)
	pushRepo.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything)
}

func TestAuthorizeIssuesVerifiableGrant(t *testing.T) {
	authorizer := auth.NewAuthorizer("key", "secret")
	handler := NewPusherHandler(pubsub.NewBroker(), authorizer, nil, nil)
	router := setupPusherRouter(handler, true)

	body := bytes.NewBufferString(`{"socket_id":"1.1","channel_name":"presence-chat1","userId":"u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher/auth", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var grant auth.Grant
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&grant))
	assert.True(t, authorizer.Verify("1.1", "presence-chat1", grant.Auth, grant.ChannelData))
}

func TestAuthorizeWithoutSession(t *testing.T) {
	handler := NewPusherHandler(pubsub.NewBroker(), auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, false)

	body := bytes.NewBufferString(`{"socket_id":"1.1","channel_name":"private-chat1","userId":"u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher/auth", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Unauthorized", resp["error"])
}

func TestAuthorizeClaimedUserMismatch(t *testing.T) {
	handler := NewPusherHandler(pubsub.NewBroker(), auth.NewAuthorizer("key", "secret"), nil, nil)
	router := setupPusherRouter(handler, true)

	body := bytes.NewBufferString(`{"socket_id":"1.1","channel_name":"private-chat1","userId":"u9"}`)
	req := httptest.NewRequest(http.MethodPost, "/pusher/auth", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

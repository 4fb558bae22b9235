package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"connect-service/internal/auth"
	"connect-service/internal/models"
	"connect-service/internal/pubsub"
	"connect-service/internal/push"
	"connect-service/internal/telemetry"
)

// PusherHandler exposes the channel fabric's HTTP surface: the publish
// endpoint and the channel authorization endpoint.
type PusherHandler struct {
	broker     *pubsub.Broker
	authorizer *auth.Authorizer
	notifier   *push.Notifier
	audit      *telemetry.AuditEmitter
}

// NewPusherHandler builds a PusherHandler.
func NewPusherHandler(broker *pubsub.Broker, authorizer *auth.Authorizer, notifier *push.Notifier, audit *telemetry.AuditEmitter) *PusherHandler {
	return &PusherHandler{broker: broker, authorizer: authorizer, notifier: notifier, audit: audit}
}

// Publish fans a client event out on a channel. Payloads are validated
// against the tagged event variants before anything is delivered, and the
// claimed sender must be the session user.
func (h *PusherHandler) Publish(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	var req struct {
		Channel string          `json:"channel" binding:"required"`
		Event   string          `json:"event" binding:"required"`
		Data    json.RawMessage `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := pubsub.ValidateEvent(req.Event, req.Data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := pubsub.DecodeMessagePayload(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Sender.ID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "sender does not match session"})
		return
	}

	evt := pubsub.Event{Name: req.Event, Data: req.Data}
	delivered := h.broker.Publish(c.Request.Context(), req.Channel, evt)

	// Personal alert streams fall back to web push when nobody is listening.
	// The delivered count is instance-local; with the relay active a
	// recipient live only on another instance also receives the push.
	if h.notifier != nil && req.Event == pubsub.EventMessageAlert {
		if recipient := pubsub.UserIDFromChannel(req.Channel); recipient != "" && delivered == 0 {
			h.notifier.NotifyMessageAlert(c.Request.Context(), recipient, payload)
		}
	}

	h.emitAudit(c, "INFO", "client event published to "+req.Channel)
	c.JSON(http.StatusOK, gin.H{"message": "completed", "delivered": delivered})
}

// OnlineUsers lists the ids of users holding a live personal channel, the
// signal clients use to render online indicators.
func (h *PusherHandler) OnlineUsers(c *gin.Context) {
	if _, ok := userFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": h.broker.OnlineUserIDs()})
}

// Authorize issues a signed channel grant, or 403 when the session is absent
// or does not match the claimed user.
func (h *PusherHandler) Authorize(c *gin.Context) {
	var req struct {
		SocketID    string `json:"socket_id" binding:"required"`
		ChannelName string `json:"channel_name" binding:"required"`
		UserID      string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sessionUser *models.UserInfo
	if user, ok := userFromContext(c); ok {
		sessionUser = &user
	}

	grant, err := h.authorizer.Authorize(req.SocketID, req.ChannelName, sessionUser, req.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
		return
	}

	c.JSON(http.StatusOK, grant)
}

func (h *PusherHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

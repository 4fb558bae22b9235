package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"connect-service/internal/models"
	"connect-service/internal/pubsub"
	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
)

// MessageHandler manages the chat message endpoints.
type MessageHandler struct {
	connectionRepo repositories.ConnectionRepository
	store          repositories.MessageStore
	broker         *pubsub.Broker
	audit          *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(connectionRepo repositories.ConnectionRepository, store repositories.MessageStore, broker *pubsub.Broker, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		connectionRepo: connectionRepo,
		store:          store,
		broker:         broker,
		audit:          audit,
	}
}

// ListMessages returns a chat's messages newest first. Supports an optional
// limit and a before cursor (RFC3339) for paging further back.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	if _, err := h.connectionRepo.GetByChatID(c.Request.Context(), chatID, user.ID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConnectionNotFound) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": "not a chat participant"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before cursor"})
			return
		}
		before = parsed
	}

	msgs, err := h.store.ListMessages(c.Request.Context(), chatID, limit, before)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CreateMessage appends one message to the chat log and fans the real-time
// events out to the chat's private channel and the recipient's personal
// stream, carrying the server-assigned id for receiver-side dedup.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	var req struct {
		ConnectionID string `json:"connection_id" binding:"required"`
		ToUserID     string `json:"to_user_id" binding:"required"`
		Text         string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.store.CreateMessage(c.Request.Context(), chatID, req.ConnectionID, user.ID, req.ToUserID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEmptyText), errors.Is(err, repositories.ErrConnectionMismatch):
			h.emitAudit(c, "ERROR", "message validation failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.emitAudit(c, "ERROR", "internal error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	payload := pubsub.MessagePayload{
		MessageID: msg.ID,
		Text:      msg.Text,
		Sender:    user,
		CreatedAt: msg.CreatedAt,
	}
	h.publishMessageEvents(c, msg, payload)

	h.emitAudit(c, "INFO", "Message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) publishMessageEvents(c *gin.Context, msg models.Message, payload pubsub.MessagePayload) {
	if h.broker == nil {
		return
	}
	ctx := c.Request.Context()
	if evt, err := pubsub.NewEvent("", pubsub.EventMessage, payload); err == nil {
		h.broker.Publish(ctx, pubsub.PrivateChatChannel(msg.ChatID), evt)
	}
	if evt, err := pubsub.NewEvent("", pubsub.EventMessageAlert, payload); err == nil {
		h.broker.Publish(ctx, pubsub.UserChannel(msg.ToUserID), evt)
	}
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

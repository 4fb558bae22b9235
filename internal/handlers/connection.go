package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
)

// ConnectionHandler manages connection endpoints.
type ConnectionHandler struct {
	connectionRepo repositories.ConnectionRepository
	audit          *telemetry.AuditEmitter
}

// NewConnectionHandler builds a ConnectionHandler.
func NewConnectionHandler(connectionRepo repositories.ConnectionRepository, audit *telemetry.AuditEmitter) *ConnectionHandler {
	return &ConnectionHandler{connectionRepo: connectionRepo, audit: audit}
}

// ListConnections returns the caller's outgoing connection rows.
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	conns, err := h.connectionRepo.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connections"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// CreateConnection creates the bidirectional pair with a shared chat id.
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	var req struct {
		ToUserID string `json:"to_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ToUserID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot connect with yourself"})
		return
	}

	pair, err := h.connectionRepo.CreatePair(c.Request.Context(), user.ID, req.ToUserID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create connection"})
		return
	}

	h.emitAudit(c, "INFO", "Connection created")
	c.JSON(http.StatusCreated, pair)
}

func (h *ConnectionHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"connect-service/internal/push"
	"connect-service/internal/repositories"
)

// PushHandler manages web push subscriptions.
type PushHandler struct {
	repo     repositories.PushRepository
	notifier *push.Notifier
}

// NewPushHandler builds a PushHandler.
func NewPushHandler(repo repositories.PushRepository, notifier *push.Notifier) *PushHandler {
	return &PushHandler{repo: repo, notifier: notifier}
}

// Subscribe stores the caller's push subscription for offline alerts.
func (h *PushHandler) Subscribe(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.repo.SaveSubscription(c.Request.Context(), user.ID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Unsubscribe removes a stored endpoint.
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.DeleteByEndpoint(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}

// VAPIDKey exposes the server's public VAPID key for clients to subscribe with.
func (h *PushHandler) VAPIDKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.notifier.VAPIDPublicKey()})
}

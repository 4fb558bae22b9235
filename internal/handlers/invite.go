package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"connect-service/internal/models"
	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
)

// InviteHandler manages the connect-invite lifecycle.
type InviteHandler struct {
	inviteRepo     repositories.InviteRepository
	connectionRepo repositories.ConnectionRepository
	audit          *telemetry.AuditEmitter
}

// NewInviteHandler builds an InviteHandler.
func NewInviteHandler(inviteRepo repositories.InviteRepository, connectionRepo repositories.ConnectionRepository, audit *telemetry.AuditEmitter) *InviteHandler {
	return &InviteHandler{inviteRepo: inviteRepo, connectionRepo: connectionRepo, audit: audit}
}

// ListSent returns invites the caller sent.
func (h *InviteHandler) ListSent(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	invites, err := h.inviteRepo.ListSent(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// ListReceived returns invites addressed to the caller.
func (h *InviteHandler) ListReceived(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	invites, err := h.inviteRepo.ListReceived(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// CreateInvite sends a PENDING invite from the caller to another user.
func (h *InviteHandler) CreateInvite(c *gin.Context) {
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot invite yourself"})
		return
	}

	invite, err := h.inviteRepo.CreateInvite(c.Request.Context(), user.ID, req.ToUserID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create invite"})
		return
	}

	h.emitAudit(c, "INFO", "Invite sent")
	c.JSON(http.StatusCreated, invite)
}

// UpdateInvite moves an invite to ACCEPTED or REJECTED. Only the recipient
// may act; accepting creates exactly one connection pair sharing a chat id,
// while the invite row is updated in place.
func (h *InviteHandler) UpdateInvite(c *gin.Context) {
	inviteID := c.Param("invite_id")
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	var req struct {
		Status models.InviteStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() || req.Status == models.InviteStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	invite, err := h.inviteRepo.GetInvite(c.Request.Context(), inviteID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrInviteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "invite not found"})
		return
	}
	if invite.ToUserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient can respond"})
		return
	}
	if invite.Status != models.InviteStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "invite already resolved"})
		return
	}

	if req.Status == models.InviteStatusAccepted {
		// The pair is created before the status flip. A failed create leaves
		// the invite PENDING so the recipient can retry; CreatePair is
		// idempotent, so a retry after a failed flip returns the same pair.
		pair, err := h.connectionRepo.CreatePair(c.Request.Context(), invite.FromUserID, invite.ToUserID)
		if err != nil {
			h.emitAudit(c, "ERROR", "connection creation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create connection"})
			return
		}
		updated, err := h.inviteRepo.UpdateStatus(c.Request.Context(), inviteID, req.Status)
		if err != nil {
			h.emitAudit(c, "ERROR", "internal error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update invite"})
			return
		}
		h.emitAudit(c, "INFO", "Invite accepted")
		c.JSON(http.StatusOK, gin.H{"invite": updated, "connection": pair})
		return
	}

	updated, err := h.inviteRepo.UpdateStatus(c.Request.Context(), inviteID, req.Status)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update invite"})
		return
	}

	h.emitAudit(c, "INFO", "Invite rejected")
	c.JSON(http.StatusOK, gin.H{"invite": updated})
}

// DeleteInvite cancels a PENDING invite; only the sender may cancel.
func (h *InviteHandler) DeleteInvite(c *gin.Context) {
	inviteID := c.Param("invite_id")
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	if err := h.inviteRepo.DeletePending(c.Request.Context(), inviteID, user.ID); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, repositories.ErrInviteNotFound):
			status = http.StatusNotFound
		case errors.Is(err, repositories.ErrInviteNotPending):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": "could not cancel invite"})
		return
	}

	h.emitAudit(c, "INFO", "Invite cancelled")
	c.Status(http.StatusNoContent)
}

func (h *InviteHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"golivehub/internal/services"
	"golivehub/internal/stream"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StreamAccounts mints tokens and user records on the video/chat platform
type StreamAccounts interface {
	APIKey() string
	UserToken(userID string) (string, error)
	UpsertUser(ctx context.Context, user stream.User) error
}

// LiveHandler handles going live, stopping and the platform accounts of viewers
type LiveHandler struct {
	db          *gorm.DB
	coordinator *services.LiveCoordinator
	accounts    StreamAccounts
	streamErr   error // non-nil when the platform is not configured
}

// NewLiveHandler creates a new live handler. When streamErr is set the
// platform endpoints answer 500 with its message.
func NewLiveHandler(db *gorm.DB, coordinator *services.LiveCoordinator, accounts StreamAccounts, streamErr error) *LiveHandler {
	return &LiveHandler{
		db:          db,
		coordinator: coordinator,
		accounts:    accounts,
		streamErr:   streamErr,
	}
}

func (h *LiveHandler) requireStream(c *gin.Context) bool {
	if h.streamErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": h.streamErr.Error()})
		return false
	}
	return true
}

// StartLive handles POST /api/live/start
func (h *LiveHandler) StartLive(c *gin.Context) {
	if !h.requireStream(c) {
		return
	}

	var req services.GoLiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.coordinator.GoLive(c.Request.Context(), c.GetString(ContextUserID), req)
	if err != nil {
		respondServiceError(c, "Failed to go live", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}

// StopLive handles POST /api/live/stop
func (h *LiveHandler) StopLive(c *gin.Context) {
	if !h.requireStream(c) {
		return
	}

	if err := h.coordinator.StopLive(c.Request.Context(), c.GetString(ContextUserID)); err != nil {
		respondServiceError(c, "Failed to stop stream", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"success": true}})
}

// Channel handles GET /api/live/:owner/channel
func (h *LiveHandler) Channel(c *gin.Context) {
	info, err := h.coordinator.ChatChannel(c.Request.Context(), c.Param("owner"))
	if err != nil {
		respondServiceError(c, "Failed to load channel", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": info})
}

// Token handles POST /api/stream/token
func (h *LiveHandler) Token(c *gin.Context) {
	if !h.requireStream(c) {
		return
	}

	userID := c.GetString(ContextUserID)
	token, err := h.accounts.UserToken(userID)
	if err != nil {
		log.Printf("[stream] Failed to mint token for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"token":   token,
		"api_key": h.accounts.APIKey(),
		"user_id": userID,
	}})
}

// UpsertUser handles POST /api/stream/users. The platform record mirrors
// the viewer's profile.
func (h *LiveHandler) UpsertUser(c *gin.Context) {
	if !h.requireStream(c) {
		return
	}

	userID := c.GetString(ContextUserID)
	profile, err := services.NewUserStore(h.db).FetchUser(c.Request.Context(), userID, services.FieldUserID)
	if err != nil {
		respondServiceError(c, "Failed to load profile", err)
		return
	}

	user := stream.User{ID: userID}
	if profile != nil {
		user.Name = profile.UserName
		user.Image = profile.ImageURL
		user.Email = profile.Mail
	}

	if err := h.accounts.UpsertUser(c.Request.Context(), user); err != nil {
		log.Printf("[stream] Failed to upsert user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stream user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// respondServiceError maps service errors to status codes: caller mistakes
// are 400, acting on another user's session 403, everything else 500
func respondServiceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrForeignSession):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUnsupportedField),
		errors.Is(err, services.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}

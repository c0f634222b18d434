package handlers

import (
	"context"
	"log"
	"net/http"

	"golivehub/internal/services"

	"github.com/gin-gonic/gin"
)

// SessionPolicy enforces one signed-in session per user
type SessionPolicy interface {
	Enforce(ctx context.Context, userID, sessionID string) (*services.Verdict, error)
}

// SessionOwner confirms a session id belongs to a user. Policies that
// implement it guard subscriptions from tokens without a sid claim.
type SessionOwner interface {
	OwnsSession(ctx context.Context, userID, sessionID string) (bool, error)
}

// SessionSocket serves the push channel for session events
type SessionSocket interface {
	Serve(w http.ResponseWriter, r *http.Request, userID, sessionID string) error
}

// SessionHandler handles single-session enforcement
type SessionHandler struct {
	policy SessionPolicy
	socket SessionSocket
}

// NewSessionHandler creates a new session handler. policy is nil when the
// identity provider API is not configured.
func NewSessionHandler(policy SessionPolicy, socket SessionSocket) *SessionHandler {
	return &SessionHandler{policy: policy, socket: socket}
}

type enforceRequest struct {
	SessionID string `json:"session_id"`
}

// sessionID resolves the session a request acts on. A token that carries a
// sid can only act on that session.
func sessionID(c *gin.Context, explicit string) (string, bool) {
	var sid string
	if claims := claimsFrom(c); claims != nil {
		sid = claims.SessionID
	}

	switch {
	case sid != "" && explicit != "" && explicit != sid:
		c.JSON(http.StatusForbidden, gin.H{"error": "Session does not belong to this token"})
		return "", false
	case explicit == "" && sid == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session_id"})
		return "", false
	case explicit == "":
		return sid, true
	default:
		return explicit, true
	}
}

// Enforce handles POST /api/session/enforce
func (h *SessionHandler) Enforce(c *gin.Context) {
	if h.policy == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Session enforcement is not configured"})
		return
	}

	var req enforceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	id, ok := sessionID(c, req.SessionID)
	if !ok {
		return
	}

	verdict, err := h.policy.Enforce(c.Request.Context(), c.GetString(ContextUserID), id)
	if err != nil {
		respondServiceError(c, "Failed to enforce session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": verdict})
}

// Subscribe handles GET /ws/session
func (h *SessionHandler) Subscribe(c *gin.Context) {
	id, ok := sessionID(c, c.Query("session_id"))
	if !ok {
		return
	}

	userID := c.GetString(ContextUserID)
	if claims := claimsFrom(c); claims == nil || claims.SessionID == "" {
		if owner, ok := h.policy.(SessionOwner); ok {
			owns, err := owner.OwnsSession(c.Request.Context(), userID, id)
			if err != nil {
				respondServiceError(c, "Failed to check session", err)
				return
			}
			if !owns {
				c.JSON(http.StatusForbidden, gin.H{"error": "Session does not belong to this user"})
				return
			}
		}
	}

	if err := h.socket.Serve(c.Writer, c.Request, userID, id); err != nil {
		log.Printf("[session] Upgrade failed for %s: %v", id, err)
	}
}

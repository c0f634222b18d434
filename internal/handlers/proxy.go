package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"golivehub/internal/auth"
	"golivehub/internal/config"
	"golivehub/internal/database"
	"golivehub/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Proxy actions
const (
	ActionGetUserData               = "getUserData"
	ActionSetUserData               = "setUserData"
	ActionSetUserInterests          = "setUserInterests"
	ActionGetLivestreams            = "getLivestreams"
	ActionCreateLivestream          = "createLivestream"
	ActionDeleteLivestream          = "deleteLivestream"
	ActionSetLivestreamsMockData    = "setLivestreamsMockData"
	ActionRemoveLivestreamsMockData = "removeLivestreamsMockData"
	ActionFollowUser                = "followUser"
)

// ProxyRequest is the body of POST /api/supabase-proxy
type ProxyRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type getUserDataPayload struct {
	UserID string `json:"userId"`
	Field  string `json:"field"`
}

type setUserDataPayload struct {
	UserName    string `json:"userName"`
	ImageURL    string `json:"imageUrl"`
	Mail        string `json:"mail"`
	DateOfBirth string `json:"dateOfBirth"`
	UserID      string `json:"userId"`
}

type setUserInterestsPayload struct {
	UserID    string   `json:"userId"`
	Interests []string `json:"interests"`
}

type createLivestreamPayload struct {
	Name            string   `json:"name"`
	Categories      []string `json:"categories"`
	UserName        string   `json:"userName"` // Owner id
	ProfileImageURL string   `json:"profileImageUrl"`
	CreatorName     string   `json:"creatorName"`
}

type deleteLivestreamPayload struct {
	UserName string `json:"userName"` // Owner id
}

type followUserPayload struct {
	CurrentUserID  string `json:"currentUserId"`
	UserToFollowID string `json:"userToFollowId"`
}

// proxyAction runs one action against a handle scoped to the caller
type proxyAction func(ctx context.Context, tx *gorm.DB, payload json.RawMessage) (interface{}, error)

// ProxyHandler forwards the client's data actions to the database under the
// caller's identity
type ProxyHandler struct {
	db      *gorm.DB
	cfg     *config.Config
	actions map[string]proxyAction
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(db *gorm.DB, cfg *config.Config) *ProxyHandler {
	h := &ProxyHandler{db: db, cfg: cfg}
	h.actions = map[string]proxyAction{
		ActionGetUserData:               h.getUserData,
		ActionSetUserData:               h.setUserData,
		ActionSetUserInterests:          h.setUserInterests,
		ActionGetLivestreams:            h.getLivestreams,
		ActionCreateLivestream:          h.createLivestream,
		ActionDeleteLivestream:          h.deleteLivestream,
		ActionSetLivestreamsMockData:    h.setLivestreamsMockData,
		ActionRemoveLivestreamsMockData: h.removeLivestreamsMockData,
		ActionFollowUser:                h.followUser,
	}
	return h
}

// Handle handles POST /api/supabase-proxy
func (h *ProxyHandler) Handle(c *gin.Context) {
	var req ProxyRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		log.Printf("[supabase-proxy] Invalid JSON body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing action"})
		return
	}

	if err := h.cfg.Validate(); err != nil {
		log.Printf("[supabase-proxy] Client init failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	action, ok := h.actions[req.Action]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported action: %s", req.Action)})
		return
	}

	if len(req.Payload) == 0 || string(req.Payload) == "null" {
		req.Payload = json.RawMessage("{}")
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[supabase-proxy] Action failed: %s: %v", req.Action, r)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected proxy error"})
		}
	}()

	var data interface{}
	err := database.Scope(c.Request.Context(), h.db, h.identity(c), func(tx *gorm.DB) error {
		var err error
		data, err = action(c.Request.Context(), tx, req.Payload)
		return err
	})
	if err != nil {
		log.Printf("[supabase-proxy] %s: %v", req.Action, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// identity returns the verified caller, or the anon identity of the database key
func (h *ProxyHandler) identity(c *gin.Context) database.Identity {
	claims := claimsFrom(c)
	if claims == nil {
		claims = auth.AnonClaims(h.cfg.Provider.AnonKey)
	}
	return database.Identity{Role: claims.Role, Claims: claims.Raw}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func (h *ProxyHandler) getUserData(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	var p getUserDataPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	user, err := services.NewUserStore(tx).FetchUser(ctx, p.UserID, p.Field)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}

func (h *ProxyHandler) setUserData(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	var p setUserDataPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	return services.NewUserStore(tx).CreateUser(ctx, services.Profile{
		UserID:      p.UserID,
		UserName:    p.UserName,
		ImageURL:    p.ImageURL,
		Mail:        p.Mail,
		DateOfBirth: p.DateOfBirth,
	})
}

func (h *ProxyHandler) setUserInterests(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	var p setUserInterestsPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	return services.NewUserStore(tx).UpdateInterests(ctx, p.UserID, p.Interests)
}

func (h *ProxyHandler) getLivestreams(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	return services.NewLivestreamStore(tx).List(ctx)
}

func (h *ProxyHandler) createLivestream(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	var p createLivestreamPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	return services.NewLivestreamStore(tx).Upsert(ctx, services.LivestreamInput{
		Name:            p.Name,
		Categories:      p.Categories,
		UserID:          p.UserName,
		ProfileImageURL: p.ProfileImageURL,
		CreatorName:     p.CreatorName,
	})
}

func (h *ProxyHandler) deleteLivestream(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	var p deleteLivestreamPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	if _, err := services.NewLivestreamStore(tx).DeleteByOwner(ctx, p.UserName); err != nil {
		return nil, err
	}
	return gin.H{"success": true}, nil
}

func (h *ProxyHandler) setLivestreamsMockData(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	if _, err := services.NewLivestreamStore(tx).SeedMock(ctx); err != nil {
		return nil, err
	}
	return gin.H{"success": true}, nil
}

func (h *ProxyHandler) removeLivestreamsMockData(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	if _, err := services.NewLivestreamStore(tx).RemoveMock(ctx); err != nil {
		return nil, err
	}
	return gin.H{"success": true}, nil
}

func (h *ProxyHandler) followUser(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (interface{}, error) {
	var p followUserPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	following, err := services.NewSocialGraph(tx).ToggleFollow(ctx, p.CurrentUserID, p.UserToFollowID)
	if err != nil {
		return nil, err
	}
	return gin.H{"success": true, "following": following}, nil
}

// Package client is the Go SDK for the golivehub backend. A Client is built
// per bearer token and carries it on every call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golivehub/internal/models"
)

// Client represents a golivehub API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError is an error answered by the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Profile holds the registration fields sent with setUserData
type Profile struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	ImageURL    string `json:"imageUrl"`
	Mail        string `json:"mail"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Livestream holds the fields sent with createLivestream
type Livestream struct {
	Name            string   `json:"name"`
	Categories      []string `json:"categories"`
	OwnerID         string   `json:"userName"`
	ProfileImageURL string   `json:"profileImageUrl"`
	CreatorName     string   `json:"creatorName"`
}

// Verdict is the answer of the session enforcement endpoint
type Verdict struct {
	SessionID  string   `json:"session_id"`
	Superseded bool     `json:"superseded"`
	Reason     string   `json:"reason,omitempty"`
	Revoked    []string `json:"revoked"`
}

// StreamCredentials let a viewer connect to the video/chat platform
type StreamCredentials struct {
	Token  string `json:"token"`
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

// Channel tells a viewer which chat channel to join
type Channel struct {
	Status     string             `json:"status"`
	ChannelID  string             `json:"channel_id,omitempty"`
	Livestream *models.Livestream `json:"livestream,omitempty"`
}

// LiveSession is the answer of the go-live endpoint
type LiveSession struct {
	Livestream *models.Livestream `json:"livestream"`
	ChannelID  string             `json:"channel_id"`
}

// NewClient creates a new client for baseURL acting with token. An empty
// token makes anonymous calls.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Token returns the bearer token the client acts with
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SocketURL returns the websocket address of the session push channel
func (c *Client) SocketURL() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/session"
	return u.String()
}

// GetUserData returns the user whose field equals value, or nil when none does
func (c *Client) GetUserData(ctx context.Context, value, field string) (*models.User, error) {
	var user *models.User
	err := c.proxy(ctx, "getUserData", map[string]string{"userId": value, "field": field}, &user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetUserData registers the viewer
func (c *Client) SetUserData(ctx context.Context, profile Profile) (*models.User, error) {
	var user models.User
	if err := c.proxy(ctx, "setUserData", profile, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserInterests replaces the viewer's interests
func (c *Client) SetUserInterests(ctx context.Context, userID string, interests []string) (*models.User, error) {
	var user models.User
	payload := map[string]interface{}{"userId": userID, "interests": interests}
	if err := c.proxy(ctx, "setUserInterests", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetLivestreams lists every listing
func (c *Client) GetLivestreams(ctx context.Context) ([]models.Livestream, error) {
	livestreams := []models.Livestream{}
	if err := c.proxy(ctx, "getLivestreams", nil, &livestreams); err != nil {
		return nil, err
	}
	return livestreams, nil
}

// CreateLivestream upserts the listing of livestream.OwnerID
func (c *Client) CreateLivestream(ctx context.Context, livestream Livestream) (*models.Livestream, error) {
	var out models.Livestream
	if err := c.proxy(ctx, "createLivestream", livestream, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLivestream removes the listing of ownerID
func (c *Client) DeleteLivestream(ctx context.Context, ownerID string) error {
	return c.proxy(ctx, "deleteLivestream", map[string]string{"userName": ownerID}, nil)
}

// SetLivestreamsMockData inserts the sample listings
func (c *Client) SetLivestreamsMockData(ctx context.Context) error {
	return c.proxy(ctx, "setLivestreamsMockData", nil, nil)
}

// RemoveLivestreamsMockData deletes the sample listings
func (c *Client) RemoveLivestreamsMockData(ctx context.Context) error {
	return c.proxy(ctx, "removeLivestreamsMockData", nil, nil)
}

// FollowUser toggles the follow from currentUserID to userToFollowID and
// reports whether currentUserID follows afterwards
func (c *Client) FollowUser(ctx context.Context, currentUserID, userToFollowID string) (bool, error) {
	var out struct {
		Success   bool `json:"success"`
		Following bool `json:"following"`
	}
	payload := map[string]string{"currentUserId": currentUserID, "userToFollowId": userToFollowID}
	if err := c.proxy(ctx, "followUser", payload, &out); err != nil {
		return false, err
	}
	return out.Following, nil
}

// EnforceSession asks the backend whether sessionID is still the viewer's
// newest session
func (c *Client) EnforceSession(ctx context.Context, sessionID string) (*Verdict, error) {
	var verdict Verdict
	if err := c.post(ctx, "/api/session/enforce", map[string]string{"session_id": sessionID}, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// StreamToken mints video/chat platform credentials for the viewer
func (c *Client) StreamToken(ctx context.Context) (*StreamCredentials, error) {
	var creds StreamCredentials
	if err := c.post(ctx, "/api/stream/token", nil, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// GoLive starts broadcasting as the viewer
func (c *Client) GoLive(ctx context.Context, name string, categories []string) (*LiveSession, error) {
	var session LiveSession
	body := map[string]interface{}{"name": name, "categories": categories}
	if err := c.post(ctx, "/api/live/start", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// StopLive ends the viewer's broadcast
func (c *Client) StopLive(ctx context.Context) error {
	return c.post(ctx, "/api/live/stop", nil, nil)
}

// Channel returns the chat channel of ownerID's stream
func (c *Client) Channel(ctx context.Context, ownerID string) (*Channel, error) {
	var channel Channel
	if err := c.do(ctx, http.MethodGet, "/api/live/"+url.PathEscape(ownerID)+"/channel", nil, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (c *Client) proxy(ctx context.Context, action string, payload interface{}, out interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	body := map[string]interface{}{"action": action, "payload": payload}
	return c.post(ctx, "/api/supabase-proxy", body, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// do sends the request and decodes the data member of the response into out
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		message := envelope.Error
		if message == "" {
			message = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

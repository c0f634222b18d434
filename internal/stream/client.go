// Package stream talks to the hosted video and chat platform.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golivehub/internal/config"
)

// LivestreamCallType is the call and channel type every broadcast uses
const LivestreamCallType = "livestream"

// ErrCallNotFound is returned when the platform has no call with the given id
var ErrCallNotFound = errors.New("call not found")

// Client represents a video/chat platform API client
type Client struct {
	apiKey     string
	apiSecret  string
	videoURL   string
	chatURL    string
	tokenTTL   time.Duration
	httpClient *http.Client
}

// Call represents a video call as reported by the platform
type Call struct {
	Type        string    `json:"type"`
	ID          string    `json:"id"`
	CID         string    `json:"cid"`
	CreatedByID string    `json:"created_by_id,omitempty"`
	Backstage   bool      `json:"backstage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsLive reports whether viewers can watch the call
func (c *Call) IsLive() bool {
	return c != nil && !c.Backstage
}

// Channel represents a chat channel
type Channel struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	CID         string `json:"cid"`
	CreatedByID string `json:"created_by_id,omitempty"`
	Name        string `json:"name,omitempty"`
}

// User is a platform user record
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Email string `json:"email,omitempty"`
}

type callResponse struct {
	Call Call `json:"call"`
}

type channelResponse struct {
	Channel Channel `json:"channel"`
}

// NewClient creates a new platform client
func NewClient(cfg config.StreamConfig) *Client {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		videoURL:  cfg.VideoURL,
		chatURL:   cfg.ChatURL,
		tokenTTL:  ttl,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIKey returns the public key clients connect with
func (c *Client) APIKey() string {
	return c.apiKey
}

// GetOrCreateCall creates the call if it does not exist and returns it
func (c *Client) GetOrCreateCall(ctx context.Context, callType, id, createdBy string) (*Call, error) {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"created_by_id": createdBy,
		},
	}

	var resp callResponse
	if err := c.do(ctx, http.MethodPost, c.callURL(callType, id, ""), body, &resp); err != nil {
		return nil, fmt.Errorf("failed to get or create call: %w", err)
	}
	return &resp.Call, nil
}

// GetCall returns the call, or ErrCallNotFound
func (c *Client) GetCall(ctx context.Context, callType, id string) (*Call, error) {
	var resp callResponse
	if err := c.do(ctx, http.MethodGet, c.callURL(callType, id, ""), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &resp.Call, nil
}

// GoLive takes the call out of backstage
func (c *Client) GoLive(ctx context.Context, callType, id string) (*Call, error) {
	var resp callResponse
	if err := c.do(ctx, http.MethodPost, c.callURL(callType, id, "go_live"), map[string]interface{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to go live: %w", err)
	}
	return &resp.Call, nil
}

// StopLive puts the call back into backstage
func (c *Client) StopLive(ctx context.Context, callType, id string) (*Call, error) {
	var resp callResponse
	if err := c.do(ctx, http.MethodPost, c.callURL(callType, id, "stop_live"), map[string]interface{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to stop live: %w", err)
	}
	return &resp.Call, nil
}

// CreateChannel gets or creates a chat channel
func (c *Client) CreateChannel(ctx context.Context, channelType, id, createdBy, name string) (*Channel, error) {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"created_by_id": createdBy,
			"name":          name,
		},
		"state": true,
	}

	endpoint := fmt.Sprintf("%s/channels/%s/%s/query", c.chatURL, url.PathEscape(channelType), url.PathEscape(id))
	var resp channelResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return &resp.Channel, nil
}

// UpsertUser creates or updates a platform user
func (c *Client) UpsertUser(ctx context.Context, user User) error {
	body := map[string]interface{}{
		"users": map[string]User{user.ID: user},
	}
	if err := c.do(ctx, http.MethodPost, c.chatURL+"/users", body, nil); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (c *Client) callURL(callType, id, action string) string {
	endpoint := fmt.Sprintf("%s/call/%s/%s", c.videoURL, url.PathEscape(callType), url.PathEscape(id))
	if action != "" {
		endpoint += "/" + action
	}
	return endpoint
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("STREAM_API_KEY is not set")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}

	token, err := c.ServerToken()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("stream-auth-type", "jwt")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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

	if resp.StatusCode == http.StatusNotFound {
		return ErrCallNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("platform returned %s: %s", resp.Status, bytes.TrimSpace(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// Package identity is a client for the identity provider's backend API.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Session statuses that still count as signed in
const (
	StatusActive  = "active"
	StatusPending = "pending"
)

// Client represents an identity provider API client
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// Session represents a sign-in session of a user
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`
	LastActiveAt int64  `json:"last_active_at"` // Unix milliseconds
	ExpireAt     int64  `json:"expire_at,omitempty"`
}

// IsActive reports whether the session is still signed in
func (s Session) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusPending
}

// LastActive returns LastActiveAt as a time
func (s Session) LastActive() time.Time {
	return time.UnixMilli(s.LastActiveAt)
}

// NewClient creates a new identity provider client
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListSessions retrieves all sessions of userID
func (c *Client) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	endpoint := fmt.Sprintf("%s/sessions?user_id=%s&limit=100", c.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list sessions: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var sessions []Session
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

// RevokeSession signs sessionID out
func (c *Client) RevokeSession(ctx context.Context, sessionID string) error {
	endpoint := fmt.Sprintf("%s/sessions/%s/revoke", c.baseURL, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke session %s: %s", sessionID, resp.Status)
	}
	return nil
}

package stream

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserToken mints a client token for userID, signed with the API secret
func (c *Client) UserToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if c.apiSecret == "" {
		return "", fmt.Errorf("STREAM_API_SECRET is not set")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Add(-5 * time.Second).Unix(), // tolerate clock skew
		"exp":     now.Add(c.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.apiSecret))
}

// ServerToken mints the token used for server-side API calls
func (c *Client) ServerToken() (string, error) {
	if c.apiSecret == "" {
		return "", fmt.Errorf("STREAM_API_SECRET is not set")
	}
	claims := jwt.MapClaims{"server": true}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.apiSecret))
}

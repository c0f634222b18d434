package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when no bearer token was presented
var ErrMissingToken = errors.New("missing bearer token")

// Claims is the verified identity carried by a bearer token
type Claims struct {
	Subject   string                 // Identity provider user id
	SessionID string                 // Identity provider session id ("sid")
	Role      string                 // Database role the token maps to
	Raw       map[string]interface{} // All claims, forwarded to the database
}

// TokenVerifier verifies bearer tokens issued by the identity provider
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// ExtractBearer strips the "Bearer " prefix from an Authorization header
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// HMACVerifier verifies HS256 tokens signed with the database JWT secret
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier creates a verifier for tokens signed with secret
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify parses and validates tokenString
func (v *HMACVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = ExtractBearer(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claimsFromMap(claims)
}

// OIDCVerifier verifies RS256 session tokens against the identity provider's JWKS
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier creates a verifier for tokens issued by issuer. jwksURL
// defaults to the issuer's well-known JWKS location.
func NewOIDCVerifier(ctx context.Context, issuer, jwksURL string) *OIDCVerifier {
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)

	return &OIDCVerifier{
		// Session tokens carry no audience
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{SkipClientIDCheck: true}),
	}
}

// Verify validates the token signature, issuer and expiry
func (v *OIDCVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = ExtractBearer(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	idToken, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("invalid token claims: %w", err)
	}

	return claimsFromMap(raw)
}

// ChainVerifier accepts a token if any of its verifiers does
type ChainVerifier []TokenVerifier

// Verify returns the first successful verification, or the last error
func (c ChainVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("no token verifier configured")
	}

	var lastErr error
	for _, verifier := range c {
		claims, err := verifier.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
		if errors.Is(err, ErrMissingToken) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// AnonClaims derives the anonymous identity from the database anon key. The
// key is our own configuration, so its signature is not checked here; the
// database checks it.
func AnonClaims(anonKey string) *Claims {
	claims := &Claims{Role: "anon", Raw: map[string]interface{}{"role": "anon"}}

	token, _, err := new(jwt.Parser).ParseUnverified(anonKey, jwt.MapClaims{})
	if err != nil {
		return claims
	}
	if raw, ok := token.Claims.(jwt.MapClaims); ok {
		claims.Raw = raw
		if role, ok := raw["role"].(string); ok && role != "" {
			claims.Role = role
		}
	}
	return claims
}

func claimsFromMap(raw map[string]interface{}) (*Claims, error) {
	sub, ok := raw["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("no sub claim in token")
	}

	claims := &Claims{
		Subject: sub,
		Role:    "authenticated",
		Raw:     raw,
	}
	if sid, ok := raw["sid"].(string); ok {
		claims.SessionID = sid
	}
	if role, ok := raw["role"].(string); ok && role != "" {
		claims.Role = role
	}
	return claims, nil
}

// StaticVerifier maps fixed tokens to claims, for development and tests
type StaticVerifier map[string]*Claims

// Verify looks token up in the table
func (s StaticVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	token = ExtractBearer(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, ok := s[token]
	if !ok {
		return nil, fmt.Errorf("failed to verify token: unknown token")
	}
	return claims, nil
}

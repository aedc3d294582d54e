// Package identity derives the caller's identity from the bearer token the
// Assistance API issued. FromToken only reads claims; Verifier confirms the
// token with the Assistance API before the claims are trusted.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingToken = errors.New("missing bearer token")

// Claims represents the subset of access token claims the gateway reads.
type Claims struct {
	UserID     interface{} `json:"user_id,omitempty"`
	IdentityID interface{} `json:"identity_id,omitempty"`
	Email      string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is who a request is made by.
type Identity struct {
	Owner     string
	Token     string
	Email     string
	ExpiresAt *time.Time
}

var parser = jwt.NewParser()

// FromToken returns the identity for token. The owner is the token subject,
// then user_id, then identity_id; opaque tokens get a stable hash-derived
// owner.
func FromToken(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	id := Identity{Token: token}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		id.Email = claims.Email
		id.Owner = ownerFromClaims(claims)
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time
			id.ExpiresAt = &exp
		}
	}
	if id.Owner == "" {
		sum := sha256.Sum256([]byte(token))
		id.Owner = "anon-" + hex.EncodeToString(sum[:8])
	}
	return id, nil
}

func ownerFromClaims(c *Claims) string {
	if c.Subject != "" {
		return c.Subject
	}
	for _, v := range []interface{}{c.UserID, c.IdentityID} {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return fmt.Sprintf("%.0f", t)
		}
	}
	return ""
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

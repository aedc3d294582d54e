package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	xerrors "assistance-gateway/internal/pkg/errors"

	"golang.org/x/sync/singleflight"
)

// ErrInvalidToken is returned when the Assistance API refuses the token.
var ErrInvalidToken = fmt.Errorf("%w: token rejected by the assistance api", xerrors.ErrUnauthorized)

// DefaultVerifyTTL is how long an accepted token is trusted without asking
// the Assistance API again.
const DefaultVerifyTTL = 2 * time.Minute

const maxCachedTokens = 4096

// TokenChecker makes one authenticated call with token. A 401 or 403
// upstream status means the token is not valid.
type TokenChecker interface {
	CheckToken(ctx context.Context, token string) error
}

// CheckerFunc adapts a function to TokenChecker.
type CheckerFunc func(ctx context.Context, token string) error

func (f CheckerFunc) CheckToken(ctx context.Context, token string) error { return f(ctx, token) }

// Verifier confirms a token with the Assistance API before its claims are
// trusted. Accepted tokens are remembered for ttl, keyed by their hash.
type Verifier struct {
	checker TokenChecker
	ttl     time.Duration

	mu       sync.Mutex
	verified map[string]time.Time
	group    singleflight.Group
	now      func() time.Time
}

func NewVerifier(checker TokenChecker, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = DefaultVerifyTTL
	}
	return &Verifier{
		checker:  checker,
		ttl:      ttl,
		verified: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Verify returns the identity for token once the Assistance API has accepted
// it. Tokens past their exp claim are rejected without a network call.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	id, err := FromToken(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}
	if id.ExpiresAt != nil && !v.now().Before(*id.ExpiresAt) {
		return Identity{}, fmt.Errorf("%w: token expired", xerrors.ErrUnauthorized)
	}

	key := tokenHash(id.Token)
	if v.cached(key) {
		return id, nil
	}

	_, err, _ = v.group.Do(key, func() (interface{}, error) {
		return nil, v.checker.CheckToken(ctx, id.Token)
	})
	if err != nil {
		if xerrors.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, fmt.Errorf("failed to verify token: %w", err)
	}

	v.remember(key, id.ExpiresAt)
	return id, nil
}

// Forget drops a remembered token.
func (v *Verifier) Forget(token string) {
	v.mu.Lock()
	delete(v.verified, tokenHash(token))
	v.mu.Unlock()
}

func (v *Verifier) cached(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	until, ok := v.verified[key]
	if !ok {
		return false
	}
	if !v.now().Before(until) {
		delete(v.verified, key)
		return false
	}
	return true
}

func (v *Verifier) remember(key string, expiresAt *time.Time) {
	now := v.now()
	until := now.Add(v.ttl)
	if expiresAt != nil && expiresAt.Before(until) {
		until = *expiresAt
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.verified) >= maxCachedTokens {
		for k, t := range v.verified {
			if !now.Before(t) {
				delete(v.verified, k)
			}
		}
	}
	if len(v.verified) >= maxCachedTokens {
		return
	}
	v.verified[key] = until
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsUnauthorized reports whether err means the caller must re-authenticate.
func IsUnauthorized(err error) bool {
	return errors.Is(err, xerrors.ErrUnauthorized)
}

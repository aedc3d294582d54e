// internal/middleware/identity_middleware.go
package middleware

import (
	"context"
	"net/http"

	"assistance-gateway/internal/pkg/assistance"
	"assistance-gateway/internal/pkg/identity"
	"assistance-gateway/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ownerKey = "owner"
	tokenKey = "token"
	emailKey = "email"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
	Forget(token string)
}

// Identity requires a bearer token the Assistance API accepts and attaches
// the caller's identity to the gin context. The request context carries the
// token so upstream calls are made on the caller's behalf. A request that
// ends in 401 drops the token from the verifier's cache.
func Identity(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := identity.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if identity.IsUnauthorized(err) {
			response.Error(c, http.StatusUnauthorized, "invalid authorization token", err)
			return
		}
		if err != nil {
			response.Error(c, http.StatusBadGateway, "could not verify authorization token", err)
			return
		}

		c.Set(ownerKey, id.Owner)
		c.Set(tokenKey, id.Token)
		if id.Email != "" {
			c.Set(emailKey, id.Email)
		}
		c.Request = c.Request.WithContext(assistance.WithToken(c.Request.Context(), id.Token))

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			verifier.Forget(id.Token)
		}
	}
}

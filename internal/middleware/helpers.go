// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetOwner gets the caller's owner id from context
func GetOwner(c *gin.Context) (string, bool) {
	owner, exists := c.Get(ownerKey)
	if !exists {
		return "", false
	}
	s, ok := owner.(string)
	return s, ok && s != ""
}

// MustGetOwner gets the owner id from context or panics
func MustGetOwner(c *gin.Context) string {
	owner, exists := GetOwner(c)
	if !exists {
		panic("owner not found in context")
	}
	return owner
}

// GetToken gets the caller's bearer token from context
func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// GetEmail gets the caller's email claim, if the token carried one
func GetEmail(c *gin.Context) string {
	return c.GetString(emailKey)
}

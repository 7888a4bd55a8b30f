package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/hrmbackend/auth"
	"github.com/princinho/hrmbackend/models"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID   = "userID"
	KeyRole     = "role"
	KeyIdentity = "identity"
)

// TokenValidator is satisfied by *auth.Service.
type TokenValidator interface {
	Validate(token string) auth.Validation
}

func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "token_missing"})
			return
		}

		v := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		switch v.Status {
		case auth.StatusValid:
		case auth.StatusExpired:
			// Clients refresh on this code; any other 401 means log in again.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired", "code": "token_expired"})
			return
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "token_invalid"})
			return
		}

		c.Set(KeyUserID, v.Identity.UserID)
		c.Set(KeyRole, v.Identity.Role)
		c.Set(KeyIdentity, v.Identity)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(KeyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

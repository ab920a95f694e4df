package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUserKey = "userID"

// RequireUser enforces bearer JWT tokens signed with HS256 and stores the
// verified user id on the request context for handlers to scope data access.
func RequireUser(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		userID, err := Parse(tokenStr, secret, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserKey, userID)
		c.Next()
	}
}

// UserID returns the verified user id set by RequireUser, or "" when the
// request skipped the middleware.
func UserID(c *gin.Context) string {
	id, _ := c.Get(ctxUserKey)
	s, _ := id.(string)
	return s
}

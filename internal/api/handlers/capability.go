package handlers

import (
	"net/http"

	"github.com/Fimeg/partnernotice/internal/authz"
	"github.com/gin-gonic/gin"
)

// RequireCapability rejects users lacking capability. It must run after WebAuthMiddleware.
func RequireCapability(authorizer authz.Authorizer, capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !authorizer.Can(user, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing capability " + capability.String()})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"anonq/services"

	"github.com/gin-gonic/gin"
)

const principalContextKey = "admin_principal"

func RequireAdmin(gate *services.AdminGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := gate.Authorize(c.Request.Context(), c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// Principal returns the admin set by RequireAdmin, or nil.
func Principal(c *gin.Context) *services.Principal {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return nil
	}
	p, _ := v.(*services.Principal)
	return p
}

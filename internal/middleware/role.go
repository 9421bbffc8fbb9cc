package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/aura-survey/backend/internal/auth"
	"github.com/aura-survey/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. Admin passes every check.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{auth.RoleAdmin: {}}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextRole)
		if !ok {
			response.Unauthorized(c, "missing caller context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

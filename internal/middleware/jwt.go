package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-survey/backend/internal/auth"
	"github.com/aura-survey/backend/pkg/response"
)

const (
	// ContextSubject is the key for the calling service name in gin context.
	ContextSubject = "subject"
	// ContextRole is the key for the caller role in gin context.
	ContextRole = "role"
)

// JWT returns a middleware that validates a service token and sets its claims in context.
// Browsers cannot set headers on WebSocket upgrades, so a "token" query parameter is accepted too.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(c, "invalid authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		}
		if token == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

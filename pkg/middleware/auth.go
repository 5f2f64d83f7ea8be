package middleware

import (
	"strings"

	"replypilot/backend/pkg/errors"
	"replypilot/backend/pkg/jwt"
	"replypilot/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// OperatorAuthMiddleware guards the job-trigger endpoints. It accepts
// either a bearer JWT issued to an operator or the raw admin key checked
// against its bcrypt hash from configuration.
func OperatorAuthMiddleware(jwtService *jwt.Service, adminKeyHash string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-Admin-Key"); key != "" && adminKeyHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err == nil {
				c.Set("operator", "admin-key")
				c.Next()
				return
			}
			log.Warn("rejected admin key", "path", c.Request.URL.Path)
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Operator credentials are required."))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.Error(errors.NewUnauthorizedError("AUTH_INVALID", "Invalid or expired token."))
			c.Abort()
			return
		}

		c.Set("operator", claims.Operator)
		c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	"github.com/noah-isme/leave-calendar-api/internal/service"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
	"github.com/noah-isme/leave-calendar-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. With devBypass a
// request without an Authorization header runs as the fixed developer session.
func JWT(validator TokenValidator, devBypass bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if devBypass {
				c.Set(ContextUserKey, service.DevSessionClaims())
				c.Next()
				return
			}
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Claims returns the session claims attached by JWT.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}

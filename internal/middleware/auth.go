package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/warcat/warcat-backend/internal/constants"
	apierrors "github.com/warcat/warcat-backend/internal/errors"
	"github.com/warcat/warcat-backend/internal/utils"
)

// RequireAuth validates the Bearer token and stores the user id and
// claims in the request context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			apierrors.Unauthorized(c, "Authorization header must be a Bearer token")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token, jwtSecret)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyClaims, claims)
		c.Next()
	}
}

// GetUserID returns the authenticated user id set by RequireAuth.
func GetUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}

// GetClaims returns the parsed token claims set by RequireAuth.
func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok
}

package middleware

import (
	"context"
	"strings"

	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserKey      = "user"
	ContextUserIDKey    = "user_id"
	ContextUserEmailKey = "user_email"
)

// AuthRequired resolves the bearer token to a user and sets user context
func AuthRequired(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		user, err := authService.ResolveUser(c.Request.Context(), token)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		userID := user.ID.Hex()
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUserEmailKey, user.Email)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.UserIDKey, userID))

		c.Next()
	}
}

// CurrentUser returns the user set by AuthRequired.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

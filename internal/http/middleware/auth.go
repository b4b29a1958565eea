package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
)

// Authenticator проверяет access токены и права администратора.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) bool
}

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))

		userID, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			WriteError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// AdminOnly пропускает только администраторов. Ставится после AuthMiddleware.
func AdminOnly(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get(ContextUserIDKey)
		id, isUUID := userID.(uuid.UUID)
		if !ok || !isUUID || !auth.IsAdmin(c.Request.Context(), id) {
			WriteError(c, apperror.ErrNotAdmin)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

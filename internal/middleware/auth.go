package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/handlers"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/services"
)

// RequireAuth verifies the bearer token (or ?token= for EventSource
// clients, which cannot set headers) and attaches the request data to
// the request context.
func RequireAuth(log *logger.Logger, authService services.AuthService) gin.HandlerFunc {
	mwLog := log.With("middleware", "RequireAuth")
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			mwLog.Warn("Missing bearer token", "path", c.FullPath())
			handlers.RespondError(c, apierr.Unauthenticated(nil))
			c.Abort()
			return
		}
		ctx, err := authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			mwLog.Warn("Token rejected", "path", c.FullPath(), "error", err)
			handlers.RespondError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

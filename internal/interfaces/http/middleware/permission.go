package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"github.com/schoolerp/feeledger/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions.
// It must run after JWTAuthMiddleware.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				"UNAUTHORIZED", "Authentication required", c.GetString(logger.GinRequestIDKey)))
			return
		}
		if !claims.HasAnyPermission(permissions...) {
			logger.GetGinLogger(c).Warn("Permission denied",
				zap.Strings("required_any", permissions),
				zap.Strings("granted", claims.Permissions),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				"FORBIDDEN", "Missing permission: "+permissions[0], c.GetString(logger.GinRequestIDKey)))
			return
		}
		c.Next()
	}
}

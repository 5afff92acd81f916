package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
)

// Profiling attaches pyroscope labels (route, method, resource and school)
// to the request goroutine. Run it after JWTAuthMiddleware.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		labels := telemetry.HTTPRequestLabels(resourceFromRoute(route), route, c.Request.Method, GetJWTTenantID(c))
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// resourceFromRoute returns the first segment after /api/v1/finance:
// "/api/v1/finance/payments/:id" -> "payments"
func resourceFromRoute(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/v1/finance/")
	if !ok {
		return ""
	}
	resource, _, _ := strings.Cut(rest, "/")
	return resource
}

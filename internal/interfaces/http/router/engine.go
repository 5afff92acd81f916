package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"github.com/schoolerp/feeledger/internal/interfaces/http/dto"
	"github.com/schoolerp/feeledger/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig holds what the global middleware chain needs
type EngineConfig struct {
	HTTP          config.HTTPConfig
	Telemetry     config.TelemetryConfig
	Logger        *zap.Logger
	PanicReporter logger.PanicReporter
	MeterProvider *telemetry.MeterProvider
}

// NewEngine creates a gin engine with the global middleware stack in order:
// request id, access log, recovery, security headers, CORS, body limit,
// tracing and HTTP metrics.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log, cfg.PanicReporter),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.MeterProvider),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRouteNotFound, "Route not found", c.GetString(logger.GinRequestIDKey)))
	})
	return engine
}

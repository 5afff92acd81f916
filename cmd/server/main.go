package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	financeapp "github.com/schoolerp/feeledger/internal/application/finance"
	"github.com/schoolerp/feeledger/internal/infrastructure/auth"
	"github.com/schoolerp/feeledger/internal/infrastructure/cache"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/schoolerp/feeledger/internal/infrastructure/errreport"
	"github.com/schoolerp/feeledger/internal/infrastructure/event"
	"github.com/schoolerp/feeledger/internal/infrastructure/export"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"github.com/schoolerp/feeledger/internal/infrastructure/notification"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence"
	"github.com/schoolerp/feeledger/internal/infrastructure/printing"
	"github.com/schoolerp/feeledger/internal/infrastructure/scheduler"
	"github.com/schoolerp/feeledger/internal/infrastructure/storage"
	"github.com/schoolerp/feeledger/internal/infrastructure/telemetry"
	"github.com/schoolerp/feeledger/internal/interfaces/http/handler"
	"github.com/schoolerp/feeledger/internal/interfaces/http/middleware"
	"github.com/schoolerp/feeledger/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			School Fee Ledger API
//	@version		1.0
//	@description	Fee structures, student ledgers, payments, refunds and reports per school

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	hostname, _ := os.Hostname()
	reporter := errreport.New(cfg.ErrReport, version, hostname)
	defer func() { _ = reporter.Close() }()

	// The OTLP log bridge needs a logger of its own to report export failures
	bootLog, err := logger.New(logger.FromLogConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Warn("OTLP log export disabled", zap.Error(err))
	}

	cores := []zapcore.Core{reporter.Core()}
	if loggerProvider != nil {
		cores = append(cores, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}))
	}
	log, err := logger.New(logger.FromLogConfig(cfg.Log), cores...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting fee ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("error_reporting", reporter.Enabled()),
	)

	// Telemetry: profiler first so span profiles can attach to the tracer
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": version},
	}, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles disabled", zap.Error(err))
		}
	}
	log.Debug("Tracing ready",
		zap.Bool("enabled", tracerProvider.IsEnabled()),
		zap.Bool("span_profiles", tracerProvider.SpanProfilesEnabled()))

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	// Database with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), logger.WithSlowThreshold(cfg.Database.SlowQueryThresh))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	if db.Driver == config.DriverSQLite {
		if err := db.AutoMigrateFeeLedger(); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Database.SlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Database.SlowQueryThresh
		}
		if db.Driver == config.DriverSQLite {
			tracingCfg.DBSystem = "sqlite"
		}
		if err := telemetry.NewDBTracingPlugin(tracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	if cfg.Database.SlowQueryThresh > 0 {
		dbMetricsCfg.SlowQueryThreshold = cfg.Database.SlowQueryThresh
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
	}

	// Fee metrics, with outstanding dues collected periodically
	reportRepo := persistence.NewGormFeeReportRepository(db.DB)
	var feeMetrics financeapp.FeeMetrics
	if meterProvider.IsEnabled() {
		fm, err := telemetry.NewFeeMetrics(telemetry.FeeMetricsConfig{
			Meter:        meterProvider.Meter("feeledger.finance"),
			Logger:       log,
			DuesProvider: reportRepo,
		})
		if err != nil {
			log.Warn("Fee metrics disabled", zap.Error(err))
		} else {
			fm.StartPeriodicCollection(ctx, meterProvider.ExportInterval())
			defer fm.Stop()
			feeMetrics = fm
		}
	}

	// Idempotency keys in Redis, in memory when Redis is off or unreachable
	keyStore, err := cache.NewRequestKeyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency key store", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	deps := financeapp.Dependencies{
		Scope:          persistence.NewGormFeeTransactionScope(db.DB, cfg.Finance.TxTimeout, cfg.Finance.LockTimeout),
		Repos:          persistence.NewFeeRepositories(db.DB),
		EventPublisher: eventBus,
		Metrics:        feeMetrics,
		Logger:         log,
		Options: financeapp.Options{
			DiscountAutoApprove: cfg.Finance.DiscountAutoApprove,
			RefundReopensLedger: cfg.Finance.RefundReopensLedger,
			IdempotencyTTL:      cfg.Finance.IdempotencyTTL,
		},
	}

	// Optional document and notification adapters
	var renderer financeapp.ReceiptRenderer
	if cfg.Printing.Enabled {
		r := printing.NewChromedpReceiptRenderer(cfg.Printing, log)
		defer func() { _ = r.Close() }()
		renderer = r
	}
	var archive financeapp.ReceiptArchive
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3ReceiptArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create receipt archive", zap.Error(err))
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			log.Warn("Receipt archive bucket unavailable", zap.String("bucket", s3Archive.Bucket()), zap.Error(err))
		}
		archive = s3Archive
	}
	if cfg.Email.Enabled {
		emailHandler := financeapp.NewReceiptEmailHandler(notification.NewSendGridMailer(cfg.Email, log), log)
		eventBus.Subscribe(emailHandler, emailHandler.EventTypes()...)
		log.Info("Receipt emails enabled", zap.Strings("events", emailHandler.EventTypes()))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	structureService := financeapp.NewFeeStructureService(deps)
	studentFeeService := financeapp.NewStudentFeeService(deps)
	adjustmentService := financeapp.NewAdjustmentService(deps)
	paymentService := financeapp.NewPaymentService(deps, keyStore)
	refundService := financeapp.NewRefundService(deps)
	reportService := financeapp.NewReportService(reportRepo, export.NewXLSXCollectionExporter())
	documentService := financeapp.NewDocumentService(deps, renderer, archive)
	settingsService := financeapp.NewSettingsService(deps)
	auditService := financeapp.NewAuditService(persistence.NewGormAuditLogRepository(db.DB))

	// Background jobs
	cronScheduler := scheduler.NewCronScheduler(cfg.Scheduler.JobTimeout, log)
	if cfg.Scheduler.Enabled {
		if err := cronScheduler.Register(cfg.Scheduler.OverdueCron, scheduler.NewOverdueJob(studentFeeService, log)); err != nil {
			log.Fatal("Failed to schedule overdue job", zap.String("spec", cfg.Scheduler.OverdueCron), zap.Error(err))
		}
		cronScheduler.Start(ctx)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(router.EngineConfig{
		HTTP:          cfg.HTTP,
		Telemetry:     cfg.Telemetry,
		Logger:        log,
		PanicReporter: reporter,
		MeterProvider: meterProvider,
	})

	health := handler.NewHealthHandler(version, handler.PingerFunc(db.Ping))
	if pinger, ok := keyStore.(handler.Pinger); ok {
		health.WithDependency("redis", pinger)
	}
	router.RegisterHealth(engine, health)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log

	base := handler.NewBaseHandler(cfg.App.Env)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(router.APIMiddleware(jwtConfig, cfg.Telemetry.ProfilingEnabled)...).
		Register(router.NewFinanceRoutes(router.FinanceHandlers{
			FeeStructures: handler.NewFeeStructureHandler(base, structureService),
			StudentFees:   handler.NewStudentFeeHandler(base, studentFeeService),
			Discounts:     handler.NewDiscountHandler(base, adjustmentService),
			Scholarships:  handler.NewScholarshipHandler(base, adjustmentService),
			Payments:      handler.NewPaymentHandler(base, paymentService),
			Refunds:       handler.NewRefundHandler(base, refundService),
			Reports:       handler.NewReportHandler(base, reportService),
			Documents:     handler.NewDocumentHandler(base, documentService),
			Settings:      handler.NewSettingsHandler(base, settingsService),
			Audit:         handler.NewAuditHandler(base, auditService),
		})).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop taking requests, finish jobs and events, flush telemetry
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := cronScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if closer, ok := keyStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if loggerProvider != nil {
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}
	if profiler != nil {
		_ = profiler.Stop()
	}

	log.Info("Server exited gracefully")
}

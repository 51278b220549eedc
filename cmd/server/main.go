package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmstock/backend/internal/application/depletion"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/infrastructure/cache"
	"github.com/farmstock/backend/internal/infrastructure/config"
	"github.com/farmstock/backend/internal/infrastructure/event"
	"github.com/farmstock/backend/internal/infrastructure/logger"
	"github.com/farmstock/backend/internal/infrastructure/persistence"
	"github.com/farmstock/backend/internal/infrastructure/scheduler"
	"github.com/farmstock/backend/internal/infrastructure/telemetry"
	"github.com/farmstock/backend/internal/interfaces/http/handler"
	"github.com/farmstock/backend/internal/interfaces/http/middleware"
	"github.com/farmstock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting farmstock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing via otelgorm
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
		WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	livestockRepo := persistence.NewGormLivestockRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	depletionRepo := persistence.NewGormDepletionRecordRepository(db.DB)
	recordingRepo := persistence.NewGormRecordingRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus with metrics handler
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Commit-dedup store: Redis when enabled, in-memory otherwise
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	if meterProvider.IsEnabled() {
		depletionMetrics, err := telemetry.NewDepletionMetrics(telemetry.DepletionMetricsConfig{
			Meter:  meterProvider.Meter("farmstock.depletion"),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to create depletion metrics", zap.Error(err))
		}
		eventBus.Subscribe(event.NewIdempotentHandler(
			depletionMetrics,
			idempotencyStore,
			shared.IdempotencyConfig{Enabled: cfg.Idempotency.Enabled, TTL: cfg.Idempotency.TTL},
			log,
		))
		log.Info("Depletion metrics handler registered")
	}

	// Application service
	depletionService := depletion.NewService(txScope, livestockRepo, batchRepo, depletionRepo, recordingRepo)
	depletionService.SetLogger(log)
	depletionService.SetEventPublisher(eventBus)
	if cfg.Idempotency.Enabled {
		depletionService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)
	}

	// Nightly snapshot reconciliation
	snapshotScheduler := scheduler.NewSnapshotScheduler(txScope, eventBus, scheduler.Config{
		Enabled:      cfg.Scheduler.Enabled,
		CronSchedule: cfg.Scheduler.CronSchedule,
		JobTimeout:   cfg.Scheduler.JobTimeout,
	}, log)
	if err := snapshotScheduler.Start(); err != nil {
		log.Fatal("Failed to start snapshot scheduler", zap.Error(err))
	}
	defer snapshotScheduler.Stop()

	// HTTP engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health endpoints (outside API versioning)
	engine.GET("/health", healthHandler())
	engine.GET("/health/db", dbHealthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewDepletionHandler(depletionService))
	r.Register(handler.NewLivestockHandler(livestockRepo, batchRepo))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process liveness
func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// dbHealthHandler reports database reachability
func dbHealthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Database health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

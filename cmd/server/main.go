package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	commissionapp "github.com/kanva/portal/internal/application/commission"
	historyapp "github.com/kanva/portal/internal/application/history"
	metricsapp "github.com/kanva/portal/internal/application/metrics"
	"github.com/kanva/portal/internal/application/reconcile"
	"github.com/kanva/portal/internal/infrastructure/cache"
	"github.com/kanva/portal/internal/infrastructure/config"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/kanva/portal/internal/infrastructure/justcall"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/persistence"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"github.com/kanva/portal/internal/infrastructure/storage"
	"github.com/kanva/portal/internal/infrastructure/telemetry"
	"github.com/kanva/portal/internal/interfaces/http/handler"
	"github.com/kanva/portal/internal/interfaces/http/middleware"
	"github.com/kanva/portal/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = providers.BridgeLogger(log, cfg.Telemetry.ServiceName, zapcore.InfoLevel)

	log.Info("Starting Kanva portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	log.Info("Database connected")

	stores, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create cache stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	var meter metric.Meter
	if providers.Meters != nil {
		meter = providers.Meters.Meter(telemetry.TracerName)
	}
	batchMetrics, err := telemetry.NewBatchMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register batch metrics", zap.Error(err))
	}

	runner := scheduler.NewRunner(scheduler.Config{
		Budget:   cfg.Batch.Budget,
		GuardTTL: cfg.Redis.GuardTTL,
	}, stores.RunGuard, batchMetrics, log)
	runLogs := persistence.NewGormRunLogRepository(db.DB)
	runner.WithRecorder(runLogs)

	var archive reconcile.ReportArchive
	if cfg.Storage.Enabled() {
		s3Archive, err := storage.NewS3ReportArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create report archive", zap.Error(err))
		}
		archive = s3Archive
	}

	var (
		companies  reconcile.CompanySource
		activities commissionapp.ActivitySource
		calls      commissionapp.CallSource
	)
	if cfg.Copper.AccessToken != "" {
		crm := copper.NewClient(cfg.Copper, log)
		companies, activities = crm, crm
	} else {
		log.Warn("Copper credentials not set, company reconciliation and CRM effort are disabled")
	}
	if cfg.JustCall.APIKey != "" {
		calls = justcall.NewClient(cfg.JustCall, log)
	} else {
		log.Warn("JustCall credentials not set, call effort is skipped")
	}

	customers := persistence.NewGormCustomerRepository(db.DB, cfg.Batch.ChunkSize)
	orders := persistence.NewGormOrderRepository(db.DB, cfg.Batch.ChunkSize)
	commissions := persistence.NewGormCommissionRepository(db.DB, cfg.Batch.ChunkSize)

	reconcileService := reconcile.NewService(reconcile.Deps{
		Companies: companies,
		Customers: customers,
		Orders:    orders,
		Records:   persistence.NewGormMatchRecordRepository(db.DB, cfg.Batch.ChunkSize),
		Cache:     stores.MatchCache,
		Runner:    runner,
		Archive:   archive,
		Metrics:   batchMetrics,
		Logger:    log,
	},
		reconcile.WithChunkSize(cfg.Batch.ChunkSize),
		reconcile.WithLocation(cfg.Commission.Location()),
	)

	metricsService := metricsapp.NewService(
		customers,
		orders,
		persistence.NewGormMetricsRepository(db.DB, cfg.Batch.ChunkSize),
		runner,
		batchMetrics,
		log,
		cfg.Batch.ChunkSize,
		cfg.Batch.Workers,
	)

	commissionService := commissionapp.NewService(commissionapp.Deps{
		Orders:     orders,
		Customers:  customers,
		Reps:       persistence.NewGormRepRepository(db.DB),
		Config:     persistence.NewGormCommissionConfigRepository(db.DB),
		Monthly:    commissions,
		Entries:    commissions,
		Calls:      calls,
		Activities: activities,
		Runner:     runner,
		Metrics:    batchMetrics,
		Logger:     log,
	}, commissionapp.SettingsFromConfig(cfg.Commission, cfg.Batch))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	// request id first so recovery and access logs carry it
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.Telemetry.ServiceName),
		middleware.SpanAttributes(),
		middleware.HTTPMetrics(meter),
		middleware.Profiling(cfg.Telemetry.ProfilerEnabled),
		middleware.Secure(cfg.App.Env == "production"),
		middleware.CORS(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.WriteTimeout),
	)

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	go limiter.Run(ctx, time.Minute)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
		"database": db.Ping,
	})
	router.NewRouter(engine, router.WithAPIVersion("v1")).Mount(router.Handlers{
		System:     systemHandler,
		Reconcile:  handler.NewReconcileHandler(reconcileService),
		Metrics:    handler.NewMetricsHandler(metricsService),
		Commission: handler.NewCommissionHandler(commissionService),
		History:    handler.NewHistoryHandler(historyapp.NewService(runLogs)),
	}, middleware.RateLimit(limiter))

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
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

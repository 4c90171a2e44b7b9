package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/application/gateway"
	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/auth"
	"github.com/aigate/backend/internal/infrastructure/cache"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/aigate/backend/internal/infrastructure/generator"
	"github.com/aigate/backend/internal/infrastructure/logger"
	"github.com/aigate/backend/internal/infrastructure/persistence"
	"github.com/aigate/backend/internal/infrastructure/telemetry"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/aigate/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceName := cfg.Telemetry.ServiceName

	// OTLP log export is teed into the zap core, so the logger is rebuilt once the provider exists
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    serviceName,
			LoggerProvider: logProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting AIGate backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected")

	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            meterProvider.IsEnabled(),
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	accountRepo := persistence.NewGormAccountRepository(db.DB)
	usageLedger := persistence.NewGormUsageLedger(db.DB)

	if cfg.Admin.SeedEnabled {
		if err := appaccount.SeedAdmin(ctx, accountRepo, cfg.Admin.Email, cfg.Admin.Password, log); err != nil {
			log.Fatal("Failed to seed admin account", zap.Error(err))
		}
	}

	tally, redisClient, err := cache.NewEndpointTallyFactory(cfg.Redis,
		persistence.NewGormEndpointTally(db.DB),
		cache.WithLogger(log),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize endpoint tally", zap.Error(err))
	}

	policy := account.NewQuotaPolicy(cfg.Quota.FreeLimit)
	sessions := auth.NewSessionService(cfg.JWT)

	authService := appaccount.NewAuthService(accountRepo, usageLedger, sessions, appaccount.AuthServiceConfig{
		RegisterCookieMaxAge: cfg.Cookie.RegisterMaxAge,
		LoginCookieMaxAge:    cfg.Cookie.LoginMaxAge,
	}, log)
	dashboardService := appaccount.NewDashboardService(accountRepo, usageLedger, policy, log)
	adminService := appaccount.NewAdminService(accountRepo, usageLedger, tally, policy, log)

	var gatewayOpts []gateway.Option
	var gatewayMetrics *telemetry.GatewayMetrics
	if meterProvider.IsEnabled() {
		gatewayMetrics, err = telemetry.NewGatewayMetrics(telemetry.GatewayMetricsConfig{
			Meter:         meterProvider.Meter("aigate.gateway"),
			Logger:        log,
			UsageProvider: adminService,
		})
		if err != nil {
			log.Fatal("Failed to create gateway metrics", zap.Error(err))
		}
		gatewayMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		gatewayOpts = append(gatewayOpts, gateway.WithMetrics(gatewayMetrics))
	}

	gw := gateway.NewGateway(
		generator.NewClient(cfg.Generator),
		usageLedger,
		policy,
		gateway.Config{MaxPromptLength: cfg.Quota.MaxPromptLength},
		log,
		gatewayOpts...,
	)

	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	engine := router.New(router.Dependencies{
		Config:           cfg,
		Logger:           log,
		Sessions:         sessions,
		Tally:            tally,
		Database:         db,
		AuthService:      authService,
		DashboardService: dashboardService,
		AdminService:     adminService,
		Gateway:          gw,
		AuthLimiter:      authLimiter,
		MeterProvider:    meterProvider,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if authLimiter != nil {
		authLimiter.Stop()
	}
	if gatewayMetrics != nil {
		gatewayMetrics.Stop()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("Error closing Redis client", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited")
}

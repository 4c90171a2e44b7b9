package router

import (
	"time"

	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/application/gateway"
	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/auth"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/aigate/backend/internal/infrastructure/logger"
	"github.com/aigate/backend/internal/infrastructure/telemetry"
	"github.com/aigate/backend/internal/interfaces/http/handler"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	Config           *config.Config
	Logger           *zap.Logger
	Sessions         *auth.SessionService
	Tally            account.EndpointTally
	Database         handler.Pinger
	AuthService      *appaccount.AuthService
	DashboardService *appaccount.DashboardService
	AdminService     *appaccount.AdminService
	Gateway          *gateway.Gateway

	// AuthLimiter throttles register and login; nil disables throttling
	AuthLimiter *middleware.RateLimiter
	// MeterProvider feeds HTTP metrics; nil disables them
	MeterProvider *telemetry.MeterProvider
}

// New builds the engine with the full middleware chain and every route mounted at the root
func New(deps Dependencies) *gin.Engine {
	cfg, log := deps.Config, deps.Logger
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

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.EndpointTelemetry(deps.Tally, log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: deps.MeterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))

	engine.GET("/health", handler.NewHealthHandler(deps.Database).Check)

	r := NewRouter(engine)
	registerRoutes(r, deps, log)
	r.Setup()

	return engine
}

func registerRoutes(r *Router, deps Dependencies, log *zap.Logger) {
	cfg := deps.Config
	base := handler.BaseHandler{ExposeDetails: !cfg.App.IsProduction()}

	session := middleware.SessionConfig{Service: deps.Sessions, CookieName: cfg.Cookie.Name, Logger: log}
	requireSession := []gin.HandlerFunc{
		middleware.SessionAuth(session),
		middleware.TracingAttributeInjector(),
	}
	profiling := middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   cfg.Profiling.Enabled,
		SkipPaths: []string{"/health"},
	})

	authHandler := handler.NewAuthHandler(deps.AuthService, handler.NewSessionCookie(cfg.Cookie))
	authHandler.BaseHandler = base
	dashboardHandler := handler.NewDashboardHandler(deps.DashboardService)
	dashboardHandler.BaseHandler = base
	adminHandler := handler.NewAdminHandler(deps.AdminService)
	adminHandler.BaseHandler = base
	generateHandler := handler.NewGenerateHandler(deps.Gateway, log)
	generateHandler.BaseHandler = base

	throttle := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if deps.AuthLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{middleware.RateLimit(deps.AuthLimiter), h}
	}
	protected := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append(append([]gin.HandlerFunc{}, requireSession...), profiling), handlers...)
	}

	authRoutes := NewDomainGroup("/auth")
	authRoutes.POST("/register", throttle(authHandler.Register)...)
	authRoutes.POST("/login", throttle(authHandler.Login)...)
	authRoutes.POST("/logout", protected(authHandler.Logout)...)
	authRoutes.GET("/me", protected(authHandler.Me)...)
	authRoutes.DELETE("/account", protected(authHandler.DeleteAccount)...)

	dashboardRoutes := NewDomainGroup("/dashboard")
	dashboardRoutes.GET("", protected(dashboardHandler.Get)...)

	adminRoutes := NewDomainGroup("/admin")
	adminRoutes.Use(requireSession...)
	adminRoutes.Use(middleware.RequireRole(account.RolePrivileged), profiling)
	adminRoutes.GET("/users", adminHandler.ListUsers)
	adminRoutes.GET("/usage", adminHandler.UsageSummary)
	adminRoutes.GET("/user/:id", adminHandler.UserDetail)
	adminRoutes.PATCH("/user/:id/reset-api-calls", adminHandler.ResetUsage)
	adminRoutes.Group("/stats").GET("/endpoints", adminHandler.EndpointStats)

	generateRoutes := NewDomainGroup("/generate")
	generateRoutes.POST("",
		middleware.OptionalSession(session),
		middleware.TracingAttributeInjector(),
		middleware.SessionOrAPIKey(middleware.APIKeyConfig{
			Key:    cfg.Gateway.APIKey,
			Header: cfg.Gateway.APIKeyHeader,
			Logger: log,
		}),
		profiling,
		generateHandler.Generate,
	)

	r.Register(authRoutes).
		Register(dashboardRoutes).
		Register(adminRoutes).
		Register(generateRoutes)
}

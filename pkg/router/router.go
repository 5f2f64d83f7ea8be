package router

import (
	"replypilot/backend/internal/api"
	"replypilot/backend/pkg/config"
	"replypilot/backend/pkg/di"
	"replypilot/backend/pkg/errors"
	"replypilot/backend/pkg/logger"
	"replypilot/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container, cfg *config.Config) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	if cfg == nil {
		cfg = config.Get()
	}

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		container.Logger.Warn("Failed to set trusted proxies", "error", err.Error())
	}

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Request ID propagation for log correlation
	engine.Use(middleware.RequestIDMiddleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Rate limit by client IP across all routes
	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, limiterOpts)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes. The dedup guard is the
// fast-path duplicate check for inbound webhook deliveries; main picks
// Redis when it is reachable and an in-process cache otherwise.
func (r *Router) SetupRoutes(dedup api.DedupGuard) {
	c := r.Container

	// Gateway callbacks are public but signature-verified
	webhooks := api.NewWebhookController(
		c.Machine, c.Notifications, dedup, r.Config.Webhook.Secret, r.Logger)
	webhooks.RegisterRoutes(r.Engine)

	// Operator-triggered job runs require the admin key or a bearer token
	operatorAuth := middleware.OperatorAuthMiddleware(
		c.JWTService, r.Config.Security.AdminKeyHash, r.Logger)

	jobs := api.NewJobsController(
		api.RunnableFunc(c.Coordinator.RunCycle),
		api.RunnableFunc(c.Poster.RunSweep),
		api.RunnableFunc(c.Scheduler.RunSweep),
		r.Config.Scheduler.JobTimeout,
		r.Logger,
	)
	jobsGroup := r.Engine.Group("/jobs")
	jobsGroup.Use(operatorAuth)
	jobs.RegisterRoutes(jobsGroup)

	// Prometheus scrape endpoint
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.setupHealthRoutes()
}

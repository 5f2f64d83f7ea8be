package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"replypilot/backend/internal/api"
	"replypilot/backend/internal/jobs"
	"replypilot/backend/internal/models"
	"replypilot/backend/pkg/cache"
	"replypilot/backend/pkg/config"
	"replypilot/backend/pkg/di"
	"replypilot/backend/pkg/health"
	"replypilot/backend/pkg/logger"
	"replypilot/backend/pkg/router"
	"replypilot/backend/shared/observability"
	sharedredis "replypilot/backend/shared/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	// Load and validate configuration
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("invalid configuration: %v", err)
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Initialize tracing and metrics export
	shutdownTracing := observability.SetupTracing("replypilot-backend")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(
		&models.Business{},
		&models.PlatformSource{},
		&models.Competitor{},
		&models.Review{},
		&models.ReplyDraft{},
		&models.ConversationContext{},
		&models.NotificationLog{},
		&models.NotificationRetryState{},
		&models.PostedResponse{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create indexes for better query performance
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_drafts_review_created ON reply_drafts(review_id, created_at)").Error; err != nil {
		log.LogError(err, "Failed to create draft index", "index", "idx_drafts_review_created")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reviews_business_date ON reviews(business_id, review_date)").Error; err != nil {
		log.LogError(err, "Failed to create review index", "index", "idx_reviews_business_date")
	}

	// Initialize dependency injection container
	container, err := di.New(db, &di.Config{
		LoggerConfig: logConfig,
		App:          cfg,
	})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Pick the webhook dedup guard: Redis when reachable, otherwise an
	// in-process cache. The durable notification-log check still backs
	// both, so a Redis outage only costs the fast path.
	var dedup api.DedupGuard
	redisClient := sharedredis.NewRedisClient()
	if err := redisClient.Ping(); err != nil {
		log.Warn("Redis unreachable, using in-memory webhook dedup", "error", err.Error())
		dedup = api.NewMemoryDedup(cache.NewCache())
	} else {
		dedup = redisClient
	}

	// Initialize and setup router
	r := router.New(container, cfg)
	r.SetupRoutes(dedup)

	// Periodic component health checks behind /health/components
	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return db.Exec("SELECT 1").Error
	})
	checker.RegisterCheck("redis", func() (health.Status, string, error) {
		if err := redisClient.Ping(); err != nil {
			return health.StatusDegraded, "Redis unreachable, dedup fast path disabled", err
		}
		return health.StatusUp, "Redis connection is established", nil
	})
	checker.Start()
	r.Engine.GET("/health/components", gin.WrapF(checker.HTTPHandler()))

	// Add OpenAPI validation if schema file is available
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	// Start the background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	runner := jobs.NewRunner(log,
		jobs.Job{Name: "review-poll", Interval: cfg.Scheduler.PollInterval, Run: container.Coordinator.RunCycle},
		jobs.Job{Name: "notification-retry", Interval: cfg.Scheduler.RetryInterval, Run: container.Scheduler.RunSweep},
		jobs.Job{Name: "response-post", Interval: cfg.Scheduler.PostInterval, Run: container.Poster.RunSweep},
	)
	runner.Start(jobCtx)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	log.Info("Shutting down server...")

	// Stop the background jobs before draining requests
	runner.Stop()
	cancelJobs()

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}

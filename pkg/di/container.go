package di

import (
	"fmt"

	"replypilot/backend/internal/billing"
	"replypilot/backend/internal/conversation"
	"replypilot/backend/internal/ingest"
	"replypilot/backend/internal/notify"
	"replypilot/backend/internal/poster"
	"replypilot/backend/internal/reply"
	"replypilot/backend/internal/repository"
	"replypilot/backend/internal/sms"
	"replypilot/backend/internal/source"
	"replypilot/backend/pkg/config"
	"replypilot/backend/pkg/jwt"
	"replypilot/backend/pkg/logger"
	"replypilot/backend/pkg/secrets"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	JWTService *jwt.Service
	Secrets    *secrets.Manager

	Businesses    repository.BusinessRepository
	Reviews       repository.ReviewRepository
	Drafts        repository.DraftRepository
	Contexts      repository.ContextRepository
	Notifications repository.NotificationLogRepository
	RetryStates   repository.RetryStateRepository
	Posted        repository.PostedResponseRepository

	Sources     *source.Registry
	Posters     *poster.PosterRegistry
	Generator   reply.Generator
	Gateway     sms.Gateway
	Billing     billing.Portal
	Dispatcher  *notify.Dispatcher
	Scheduler   *notify.RetryScheduler
	Coordinator *ingest.Coordinator
	Poster      *poster.ResponsePoster
	Machine     *conversation.Machine
}

// Config holds the configuration for the container. Collaborators left nil
// are constructed from the environment; tests inject fakes here instead of
// touching process-wide state.
type Config struct {
	LoggerConfig logger.Config
	App          *config.Config

	Sources   []source.ReviewSource
	Posters   []poster.PlatformPoster
	Generator reply.Generator
	Gateway   sms.Gateway
	Billing   billing.Portal
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *Config) (*Container, error) {
	if cfg == nil {
		cfg = &Config{LoggerConfig: logger.DefaultConfig()}
	}
	if cfg.App == nil {
		cfg.App = config.Get()
	}

	// Initialize the logger
	log := logger.New(cfg.LoggerConfig)

	// Initialize JWT service and secrets manager
	jwtService := jwt.NewService(cfg.App.JWT.Secret, cfg.App.JWT.ExpiryHours)
	secretsManager, err := secrets.NewManager(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}

	// Initialize repositories
	businesses := repository.NewGormBusinessRepository(db)
	reviews := repository.NewGormReviewRepository(db)
	drafts := repository.NewGormDraftRepository(db)
	contexts := repository.NewGormContextRepository(db)
	notifications := repository.NewGormNotificationLogRepository(db)
	retryStates := repository.NewGormRetryStateRepository(db)
	posted := repository.NewGormPostedResponseRepository(db)

	// Initialize external collaborators, preferring injected ones
	generator := cfg.Generator
	if generator == nil {
		generator, err = reply.NewOpenAIGenerator(secretsManager, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create reply generator: %w", err)
		}
	}

	gateway := cfg.Gateway
	if gateway == nil {
		gateway, err = sms.NewHTTPGateway(secretsManager, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create sms gateway: %w", err)
		}
	}

	portal := cfg.Billing
	if portal == nil {
		portal, err = billing.NewHTTPPortal()
		if err != nil {
			return nil, fmt.Errorf("failed to create billing portal: %w", err)
		}
	}

	sourceRegistry := source.NewRegistry(cfg.Sources...)
	posterRegistry := poster.NewPosterRegistry(cfg.Posters...)

	// Wire the pipeline
	dispatcher := notify.NewDispatcher(gateway, contexts, notifications, log)

	coordinator := ingest.NewCoordinator(
		sourceRegistry, businesses, reviews, retryStates, generator, dispatcher, log)

	schedulerConfig := notify.SchedulerConfig{
		MaxAttempts: cfg.App.Scheduler.RetryMaxAttempts,
		BaseDelay:   cfg.App.Scheduler.RetryBaseDelay,
		BatchSize:   cfg.App.Scheduler.RetryBatchSize,
	}
	scheduler := notify.NewRetryScheduler(
		schedulerConfig, retryStates, reviews, drafts, businesses, dispatcher, log)

	responsePoster := poster.NewResponsePoster(
		posterRegistry, drafts, reviews, posted, cfg.App.Scheduler.PostBatchSize, log)

	machine := conversation.NewMachine(contexts, businesses, reviews, drafts, portal, log)

	return &Container{
		DB:            db,
		Logger:        log,
		JWTService:    jwtService,
		Secrets:       secretsManager,
		Businesses:    businesses,
		Reviews:       reviews,
		Drafts:        drafts,
		Contexts:      contexts,
		Notifications: notifications,
		RetryStates:   retryStates,
		Posted:        posted,
		Sources:       sourceRegistry,
		Posters:       posterRegistry,
		Generator:     generator,
		Gateway:       gateway,
		Billing:       portal,
		Dispatcher:    dispatcher,
		Scheduler:     scheduler,
		Coordinator:   coordinator,
		Poster:        responsePoster,
		Machine:       machine,
	}, nil
}

package notify

import (
	"context"
	"time"

	"replypilot/backend/internal/metrics"
	"replypilot/backend/internal/models"
	"replypilot/backend/internal/repository"
	"replypilot/backend/pkg/logger"
)

// Sender is the dispatcher surface the scheduler depends on
type Sender interface {
	Send(ctx context.Context, review *models.Review, draft *models.ReplyDraft, business *models.Business, phone string) (string, error)
}

// SchedulerConfig controls backoff behavior
type SchedulerConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	BatchSize   int
}

// DefaultSchedulerConfig returns the standard backoff configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Minute,
		BatchSize:   50,
	}
}

// RetryScheduler re-attempts failed owner alerts with exponential backoff.
// All state lives in notification_retry_states rows, so the scheduler itself
// is stateless between sweeps.
type RetryScheduler struct {
	config     SchedulerConfig
	retries    repository.RetryStateRepository
	reviews    repository.ReviewRepository
	drafts     repository.DraftRepository
	businesses repository.BusinessRepository
	dispatcher Sender
	log        *logger.Logger
	now        func() time.Time
}

// NewRetryScheduler creates a retry scheduler
func NewRetryScheduler(
	config SchedulerConfig,
	retries repository.RetryStateRepository,
	reviews repository.ReviewRepository,
	drafts repository.DraftRepository,
	businesses repository.BusinessRepository,
	dispatcher Sender,
	log *logger.Logger,
) *RetryScheduler {
	return &RetryScheduler{
		config:     config,
		retries:    retries,
		reviews:    reviews,
		drafts:     drafts,
		businesses: businesses,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// RunSweep processes one bounded batch of due retries, oldest first
func (s *RetryScheduler) RunSweep(ctx context.Context) error {
	due, err := s.retries.ListDue(s.now(), s.config.MaxAttempts, s.config.BatchSize)
	if err != nil {
		return err
	}

	for i := range due {
		s.attempt(ctx, &due[i])
	}
	return nil
}

func (s *RetryScheduler) attempt(ctx context.Context, state *models.NotificationRetryState) {
	review, err := s.reviews.GetByID(state.ReviewID)
	if err != nil {
		s.markTerminal(state, "review no longer resolvable")
		return
	}
	business, err := s.businesses.GetByID(state.BusinessID)
	if err != nil {
		s.markTerminal(state, "business no longer resolvable")
		return
	}
	// STOP between the original failure and this sweep wins; don't keep
	// retrying into a phone that opted out.
	if business.SMSOptOut || business.Cancelled {
		s.markTerminal(state, "owner opted out of SMS")
		return
	}
	draft, err := s.drafts.GetLatestByReviewID(state.ReviewID)
	if err != nil {
		s.markTerminal(state, "draft no longer resolvable")
		return
	}

	if _, err := s.dispatcher.Send(ctx, review, draft, business, business.OwnerPhone); err != nil {
		s.recordFailure(state, err)
		return
	}

	if err := s.retries.Clear(state.ReviewID); err != nil {
		s.log.LogError(err, "failed to clear retry state after success", "review_id", state.ReviewID)
		return
	}
	metrics.NotificationRetries.WithLabelValues("success").Inc()
	s.log.Info("review alert retry succeeded",
		"review_id", state.ReviewID,
		"attempt", state.AttemptCount+1,
	)
}

func (s *RetryScheduler) recordFailure(state *models.NotificationRetryState, sendErr error) {
	state.AttemptCount++
	state.LastError = sendErr.Error()

	if state.AttemptCount >= s.config.MaxAttempts {
		state.Terminal = true
		state.NextAttemptAt = nil
		metrics.NotificationRetries.WithLabelValues("exhausted").Inc()
		s.log.Warn("review alert permanently failed",
			"review_id", state.ReviewID,
			"attempts", state.AttemptCount,
		)
	} else {
		delay := s.config.BaseDelay * (1 << uint(state.AttemptCount))
		next := s.now().Add(delay)
		state.NextAttemptAt = &next
		metrics.NotificationRetries.WithLabelValues("rescheduled").Inc()
		s.log.Info("review alert retry failed, backing off",
			"review_id", state.ReviewID,
			"attempt", state.AttemptCount,
			"next_attempt_at", next,
		)
	}

	if err := s.retries.Record(state); err != nil {
		s.log.LogError(err, "failed to persist retry state", "review_id", state.ReviewID)
	}
}

func (s *RetryScheduler) markTerminal(state *models.NotificationRetryState, reason string) {
	state.Terminal = true
	state.NextAttemptAt = nil
	state.LastError = reason
	if err := s.retries.Record(state); err != nil {
		s.log.LogError(err, "failed to mark retry state terminal", "review_id", state.ReviewID)
	}
	metrics.NotificationRetries.WithLabelValues("orphaned").Inc()
}

package ingest

import (
	"context"
	"errors"
	"time"

	"replypilot/backend/internal/metrics"
	"replypilot/backend/internal/models"
	"replypilot/backend/internal/reply"
	"replypilot/backend/internal/repository"
	"replypilot/backend/internal/sentiment"
	"replypilot/backend/internal/source"
	"replypilot/backend/pkg/logger"
)

// AlertSender is the slice of the notification dispatcher the coordinator
// needs; narrowed to an interface so tests can substitute a fake.
type AlertSender interface {
	Send(ctx context.Context, review *models.Review, draft *models.ReplyDraft, business *models.Business, phone string) (string, error)
}

// Coordinator runs the fetch -> dedup -> persist -> classify -> notify
// pipeline for every monitored business.
type Coordinator struct {
	sources    *source.Registry
	businesses repository.BusinessRepository
	reviews    repository.ReviewRepository
	retries    repository.RetryStateRepository
	generator  reply.Generator
	dispatcher AlertSender
	log        *logger.Logger
}

// NewCoordinator creates an ingestion coordinator
func NewCoordinator(
	sources *source.Registry,
	businesses repository.BusinessRepository,
	reviews repository.ReviewRepository,
	retries repository.RetryStateRepository,
	generator reply.Generator,
	dispatcher AlertSender,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		sources:    sources,
		businesses: businesses,
		reviews:    reviews,
		retries:    retries,
		generator:  generator,
		dispatcher: dispatcher,
		log:        log,
	}
}

// RunCycle processes every monitored business sequentially. Source-level
// failures are logged and isolated; one bad feed never aborts the cycle.
func (c *Coordinator) RunCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	}()

	businesses, err := c.businesses.ListMonitored()
	if err != nil {
		return err
	}

	for i := range businesses {
		business := &businesses[i]
		feeds, err := c.businesses.ListSources(business.ID)
		if err != nil {
			c.log.LogError(err, "failed to list platform sources", "business_id", business.ID)
			continue
		}
		for j := range feeds {
			feed := &feeds[j]
			if feed.CredentialsRevoked {
				continue
			}
			c.ingestFeed(ctx, business, feed)
		}
	}
	return nil
}

// Ingest runs the pipeline for a single business/platform feed. Exposed for
// the job trigger that targets one source.
func (c *Coordinator) Ingest(ctx context.Context, business *models.Business, feed *models.PlatformSource) error {
	return c.ingestFeed(ctx, business, feed)
}

func (c *Coordinator) ingestFeed(ctx context.Context, business *models.Business, feed *models.PlatformSource) error {
	log := c.log.WithBusinessID(business.ID)

	adapter, ok := c.sources.Get(feed.Platform)
	if !ok {
		log.Warn("no source adapter registered", "platform", feed.Platform)
		return nil
	}

	since, err := c.reviews.LatestReviewDate(business.ID, feed.Platform)
	if err != nil {
		log.LogError(err, "failed to resolve ingestion watermark", "platform", feed.Platform)
		return err
	}

	raws, err := adapter.FetchReviews(ctx, feed.ExternalSourceID, since)
	if err != nil {
		if errors.Is(err, source.ErrCredentialsRevoked) {
			// Not retryable. Clear the connection and let STATUS surface it.
			if markErr := c.businesses.MarkCredentialsRevoked(feed.ID); markErr != nil {
				log.LogError(markErr, "failed to mark credentials revoked", "source_id", feed.ID)
			}
			log.Warn("platform credentials revoked", "platform", feed.Platform)
			return nil
		}
		metrics.SourceFetchErrors.WithLabelValues(feed.Platform).Inc()
		log.LogError(err, "review fetch failed", "platform", feed.Platform)
		return nil
	}

	for i := range raws {
		if err := c.ingestOne(ctx, business, feed.Platform, &raws[i]); err != nil {
			log.LogError(err, "failed to ingest review",
				"platform", feed.Platform,
				"external_id", raws[i].ExternalID,
			)
		}
	}
	return nil
}

// ingestOne stores one raw review with its draft and dispatches the owner
// alert. Sources return sliding windows, so hitting an existing review is
// the expected steady state, not an error.
func (c *Coordinator) ingestOne(ctx context.Context, business *models.Business, platform string, raw *source.RawReview) error {
	exists, err := c.reviews.Exists(platform, raw.ExternalID)
	if err != nil {
		return err
	}
	if exists {
		metrics.ReviewsDeduplicated.WithLabelValues(platform).Inc()
		return nil
	}

	result := sentiment.Classify(raw.Rating, raw.Text)

	review := &models.Review{
		BusinessID:     business.ID,
		Platform:       platform,
		ExternalID:     raw.ExternalID,
		Author:         raw.Author,
		Rating:         raw.Rating,
		Text:           raw.Text,
		ReviewDate:     raw.ReviewDate,
		Sentiment:      result.Label,
		SentimentScore: result.Score,
	}

	generated, err := c.generator.GenerateReply(ctx, review, business)
	if err != nil {
		// Nothing was persisted; the next cycle picks this review up again.
		return err
	}

	draft := &models.ReplyDraft{
		Text:              generated.DraftText,
		EscalationFlag:    generated.EscalationFlag,
		EscalationReasons: generated.EscalationReasons,
		Status:            models.DraftPending,
		Confidence:        generated.Confidence,
	}

	autoApproved := business.AutoApprove &&
		!generated.EscalationFlag &&
		result.Label != models.SentimentNegative
	if autoApproved {
		now := time.Now()
		draft.Status = models.DraftApproved
		draft.ApprovedAt = &now
	}

	if err := c.reviews.CreateWithDraft(review, draft); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			// Lost the insert race to a concurrent cycle; same outcome as
			// the existence check firing.
			metrics.ReviewsDeduplicated.WithLabelValues(platform).Inc()
			return nil
		}
		return err
	}
	metrics.ReviewsIngested.WithLabelValues(platform).Inc()

	if autoApproved || business.SMSOptOut {
		return nil
	}

	// The review and draft are durable at this point. A dispatch failure is
	// recorded for the retry scheduler instead of rolling anything back.
	if _, err := c.dispatcher.Send(ctx, review, draft, business, business.OwnerPhone); err != nil {
		state := &models.NotificationRetryState{
			ReviewID:   review.ID,
			BusinessID: business.ID,
			LastError:  err.Error(),
		}
		if recordErr := c.retries.Record(state); recordErr != nil {
			c.log.LogError(recordErr, "failed to record notification retry state", "review_id", review.ID)
		}
		c.log.LogError(err, "review alert dispatch failed, scheduled for retry", "review_id", review.ID)
	}
	return nil
}

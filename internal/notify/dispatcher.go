package notify

import (
	"context"
	"fmt"
	"unicode/utf8"

	"replypilot/backend/internal/metrics"
	"replypilot/backend/internal/models"
	"replypilot/backend/internal/repository"
	"replypilot/backend/internal/sms"
	"replypilot/backend/pkg/logger"

	"github.com/google/uuid"
)

const (
	maxQuotedReviewLen = 120
	maxQuotedDraftLen  = 300
	commandHint        = "Reply APPROVE to post, EDIT to rewrite, IGNORE to skip, HELP for more."
)

// Dispatcher sends the owner-approval SMS for a newly ingested review
type Dispatcher struct {
	gateway  sms.Gateway
	contexts repository.ContextRepository
	logs     repository.NotificationLogRepository
	log      *logger.Logger
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(
	gateway sms.Gateway,
	contexts repository.ContextRepository,
	logs repository.NotificationLogRepository,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		gateway:  gateway,
		contexts: contexts,
		logs:     logs,
		log:      log,
	}
}

// Send alerts the owner about a new review and its draft reply. The
// conversation context is primed with the pending review before the gateway
// call, so a reply racing with send completion still resolves against the
// right review. The attempt is logged either way and send errors propagate
// to the caller.
func (d *Dispatcher) Send(ctx context.Context, review *models.Review, draft *models.ReplyDraft, business *models.Business, phone string) (string, error) {
	notificationID := uuid.New().String()

	convCtx, err := d.contexts.GetOrCreate(phone, business.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation context: %w", err)
	}
	reviewID := review.ID
	convCtx.PendingReviewID = &reviewID
	convCtx.State = models.StateIdle
	if err := d.contexts.Save(convCtx); err != nil {
		return "", fmt.Errorf("failed to prime conversation context: %w", err)
	}

	body := formatAlert(review, draft)

	messageID, sendErr := d.gateway.Send(ctx, phone, body)

	entry := &models.NotificationLog{
		NotificationID:   notificationID,
		BusinessID:       business.ID,
		ReviewID:         &reviewID,
		Direction:        models.DirectionOutbound,
		Phone:            phone,
		Body:             body,
		DeliveryStatus:   models.DeliveryQueued,
		GatewayMessageID: messageID,
	}
	if sendErr != nil {
		entry.DeliveryStatus = models.DeliveryFailed
		entry.ErrorDetail = sendErr.Error()
	}
	if logErr := d.logs.Create(entry); logErr != nil {
		d.log.LogError(logErr, "failed to record notification log",
			"notification_id", notificationID,
			"review_id", review.ID,
		)
	}

	if sendErr != nil {
		metrics.NotificationsFailed.Inc()
		return "", fmt.Errorf("failed to send review alert: %w", sendErr)
	}

	metrics.NotificationsSent.Inc()
	d.log.Info("review alert sent",
		"notification_id", notificationID,
		"review_id", review.ID,
		"business_id", business.ID,
		"gateway_message_id", messageID,
	)
	return notificationID, nil
}

// formatAlert builds the bounded-length alert body
func formatAlert(review *models.Review, draft *models.ReplyDraft) string {
	quote := truncate(review.Text, maxQuotedReviewLen)
	reply := truncate(draft.Text, maxQuotedDraftLen)

	header := fmt.Sprintf("New %d-star %s review", review.Rating, review.Platform)
	if draft.EscalationFlag {
		header += " (needs careful wording)"
	}

	return fmt.Sprintf("%s:\n\"%s\"\n\nSuggested reply:\n%s\n\n%s", header, quote, reply, commandHint)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	suffix := ""
	if max > 3 {
		cut = max - 3
		suffix = "..."
	}
	// Never cut mid-rune; walk back to a rune boundary.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

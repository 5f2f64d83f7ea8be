package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"replypilot/backend/internal/models"
	"replypilot/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	sent      []string
	messageID string
	err       error
}

func (f *fakeGateway) Send(ctx context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, body)
	return f.messageID, nil
}

type fakeContextRepo struct {
	contexts map[string]*models.ConversationContext
}

func (f *fakeContextRepo) GetByPhone(phone string) (*models.ConversationContext, error) {
	if c, ok := f.contexts[phone]; ok {
		return c, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeContextRepo) GetOrCreate(phone string, businessID uint) (*models.ConversationContext, error) {
	if c, ok := f.contexts[phone]; ok {
		return c, nil
	}
	c := &models.ConversationContext{Phone: phone, BusinessID: businessID, State: models.StateIdle}
	f.contexts[phone] = c
	return c, nil
}

func (f *fakeContextRepo) Save(ctx *models.ConversationContext) error { return nil }

type fakeLogRepo struct {
	entries []models.NotificationLog
}

func (f *fakeLogRepo) Create(log *models.NotificationLog) error {
	f.entries = append(f.entries, *log)
	return nil
}

func (f *fakeLogRepo) ExistsByGatewayMessageID(messageID string) (bool, error) {
	for _, e := range f.entries {
		if e.GatewayMessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLogRepo) UpdateDeliveryStatus(gatewayMessageID, status string) error { return nil }

func testReviewAndDraft() (*models.Review, *models.ReplyDraft, *models.Business) {
	review := &models.Review{
		ID:         7,
		BusinessID: 1,
		Platform:   "google",
		Author:     "Maria",
		Rating:     5,
		Text:       "Best carbonara in town, the staff remembered our anniversary!",
	}
	draft := &models.ReplyDraft{
		ID:       70,
		ReviewID: 7,
		Text:     "Thank you Maria! We loved celebrating with you.",
		Status:   models.DraftPending,
	}
	business := &models.Business{ID: 1, Name: "Rosa's Trattoria", OwnerPhone: "+15550001111"}
	return review, draft, business
}

func TestDispatcherSendPrimesContextBeforeGateway(t *testing.T) {
	contexts := &fakeContextRepo{contexts: map[string]*models.ConversationContext{}}
	logs := &fakeLogRepo{}

	var pendingAtSendTime *uint
	gateway := &fakeGateway{messageID: "SM123"}
	d := NewDispatcher(gatewaySpy{gateway, func() {
		pendingAtSendTime = contexts.contexts["+15550001111"].PendingReviewID
	}}, contexts, logs, logger.New(logger.DefaultConfig()))

	review, draft, business := testReviewAndDraft()
	notificationID, err := d.Send(context.Background(), review, draft, business, business.OwnerPhone)
	require.NoError(t, err)
	assert.NotEmpty(t, notificationID)

	// The pending review must already be visible when the gateway fires,
	// so an owner reply racing the send still resolves correctly.
	require.NotNil(t, pendingAtSendTime)
	assert.Equal(t, uint(7), *pendingAtSendTime)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, models.DirectionOutbound, entry.Direction)
	assert.Equal(t, models.DeliveryQueued, entry.DeliveryStatus)
	assert.Equal(t, "SM123", entry.GatewayMessageID)
}

// gatewaySpy runs a hook before delegating, to observe ordering
type gatewaySpy struct {
	inner      *fakeGateway
	beforeSend func()
}

func (g gatewaySpy) Send(ctx context.Context, to, body string) (string, error) {
	g.beforeSend()
	return g.inner.Send(ctx, to, body)
}

func TestDispatcherSendFailureIsLoggedAndPropagated(t *testing.T) {
	contexts := &fakeContextRepo{contexts: map[string]*models.ConversationContext{}}
	logs := &fakeLogRepo{}
	gateway := &fakeGateway{err: errors.New("gateway timeout")}
	d := NewDispatcher(gateway, contexts, logs, logger.New(logger.DefaultConfig()))

	review, draft, business := testReviewAndDraft()
	_, err := d.Send(context.Background(), review, draft, business, business.OwnerPhone)
	require.Error(t, err)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.DeliveryFailed, logs.entries[0].DeliveryStatus)
	assert.Contains(t, logs.entries[0].ErrorDetail, "gateway timeout")
}

func TestFormatAlertBoundsQuotedText(t *testing.T) {
	review, draft, _ := testReviewAndDraft()
	review.Text = strings.Repeat("x", 500)
	draft.Text = strings.Repeat("y", 500)

	body := formatAlert(review, draft)
	assert.Contains(t, body, "New 5-star google review")
	assert.Contains(t, body, commandHint)
	assert.Less(t, len(body), maxQuotedReviewLen+maxQuotedDraftLen+len(commandHint)+100)
}

func TestFormatAlertFlagsEscalations(t *testing.T) {
	review, draft, _ := testReviewAndDraft()
	draft.EscalationFlag = true
	assert.Contains(t, formatAlert(review, draft), "needs careful wording")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly", truncate("exactly", 7))
	out := truncate("a much longer piece of text", 10)
	assert.Len(t, out, 10)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	// Multi-byte text must never be cut mid-rune.
	text := "café über naïve — résumé with accents throughout"
	for max := 4; max <= len(text); max++ {
		out := truncate(text, max)
		assert.True(t, utf8.ValidString(out), "max=%d produced invalid UTF-8: %q", max, out)
		assert.LessOrEqual(t, len(out), max)
	}
}

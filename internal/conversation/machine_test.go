package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"replypilot/backend/internal/models"
	"replypilot/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBusinessRepo struct {
	businesses  map[string]*models.Business
	sources     []models.PlatformSource
	competitors []models.Competitor
}

func (f *fakeBusinessRepo) GetByID(id uint) (*models.Business, error) {
	for _, b := range f.businesses {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeBusinessRepo) GetByPhone(phone string) (*models.Business, error) {
	if b, ok := f.businesses[phone]; ok {
		return b, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeBusinessRepo) ListMonitored() ([]models.Business, error) { return nil, nil }

func (f *fakeBusinessRepo) ListSources(businessID uint) ([]models.PlatformSource, error) {
	return f.sources, nil
}

func (f *fakeBusinessRepo) Save(business *models.Business) error { return nil }

func (f *fakeBusinessRepo) MarkCredentialsRevoked(sourceID uint) error { return nil }

func (f *fakeBusinessRepo) AddCompetitor(competitor *models.Competitor) error {
	f.competitors = append(f.competitors, *competitor)
	return nil
}

type fakeContextRepo struct {
	contexts map[string]*models.ConversationContext
	saved    int
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

func (f *fakeContextRepo) Save(ctx *models.ConversationContext) error {
	f.saved++
	return nil
}

type fakeReviewRepo struct {
	reviews map[uint]*models.Review
}

func (f *fakeReviewRepo) GetByID(id uint) (*models.Review, error) {
	if r, ok := f.reviews[id]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeReviewRepo) Exists(platform, externalID string) (bool, error) { return false, nil }

func (f *fakeReviewRepo) LatestReviewDate(businessID uint, platform string) (*time.Time, error) {
	return nil, nil
}

func (f *fakeReviewRepo) CreateWithDraft(review *models.Review, draft *models.ReplyDraft) error {
	return nil
}

type fakeDraftRepo struct {
	drafts map[uint]*models.ReplyDraft
}

func (f *fakeDraftRepo) GetLatestByReviewID(reviewID uint) (*models.ReplyDraft, error) {
	if d, ok := f.drafts[reviewID]; ok {
		return d, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeDraftRepo) Save(draft *models.ReplyDraft) error { return nil }

func (f *fakeDraftRepo) ListApprovedUnposted(limit int) ([]models.ReplyDraft, error) {
	return nil, nil
}

type fakePortal struct {
	link       string
	cancelErr  error
	cancelled  []uint
	linkCalled int
}

func (f *fakePortal) PortalLink(ctx context.Context, businessID uint) (string, error) {
	f.linkCalled++
	return f.link, nil
}

func (f *fakePortal) CancelSubscription(ctx context.Context, businessID uint) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, businessID)
	return nil
}

const testPhone = "+15550001111"

func newTestMachine(t *testing.T) (*Machine, *fakeBusinessRepo, *fakeContextRepo, *fakeDraftRepo, *fakePortal) {
	t.Helper()

	businesses := &fakeBusinessRepo{businesses: map[string]*models.Business{
		testPhone: {ID: 1, Name: "Rosa's Trattoria", OwnerPhone: testPhone},
	}}
	contexts := &fakeContextRepo{contexts: map[string]*models.ConversationContext{}}
	reviews := &fakeReviewRepo{reviews: map[uint]*models.Review{}}
	drafts := &fakeDraftRepo{drafts: map[uint]*models.ReplyDraft{}}
	portal := &fakePortal{link: "https://billing.example.com/p/1"}

	m := NewMachine(contexts, businesses, reviews, drafts, portal, logger.New(logger.DefaultConfig()))
	return m, businesses, contexts, drafts, portal
}

func pendingReview(contexts *fakeContextRepo, drafts *fakeDraftRepo, reviewID uint) {
	id := reviewID
	contexts.contexts[testPhone] = &models.ConversationContext{
		Phone: testPhone, BusinessID: 1, State: models.StateIdle, PendingReviewID: &id,
	}
	drafts.drafts[reviewID] = &models.ReplyDraft{
		ID: 10, ReviewID: reviewID, Text: "Thank you for visiting!", Status: models.DraftPending,
	}
}

func TestHandleUnknownNumber(t *testing.T) {
	m, _, _, _, _ := newTestMachine(t)
	res := m.Handle(context.Background(), "+19998887777", "APPROVE")
	assert.Equal(t, replyUnknownNumber, res.Reply)
}

func TestHandleApprove(t *testing.T) {
	m, _, contexts, drafts, _ := newTestMachine(t)
	pendingReview(contexts, drafts, 42)

	res := m.Handle(context.Background(), testPhone, "approve")
	assert.Equal(t, replyApproved, res.Reply)
	assert.Equal(t, CmdApprove, res.Command)
	assert.Equal(t, uint(1), res.BusinessID)

	draft := drafts.drafts[42]
	assert.Equal(t, models.DraftApproved, draft.Status)
	require.NotNil(t, draft.ApprovedAt)

	convCtx := contexts.contexts[testPhone]
	assert.Nil(t, convCtx.PendingReviewID)
	assert.Equal(t, models.StateIdle, convCtx.State)
}

func TestHandleApproveNothingPending(t *testing.T) {
	m, _, _, _, _ := newTestMachine(t)
	res := m.Handle(context.Background(), testPhone, "APPROVE")
	assert.Equal(t, replyNothingPending, res.Reply)
}

func TestHandleEditThenCustomReply(t *testing.T) {
	m, _, contexts, drafts, _ := newTestMachine(t)
	pendingReview(contexts, drafts, 42)

	res := m.Handle(context.Background(), testPhone, "EDIT")
	assert.Equal(t, replyEditPrompt, res.Reply)
	assert.Equal(t, models.StateAwaitingCustomReply, contexts.contexts[testPhone].State)

	res = m.Handle(context.Background(), testPhone, "Thanks Maria, see you next week!")
	assert.Equal(t, replyCustomSaved, res.Reply)
	assert.Equal(t, CmdCustomReply, res.Command)

	draft := drafts.drafts[42]
	assert.Equal(t, "Thanks Maria, see you next week!", draft.Text)
	assert.Equal(t, models.DraftApproved, draft.Status)
	assert.Equal(t, models.StateIdle, contexts.contexts[testPhone].State)
	assert.Nil(t, contexts.contexts[testPhone].PendingReviewID)
}

func TestHandleIgnoreRejectsDraft(t *testing.T) {
	m, _, contexts, drafts, _ := newTestMachine(t)
	pendingReview(contexts, drafts, 42)

	res := m.Handle(context.Background(), testPhone, "IGNORE")
	assert.Equal(t, replyIgnored, res.Reply)
	assert.Equal(t, models.DraftRejected, drafts.drafts[42].Status)
	assert.Nil(t, contexts.contexts[testPhone].PendingReviewID)
}

func TestHandlePauseAndResume(t *testing.T) {
	m, businesses, _, _, _ := newTestMachine(t)

	res := m.Handle(context.Background(), testPhone, "PAUSE")
	assert.Equal(t, replyPaused, res.Reply)
	assert.True(t, businesses.businesses[testPhone].MonitoringPaused)

	res = m.Handle(context.Background(), testPhone, "RESUME")
	assert.Equal(t, replyResumed, res.Reply)
	assert.False(t, businesses.businesses[testPhone].MonitoringPaused)
}

func TestHandleCancelRequiresConfirmation(t *testing.T) {
	m, businesses, contexts, _, portal := newTestMachine(t)

	res := m.Handle(context.Background(), testPhone, "CANCEL")
	assert.Equal(t, replyCancelPrompt, res.Reply)
	assert.Equal(t, models.StateAwaitingCancelConfirm, contexts.contexts[testPhone].State)

	// Anything short of an explicit yes keeps the subscription.
	res = m.Handle(context.Background(), testPhone, "hmm let me think")
	assert.Equal(t, replyCancelKept, res.Reply)
	assert.Equal(t, models.StateIdle, contexts.contexts[testPhone].State)
	assert.Empty(t, portal.cancelled)
	assert.False(t, businesses.businesses[testPhone].Cancelled)
}

func TestHandleCancelConfirmed(t *testing.T) {
	m, businesses, _, _, portal := newTestMachine(t)

	m.Handle(context.Background(), testPhone, "CANCEL")
	res := m.Handle(context.Background(), testPhone, "YES")
	assert.Equal(t, replyCancelDone, res.Reply)
	assert.Equal(t, []uint{1}, portal.cancelled)
	assert.True(t, businesses.businesses[testPhone].Cancelled)
}

func TestHandleCancelBillingFailureKeepsSubscription(t *testing.T) {
	m, businesses, contexts, _, portal := newTestMachine(t)
	portal.cancelErr = errors.New("billing provider unavailable")

	m.Handle(context.Background(), testPhone, "CANCEL")
	res := m.Handle(context.Background(), testPhone, "YES")
	assert.Equal(t, replyFallback, res.Reply)
	assert.False(t, businesses.businesses[testPhone].Cancelled)
	assert.Equal(t, models.StateIdle, contexts.contexts[testPhone].State)
}

func TestHandleStopOptsOut(t *testing.T) {
	m, businesses, contexts, drafts, _ := newTestMachine(t)
	pendingReview(contexts, drafts, 42)

	res := m.Handle(context.Background(), testPhone, "STOP")
	assert.Equal(t, replyStopped, res.Reply)

	b := businesses.businesses[testPhone]
	assert.True(t, b.SMSOptOut)
	assert.True(t, b.MonitoringPaused)
	assert.Nil(t, contexts.contexts[testPhone].PendingReviewID)

	// RESUME re-enables both monitoring and the SMS channel.
	res = m.Handle(context.Background(), testPhone, "RESUME")
	assert.Equal(t, replyResumed, res.Reply)
	assert.False(t, b.SMSOptOut)
	assert.False(t, b.MonitoringPaused)
}

func TestHandleStatusReportsRevokedSources(t *testing.T) {
	m, businesses, contexts, drafts, _ := newTestMachine(t)
	pendingReview(contexts, drafts, 42)
	businesses.sources = []models.PlatformSource{
		{ID: 1, BusinessID: 1, Platform: "google", CredentialsRevoked: true},
		{ID: 2, BusinessID: 1, Platform: "yelp"},
	}

	res := m.Handle(context.Background(), testPhone, "STATUS")
	assert.Contains(t, res.Reply, "Rosa's Trattoria: monitoring active.")
	assert.Contains(t, res.Reply, "A review is waiting on your approval.")
	assert.Contains(t, res.Reply, "reconnect google")
	assert.NotContains(t, res.Reply, "yelp")
}

func TestHandleBillingReturnsPortalLink(t *testing.T) {
	m, _, _, _, portal := newTestMachine(t)
	res := m.Handle(context.Background(), testPhone, "BILLING")
	assert.Equal(t, "Manage your billing here: "+portal.link, res.Reply)
}

func TestHandleCompetitorAddFlow(t *testing.T) {
	m, businesses, contexts, _, _ := newTestMachine(t)

	res := m.Handle(context.Background(), testPhone, "COMPETITOR")
	assert.Equal(t, replyCompetitorAsk, res.Reply)
	assert.Equal(t, models.StateAwaitingCompetitorAdd, contexts.contexts[testPhone].State)

	res = m.Handle(context.Background(), testPhone, "Luigi's Pizzeria")
	assert.Equal(t, "Now tracking Luigi's Pizzeria.", res.Reply)
	require.Len(t, businesses.competitors, 1)
	assert.Equal(t, "Luigi's Pizzeria", businesses.competitors[0].Name)
	assert.Equal(t, models.StateIdle, contexts.contexts[testPhone].State)
}

func TestHandleHelpAndUnknown(t *testing.T) {
	m, _, _, _, _ := newTestMachine(t)
	assert.Equal(t, replyHelp, m.Handle(context.Background(), testPhone, "HELP").Reply)
	assert.Equal(t, replyUnknown, m.Handle(context.Background(), testPhone, "wat").Reply)
}

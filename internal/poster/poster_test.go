package poster

import (
	"context"
	"errors"
	"testing"
	"time"

	"replypilot/backend/internal/models"
	"replypilot/backend/internal/repository"
	"replypilot/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResponseText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain reply",
			body: "Thank you for the kind words, Maria!",
			want: "Thank you for the kind words, Maria!",
		},
		{
			name: "labeled options pick the first",
			body: "Option 1: Thanks so much!\nOption 2: We appreciate it.",
			want: "Thanks so much!",
		},
		{
			name: "numbered options",
			body: "1) Thanks so much!\n2) We appreciate it.",
			want: "Thanks so much!",
		},
		{
			name: "numbered with period",
			body: "1. Thanks so much!\n2. We appreciate it.",
			want: "Thanks so much!",
		},
		{
			name: "multi-line first option",
			body: "Option 1: Thanks so much!\nSee you again soon.\nOption 2: We appreciate it.",
			want: "Thanks so much!\nSee you again soon.",
		},
		{
			name: "preamble before options is dropped",
			body: "Here are two options:\nOption 1: Thanks!\nOption 2: Cheers!",
			want: "Thanks!",
		},
		{
			name: "whitespace trimmed",
			body: "  A simple thank you.  ",
			want: "A simple thank you.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractResponseText(tt.body))
		})
	}
}

type stubPoster struct {
	platform string
	result   *PostResult
	err      error
	posted   []string
}

func (s *stubPoster) Platform() string { return s.platform }

func (s *stubPoster) PostReply(ctx context.Context, externalReviewID, text string) (*PostResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.posted = append(s.posted, text)
	return s.result, nil
}

type stubDraftRepo struct {
	queue    []models.ReplyDraft
	saved    map[uint]models.ReplyDraft
	gotLimit int
}

func (s *stubDraftRepo) GetLatestByReviewID(reviewID uint) (*models.ReplyDraft, error) {
	return nil, errors.New("not found")
}

func (s *stubDraftRepo) Save(draft *models.ReplyDraft) error {
	s.saved[draft.ID] = *draft
	return nil
}

func (s *stubDraftRepo) ListApprovedUnposted(limit int) ([]models.ReplyDraft, error) {
	s.gotLimit = limit
	return s.queue, nil
}

type stubReviewRepo struct {
	reviews map[uint]*models.Review
}

func (s *stubReviewRepo) GetByID(id uint) (*models.Review, error) {
	if r, ok := s.reviews[id]; ok {
		return r, nil
	}
	return nil, errors.New("not found")
}

func (s *stubReviewRepo) Exists(platform, externalID string) (bool, error) { return false, nil }

func (s *stubReviewRepo) LatestReviewDate(businessID uint, platform string) (*time.Time, error) {
	return nil, nil
}

func (s *stubReviewRepo) CreateWithDraft(review *models.Review, draft *models.ReplyDraft) error {
	return nil
}

type stubPostedRepo struct {
	rows      map[uint]models.PostedResponse
	createErr error
}

func (s *stubPostedRepo) Create(posted *models.PostedResponse) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.rows[posted.DraftID]; ok {
		return repository.ErrAlreadyPosted
	}
	s.rows[posted.DraftID] = *posted
	return nil
}

func (s *stubPostedRepo) ExistsByDraftID(draftID uint) (bool, error) {
	_, ok := s.rows[draftID]
	return ok, nil
}

func newPosterFixture(adapter *stubPoster) (*ResponsePoster, *stubDraftRepo, *stubPostedRepo) {
	drafts := &stubDraftRepo{saved: map[uint]models.ReplyDraft{}}
	reviews := &stubReviewRepo{reviews: map[uint]*models.Review{
		7: {ID: 7, BusinessID: 1, Platform: "google", ExternalID: "g-1"},
	}}
	posted := &stubPostedRepo{rows: map[uint]models.PostedResponse{}}

	p := NewResponsePoster(
		NewPosterRegistry(adapter), drafts, reviews, posted, 25,
		logger.New(logger.DefaultConfig()),
	)
	return p, drafts, posted
}

func approvedDraft() models.ReplyDraft {
	now := time.Now()
	return models.ReplyDraft{
		ID:         70,
		ReviewID:   7,
		Text:       "Option 1: Thank you!\nOption 2: Cheers!",
		Status:     models.DraftApproved,
		ApprovedAt: &now,
	}
}

func TestSweepPostsApprovedDraft(t *testing.T) {
	adapter := &stubPoster{platform: "google", result: &PostResult{Success: true, PlatformRef: "resp-1"}}
	p, drafts, posted := newPosterFixture(adapter)
	drafts.queue = []models.ReplyDraft{approvedDraft()}

	require.NoError(t, p.RunSweep(context.Background()))

	// Only the first option reaches the platform.
	require.Len(t, adapter.posted, 1)
	assert.Equal(t, "Thank you!", adapter.posted[0])

	row, ok := posted.rows[70]
	require.True(t, ok)
	assert.Equal(t, uint(7), row.ReviewID)
	assert.Equal(t, "resp-1", row.PlatformRef)

	saved := drafts.saved[70]
	assert.Equal(t, models.DraftSent, saved.Status)
	assert.Empty(t, saved.FailureDetail)
}

func TestSweepFailureKeepsDraftApproved(t *testing.T) {
	adapter := &stubPoster{platform: "google", err: errors.New("platform 500")}
	p, drafts, posted := newPosterFixture(adapter)
	drafts.queue = []models.ReplyDraft{approvedDraft()}

	require.NoError(t, p.RunSweep(context.Background()))

	assert.Empty(t, posted.rows)
	saved := drafts.saved[70]
	assert.Equal(t, models.DraftApproved, saved.Status)
	assert.Contains(t, saved.FailureDetail, "platform 500")
}

func TestSweepRejectedPostRecordsPlatformError(t *testing.T) {
	adapter := &stubPoster{platform: "google", result: &PostResult{Success: false, Error: "review is locked"}}
	p, drafts, posted := newPosterFixture(adapter)
	drafts.queue = []models.ReplyDraft{approvedDraft()}

	require.NoError(t, p.RunSweep(context.Background()))

	assert.Empty(t, posted.rows)
	assert.Contains(t, drafts.saved[70].FailureDetail, "review is locked")
}

func TestSweepDuplicateGuardToleratesRaces(t *testing.T) {
	adapter := &stubPoster{platform: "google", result: &PostResult{Success: true}}
	p, drafts, posted := newPosterFixture(adapter)
	draft := approvedDraft()
	posted.rows[70] = models.PostedResponse{DraftID: 70, ReviewID: 7}
	drafts.queue = []models.ReplyDraft{draft}

	require.NoError(t, p.RunSweep(context.Background()))

	// The guard row wins: the draft moves to sent without a second
	// platform post.
	assert.Equal(t, models.DraftSent, drafts.saved[70].Status)
	assert.Empty(t, adapter.posted)
}

func TestSweepCreateRaceToleratesDuplicate(t *testing.T) {
	adapter := &stubPoster{platform: "google", result: &PostResult{Success: true}}
	p, drafts, posted := newPosterFixture(adapter)
	drafts.queue = []models.ReplyDraft{approvedDraft()}
	// A concurrent sweep inserts the guard row between our existence check
	// and our Create.
	posted.createErr = repository.ErrAlreadyPosted

	require.NoError(t, p.RunSweep(context.Background()))
	assert.Equal(t, models.DraftSent, drafts.saved[70].Status)
}

func TestSweepUsesConfiguredBatchSize(t *testing.T) {
	adapter := &stubPoster{platform: "google", result: &PostResult{Success: true}}
	drafts := &stubDraftRepo{saved: map[uint]models.ReplyDraft{}}
	reviews := &stubReviewRepo{reviews: map[uint]*models.Review{}}
	posted := &stubPostedRepo{rows: map[uint]models.PostedResponse{}}

	p := NewResponsePoster(
		NewPosterRegistry(adapter), drafts, reviews, posted, 7,
		logger.New(logger.DefaultConfig()),
	)
	require.NoError(t, p.RunSweep(context.Background()))
	assert.Equal(t, 7, drafts.gotLimit)

	// A non-positive size falls back to the default instead of listing nothing.
	p = NewResponsePoster(
		NewPosterRegistry(adapter), drafts, reviews, posted, 0,
		logger.New(logger.DefaultConfig()),
	)
	require.NoError(t, p.RunSweep(context.Background()))
	assert.Equal(t, defaultBatchSize, drafts.gotLimit)
}

func TestSweepSkipsUnknownPlatform(t *testing.T) {
	adapter := &stubPoster{platform: "yelp", result: &PostResult{Success: true}}
	p, drafts, posted := newPosterFixture(adapter)
	drafts.queue = []models.ReplyDraft{approvedDraft()}

	require.NoError(t, p.RunSweep(context.Background()))
	assert.Empty(t, adapter.posted)
	assert.Empty(t, posted.rows)
}

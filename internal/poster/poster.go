package poster

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"replypilot/backend/internal/metrics"
	"replypilot/backend/internal/models"
	"replypilot/backend/internal/repository"
	"replypilot/backend/pkg/logger"
)

const defaultBatchSize = 25

// ResponsePoster reconciles approved drafts back to their platforms. A
// draft stays approved until a PostedResponse row exists for it, so failed
// posts are retried by every subsequent sweep.
type ResponsePoster struct {
	posters   *PosterRegistry
	drafts    repository.DraftRepository
	reviews   repository.ReviewRepository
	posted    repository.PostedResponseRepository
	batchSize int
	log       *logger.Logger
}

// NewResponsePoster creates a response poster. A non-positive batchSize
// falls back to the default.
func NewResponsePoster(
	posters *PosterRegistry,
	drafts repository.DraftRepository,
	reviews repository.ReviewRepository,
	posted repository.PostedResponseRepository,
	batchSize int,
	log *logger.Logger,
) *ResponsePoster {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ResponsePoster{
		posters:   posters,
		drafts:    drafts,
		reviews:   reviews,
		posted:    posted,
		batchSize: batchSize,
		log:       log,
	}
}

// RunSweep posts one bounded batch of approved drafts, oldest approval first
func (p *ResponsePoster) RunSweep(ctx context.Context) error {
	drafts, err := p.drafts.ListApprovedUnposted(p.batchSize)
	if err != nil {
		return err
	}

	for i := range drafts {
		p.postOne(ctx, &drafts[i])
	}
	return nil
}

func (p *ResponsePoster) postOne(ctx context.Context, draft *models.ReplyDraft) {
	review, err := p.reviews.GetByID(draft.ReviewID)
	if err != nil {
		p.log.LogError(err, "failed to load review for posting", "draft_id", draft.ID)
		return
	}

	adapter, ok := p.posters.Get(review.Platform)
	if !ok {
		p.log.Warn("no posting adapter registered", "platform", review.Platform, "draft_id", draft.ID)
		return
	}

	// A guard row with the draft still approved means a prior sweep posted
	// the reply but failed to flip the status. Heal without re-posting.
	if already, err := p.posted.ExistsByDraftID(draft.ID); err != nil {
		p.log.LogError(err, "failed to check posted guard", "draft_id", draft.ID)
		return
	} else if already {
		draft.Status = models.DraftSent
		draft.FailureDetail = ""
		if err := p.drafts.Save(draft); err != nil {
			p.log.LogError(err, "failed to mark draft sent", "draft_id", draft.ID)
		}
		return
	}

	text := ExtractResponseText(draft.Text)

	result, err := adapter.PostReply(ctx, review.ExternalID, text)
	if err != nil || !result.Success {
		detail := "post rejected by platform"
		if err != nil {
			detail = err.Error()
		} else if result.Error != "" {
			detail = result.Error
		}
		metrics.ResponsePostFailures.WithLabelValues(review.Platform).Inc()
		// Leave the draft approved so the next sweep retries it.
		draft.FailureDetail = detail
		if saveErr := p.drafts.Save(draft); saveErr != nil {
			p.log.LogError(saveErr, "failed to record post failure", "draft_id", draft.ID)
		}
		p.log.LogError(errors.New(detail), "reply post failed",
			"draft_id", draft.ID, "platform", review.Platform)
		return
	}

	posted := &models.PostedResponse{
		DraftID:     draft.ID,
		ReviewID:    review.ID,
		Platform:    review.Platform,
		PlatformRef: result.PlatformRef,
		PostedAt:    time.Now(),
	}
	if err := p.posted.Create(posted); err != nil && !errors.Is(err, repository.ErrAlreadyPosted) {
		// The reply is live but the guard row didn't stick; surface loudly
		// since the next sweep would double-post without it.
		p.log.LogError(err, "failed to record posted response", "draft_id", draft.ID)
		return
	}

	draft.Status = models.DraftSent
	draft.FailureDetail = ""
	if err := p.drafts.Save(draft); err != nil {
		p.log.LogError(err, "failed to mark draft sent", "draft_id", draft.ID)
	}

	metrics.ResponsesPosted.WithLabelValues(review.Platform).Inc()
	p.log.Info("reply posted",
		"draft_id", draft.ID,
		"review_id", review.ID,
		"platform", review.Platform,
	)
}

var optionLabel = regexp.MustCompile(`(?i)^\s*(option\s*\d+|\d+[\).])\s*:?\s*`)

// ExtractResponseText returns the actual reply text from a draft body. Some
// generators emit multiple labeled options; the first option wins. A body
// without option labels is returned as-is.
func ExtractResponseText(body string) string {
	lines := strings.Split(body, "\n")

	firstLabel := -1
	for i, line := range lines {
		if optionLabel.MatchString(line) {
			firstLabel = i
			break
		}
	}
	if firstLabel == -1 {
		return strings.TrimSpace(body)
	}

	var picked []string
	first := optionLabel.ReplaceAllString(lines[firstLabel], "")
	if strings.TrimSpace(first) != "" {
		picked = append(picked, strings.TrimSpace(first))
	}
	for _, line := range lines[firstLabel+1:] {
		if optionLabel.MatchString(line) {
			break
		}
		if strings.TrimSpace(line) != "" {
			picked = append(picked, strings.TrimSpace(line))
		}
	}
	return strings.Join(picked, "\n")
}

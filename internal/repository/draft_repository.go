package repository

import (
	"time"

	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

type DraftRepository interface {
	GetLatestByReviewID(reviewID uint) (*models.ReplyDraft, error)
	Save(draft *models.ReplyDraft) error
	ListApprovedUnposted(limit int) ([]models.ReplyDraft, error)
}

type GormDraftRepository struct {
	db *gorm.DB
}

func NewGormDraftRepository(db *gorm.DB) *GormDraftRepository {
	return &GormDraftRepository{db: db}
}

func (r *GormDraftRepository) GetLatestByReviewID(reviewID uint) (*models.ReplyDraft, error) {
	var draft models.ReplyDraft
	err := r.db.Where("review_id = ?", reviewID).
		Order("created_at DESC").
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *GormDraftRepository) Save(draft *models.ReplyDraft) error {
	draft.UpdatedAt = time.Now()
	return r.db.Save(draft).Error
}

// ListApprovedUnposted selects approved drafts with no posted_responses row,
// oldest approval first. The anti-join keeps the sweep idempotent: a draft
// disappears from this result the moment its PostedResponse exists.
func (r *GormDraftRepository) ListApprovedUnposted(limit int) ([]models.ReplyDraft, error) {
	var drafts []models.ReplyDraft
	err := r.db.
		Where("status = ?", models.DraftApproved).
		Where("NOT EXISTS (SELECT 1 FROM posted_responses WHERE posted_responses.draft_id = reply_drafts.id)").
		Order("approved_at ASC").
		Limit(limit).
		Find(&drafts).Error
	return drafts, err
}

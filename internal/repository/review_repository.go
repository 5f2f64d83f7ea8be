package repository

import (
	"errors"
	"time"

	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateReview signals that another writer inserted the same
// (platform, external_id) first. Callers treat it as success.
var ErrDuplicateReview = errors.New("review already exists")

type ReviewRepository interface {
	GetByID(id uint) (*models.Review, error)
	Exists(platform, externalID string) (bool, error)
	LatestReviewDate(businessID uint, platform string) (*time.Time, error)
	CreateWithDraft(review *models.Review, draft *models.ReplyDraft) error
}

type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) GetByID(id uint) (*models.Review, error) {
	var review models.Review
	err := r.db.First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *GormReviewRepository) Exists(platform, externalID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("platform = ? AND external_id = ?", platform, externalID).
		Count(&count).Error
	return count > 0, err
}

// LatestReviewDate returns the ingestion watermark for one business/platform
// pair, or nil when nothing has been stored yet.
func (r *GormReviewRepository) LatestReviewDate(businessID uint, platform string) (*time.Time, error) {
	var review models.Review
	err := r.db.Where("business_id = ? AND platform = ?", businessID, platform).
		Order("review_date DESC").
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review.ReviewDate, nil
}

// CreateWithDraft inserts the review and its first draft in one transaction.
// The unique index on (platform, external_id) is the backstop for races the
// existence check misses; that conflict comes back as ErrDuplicateReview.
func (r *GormReviewRepository) CreateWithDraft(review *models.Review, draft *models.ReplyDraft) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		draft.ReviewID = review.ID
		return tx.Create(draft).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateReview
	}
	return err
}

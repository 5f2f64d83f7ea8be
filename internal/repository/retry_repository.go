package repository

import (
	"errors"
	"time"

	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

type RetryStateRepository interface {
	GetByReviewID(reviewID uint) (*models.NotificationRetryState, error)
	Record(state *models.NotificationRetryState) error
	ListDue(now time.Time, maxAttempts, limit int) ([]models.NotificationRetryState, error)
	Clear(reviewID uint) error
}

type GormRetryStateRepository struct {
	db *gorm.DB
}

func NewGormRetryStateRepository(db *gorm.DB) *GormRetryStateRepository {
	return &GormRetryStateRepository{db: db}
}

func (r *GormRetryStateRepository) GetByReviewID(reviewID uint) (*models.NotificationRetryState, error) {
	var state models.NotificationRetryState
	err := r.db.Where("review_id = ?", reviewID).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Record inserts or updates the retry record for a review. One row per
// review, enforced by the unique index.
func (r *GormRetryStateRepository) Record(state *models.NotificationRetryState) error {
	state.UpdatedAt = time.Now()
	if state.ID != 0 {
		return r.db.Save(state).Error
	}
	err := r.db.Create(state).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, getErr := r.GetByReviewID(state.ReviewID)
		if getErr != nil {
			return getErr
		}
		state.ID = existing.ID
		return r.db.Save(state).Error
	}
	return err
}

// ListDue returns non-terminal retry records whose next attempt time has
// elapsed (or was never set), oldest first, capped at limit.
func (r *GormRetryStateRepository) ListDue(now time.Time, maxAttempts, limit int) ([]models.NotificationRetryState, error) {
	var states []models.NotificationRetryState
	err := r.db.
		Where("terminal = ?", false).
		Where("attempt_count < ?", maxAttempts).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&states).Error
	return states, err
}

func (r *GormRetryStateRepository) Clear(reviewID uint) error {
	return r.db.Where("review_id = ?", reviewID).
		Delete(&models.NotificationRetryState{}).Error
}

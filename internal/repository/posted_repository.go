package repository

import (
	"errors"

	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyPosted means a PostedResponse row already exists for the draft.
// The poster treats it as success from a concurrent sweep.
var ErrAlreadyPosted = errors.New("response already posted for draft")

type PostedResponseRepository interface {
	Create(posted *models.PostedResponse) error
	ExistsByDraftID(draftID uint) (bool, error)
}

type GormPostedResponseRepository struct {
	db *gorm.DB
}

func NewGormPostedResponseRepository(db *gorm.DB) *GormPostedResponseRepository {
	return &GormPostedResponseRepository{db: db}
}

func (r *GormPostedResponseRepository) Create(posted *models.PostedResponse) error {
	err := r.db.Create(posted).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyPosted
	}
	return err
}

func (r *GormPostedResponseRepository) ExistsByDraftID(draftID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.PostedResponse{}).
		Where("draft_id = ?", draftID).
		Count(&count).Error
	return count > 0, err
}

package repository

import (
	"errors"
	"time"

	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

type ContextRepository interface {
	GetByPhone(phone string) (*models.ConversationContext, error)
	GetOrCreate(phone string, businessID uint) (*models.ConversationContext, error)
	Save(ctx *models.ConversationContext) error
}

type GormContextRepository struct {
	db *gorm.DB
}

func NewGormContextRepository(db *gorm.DB) *GormContextRepository {
	return &GormContextRepository{db: db}
}

func (r *GormContextRepository) GetByPhone(phone string) (*models.ConversationContext, error) {
	var ctx models.ConversationContext
	err := r.db.Where("phone = ?", phone).First(&ctx).Error
	if err != nil {
		return nil, err
	}
	return &ctx, nil
}

// GetOrCreate returns the context row for a phone, creating an idle one on
// first contact. A create losing the unique-index race falls back to the
// row the other writer made.
func (r *GormContextRepository) GetOrCreate(phone string, businessID uint) (*models.ConversationContext, error) {
	ctx, err := r.GetByPhone(phone)
	if err == nil {
		return ctx, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ctx = &models.ConversationContext{
		Phone:      phone,
		BusinessID: businessID,
		State:      models.StateIdle,
	}
	if createErr := r.db.Create(ctx).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return r.GetByPhone(phone)
		}
		return nil, createErr
	}
	return ctx, nil
}

func (r *GormContextRepository) Save(ctx *models.ConversationContext) error {
	ctx.UpdatedAt = time.Now()
	return r.db.Save(ctx).Error
}

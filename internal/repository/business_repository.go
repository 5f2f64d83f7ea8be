package repository

import (
	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

type BusinessRepository interface {
	GetByID(id uint) (*models.Business, error)
	GetByPhone(phone string) (*models.Business, error)
	ListMonitored() ([]models.Business, error)
	ListSources(businessID uint) ([]models.PlatformSource, error)
	Save(business *models.Business) error
	MarkCredentialsRevoked(sourceID uint) error
	AddCompetitor(competitor *models.Competitor) error
}

type GormBusinessRepository struct {
	db *gorm.DB
}

func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

func (r *GormBusinessRepository) GetByID(id uint) (*models.Business, error) {
	var business models.Business
	err := r.db.First(&business, id).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *GormBusinessRepository) GetByPhone(phone string) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("owner_phone = ?", phone).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// ListMonitored returns businesses eligible for the review poll: not
// cancelled and not paused by their owner.
func (r *GormBusinessRepository) ListMonitored() ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.Where("cancelled = ? AND monitoring_paused = ?", false, false).
		Order("id ASC").
		Find(&businesses).Error
	return businesses, err
}

func (r *GormBusinessRepository) ListSources(businessID uint) ([]models.PlatformSource, error) {
	var sources []models.PlatformSource
	err := r.db.Where("business_id = ?", businessID).Order("id ASC").Find(&sources).Error
	return sources, err
}

func (r *GormBusinessRepository) Save(business *models.Business) error {
	return r.db.Save(business).Error
}

func (r *GormBusinessRepository) MarkCredentialsRevoked(sourceID uint) error {
	return r.db.Model(&models.PlatformSource{}).
		Where("id = ?", sourceID).
		Update("credentials_revoked", true).Error
}

func (r *GormBusinessRepository) AddCompetitor(competitor *models.Competitor) error {
	return r.db.Create(competitor).Error
}

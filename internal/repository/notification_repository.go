package repository

import (
	"time"

	"replypilot/backend/internal/models"

	"gorm.io/gorm"
)

type NotificationLogRepository interface {
	Create(log *models.NotificationLog) error
	ExistsByGatewayMessageID(messageID string) (bool, error)
	UpdateDeliveryStatus(gatewayMessageID, status string) error
}

type GormNotificationLogRepository struct {
	db *gorm.DB
}

func NewGormNotificationLogRepository(db *gorm.DB) *GormNotificationLogRepository {
	return &GormNotificationLogRepository{db: db}
}

func (r *GormNotificationLogRepository) Create(log *models.NotificationLog) error {
	return r.db.Create(log).Error
}

// ExistsByGatewayMessageID is the durable half of inbound duplicate
// detection; the redis SETNX guard is only a fast path in front of it.
func (r *GormNotificationLogRepository) ExistsByGatewayMessageID(messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.NotificationLog{}).
		Where("gateway_message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormNotificationLogRepository) UpdateDeliveryStatus(gatewayMessageID, status string) error {
	return r.db.Model(&models.NotificationLog{}).
		Where("gateway_message_id = ?", gatewayMessageID).
		Updates(map[string]interface{}{
			"delivery_status": status,
			"updated_at":      time.Now(),
		}).Error
}

package models

import (
	"time"
)

// Business represents a customer business whose reviews are monitored
type Business struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name"`
	Industry         string    `json:"industry"`
	OwnerPhone       string    `json:"owner_phone" gorm:"index"`
	AutoApprove      bool      `json:"auto_approve"`
	MonitoringPaused bool      `json:"monitoring_paused"`
	SMSOptOut        bool      `json:"sms_opt_out"`
	Cancelled        bool      `json:"cancelled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PlatformSource is a per-platform review feed connected to a business
type PlatformSource struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	BusinessID         uint      `json:"business_id" gorm:"index"`
	Platform           string    `json:"platform"`
	ExternalSourceID   string    `json:"external_source_id"`
	CredentialsRevoked bool      `json:"credentials_revoked"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Competitor is a competitor name the owner asked us to track
type Competitor struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BusinessID uint      `json:"business_id" gorm:"index"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

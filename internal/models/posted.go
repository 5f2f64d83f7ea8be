package models

import (
	"time"
)

// PostedResponse records that a draft was successfully posted back to its
// platform. Its existence is the idempotency guard for the response poster:
// at most one row per draft, ever.
type PostedResponse struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	DraftID     uint      `json:"draft_id" gorm:"uniqueIndex"`
	ReviewID    uint      `json:"review_id" gorm:"index"`
	Platform    string    `json:"platform"`
	PlatformRef string    `json:"platform_ref,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
}

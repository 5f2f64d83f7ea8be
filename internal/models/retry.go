package models

import (
	"time"
)

// NotificationRetryState holds backoff bookkeeping for a review whose owner
// alert failed. Kept as its own table rather than inside the review metadata
// so retry state is typed and queryable independently of business data.
type NotificationRetryState struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	ReviewID      uint       `json:"review_id" gorm:"uniqueIndex"`
	BusinessID    uint       `json:"business_id" gorm:"index"`
	AttemptCount  int        `json:"attempt_count"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	Terminal      bool       `json:"terminal" gorm:"index"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

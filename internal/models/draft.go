package models

import (
	"time"
)

// DraftStatus is the approval lifecycle of a reply draft
type DraftStatus string

const (
	DraftPending  DraftStatus = "pending"
	DraftApproved DraftStatus = "approved"
	DraftRejected DraftStatus = "rejected"
	DraftSent     DraftStatus = "sent"
)

// ReplyDraft is a generated candidate reply for a review. A review is always
// created together with its first draft in one transaction, so a review
// without a draft is never observable.
type ReplyDraft struct {
	ID                uint        `json:"id" gorm:"primaryKey"`
	ReviewID          uint        `json:"review_id" gorm:"index"`
	Text              string      `json:"text"`
	EscalationFlag    bool        `json:"escalation_flag"`
	EscalationReasons []string    `json:"escalation_reasons" gorm:"serializer:json"`
	Status            DraftStatus `json:"status" gorm:"index"`
	Confidence        float64     `json:"confidence"`
	FailureDetail     string      `json:"failure_detail,omitempty"`
	ApprovedAt        *time.Time  `json:"approved_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

package models

import (
	"time"
)

// ConversationState is the closed set of per-phone conversation states.
// Every transition handler must clear the field a waiting state depends on
// before returning to idle.
type ConversationState string

const (
	StateIdle                  ConversationState = "idle"
	StateAwaitingCustomReply   ConversationState = "awaiting_custom_reply"
	StateAwaitingCancelConfirm ConversationState = "awaiting_cancel_confirm"
	StateAwaitingCompetitorAdd ConversationState = "awaiting_competitor_add"
)

// ConversationContext tracks SMS conversation state for one phone number.
// Created lazily on first inbound message, never deleted.
type ConversationContext struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	Phone           string            `json:"phone" gorm:"uniqueIndex"`
	BusinessID      uint              `json:"business_id" gorm:"index"`
	State           ConversationState `json:"state"`
	PendingReviewID *uint             `json:"pending_review_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

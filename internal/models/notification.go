package models

import (
	"time"
)

// Message directions for the notification log
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Delivery statuses recorded for outbound messages
const (
	DeliveryQueued    = "queued"
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// NotificationLog is an append-only record of every SMS in either direction.
// GatewayMessageID doubles as the inbound duplicate-delivery guard.
type NotificationLog struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	NotificationID   string    `json:"notification_id" gorm:"index"`
	BusinessID       uint      `json:"business_id" gorm:"index"`
	ReviewID         *uint     `json:"review_id,omitempty"`
	Direction        string    `json:"direction"`
	Phone            string    `json:"phone"`
	Body             string    `json:"body"`
	ParsedCommand    string    `json:"parsed_command,omitempty"`
	DeliveryStatus   string    `json:"delivery_status"`
	GatewayMessageID string    `json:"gateway_message_id" gorm:"index"`
	ErrorDetail      string    `json:"error_detail,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

package models

import (
	"time"
)

// Sentiment labels produced by the classifier
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Review represents a single third-party review. Rows are immutable once
// created; the (platform, external_id) pair is globally unique and the
// composite unique index backs up the pre-insert existence check against
// concurrent poll cycles.
type Review struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	BusinessID     uint              `json:"business_id" gorm:"index"`
	Platform       string            `json:"platform" gorm:"uniqueIndex:idx_reviews_platform_external"`
	ExternalID     string            `json:"external_id" gorm:"uniqueIndex:idx_reviews_platform_external"`
	Author         string            `json:"author"`
	Rating         int               `json:"rating"`
	Text           string            `json:"text"`
	ReviewDate     time.Time         `json:"review_date" gorm:"index"`
	Sentiment      string            `json:"sentiment"`
	SentimentScore float64           `json:"sentiment_score"`
	Metadata       map[string]string `json:"metadata" gorm:"serializer:json"`
	CreatedAt      time.Time         `json:"created_at"`
}

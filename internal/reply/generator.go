package reply

import (
	"context"

	"replypilot/backend/internal/models"
)

// Output is what a generator produces for one review
type Output struct {
	DraftText         string
	EscalationFlag    bool
	EscalationReasons []string
	Confidence        float64
}

// Generator drafts a reply to a review on behalf of a business
type Generator interface {
	GenerateReply(ctx context.Context, review *models.Review, business *models.Business) (*Output, error)
}

package source

import (
	"context"
	"errors"
	"time"
)

// ErrCredentialsRevoked is returned by an adapter when the platform rejects
// our stored credentials. The caller clears the connection and surfaces the
// problem through STATUS instead of retrying.
var ErrCredentialsRevoked = errors.New("platform credentials revoked")

// RawReview is the platform-agnostic shape returned by every adapter
type RawReview struct {
	ExternalID string
	Author     string
	Rating     int
	Text       string
	ReviewDate time.Time
}

// ReviewSource fetches reviews for one connected platform feed.
// Adapters typically return a sliding window, not only unseen items, so the
// caller owns dedup. A nil since means fetch everything available.
type ReviewSource interface {
	Platform() string
	FetchReviews(ctx context.Context, sourceID string, since *time.Time) ([]RawReview, error)
}

// Registry resolves a ReviewSource by platform name
type Registry struct {
	sources map[string]ReviewSource
}

// NewRegistry builds a registry from the given adapters
func NewRegistry(sources ...ReviewSource) *Registry {
	r := &Registry{sources: make(map[string]ReviewSource)}
	for _, s := range sources {
		r.sources[s.Platform()] = s
	}
	return r
}

// Get returns the adapter for a platform, or false when none is registered
func (r *Registry) Get(platform string) (ReviewSource, bool) {
	s, ok := r.sources[platform]
	return s, ok
}

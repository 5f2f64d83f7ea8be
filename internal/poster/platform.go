package poster

import (
	"context"
)

// PostResult is the outcome of posting one reply to a platform
type PostResult struct {
	Success     bool
	PlatformRef string
	Error       string
}

// PlatformPoster posts an approved reply back to the originating platform
type PlatformPoster interface {
	Platform() string
	PostReply(ctx context.Context, externalReviewID, text string) (*PostResult, error)
}

// PosterRegistry resolves a PlatformPoster by platform name
type PosterRegistry struct {
	posters map[string]PlatformPoster
}

// NewPosterRegistry builds a registry from the given posters
func NewPosterRegistry(posters ...PlatformPoster) *PosterRegistry {
	r := &PosterRegistry{posters: make(map[string]PlatformPoster)}
	for _, p := range posters {
		r.posters[p.Platform()] = p
	}
	return r
}

// Get returns the poster for a platform, or false when none is registered
func (r *PosterRegistry) Get(platform string) (PlatformPoster, bool) {
	p, ok := r.posters[platform]
	return p, ok
}

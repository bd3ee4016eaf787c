package search

import (
	"github.com/vouchapp/vouch/store"
)

const (
	// minQueryRunes is the shortest query worth embedding.
	minQueryRunes = 2
	// maxRequestLimit caps the per-request page size.
	maxRequestLimit = 100
)

// SearchRequest is one search invocation. Optional fields override the
// engine config for this request only.
type SearchRequest struct {
	// Query is the natural language search text.
	Query string
	// Limit overrides the page size.
	Limit *int
	// Threshold overrides the similarity threshold.
	Threshold *float64
	// ContentType restricts matching to one recommendation kind.
	ContentType *store.ContentType
	// Visibilities restricts matching to the given visibility levels.
	// Empty means no restriction.
	Visibilities []store.Visibility
	// IncludeSummary overrides whether an LLM overview is generated.
	IncludeSummary *bool
}

// EntityKind says what a result entry stands for.
type EntityKind string

const (
	EntityKindPlace          EntityKind = "place"
	EntityKindService        EntityKind = "service"
	EntityKindRecommendation EntityKind = "recommendation"
)

// ScoredRecommendation is one matched recommendation with its cosine
// similarity to the query.
type ScoredRecommendation struct {
	Recommendation *store.Recommendation
	Score          float64
	// KeywordMatch reports whether the query tokens overlap the
	// recommendation text. Set even for candidates above the
	// similarity threshold, for debugging ranking decisions.
	KeywordMatch bool
}

// EntityResult is one ranked entry of a search response: a place, a
// service, or a standalone recommendation, with every matched
// recommendation backing it.
type EntityResult struct {
	// Key identifies the entity group, e.g. "place:5" or "rec:17".
	Key  string
	Kind EntityKind

	// Place is set when Kind is EntityKindPlace, Service when Kind is
	// EntityKindService. Standalone recommendations set neither.
	Place   *store.Place
	Service *store.Service

	// Score is the mean similarity across all members.
	Score float64
	// TotalRecommendations is the member count.
	TotalRecommendations int
	// MostRecentTs is the creation time of the newest member.
	MostRecentTs int64

	// Recommendations are the members, in similarity order.
	Recommendations []*ScoredRecommendation

	// refID is the place or service id the group hydrates from.
	refID int32
}

// Name returns the displayable name of the entity. Standalone
// recommendations have no name of their own.
func (r *EntityResult) Name() string {
	switch {
	case r.Place != nil:
		return r.Place.Name
	case r.Service != nil:
		return r.Service.Name
	}
	return ""
}

// SearchResponse is the assembled answer to one search request.
type SearchResponse struct {
	// RequestID correlates the response with its pipeline logs.
	RequestID string
	// Results is the ranked page.
	Results []*EntityResult
	// TotalPlaces counts place and service entities across the full
	// result set, not just the returned page.
	TotalPlaces int
	// TotalRecommendations counts matched recommendations across the
	// full result set.
	TotalRecommendations int
	// SkippedMembers counts matches dropped because their referenced
	// row is missing.
	SkippedMembers int
	// Summary is the LLM overview of the top results. Absent when
	// disabled, skipped, or failed.
	Summary *string
}

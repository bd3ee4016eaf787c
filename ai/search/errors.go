package search

import "fmt"

// ValidationError rejects a malformed request before any provider or
// database call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError reports a failure from an external AI provider. The
// pipeline never disguises a provider outage as an empty result set.
type ProviderError struct {
	Provider string // "embedding" or "summary"
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// DataIntegrityWarning flags a matched recommendation whose referenced
// place or service row no longer exists. It is logged and counted, not
// returned: the search continues without the broken member.
type DataIntegrityWarning struct {
	RecommendationID int32
	Kind             string // "place" or "service"
	RefID            int32
}

func (w *DataIntegrityWarning) Error() string {
	return fmt.Sprintf("recommendation %d references missing %s %d", w.RecommendationID, w.Kind, w.RefID)
}

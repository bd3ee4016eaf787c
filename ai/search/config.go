package search

import (
	"fmt"
	"time"

	"github.com/vouchapp/vouch/internal/profile"
)

// Config tunes the search pipeline. A Config is fixed at engine
// construction; per-request overrides go through SearchRequest.
type Config struct {
	// SimilarityThreshold keeps any candidate at or above it,
	// keyword match or not. Inclusive.
	SimilarityThreshold float64
	// KeywordThreshold is the floor for keyword-corroborated
	// candidates. Below it candidates are dropped regardless of
	// keyword overlap. Inclusive.
	KeywordThreshold float64
	// KeywordFilterEnabled toggles the corroboration tier. Disabled,
	// only SimilarityThreshold applies.
	KeywordFilterEnabled bool

	// ResultLimit is the default page size.
	ResultLimit int
	// CandidateMultiplier sizes the vector candidate pull relative to
	// the requested page, so aggregation has enough members to rank
	// entities properly.
	CandidateMultiplier int
	// MaxCandidates caps the candidate pull.
	MaxCandidates int

	// SummaryEnabled generates an LLM overview of the top results.
	SummaryEnabled bool
	// SummaryMaxResults caps how many results feed the summary prompt.
	SummaryMaxResults int
	// MaxConcurrentSummaries bounds in-flight summary calls across
	// requests. At the bound the summary is skipped, not queued.
	MaxConcurrentSummaries int64

	// EmbedTimeout bounds the query embedding call. Kept short: the
	// whole pipeline waits on it.
	EmbedTimeout time.Duration
	// SummaryTimeout bounds summary generation. Longer than
	// EmbedTimeout since results are already in hand by then.
	SummaryTimeout time.Duration

	// QueryCacheSize caps the query embedding cache. Zero disables it.
	QueryCacheSize int
	// QueryCacheTTL bounds how long a cached query vector is reused.
	QueryCacheTTL time.Duration

	// Debug enables per-stage candidate logging.
	Debug bool
}

// DefaultConfig returns the built-in tuning.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:    0.7,
		KeywordThreshold:       0.5,
		KeywordFilterEnabled:   true,
		ResultLimit:            10,
		CandidateMultiplier:    10,
		MaxCandidates:          1000,
		SummaryEnabled:         true,
		SummaryMaxResults:      10,
		MaxConcurrentSummaries: 3,
		EmbedTimeout:           5 * time.Second,
		SummaryTimeout:         30 * time.Second,
		QueryCacheSize:         512,
		QueryCacheTTL:          10 * time.Minute,
	}
}

// ConfigFromProfile overlays the instance profile onto the defaults.
// Zero profile values keep the default.
func ConfigFromProfile(p *profile.Profile) Config {
	cfg := DefaultConfig()
	if p == nil {
		return cfg
	}
	if p.SearchSimilarityThreshold > 0 {
		cfg.SimilarityThreshold = p.SearchSimilarityThreshold
	}
	if p.SearchKeywordThreshold > 0 {
		cfg.KeywordThreshold = p.SearchKeywordThreshold
	}
	cfg.KeywordFilterEnabled = p.SearchKeywordFilter
	if p.SearchResultLimit > 0 {
		cfg.ResultLimit = p.SearchResultLimit
	}
	cfg.SummaryEnabled = p.SearchSummaryEnabled
	if p.SearchSummaryMaxResults > 0 {
		cfg.SummaryMaxResults = p.SearchSummaryMaxResults
	}
	return cfg
}

// Validate checks the config for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range [0, 1]", c.SimilarityThreshold)
	}
	if c.KeywordThreshold < 0 || c.KeywordThreshold > 1 {
		return fmt.Errorf("keyword threshold %v out of range [0, 1]", c.KeywordThreshold)
	}
	if c.KeywordThreshold > c.SimilarityThreshold {
		return fmt.Errorf("keyword threshold %v exceeds similarity threshold %v", c.KeywordThreshold, c.SimilarityThreshold)
	}
	if c.ResultLimit < 1 || c.ResultLimit > maxRequestLimit {
		return fmt.Errorf("result limit %d out of range [1, %d]", c.ResultLimit, maxRequestLimit)
	}
	if c.CandidateMultiplier < 1 {
		return fmt.Errorf("candidate multiplier %d must be at least 1", c.CandidateMultiplier)
	}
	if c.MaxCandidates < c.ResultLimit {
		return fmt.Errorf("max candidates %d below result limit %d", c.MaxCandidates, c.ResultLimit)
	}
	if c.SummaryMaxResults < 1 {
		return fmt.Errorf("summary max results %d must be at least 1", c.SummaryMaxResults)
	}
	if c.MaxConcurrentSummaries < 1 {
		return fmt.Errorf("max concurrent summaries %d must be at least 1", c.MaxConcurrentSummaries)
	}
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("embed timeout must be positive")
	}
	if c.SummaryTimeout <= 0 {
		return fmt.Errorf("summary timeout must be positive")
	}
	if c.QueryCacheSize < 0 {
		return fmt.Errorf("query cache size %d cannot be negative", c.QueryCacheSize)
	}
	if c.QueryCacheSize > 0 && c.QueryCacheTTL <= 0 {
		return fmt.Errorf("query cache ttl must be positive when the cache is enabled")
	}
	return nil
}

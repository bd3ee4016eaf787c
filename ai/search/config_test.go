package search

import (
	"testing"
	"time"

	"github.com/vouchapp/vouch/internal/profile"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.SimilarityThreshold != 0.7 {
		t.Errorf("similarity threshold = %v, want 0.7", cfg.SimilarityThreshold)
	}
	if cfg.KeywordThreshold != 0.5 {
		t.Errorf("keyword threshold = %v, want 0.5", cfg.KeywordThreshold)
	}
	if !cfg.KeywordFilterEnabled {
		t.Error("keyword filter should default on")
	}
	if cfg.ResultLimit != 10 {
		t.Errorf("result limit = %d, want 10", cfg.ResultLimit)
	}
	if !cfg.SummaryEnabled {
		t.Error("summary should default on")
	}
	if cfg.EmbedTimeout >= cfg.SummaryTimeout {
		t.Error("embed timeout should be shorter than summary timeout")
	}
}

func TestConfigValidate(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"similarity over one", func(c *Config) { c.SimilarityThreshold = 1.1 }},
		{"similarity negative", func(c *Config) { c.SimilarityThreshold = -0.1 }},
		{"keyword over one", func(c *Config) { c.KeywordThreshold = 1.1 }},
		{"keyword above similarity", func(c *Config) { c.KeywordThreshold = 0.8 }},
		{"zero result limit", func(c *Config) { c.ResultLimit = 0 }},
		{"result limit over cap", func(c *Config) { c.ResultLimit = 101 }},
		{"zero multiplier", func(c *Config) { c.CandidateMultiplier = 0 }},
		{"max candidates below limit", func(c *Config) { c.MaxCandidates = 5 }},
		{"zero summary results", func(c *Config) { c.SummaryMaxResults = 0 }},
		{"zero summary concurrency", func(c *Config) { c.MaxConcurrentSummaries = 0 }},
		{"zero embed timeout", func(c *Config) { c.EmbedTimeout = 0 }},
		{"zero summary timeout", func(c *Config) { c.SummaryTimeout = 0 }},
		{"negative cache size", func(c *Config) { c.QueryCacheSize = -1 }},
		{"cache without ttl", func(c *Config) { c.QueryCacheTTL = 0 }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigFromProfile(t *testing.T) {
	p := &profile.Profile{
		SearchSimilarityThreshold: 0.65,
		SearchKeywordThreshold:    0.45,
		SearchKeywordFilter:       true,
		SearchResultLimit:         20,
		SearchSummaryEnabled:      false,
		SearchSummaryMaxResults:   5,
	}

	cfg := ConfigFromProfile(p)
	if cfg.SimilarityThreshold != 0.65 {
		t.Errorf("similarity threshold = %v, want 0.65", cfg.SimilarityThreshold)
	}
	if cfg.KeywordThreshold != 0.45 {
		t.Errorf("keyword threshold = %v, want 0.45", cfg.KeywordThreshold)
	}
	if cfg.ResultLimit != 20 {
		t.Errorf("result limit = %d, want 20", cfg.ResultLimit)
	}
	if cfg.SummaryEnabled {
		t.Error("summary should be off")
	}
	if cfg.SummaryMaxResults != 5 {
		t.Errorf("summary max results = %d, want 5", cfg.SummaryMaxResults)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("profile config invalid: %v", err)
	}

	// Untouched knobs keep their defaults.
	if cfg.CandidateMultiplier != 10 {
		t.Errorf("candidate multiplier = %d, want 10", cfg.CandidateMultiplier)
	}
	if cfg.EmbedTimeout != 5*time.Second {
		t.Errorf("embed timeout = %v, want 5s", cfg.EmbedTimeout)
	}
}

func TestConfigFromProfile_ZeroValuesKeepDefaults(t *testing.T) {
	cfg := ConfigFromProfile(&profile.Profile{})

	if cfg.SimilarityThreshold != 0.7 {
		t.Errorf("similarity threshold = %v, want default 0.7", cfg.SimilarityThreshold)
	}
	if cfg.ResultLimit != 10 {
		t.Errorf("result limit = %d, want default 10", cfg.ResultLimit)
	}
	if cfg.KeywordFilterEnabled {
		t.Error("keyword filter follows the profile flag, off here")
	}

	if got := ConfigFromProfile(nil); got.ResultLimit != 10 {
		t.Errorf("nil profile result limit = %d, want 10", got.ResultLimit)
	}
}

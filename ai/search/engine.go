// Package search runs the recommendation search pipeline: embed the
// query, pull vector candidates, gate them with keyword corroboration,
// aggregate per entity, hydrate entity rows, and optionally summarize
// the top results with an LLM.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/vouchapp/vouch/ai"
	"github.com/vouchapp/vouch/ai/cache"
	"github.com/vouchapp/vouch/ai/metrics"
	"github.com/vouchapp/vouch/ai/summary"
	"github.com/vouchapp/vouch/store"
)

// Dependencies wires the engine's collaborators. Store, Embedder, and
// Model are required. A nil Summarizer disables summaries; a nil
// Metrics exporter disables metrics.
type Dependencies struct {
	Store      *store.Store
	Embedder   ai.EmbeddingService
	Summarizer summary.Summarizer
	Metrics    *metrics.PrometheusExporter
	// Model names the embedding model the stored vectors were built
	// with. Queries must embed with the same model to be comparable.
	Model string
}

// Engine runs the search pipeline. Safe for concurrent use; all
// per-request state lives on the stack.
type Engine struct {
	cfg        Config
	store      *store.Store
	embedder   ai.EmbeddingService
	summarizer summary.Summarizer
	metrics    *metrics.PrometheusExporter
	model      string
	summarySem *semaphore.Weighted
	queryCache *cache.EmbeddingCache
}

// NewEngine validates the config and wiring and returns an engine.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid search config")
	}
	if deps.Store == nil {
		return nil, errors.New("search engine requires a store")
	}
	if deps.Embedder == nil {
		return nil, errors.New("search engine requires an embedding service")
	}
	if deps.Model == "" {
		return nil, errors.New("search engine requires an embedding model name")
	}

	e := &Engine{
		cfg:        cfg,
		store:      deps.Store,
		embedder:   deps.Embedder,
		summarizer: deps.Summarizer,
		metrics:    deps.Metrics,
		model:      deps.Model,
		summarySem: semaphore.NewWeighted(cfg.MaxConcurrentSummaries),
	}
	if cfg.QueryCacheSize > 0 {
		e.queryCache = cache.NewEmbeddingCache(cfg.QueryCacheSize, cfg.QueryCacheTTL)
	}
	return e, nil
}

// resolvedRequest is a SearchRequest with overrides merged into the
// engine config.
type resolvedRequest struct {
	query          string
	limit          int
	threshold      float64
	contentType    *store.ContentType
	visibilities   []store.Visibility
	includeSummary bool
}

// Search runs the full pipeline for one request. Validation failures
// return a *ValidationError before any provider call; embedding
// failures return a *ProviderError rather than posing as an empty
// result.
func (e *Engine) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	if e.metrics != nil {
		defer e.metrics.SearchStarted()()
	}

	resolved, err := e.resolveRequest(req)
	if err != nil {
		e.recordSearch(metrics.StatusValidationError, start)
		return nil, err
	}

	requestID := shortuuid.New()
	logger := slog.With("request_id", requestID)

	vector, err := e.embedQuery(ctx, resolved.query)
	if err != nil {
		e.recordSearch(metrics.StatusProviderError, start)
		return nil, err
	}

	candidates, err := e.pullCandidates(ctx, vector, resolved)
	if err != nil {
		e.recordSearch(metrics.StatusInternalError, start)
		return nil, err
	}
	e.recordStage(metrics.StageANN, len(candidates))

	queryTokens := tokenize(resolved.query)
	kept := applyKeywordGate(candidates, queryTokens, resolved.threshold, e.cfg.KeywordThreshold, e.cfg.KeywordFilterEnabled)
	e.recordStage(metrics.StageGate, len(kept))

	groups := aggregate(kept)
	e.recordStage(metrics.StageAggregate, len(groups))

	full, skipped, err := e.hydrate(ctx, logger, groups)
	if err != nil {
		e.recordSearch(metrics.StatusInternalError, start)
		return nil, err
	}
	e.recordStage(metrics.StageAssemble, len(full))
	if e.metrics != nil {
		e.metrics.RecordSkippedMembers(skipped)
	}

	if e.cfg.Debug {
		logger.Debug("search pipeline stages",
			"candidates", len(candidates),
			"after_gate", len(kept),
			"entities", len(groups),
			"hydrated", len(full),
			"skipped_members", skipped)
	}

	totalPlaces, totalRecommendations := totals(full)
	page := full
	if len(page) > resolved.limit {
		page = page[:resolved.limit]
	}

	resp := &SearchResponse{
		RequestID:            requestID,
		Results:              page,
		TotalPlaces:          totalPlaces,
		TotalRecommendations: totalRecommendations,
		SkippedMembers:       skipped,
	}

	if resolved.includeSummary && len(page) > 0 {
		if text, ok := e.summarize(ctx, logger, resolved.query, page); ok {
			resp.Summary = &text
		}
	}

	logger.Info("search completed",
		"results", len(page),
		"total_places", totalPlaces,
		"total_recommendations", totalRecommendations,
		"duration_ms", time.Since(start).Milliseconds(),
		"summarized", resp.Summary != nil)

	e.recordSearch(metrics.StatusOK, start)
	return resp, nil
}

// resolveRequest validates the request and merges overrides into the
// engine config.
func (e *Engine) resolveRequest(req *SearchRequest) (*resolvedRequest, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Reason: "cannot be nil"}
	}

	query := strings.TrimSpace(req.Query)
	if utf8.RuneCountInString(query) < minQueryRunes {
		return nil, &ValidationError{Field: "query", Reason: "must be at least 2 characters"}
	}

	resolved := &resolvedRequest{
		query:          query,
		limit:          e.cfg.ResultLimit,
		threshold:      e.cfg.SimilarityThreshold,
		contentType:    req.ContentType,
		visibilities:   req.Visibilities,
		includeSummary: e.cfg.SummaryEnabled,
	}

	if req.Limit != nil {
		if *req.Limit < 1 || *req.Limit > maxRequestLimit {
			return nil, &ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
		}
		resolved.limit = *req.Limit
	}
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			return nil, &ValidationError{Field: "threshold", Reason: "must be between 0 and 1"}
		}
		resolved.threshold = *req.Threshold
	}
	if req.ContentType != nil && !req.ContentType.Valid() {
		return nil, &ValidationError{Field: "content_type", Reason: "unknown content type"}
	}
	for _, v := range req.Visibilities {
		if !v.Valid() {
			return nil, &ValidationError{Field: "visibilities", Reason: "unknown visibility"}
		}
	}
	if req.IncludeSummary != nil {
		resolved.includeSummary = *req.IncludeSummary
	}
	if e.summarizer == nil {
		resolved.includeSummary = false
	}

	return resolved, nil
}

// embedQuery turns the query into a vector under the short embed
// timeout. Recently seen queries come from the cache; a provider
// failure is surfaced as such.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.queryCache != nil {
		if vector, ok := e.queryCache.Get(e.model, query); ok {
			if e.metrics != nil {
				e.metrics.RecordEmbed(metrics.OutcomeCached, 0)
			}
			return vector, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.EmbedTimeout)
	defer cancel()

	start := time.Now()
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordEmbed(metrics.OutcomeError, time.Since(start))
		}
		return nil, &ProviderError{Provider: "embedding", Op: "embed query", Err: err}
	}
	if e.metrics != nil {
		e.metrics.RecordEmbed(metrics.OutcomeOK, time.Since(start))
	}
	if e.queryCache != nil {
		e.queryCache.Put(e.model, query, vector)
	}
	return vector, nil
}

// pullCandidates fetches the vector candidate set. The pull is sized
// well past the page limit so entity aggregation sees every member,
// not just whichever ones rank highest alone.
func (e *Engine) pullCandidates(ctx context.Context, vector []float32, resolved *resolvedRequest) ([]*ScoredRecommendation, error) {
	candidateLimit := resolved.limit * e.cfg.CandidateMultiplier
	if candidateLimit > e.cfg.MaxCandidates {
		candidateLimit = e.cfg.MaxCandidates
	}

	rows, err := e.store.SearchRecommendationsByVector(ctx, &store.RecommendationVectorSearchOptions{
		Vector:       vector,
		Model:        e.model,
		Limit:        candidateLimit,
		ContentType:  resolved.contentType,
		Visibilities: resolved.visibilities,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vector search failed")
	}

	candidates := make([]*ScoredRecommendation, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, &ScoredRecommendation{
			Recommendation: row.Recommendation,
			Score:          float64(row.Score),
		})
	}
	return candidates, nil
}

// summarize generates the LLM overview of the top results. Best
// effort: on failure, timeout, or concurrency pressure the response
// simply ships without a summary.
func (e *Engine) summarize(ctx context.Context, logger *slog.Logger, query string, results []*EntityResult) (string, bool) {
	if !e.summarySem.TryAcquire(1) {
		logger.Warn("summary skipped, too many in flight")
		if e.metrics != nil {
			e.metrics.RecordSummary(metrics.OutcomeSkipped, 0)
		}
		return "", false
	}
	defer e.summarySem.Release(1)

	top := results
	if len(top) > e.cfg.SummaryMaxResults {
		top = top[:e.cfg.SummaryMaxResults]
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.SummaryTimeout)
	defer cancel()

	start := time.Now()
	resp, err := e.summarizer.Summarize(ctx, &summary.SummarizeRequest{
		Query:      query,
		Results:    digests(top),
		MaxResults: e.cfg.SummaryMaxResults,
	})
	if err != nil {
		logger.Warn("summary generation failed", "error", err)
		if e.metrics != nil {
			e.metrics.RecordSummary(metrics.OutcomeError, time.Since(start))
		}
		return "", false
	}
	if e.metrics != nil {
		e.metrics.RecordSummary(metrics.OutcomeOK, time.Since(start))
	}
	return resp.Summary, true
}

// digests compresses entity results into the shape the summarizer
// prompts with.
func digests(results []*EntityResult) []summary.ResultDigest {
	out := make([]summary.ResultDigest, 0, len(results))
	for _, r := range results {
		d := summary.ResultDigest{
			Kind:     string(r.Kind),
			Score:    r.Score,
			Mentions: r.TotalRecommendations,
		}
		if name := r.Name(); name != "" {
			d.Name = name
		} else if len(r.Recommendations) > 0 {
			d.Name = summary.Excerpt(r.Recommendations[0].Recommendation.Description, 80)
		}
		for _, m := range r.Recommendations {
			if desc := strings.TrimSpace(m.Recommendation.Description); desc != "" {
				d.Highlights = append(d.Highlights, desc)
			}
		}
		out = append(out, d)
	}
	return out
}

func (e *Engine) recordSearch(status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordSearch(status, time.Since(start))
	}
}

func (e *Engine) recordStage(stage string, count int) {
	if e.metrics != nil {
		e.metrics.RecordStageCandidates(stage, count)
	}
}

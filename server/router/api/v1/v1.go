package v1

import (
	"context"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/vouchapp/vouch/ai"
	"github.com/vouchapp/vouch/ai/core/llm"
	"github.com/vouchapp/vouch/ai/enrichment"
	"github.com/vouchapp/vouch/ai/metrics"
	"github.com/vouchapp/vouch/ai/search"
	"github.com/vouchapp/vouch/ai/summary"
	"github.com/vouchapp/vouch/internal/profile"
	"github.com/vouchapp/vouch/store"
)

const (
	// searchRatePerSecond bounds how fast a single client may hit the
	// search endpoint; every search costs an embedding API call.
	searchRatePerSecond = 10

	enrichmentWorkers = 3
)

type APIV1Service struct {
	// Domain Services
	RecommendationService *RecommendationService
	SearchService         *SearchService
	DirectoryService      *DirectoryService
	FeedService           *FeedService

	// Shared Infra
	Profile *profile.Profile
	Store   *store.Store
	Metrics *metrics.PrometheusExporter

	trigger        *enrichment.Trigger
	backfillCancel context.CancelFunc
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	service := &APIV1Service{
		Profile: profile,
		Store:   store,
		Metrics: metrics.NewPrometheusExporter(),
	}

	var (
		engine   *search.Engine
		pipeline *enrichment.Pipeline
	)

	// Initialize the search engine and enrichment pipeline if embeddings
	// are configured. Vector search is supported on PostgreSQL (pgvector)
	// and SQLite (application-layer scan).
	if profile.IsEmbeddingEnabled() && (profile.Driver == "postgres" || profile.Driver == "sqlite") {
		aiConfig := ai.NewConfigFromProfile(profile)
		if err := aiConfig.Validate(); err == nil {
			embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
			if err == nil {
				searchConfig := search.ConfigFromProfile(profile)

				var llmService llm.Service
				var summarizer summary.Summarizer
				if aiConfig.LLMEnabled {
					var llmErr error
					llmService, llmErr = llm.NewService((*llm.Config)(&aiConfig.LLM))
					if llmErr != nil {
						slog.Warn("Failed to initialize LLM service",
							"provider", aiConfig.LLM.Provider,
							"error", llmErr,
							"note", "Search summaries and content analysis will be disabled",
						)
					} else {
						slog.Info("LLM service initialized",
							"provider", aiConfig.LLM.Provider,
							"model", aiConfig.LLM.Model,
						)
						summarizer = summary.NewSummarizer(llmService, searchConfig.SummaryTimeout)
						// Warmup LLM connection asynchronously to reduce first-request latency
						// This is best-effort: warmup failures don't affect service startup
						go func() {
							warmupCtx, warmupCancel := context.WithTimeout(context.Background(), 10*time.Second)
							defer warmupCancel()
							llmService.Warmup(warmupCtx)
						}()
					}
				}

				engine, err = search.NewEngine(searchConfig, search.Dependencies{
					Store:      store,
					Embedder:   embeddingService,
					Summarizer: summarizer,
					Metrics:    service.Metrics,
					Model:      aiConfig.Embedding.Model,
				})
				if err != nil {
					slog.Warn("Failed to initialize search engine", "error", err)
					engine = nil
				}

				embeddingEnricher := enrichment.NewEmbeddingEnricher(embeddingService, store, aiConfig.Embedding.Model)
				enrichers := []enrichment.Enricher{embeddingEnricher}
				if llmService != nil {
					enrichers = append(enrichers, enrichment.NewContentEnricher(llmService))
				}
				pipeline = enrichment.NewPipeline(enrichers...)

				service.trigger = enrichment.NewTrigger(pipeline, enrichmentWorkers)
				service.trigger.Start()

				backfillCtx, backfillCancel := context.WithCancel(context.Background())
				service.backfillCancel = backfillCancel
				backfiller := enrichment.NewBackfiller(store, embeddingEnricher, aiConfig.Embedding.Model)
				go backfiller.Run(backfillCtx)
			} else {
				slog.Warn("Failed to initialize embedding service", "error", err)
			}
		} else {
			slog.Warn("AI config validation failed", "error", err)
		}
	} else {
		slog.Info("Semantic search disabled",
			"embedding_configured", profile.IsEmbeddingEnabled(),
			"driver", profile.Driver,
		)
	}

	service.SearchService = &SearchService{Engine: engine}
	service.RecommendationService = &RecommendationService{Store: store, Profile: profile, pipeline: pipeline, trigger: service.trigger}
	service.DirectoryService = &DirectoryService{Store: store}
	service.FeedService = &FeedService{Store: store, Profile: profile}

	return service
}

// RegisterRoutes registers the REST handlers with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1")

	searchLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(searchRatePerSecond)))
	apiGroup.POST("/search", s.SearchService.Search, searchLimiter)

	apiGroup.POST("/recommendations", s.RecommendationService.CreateRecommendation)
	apiGroup.GET("/recommendations", s.RecommendationService.ListRecommendations)
	apiGroup.GET("/recommendations/:uid", s.RecommendationService.GetRecommendation)
	apiGroup.PATCH("/recommendations/:uid", s.RecommendationService.UpdateRecommendation)
	apiGroup.DELETE("/recommendations/:uid", s.RecommendationService.DeleteRecommendation)

	apiGroup.GET("/places/:id", s.DirectoryService.GetPlace)
	apiGroup.GET("/services/:id", s.DirectoryService.GetService)

	apiGroup.GET("/feeds/recommendations.rss", s.FeedService.RecommendationsRSS)
}

// Close stops the background enrichment machinery. Queued embedding work
// that has not started yet is dropped; the backfill loop picks it up on
// the next start.
func (s *APIV1Service) Close() {
	if s.backfillCancel != nil {
		s.backfillCancel()
	}
	if s.trigger != nil {
		s.trigger.Stop()
	}
}

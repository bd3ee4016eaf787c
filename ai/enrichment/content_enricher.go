package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vouchapp/vouch/ai/core/llm"
	"github.com/vouchapp/vouch/ai/internal/strutil"
	"github.com/vouchapp/vouch/store"
)

const (
	analyzeTimeout       = 20 * time.Second
	analyzeInputMaxRunes = 2000
)

// ContentAnalysis is the typed outcome of content classification.
type ContentAnalysis struct {
	ContentType store.ContentType
	Content     store.RecommendationContent
}

// ContentEnricher classifies a free-text description into a typed
// content payload. Callers decide what a failed analysis means; saving
// a recommendation never depends on it.
type ContentEnricher struct {
	llmService llm.Service
	timeout    time.Duration
}

// NewContentEnricher creates a content classification enricher.
func NewContentEnricher(llmService llm.Service) *ContentEnricher {
	return &ContentEnricher{
		llmService: llmService,
		timeout:    analyzeTimeout,
	}
}

// Type returns the enrichment type.
func (e *ContentEnricher) Type() EnrichmentType {
	return EnrichmentContent
}

// Phase returns the phase this enricher belongs to.
func (e *ContentEnricher) Phase() Phase {
	return PhasePre
}

// Enrich classifies the recommendation description. On success the
// result Data holds a *ContentAnalysis.
func (e *ContentEnricher) Enrich(ctx context.Context, rec *store.Recommendation) *EnrichmentResult {
	start := time.Now()

	if e.llmService == nil {
		return &EnrichmentResult{
			Type:    EnrichmentContent,
			Success: false,
			Error:   nil, // Graceful degradation
			Latency: time.Since(start),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	description := strutil.Truncate(rec.Description, analyzeInputMaxRunes)
	messages := []llm.Message{
		llm.SystemPrompt(analyzeSystemPrompt),
		llm.UserMessage(fmt.Sprintf("Classify this recommendation:\n\n%s", description)),
	}

	response, _, err := e.llmService.Chat(ctx, messages)
	latency := time.Since(start)

	if err != nil {
		slog.Warn("content analysis failed",
			"error", err,
			"recommendation_uid", rec.UID,
			"latency_ms", latency.Milliseconds())
		return &EnrichmentResult{
			Type:    EnrichmentContent,
			Success: false,
			Error:   err,
			Latency: latency,
		}
	}

	analysis, err := parseAnalysis(response)
	if err != nil {
		slog.Warn("content analysis parse failed",
			"response", strutil.Truncate(response, 100),
			"error", err)
		return &EnrichmentResult{
			Type:    EnrichmentContent,
			Success: false,
			Error:   err,
			Latency: latency,
		}
	}

	slog.Debug("content analysis succeeded",
		"recommendation_uid", rec.UID,
		"content_type", analysis.ContentType,
		"latency_ms", latency.Milliseconds())

	return &EnrichmentResult{
		Type:    EnrichmentContent,
		Success: true,
		Data:    analysis,
		Latency: latency,
	}
}

// parseAnalysis requires the model output to be exactly the documented
// JSON shape with a valid content type and a matching payload. Anything
// else is an error so callers can fall back to an unclassified
// recommendation instead of persisting salvaged fields.
func parseAnalysis(response string) (*ContentAnalysis, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var result struct {
		ContentType string                `json:"content_type"`
		Place       *store.PlaceContent   `json:"place,omitempty"`
		Service     *store.ServiceContent `json:"service,omitempty"`
		Tip         *store.TipContent     `json:"tip,omitempty"`
		Contact     *store.ContactContent `json:"contact,omitempty"`
	}
	dec := json.NewDecoder(strings.NewReader(response))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parse analysis response: trailing data after JSON")
	}

	contentType := store.ContentType(result.ContentType)
	if !contentType.Valid() {
		return nil, fmt.Errorf("parse analysis response: unknown content type %q", result.ContentType)
	}

	content := store.RecommendationContent{
		Place:   result.Place,
		Service: result.Service,
		Tip:     result.Tip,
		Contact: result.Contact,
	}
	if err := content.Validate(contentType); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}

	return &ContentAnalysis{
		ContentType: contentType,
		Content:     content,
	}, nil
}

const analyzeSystemPrompt = `You classify a word-of-mouth recommendation into a typed payload.

Content types:
- "place": a physical spot people go to (restaurant, shop, park).
- "service": a business or professional hired to do work (plumber, dentist, accountant).
- "tip": standalone advice not tied to one place or business.
- "contact": a specific person being recommended, with a way to reach them.
- "unclear": none of the above fits.

Payload shapes:
- "place": {"name": "", "address": "", "category": "", "highlights": []}
- "service": {"business_name": "", "service_type": "", "phone": "", "email": ""}
- "tip": {"subject": "", "advice": ""}
- "contact": {"name": "", "phone": "", "email": "", "relation": ""}

Requirements:
1. Pick exactly one content type.
2. Fill only the matching payload key, using only facts from the text. Omit fields the text does not state.
3. For "unclear", return no payload key at all.
4. Return JSON and nothing else, for example: {"content_type": "place", "place": {"name": "Menya Saimi", "category": "ramen shop"}}`

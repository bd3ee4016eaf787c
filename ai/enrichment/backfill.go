package enrichment

import (
	"context"
	"log/slog"
	"time"

	"github.com/vouchapp/vouch/store"
)

const (
	backfillBatchSize = 50
	backfillInterval  = 10 * time.Minute
)

// Backfiller embeds recommendations that predate embedding support or
// whose async enrichment was skipped or failed.
type Backfiller struct {
	store    *store.Store
	enricher *EmbeddingEnricher
	model    string
}

// NewBackfiller creates a backfiller for the given embedding model.
func NewBackfiller(st *store.Store, enricher *EmbeddingEnricher, model string) *Backfiller {
	return &Backfiller{
		store:    st,
		enricher: enricher,
		model:    model,
	}
}

// Run drains missing embeddings once, then re-checks on an interval
// until the context is canceled. Meant to run in its own goroutine.
func (b *Backfiller) Run(ctx context.Context) {
	ticker := time.NewTicker(backfillInterval)
	defer ticker.Stop()

	b.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runOnce(ctx)
		}
	}
}

// runOnce embeds batches until no recommendation is missing a vector.
func (b *Backfiller) runOnce(ctx context.Context) {
	total := 0
	for {
		recs, err := b.store.FindRecommendationsWithoutEmbedding(ctx, &store.FindRecommendationsWithoutEmbedding{
			Model: b.model,
			Limit: backfillBatchSize,
		})
		if err != nil {
			slog.Warn("embedding backfill query failed", "error", err)
			return
		}
		if len(recs) == 0 {
			break
		}

		embedded := 0
		for _, rec := range recs {
			if ctx.Err() != nil {
				return
			}
			result := b.enricher.Enrich(ctx, rec)
			if result.Success {
				embedded++
			}
		}
		total += embedded

		// Every remaining candidate failed or had nothing to embed.
		// Stop instead of refetching the same batch forever.
		if embedded == 0 {
			break
		}
	}

	if total > 0 {
		slog.Info("embedding backfill completed", "embedded", total)
	}
}

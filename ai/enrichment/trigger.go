package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vouchapp/vouch/store"
)

// Trigger runs post-save enrichment asynchronously.
type Trigger struct {
	pipeline *Pipeline
	queue    chan *store.Recommendation
	workers  int
	wg       sync.WaitGroup
	stopCh   chan struct{}
}

// NewTrigger creates a new trigger.
func NewTrigger(pipeline *Pipeline, workers int) *Trigger {
	if workers <= 0 {
		workers = 3 // Default workers
	}
	return &Trigger{
		pipeline: pipeline,
		queue:    make(chan *store.Recommendation, 100), // Buffered queue
		workers:  workers,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the worker pool.
func (t *Trigger) Start() {
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.worker(i)
	}
	slog.Info("enrichment trigger started", "workers", t.workers)
}

// Stop drains the workers and shuts the trigger down. The queue channel
// stays open so a late TriggerAsync cannot panic on a closed channel.
func (t *Trigger) Stop() {
	close(t.stopCh)
	t.wg.Wait()
	slog.Info("enrichment trigger stopped")
}

// TriggerAsync queues a recommendation for post-save enrichment. It
// never blocks the save path: a full queue means this trigger is
// skipped, the backfill loop picks the recommendation up later.
func (t *Trigger) TriggerAsync(rec *store.Recommendation) {
	select {
	case t.queue <- rec:
		// Successfully queued
	case <-time.After(50 * time.Millisecond):
		slog.Debug("enrichment trigger skipped (queue full)", "recommendation_uid", rec.UID)
	case <-t.stopCh:
		// Trigger is stopped
	}
}

func (t *Trigger) worker(id int) {
	defer t.wg.Done()

	for {
		select {
		case <-t.stopCh:
			return
		case rec, ok := <-t.queue:
			if !ok {
				return
			}
			t.processRecommendation(rec, id)
		}
	}
}

func (t *Trigger) processRecommendation(rec *store.Recommendation, workerID int) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Debug("enrichment trigger processing",
		"recommendation_uid", rec.UID,
		"worker", workerID)

	results := t.pipeline.EnrichPostSave(ctx, rec)
	if results == nil {
		slog.Debug("enrichment trigger skipped (no post-enrichers)",
			"recommendation_uid", rec.UID,
			"worker", workerID)
		return
	}
	for _, result := range results {
		status := "success"
		if !result.Success {
			status = "failed"
		}
		slog.Debug("enrichment result",
			"type", result.Type,
			"status", status,
			"latency_ms", result.Latency.Milliseconds(),
			"recommendation_uid", rec.UID,
			"worker", workerID)
	}

	slog.Debug("enrichment trigger completed",
		"recommendation_uid", rec.UID,
		"worker", workerID,
		"total_latency_ms", time.Since(start).Milliseconds())
}

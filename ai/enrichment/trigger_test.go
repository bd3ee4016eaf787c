package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/vouchapp/vouch/store"
)

type recordingEnricher struct {
	processed chan string
}

func (r *recordingEnricher) Type() EnrichmentType { return EnrichmentEmbedding }
func (r *recordingEnricher) Phase() Phase         { return PhasePost }
func (r *recordingEnricher) Enrich(ctx context.Context, rec *store.Recommendation) *EnrichmentResult {
	r.processed <- rec.UID
	return &EnrichmentResult{Type: EnrichmentEmbedding, Success: true}
}

func TestTrigger_ProcessesQueuedRecommendation(t *testing.T) {
	enricher := &recordingEnricher{processed: make(chan string, 10)}
	trigger := NewTrigger(NewPipeline(enricher), 1)
	trigger.Start()
	defer trigger.Stop()

	trigger.TriggerAsync(&store.Recommendation{ID: 1, UID: "rec-async"})

	select {
	case uid := <-enricher.processed:
		if uid != "rec-async" {
			t.Errorf("processed uid = %q, want rec-async", uid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("queued recommendation was never processed")
	}
}

func TestTrigger_FullQueueSkips(t *testing.T) {
	// Workers never started, so the queue only drains by filling up.
	trigger := NewTrigger(NewPipeline(&recordingEnricher{processed: make(chan string, 1)}), 1)

	for i := 0; i < 100; i++ {
		trigger.TriggerAsync(&store.Recommendation{ID: int32(i), UID: "rec-fill"})
	}

	done := make(chan struct{})
	go func() {
		trigger.TriggerAsync(&store.Recommendation{ID: 101, UID: "rec-overflow"})
		close(done)
	}()

	select {
	case <-done:
		// Returned after the graceful-skip window instead of blocking.
	case <-time.After(2 * time.Second):
		t.Fatal("TriggerAsync blocked on a full queue")
	}
}

func TestTrigger_StopIsSafe(t *testing.T) {
	trigger := NewTrigger(NewPipeline(), 2)
	trigger.Start()
	trigger.Stop()

	// A late trigger after Stop must not panic.
	trigger.TriggerAsync(&store.Recommendation{ID: 1, UID: "rec-late"})
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter()

	t.Run("RecordSearch", func(t *testing.T) {
		exporter.RecordSearch(StatusOK, 100*time.Millisecond)
		exporter.RecordSearch(StatusOK, 200*time.Millisecond)
		exporter.RecordSearch(StatusValidationError, 1*time.Millisecond)

		done := exporter.SearchStarted()
		done()
	})

	t.Run("RecordStageCandidates", func(t *testing.T) {
		exporter.RecordStageCandidates(StageANN, 100)
		exporter.RecordStageCandidates(StageGate, 12)
		exporter.RecordStageCandidates(StageAggregate, 5)
		exporter.RecordStageCandidates(StageAssemble, 5)
	})

	t.Run("RecordSkippedMembers", func(t *testing.T) {
		exporter.RecordSkippedMembers(0)
		exporter.RecordSkippedMembers(2)
	})

	t.Run("RecordEmbed", func(t *testing.T) {
		exporter.RecordEmbed(OutcomeOK, 80*time.Millisecond)
		exporter.RecordEmbed(OutcomeError, 0)
	})

	t.Run("RecordSummary", func(t *testing.T) {
		exporter.RecordSummary(OutcomeOK, 900*time.Millisecond)
		exporter.RecordSummary(OutcomeError, 0)
		exporter.RecordSummary(OutcomeSkipped, 0)
	})
}

func TestPrometheusExporterHandler(t *testing.T) {
	exporter := NewPrometheusExporter()

	exporter.RecordSearch(StatusOK, 100*time.Millisecond)
	exporter.RecordStageCandidates(StageANN, 50)
	exporter.RecordEmbed(OutcomeOK, 80*time.Millisecond)
	exporter.RecordSummary(OutcomeSkipped, 0)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	exporter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "vouch_search_requests_total") {
		t.Error("expected search_requests_total metric in output")
	}
	if !strings.Contains(body, "vouch_search_stage_candidates") {
		t.Error("expected stage_candidates metric in output")
	}
	if !strings.Contains(body, "vouch_embed_requests_total") {
		t.Error("expected embed_requests_total metric in output")
	}
	if !strings.Contains(body, "vouch_summary_requests_total") {
		t.Error("expected summary_requests_total metric in output")
	}
}

func TestPrometheusExporterCustomRegistry(t *testing.T) {
	exporter := NewPrometheusExporterWithConfig(Config{
		LatencyBuckets:   []float64{0.1, 1, 10},
		CandidateBuckets: []float64{0, 10, 100},
	})
	exporter.RecordSearch(StatusOK, 50*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	exporter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func BenchmarkPrometheusExporter(b *testing.B) {
	exporter := NewPrometheusExporter()

	b.Run("RecordSearch", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordSearch(StatusOK, 100*time.Millisecond)
		}
	})

	b.Run("RecordStageCandidates", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordStageCandidates(StageGate, 25)
		}
	})
}

package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/ai/search"
	"github.com/vouchapp/vouch/store"
)

// searchFakeDriver extends the shared fake with canned vector results.
type searchFakeDriver struct {
	*fakeDriver

	vectorRows []*store.RecommendationWithScore
	searchErr  error
}

func (d *searchFakeDriver) SearchRecommendationsByVector(_ context.Context, _ *store.RecommendationVectorSearchOptions) ([]*store.RecommendationWithScore, error) {
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	return d.vectorRows, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return len(f.vector)
}

func newSearchService(t *testing.T, driver *searchFakeDriver, embedder *fakeEmbedder) *SearchService {
	t.Helper()
	cfg := search.DefaultConfig()
	cfg.SummaryEnabled = false
	engine, err := search.NewEngine(cfg, search.Dependencies{
		Store:    store.New(driver, nil),
		Embedder: embedder,
		Model:    "text-embedding-3-small",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &SearchService{Engine: engine}
}

func placeScored(id int32, placeID int32, description string, score float32) *store.RecommendationWithScore {
	return &store.RecommendationWithScore{
		Recommendation: &store.Recommendation{
			ID:          id,
			UID:         fmt.Sprintf("rec-%d", id),
			CreatorID:   1,
			CreatedTs:   int64(1000 + id),
			ContentType: store.ContentTypePlace,
			PlaceID:     &placeID,
			Description: description,
			Visibility:  store.VisibilityFriends,
		},
		Score: score,
	}
}

func TestSearch_Unconfigured(t *testing.T) {
	svc := &SearchService{}

	c, _ := newJSONContext(http.MethodPost, "/api/v1/search", `{"query": "ramen"}`)
	assertHTTPError(t, svc.Search(c), http.StatusServiceUnavailable)
}

func TestSearch(t *testing.T) {
	driver := &searchFakeDriver{fakeDriver: newFakeDriver()}
	driver.places[5] = &store.Place{ID: 5, Name: "Menya Saimi", Category: "ramen shop"}
	driver.vectorRows = []*store.RecommendationWithScore{
		placeScored(1, 5, "incredible spicy miso ramen", 0.82),
		placeScored(2, 5, "best ramen for a quick lunch", 0.75),
	}
	svc := newSearchService(t, driver, &fakeEmbedder{vector: []float32{0.1, 0.2}})

	c, rec := newJSONContext(http.MethodPost, "/api/v1/search", `{"query": "best ramen"}`)
	if err := svc.Search(c); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := &searchResponseBody{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	if resp.RequestID == "" {
		t.Error("expected a request id")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 entity result, got %d", len(resp.Results))
	}

	result := resp.Results[0]
	if result.Key != "place:5" {
		t.Errorf("key = %q, want place:5", result.Key)
	}
	if result.Name != "Menya Saimi" {
		t.Errorf("name = %q, want Menya Saimi", result.Name)
	}
	if result.Place == nil || result.Place.ID != 5 {
		t.Errorf("hydrated place missing: %+v", result.Place)
	}
	if result.TotalRecommendations != 2 {
		t.Errorf("total_recommendations = %d, want 2", result.TotalRecommendations)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 members, got %d", len(result.Recommendations))
	}
	if result.Recommendations[0].Recommendation == nil || result.Recommendations[0].Recommendation.Description != "incredible spicy miso ramen" {
		t.Errorf("members must keep similarity order: %+v", result.Recommendations[0])
	}
	if resp.TotalPlaces != 1 || resp.TotalRecommendations != 2 {
		t.Errorf("totals = %d/%d, want 1/2", resp.TotalPlaces, resp.TotalRecommendations)
	}
	if resp.Summary != nil {
		t.Errorf("summary must be absent when disabled, got %q", *resp.Summary)
	}
}

func TestSearch_ValidationError(t *testing.T) {
	driver := &searchFakeDriver{fakeDriver: newFakeDriver()}
	svc := newSearchService(t, driver, &fakeEmbedder{vector: []float32{0.1}})

	for _, body := range []string{
		`{"query": ""}`,
		`{"query": "x"}`,
		`{"query": "ramen", "limit": 0}`,
		`{"query": "ramen", "limit": 101}`,
		`{"query": "ramen", "threshold": 1.5}`,
		`{"query": "ramen", "content_type": "shoutout"}`,
		`{"query": "ramen", "visibilities": ["secret"]}`,
	} {
		c, _ := newJSONContext(http.MethodPost, "/api/v1/search", body)
		assertHTTPError(t, svc.Search(c), http.StatusBadRequest)
	}
}

func TestSearch_EmbedFailure(t *testing.T) {
	driver := &searchFakeDriver{fakeDriver: newFakeDriver()}
	svc := newSearchService(t, driver, &fakeEmbedder{err: errors.New("quota exceeded")})

	c, _ := newJSONContext(http.MethodPost, "/api/v1/search", `{"query": "best ramen"}`)
	assertHTTPError(t, svc.Search(c), http.StatusBadGateway)
}

func TestSearch_StoreFailure(t *testing.T) {
	driver := &searchFakeDriver{fakeDriver: newFakeDriver()}
	driver.searchErr = errors.New("connection reset")
	svc := newSearchService(t, driver, &fakeEmbedder{vector: []float32{0.1}})

	c, _ := newJSONContext(http.MethodPost, "/api/v1/search", `{"query": "best ramen"}`)
	assertHTTPError(t, svc.Search(c), http.StatusInternalServerError)
}

func TestSearch_MalformedBody(t *testing.T) {
	driver := &searchFakeDriver{fakeDriver: newFakeDriver()}
	svc := newSearchService(t, driver, &fakeEmbedder{vector: []float32{0.1}})

	c, _ := newJSONContext(http.MethodPost, "/api/v1/search", `{"query": `)
	assertHTTPError(t, svc.Search(c), http.StatusBadRequest)
}

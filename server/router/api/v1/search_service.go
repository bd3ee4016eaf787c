package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vouchapp/vouch/ai/search"
	"github.com/vouchapp/vouch/store"
)

// SearchService serves semantic search over recommendations. Engine is
// nil when embeddings are not configured; the handler degrades to 503
// instead of the route disappearing.
type SearchService struct {
	Engine *search.Engine
}

type searchRequestBody struct {
	Query          string   `json:"query"`
	Limit          *int     `json:"limit,omitempty"`
	Threshold      *float64 `json:"threshold,omitempty"`
	ContentType    *string  `json:"content_type,omitempty"`
	Visibilities   []string `json:"visibilities,omitempty"`
	IncludeSummary *bool    `json:"include_summary,omitempty"`
}

type searchMemberResponse struct {
	Recommendation *recommendationResponse `json:"recommendation"`
	Score          float64                 `json:"score"`
	KeywordMatch   bool                    `json:"keyword_match"`
}

type searchResultResponse struct {
	Key                  string                  `json:"key"`
	Kind                 search.EntityKind       `json:"kind"`
	Name                 string                  `json:"name,omitempty"`
	Score                float64                 `json:"score"`
	TotalRecommendations int                     `json:"total_recommendations"`
	MostRecentTs         int64                   `json:"most_recent_ts"`
	Place                *placeResponse          `json:"place,omitempty"`
	Service              *serviceResponse        `json:"service,omitempty"`
	Recommendations      []*searchMemberResponse `json:"recommendations"`
}

type searchResponseBody struct {
	RequestID            string                  `json:"request_id"`
	Results              []*searchResultResponse `json:"results"`
	TotalPlaces          int                     `json:"total_places"`
	TotalRecommendations int                     `json:"total_recommendations"`
	SkippedMembers       int                     `json:"skipped_members,omitempty"`
	Summary              *string                 `json:"summary,omitempty"`
}

// Search handles POST /api/v1/search.
func (s *SearchService) Search(c echo.Context) error {
	if s.Engine == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "semantic search is not configured")
	}

	body := &searchRequestBody{}
	if err := c.Bind(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	req := &search.SearchRequest{
		Query:          body.Query,
		Limit:          body.Limit,
		Threshold:      body.Threshold,
		IncludeSummary: body.IncludeSummary,
	}
	if body.ContentType != nil {
		contentType := store.ContentType(*body.ContentType)
		req.ContentType = &contentType
	}
	for _, v := range body.Visibilities {
		req.Visibilities = append(req.Visibilities, store.Visibility(v))
	}

	resp, err := s.Engine.Search(c.Request().Context(), req)
	if err != nil {
		var validationErr *search.ValidationError
		if errors.As(err, &validationErr) {
			return echo.NewHTTPError(http.StatusBadRequest, validationErr.Error())
		}
		var providerErr *search.ProviderError
		if errors.As(err, &providerErr) {
			slog.Error("search provider failed", "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "embedding provider unavailable").SetInternal(err)
		}
		slog.Error("search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed").SetInternal(err)
	}

	return c.JSON(http.StatusOK, convertSearchResponse(resp))
}

func convertSearchResponse(resp *search.SearchResponse) *searchResponseBody {
	body := &searchResponseBody{
		RequestID:            resp.RequestID,
		Results:              make([]*searchResultResponse, 0, len(resp.Results)),
		TotalPlaces:          resp.TotalPlaces,
		TotalRecommendations: resp.TotalRecommendations,
		SkippedMembers:       resp.SkippedMembers,
		Summary:              resp.Summary,
	}
	for _, result := range resp.Results {
		body.Results = append(body.Results, convertSearchResult(result))
	}
	return body
}

func convertSearchResult(result *search.EntityResult) *searchResultResponse {
	converted := &searchResultResponse{
		Key:                  result.Key,
		Kind:                 result.Kind,
		Name:                 result.Name(),
		Score:                result.Score,
		TotalRecommendations: result.TotalRecommendations,
		MostRecentTs:         result.MostRecentTs,
		Recommendations:      make([]*searchMemberResponse, 0, len(result.Recommendations)),
	}
	if result.Place != nil {
		converted.Place = convertPlace(result.Place)
	}
	if result.Service != nil {
		converted.Service = convertService(result.Service)
	}
	for _, member := range result.Recommendations {
		converted.Recommendations = append(converted.Recommendations, &searchMemberResponse{
			Recommendation: convertRecommendation(member.Recommendation),
			Score:          member.Score,
			KeywordMatch:   member.KeywordMatch,
		})
	}
	return converted
}

package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/vouchapp/vouch/ai/enrichment"
	"github.com/vouchapp/vouch/internal/profile"
	"github.com/vouchapp/vouch/store"
)

const (
	maxUIDLength     = 64
	defaultListLimit = 20
	maxListLimit     = 100
)

// RecommendationService serves recommendation CRUD. The pipeline runs
// synchronous content analysis on create when the caller asks for it;
// the trigger schedules embedding generation after every write. Both may
// be nil when AI is not configured.
type RecommendationService struct {
	Store   *store.Store
	Profile *profile.Profile

	pipeline *enrichment.Pipeline
	trigger  *enrichment.Trigger
}

type recommendationResponse struct {
	UID         string                      `json:"uid"`
	CreatorID   int32                       `json:"creator_id"`
	CreatedTs   int64                       `json:"created_ts"`
	UpdatedTs   int64                       `json:"updated_ts"`
	ContentType store.ContentType           `json:"content_type"`
	PlaceID     *int32                      `json:"place_id,omitempty"`
	ServiceID   *int32                      `json:"service_id,omitempty"`
	Description string                      `json:"description"`
	Content     store.RecommendationContent `json:"content"`
	Rating      *int32                      `json:"rating,omitempty"`
	Visibility  store.Visibility            `json:"visibility"`
}

type createRecommendationRequest struct {
	// UID is the idempotency key. Clients that retry a create send the
	// same UID; the server generates one when absent.
	UID         string                       `json:"uid,omitempty"`
	CreatorID   int32                        `json:"creator_id"`
	ContentType store.ContentType            `json:"content_type,omitempty"`
	PlaceID     *int32                       `json:"place_id,omitempty"`
	ServiceID   *int32                       `json:"service_id,omitempty"`
	Description string                       `json:"description"`
	Content     *store.RecommendationContent `json:"content,omitempty"`
	Rating      *int32                       `json:"rating,omitempty"`
	Visibility  store.Visibility             `json:"visibility,omitempty"`
	// Analyze asks the server to classify the description into a typed
	// payload before saving. Requires the LLM to be configured; silently
	// skipped otherwise.
	Analyze bool `json:"analyze,omitempty"`
}

type updateRecommendationRequest struct {
	Description *string                      `json:"description,omitempty"`
	ContentType *store.ContentType           `json:"content_type,omitempty"`
	Content     *store.RecommendationContent `json:"content,omitempty"`
	Rating      *int32                       `json:"rating,omitempty"`
	Visibility  *store.Visibility            `json:"visibility,omitempty"`
	PlaceID     *int32                       `json:"place_id,omitempty"`
	ServiceID   *int32                       `json:"service_id,omitempty"`
}

type listRecommendationsResponse struct {
	Recommendations []*recommendationResponse `json:"recommendations"`
	Limit           int                       `json:"limit"`
	Offset          int                       `json:"offset"`
}

// CreateRecommendation handles POST /api/v1/recommendations.
func (s *RecommendationService) CreateRecommendation(c echo.Context) error {
	ctx := c.Request().Context()

	req := &createRecommendationRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(req.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}

	uid := strings.TrimSpace(req.UID)
	if len(uid) > maxUIDLength {
		return echo.NewHTTPError(http.StatusBadRequest, "uid too long")
	}
	if uid != "" {
		// Idempotent retry: return the existing recommendation as-is.
		existing, err := s.Store.GetRecommendation(ctx, &store.FindRecommendation{UID: &uid})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to look up recommendation").SetInternal(err)
		}
		if existing != nil {
			return c.JSON(http.StatusOK, convertRecommendation(existing))
		}
	} else {
		uid = shortuuid.New()
	}

	create := &store.Recommendation{
		UID:         uid,
		CreatorID:   req.CreatorID,
		ContentType: req.ContentType,
		PlaceID:     req.PlaceID,
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Rating:      req.Rating,
		Visibility:  req.Visibility,
	}
	if req.Content != nil {
		create.Content = *req.Content
	}
	if create.ContentType == "" {
		create.ContentType = store.ContentTypeUnclear
	}
	if create.Visibility == "" {
		create.Visibility = store.VisibilityFriends
	}

	if req.Analyze {
		s.applyContentAnalysis(c, create)
	}

	if err := create.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := s.Store.CreateRecommendation(ctx, create)
	if err != nil {
		// A concurrent retry with the same UID may have won the insert.
		if existing, getErr := s.Store.GetRecommendation(ctx, &store.FindRecommendation{UID: &uid}); getErr == nil && existing != nil {
			return c.JSON(http.StatusOK, convertRecommendation(existing))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create recommendation").SetInternal(err)
	}

	if s.trigger != nil {
		s.trigger.TriggerAsync(created)
	}

	return c.JSON(http.StatusCreated, convertRecommendation(created))
}

// applyContentAnalysis runs the content classifier and folds its result
// into the draft. Analysis is advisory: any failure, or a result that
// contradicts the caller's entity references, leaves the draft unchanged.
func (s *RecommendationService) applyContentAnalysis(c echo.Context, draft *store.Recommendation) {
	if s.pipeline == nil {
		return
	}

	result := s.pipeline.EnrichOne(c.Request().Context(), enrichment.EnrichmentContent, draft)
	if result == nil || !result.Success {
		return
	}
	analysis, ok := result.Data.(*enrichment.ContentAnalysis)
	if !ok {
		return
	}

	analyzed := *draft
	analyzed.ContentType = analysis.ContentType
	analyzed.Content = analysis.Content
	if err := analyzed.Validate(); err != nil {
		slog.Warn("content analysis discarded",
			"recommendation_uid", draft.UID,
			"content_type", analysis.ContentType,
			"error", err)
		return
	}
	*draft = analyzed
}

// GetRecommendation handles GET /api/v1/recommendations/:uid.
func (s *RecommendationService) GetRecommendation(c echo.Context) error {
	uid := c.Param("uid")
	rec, err := s.Store.GetRecommendation(c.Request().Context(), &store.FindRecommendation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get recommendation").SetInternal(err)
	}
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, "recommendation not found")
	}
	return c.JSON(http.StatusOK, convertRecommendation(rec))
}

// ListRecommendations handles GET /api/v1/recommendations.
func (s *RecommendationService) ListRecommendations(c echo.Context) error {
	find := &store.FindRecommendation{
		Limit:  defaultListLimit,
		Offset: 0,
	}

	if err := echo.QueryParamsBinder(c).
		Int("limit", &find.Limit).
		Int("offset", &find.Offset).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pagination parameters").SetInternal(err)
	}
	if find.Limit <= 0 || find.Limit > maxListLimit {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
	}
	if find.Offset < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "offset must not be negative")
	}

	filter, err := parseListFilter(c.QueryParam("filter"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if filter != nil {
		find.ContentType = filter.contentType
		find.Visibility = filter.visibility
		find.CreatorID = filter.creatorID
	}

	list, err := s.Store.ListRecommendations(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recommendations").SetInternal(err)
	}

	resp := &listRecommendationsResponse{
		Recommendations: make([]*recommendationResponse, 0, len(list)),
		Limit:           find.Limit,
		Offset:          find.Offset,
	}
	for _, rec := range list {
		resp.Recommendations = append(resp.Recommendations, convertRecommendation(rec))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateRecommendation handles PATCH /api/v1/recommendations/:uid.
// Any change re-enqueues embedding generation so the search vector
// tracks the edited text.
func (s *RecommendationService) UpdateRecommendation(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")

	req := &updateRecommendationRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	existing, err := s.Store.GetRecommendation(ctx, &store.FindRecommendation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get recommendation").SetInternal(err)
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "recommendation not found")
	}

	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description cannot be empty")
	}

	updated, err := s.Store.UpdateRecommendation(ctx, &store.UpdateRecommendation{
		ID:          existing.ID,
		Description: req.Description,
		ContentType: req.ContentType,
		Content:     req.Content,
		Rating:      req.Rating,
		Visibility:  req.Visibility,
		PlaceID:     req.PlaceID,
		ServiceID:   req.ServiceID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}

	if s.trigger != nil {
		s.trigger.TriggerAsync(updated)
	}

	return c.JSON(http.StatusOK, convertRecommendation(updated))
}

// DeleteRecommendation handles DELETE /api/v1/recommendations/:uid.
func (s *RecommendationService) DeleteRecommendation(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")

	existing, err := s.Store.GetRecommendation(ctx, &store.FindRecommendation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get recommendation").SetInternal(err)
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "recommendation not found")
	}

	if err := s.Store.DeleteRecommendation(ctx, &store.DeleteRecommendation{ID: &existing.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete recommendation").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func convertRecommendation(rec *store.Recommendation) *recommendationResponse {
	return &recommendationResponse{
		UID:         rec.UID,
		CreatorID:   rec.CreatorID,
		CreatedTs:   rec.CreatedTs,
		UpdatedTs:   rec.UpdatedTs,
		ContentType: rec.ContentType,
		PlaceID:     rec.PlaceID,
		ServiceID:   rec.ServiceID,
		Description: rec.Description,
		Content:     rec.Content,
		Rating:      rec.Rating,
		Visibility:  rec.Visibility,
	}
}

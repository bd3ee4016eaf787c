package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ContentType classifies what a recommendation is about.
type ContentType string

const (
	ContentTypePlace   ContentType = "place"
	ContentTypeService ContentType = "service"
	ContentTypeTip     ContentType = "tip"
	ContentTypeContact ContentType = "contact"
	ContentTypeUnclear ContentType = "unclear"
)

// Valid reports whether the content type is one of the known values.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypePlace, ContentTypeService, ContentTypeTip, ContentTypeContact, ContentTypeUnclear:
		return true
	}
	return false
}

// Visibility controls who can see a recommendation.
type Visibility string

const (
	VisibilityFriends Visibility = "friends"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether the visibility is one of the known values.
func (v Visibility) Valid() bool {
	return v == VisibilityFriends || v == VisibilityPublic
}

// PlaceContent is the structured payload of a place recommendation.
type PlaceContent struct {
	Name       string   `json:"name,omitempty"`
	Address    string   `json:"address,omitempty"`
	Category   string   `json:"category,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// ServiceContent is the structured payload of a service recommendation.
type ServiceContent struct {
	BusinessName string `json:"business_name,omitempty"`
	ServiceType  string `json:"service_type,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// TipContent is the structured payload of a tip recommendation.
type TipContent struct {
	Subject string `json:"subject,omitempty"`
	Advice  string `json:"advice,omitempty"`
}

// ContactContent is the structured payload of a contact recommendation.
type ContactContent struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Relation string `json:"relation,omitempty"`
}

// RecommendationContent is the typed payload of a recommendation,
// keyed by its content type. At most one variant may be populated and
// it must match the recommendation's ContentType; `unclear` carries no
// variant at all.
type RecommendationContent struct {
	Place   *PlaceContent   `json:"place,omitempty"`
	Service *ServiceContent `json:"service,omitempty"`
	Tip     *TipContent     `json:"tip,omitempty"`
	Contact *ContactContent `json:"contact,omitempty"`
}

// IsEmpty reports whether no variant is populated.
func (c *RecommendationContent) IsEmpty() bool {
	return c.Place == nil && c.Service == nil && c.Tip == nil && c.Contact == nil
}

// Validate checks that the populated variant matches the content type.
func (c *RecommendationContent) Validate(contentType ContentType) error {
	populated := 0
	var mismatch bool
	if c.Place != nil {
		populated++
		mismatch = mismatch || contentType != ContentTypePlace
	}
	if c.Service != nil {
		populated++
		mismatch = mismatch || contentType != ContentTypeService
	}
	if c.Tip != nil {
		populated++
		mismatch = mismatch || contentType != ContentTypeTip
	}
	if c.Contact != nil {
		populated++
		mismatch = mismatch || contentType != ContentTypeContact
	}
	if populated > 1 {
		return errors.New("content may populate at most one variant")
	}
	if contentType == ContentTypeUnclear && populated != 0 {
		return errors.New("unclear recommendations carry no content variant")
	}
	if mismatch {
		return errors.Errorf("content variant does not match content type %q", contentType)
	}
	return nil
}

// text returns the free-text fields of the populated variant, used for
// keyword matching and embedding input.
func (c *RecommendationContent) text() []string {
	switch {
	case c.Place != nil:
		parts := []string{c.Place.Name, c.Place.Address, c.Place.Category}
		parts = append(parts, c.Place.Highlights...)
		return parts
	case c.Service != nil:
		return []string{c.Service.BusinessName, c.Service.ServiceType}
	case c.Tip != nil:
		return []string{c.Tip.Subject, c.Tip.Advice}
	case c.Contact != nil:
		return []string{c.Contact.Name, c.Contact.Relation}
	}
	return nil
}

// Recommendation is a user-authored recommendation post.
type Recommendation struct {
	ID          int32
	UID         string
	CreatorID   int32
	CreatedTs   int64
	UpdatedTs   int64
	ContentType ContentType
	PlaceID     *int32
	ServiceID   *int32
	Description string
	Content     RecommendationContent
	Rating      *int32
	Visibility  Visibility
}

// Validate checks the cross-field invariants of a recommendation.
func (r *Recommendation) Validate() error {
	if !r.ContentType.Valid() {
		return errors.Errorf("invalid content type: %q", r.ContentType)
	}
	if !r.Visibility.Valid() {
		return errors.Errorf("invalid visibility: %q", r.Visibility)
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description cannot be empty")
	}
	if r.PlaceID != nil && r.ServiceID != nil {
		return errors.New("recommendation may reference at most one of place and service")
	}
	if r.ContentType == ContentTypePlace && r.ServiceID != nil {
		return errors.New("place recommendation cannot reference a service")
	}
	if r.ContentType == ContentTypeService && r.PlaceID != nil {
		return errors.New("service recommendation cannot reference a place")
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return errors.Errorf("rating out of range: %d", *r.Rating)
	}
	if err := r.Content.Validate(r.ContentType); err != nil {
		return err
	}
	return nil
}

// SearchableText returns the text the keyword gate matches against:
// the description plus the free-text fields of the content payload.
func (r *Recommendation) SearchableText() string {
	parts := []string{r.Description}
	for _, p := range r.Content.text() {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// FindRecommendation is the find condition for recommendations.
type FindRecommendation struct {
	ID          *int32
	UID         *string
	CreatorID   *int32
	ContentType *ContentType
	Visibility  *Visibility
	PlaceID     *int32
	ServiceID   *int32
	Limit       int
	Offset      int
}

// UpdateRecommendation is the update condition for a recommendation.
// Nil fields are left unchanged; the driver bumps UpdatedTs.
type UpdateRecommendation struct {
	ID          int32
	Description *string
	ContentType *ContentType
	Content     *RecommendationContent
	Rating      *int32
	Visibility  *Visibility
	PlaceID     *int32
	ServiceID   *int32
}

// DeleteRecommendation is the delete condition for recommendations.
type DeleteRecommendation struct {
	ID        *int32
	CreatorID *int32
}

// CreateRecommendation creates a recommendation after validating it.
func (s *Store) CreateRecommendation(ctx context.Context, create *Recommendation) (*Recommendation, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	return s.driver.CreateRecommendation(ctx, create)
}

// GetRecommendation gets a single recommendation matching the find condition.
func (s *Store) GetRecommendation(ctx context.Context, find *FindRecommendation) (*Recommendation, error) {
	find.Limit = 1
	list, err := s.driver.ListRecommendations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListRecommendations lists recommendations matching the find condition.
func (s *Store) ListRecommendations(ctx context.Context, find *FindRecommendation) ([]*Recommendation, error) {
	return s.driver.ListRecommendations(ctx, find)
}

// UpdateRecommendation applies a partial update and returns the updated row.
func (s *Store) UpdateRecommendation(ctx context.Context, update *UpdateRecommendation) (*Recommendation, error) {
	updated, err := s.driver.UpdateRecommendation(ctx, update)
	if err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, errors.Wrap(err, "update produced an invalid recommendation")
	}
	return updated, nil
}

// DeleteRecommendation deletes recommendations matching the condition.
// Embedding rows go with them; PostgreSQL cascades, SQLite cleans up
// explicitly in the driver.
func (s *Store) DeleteRecommendation(ctx context.Context, delete *DeleteRecommendation) error {
	return s.driver.DeleteRecommendation(ctx, delete)
}

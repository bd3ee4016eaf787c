package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Place is a physical location that recommendations can reference.
// ExternalID carries the upstream map-provider identifier when known;
// places without one are deduplicated by name+address at the edges.
type Place struct {
	ID         int32
	ExternalID string
	Name       string
	Address    string
	Latitude   *float64
	Longitude  *float64
	Category   string
	CreatedTs  int64
	UpdatedTs  int64
}

// Validate checks the place fields.
func (p *Place) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("place name cannot be empty")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return errors.New("latitude and longitude must be set together")
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		return errors.Errorf("latitude out of range: %f", *p.Latitude)
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		return errors.Errorf("longitude out of range: %f", *p.Longitude)
	}
	return nil
}

// FindPlace is the find condition for places.
type FindPlace struct {
	ID         *int32
	IDs        []int32
	ExternalID *string
	Limit      int
}

// DeletePlace is the delete condition for places.
type DeletePlace struct {
	ID int32
}

func placeCacheKey(id int32) string {
	return fmt.Sprintf("place:%d", id)
}

// UpsertPlace inserts a place, or updates the existing row when the
// external id already exists.
func (s *Store) UpsertPlace(ctx context.Context, upsert *Place) (*Place, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	place, err := s.driver.UpsertPlace(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.placeCache.Set(placeCacheKey(place.ID), place)
	return place, nil
}

// GetPlace gets a single place matching the find condition.
func (s *Store) GetPlace(ctx context.Context, find *FindPlace) (*Place, error) {
	if find.ID != nil {
		if v, ok := s.placeCache.Get(placeCacheKey(*find.ID)); ok {
			return v.(*Place), nil
		}
	}

	find.Limit = 1
	list, err := s.driver.ListPlaces(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	s.placeCache.Set(placeCacheKey(list[0].ID), list[0])
	return list[0], nil
}

// ListPlaces lists places matching the find condition. Batch lookups
// by IDs are the hydration path of the search assembler.
func (s *Store) ListPlaces(ctx context.Context, find *FindPlace) ([]*Place, error) {
	list, err := s.driver.ListPlaces(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, place := range list {
		s.placeCache.Set(placeCacheKey(place.ID), place)
	}
	return list, nil
}

// DeletePlace deletes a place.
func (s *Store) DeletePlace(ctx context.Context, delete *DeletePlace) error {
	if err := s.driver.DeletePlace(ctx, delete); err != nil {
		return err
	}
	s.placeCache.Delete(placeCacheKey(delete.ID))
	return nil
}

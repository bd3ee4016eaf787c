package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Service is a non-located offering (a tradesperson, a cleaner, a
// tutor) that recommendations can reference. Phone and email form the
// practical identity since services have no stable external id.
type Service struct {
	ID           int32
	Name         string
	ServiceType  string
	BusinessName string
	Phone        string
	Email        string
	CreatedTs    int64
	UpdatedTs    int64
}

// Validate checks the service fields.
func (s *Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("service name cannot be empty")
	}
	if s.Phone == "" && s.Email == "" {
		return errors.New("service requires a phone or an email")
	}
	return nil
}

// FindService is the find condition for services.
type FindService struct {
	ID    *int32
	IDs   []int32
	Phone *string
	Email *string
	Limit int
}

// DeleteService is the delete condition for services.
type DeleteService struct {
	ID int32
}

func serviceCacheKey(id int32) string {
	return fmt.Sprintf("service:%d", id)
}

// UpsertService inserts a service, or updates the existing row with
// the same phone/email identity.
func (s *Store) UpsertService(ctx context.Context, upsert *Service) (*Service, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	service, err := s.driver.UpsertService(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.serviceCache.Set(serviceCacheKey(service.ID), service)
	return service, nil
}

// GetService gets a single service matching the find condition.
func (s *Store) GetService(ctx context.Context, find *FindService) (*Service, error) {
	if find.ID != nil {
		if v, ok := s.serviceCache.Get(serviceCacheKey(*find.ID)); ok {
			return v.(*Service), nil
		}
	}

	find.Limit = 1
	list, err := s.driver.ListServices(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	s.serviceCache.Set(serviceCacheKey(list[0].ID), list[0])
	return list[0], nil
}

// ListServices lists services matching the find condition.
func (s *Store) ListServices(ctx context.Context, find *FindService) ([]*Service, error) {
	list, err := s.driver.ListServices(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, service := range list {
		s.serviceCache.Set(serviceCacheKey(service.ID), service)
	}
	return list, nil
}

// DeleteService deletes a service.
func (s *Store) DeleteService(ctx context.Context, delete *DeleteService) error {
	if err := s.driver.DeleteService(ctx, delete); err != nil {
		return err
	}
	s.serviceCache.Delete(serviceCacheKey(delete.ID))
	return nil
}

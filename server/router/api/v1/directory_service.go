package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vouchapp/vouch/store"
)

// DirectoryService serves the place and service reference entities that
// recommendations point at.
type DirectoryService struct {
	Store *store.Store
}

type placeResponse struct {
	ID         int32    `json:"id"`
	ExternalID string   `json:"external_id,omitempty"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Category   string   `json:"category,omitempty"`
	CreatedTs  int64    `json:"created_ts"`
	UpdatedTs  int64    `json:"updated_ts"`
}

type serviceResponse struct {
	ID           int32  `json:"id"`
	Name         string `json:"name"`
	ServiceType  string `json:"service_type,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	CreatedTs    int64  `json:"created_ts"`
	UpdatedTs    int64  `json:"updated_ts"`
}

// GetPlace handles GET /api/v1/places/:id.
func (s *DirectoryService) GetPlace(c echo.Context) error {
	id, err := parseEntityID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid place id")
	}

	place, err := s.Store.GetPlace(c.Request().Context(), &store.FindPlace{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get place").SetInternal(err)
	}
	if place == nil {
		return echo.NewHTTPError(http.StatusNotFound, "place not found")
	}
	return c.JSON(http.StatusOK, convertPlace(place))
}

// GetService handles GET /api/v1/services/:id.
func (s *DirectoryService) GetService(c echo.Context) error {
	id, err := parseEntityID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}

	service, err := s.Store.GetService(c.Request().Context(), &store.FindService{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get service").SetInternal(err)
	}
	if service == nil {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	return c.JSON(http.StatusOK, convertService(service))
}

func parseEntityID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return int32(id), nil
}

func convertPlace(place *store.Place) *placeResponse {
	return &placeResponse{
		ID:         place.ID,
		ExternalID: place.ExternalID,
		Name:       place.Name,
		Address:    place.Address,
		Latitude:   place.Latitude,
		Longitude:  place.Longitude,
		Category:   place.Category,
		CreatedTs:  place.CreatedTs,
		UpdatedTs:  place.UpdatedTs,
	}
}

func convertService(service *store.Service) *serviceResponse {
	return &serviceResponse{
		ID:           service.ID,
		Name:         service.Name,
		ServiceType:  service.ServiceType,
		BusinessName: service.BusinessName,
		Phone:        service.Phone,
		Email:        service.Email,
		CreatedTs:    service.CreatedTs,
		UpdatedTs:    service.UpdatedTs,
	}
}

package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	IsInitialized(ctx context.Context) (bool, error)

	// Recommendation model related methods.
	CreateRecommendation(ctx context.Context, create *Recommendation) (*Recommendation, error)
	ListRecommendations(ctx context.Context, find *FindRecommendation) ([]*Recommendation, error)
	UpdateRecommendation(ctx context.Context, update *UpdateRecommendation) (*Recommendation, error)
	DeleteRecommendation(ctx context.Context, delete *DeleteRecommendation) error

	// Place model related methods.
	UpsertPlace(ctx context.Context, upsert *Place) (*Place, error)
	ListPlaces(ctx context.Context, find *FindPlace) ([]*Place, error)
	DeletePlace(ctx context.Context, delete *DeletePlace) error

	// Service model related methods.
	UpsertService(ctx context.Context, upsert *Service) (*Service, error)
	ListServices(ctx context.Context, find *FindService) ([]*Service, error)
	DeleteService(ctx context.Context, delete *DeleteService) error

	// Recommendation embedding related methods.
	UpsertRecommendationEmbedding(ctx context.Context, embedding *RecommendationEmbedding) (*RecommendationEmbedding, error)
	ListRecommendationEmbeddings(ctx context.Context, find *FindRecommendationEmbedding) ([]*RecommendationEmbedding, error)
	DeleteRecommendationEmbedding(ctx context.Context, recommendationID int32) error
	FindRecommendationsWithoutEmbedding(ctx context.Context, find *FindRecommendationsWithoutEmbedding) ([]*Recommendation, error)
	SearchRecommendationsByVector(ctx context.Context, opts *RecommendationVectorSearchOptions) ([]*RecommendationWithScore, error)
}

package store

import (
	"time"

	"github.com/vouchapp/vouch/internal/profile"
	"github.com/vouchapp/vouch/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches for entity hydration. Recommendations and embeddings are
	// never cached: search reads must observe committed writes directly.
	placeCache   *cache.Cache
	serviceCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:       driver,
		profile:      profile,
		cacheConfig:  cacheConfig,
		placeCache:   cache.New(cacheConfig),
		serviceCache: cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.placeCache.Close()
	s.serviceCache.Close()

	return s.driver.Close()
}

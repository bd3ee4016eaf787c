package search

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vouchapp/vouch/store"
)

// hydrate loads the place and service rows the entity groups refer to,
// in parallel, and drops groups whose row has gone missing. A missing
// row means the data drifted (a place deleted after its vouches were
// embedded), so the group is logged per member and skipped rather than
// failing the search. Returns the surviving groups in their input
// order and the number of members skipped.
func (e *Engine) hydrate(ctx context.Context, logger *slog.Logger, groups []*EntityResult) ([]*EntityResult, int, error) {
	var placeIDs, serviceIDs []int32
	for _, g := range groups {
		switch g.Kind {
		case EntityKindPlace:
			placeIDs = append(placeIDs, g.refID)
		case EntityKindService:
			serviceIDs = append(serviceIDs, g.refID)
		}
	}

	var (
		placesByID   map[int32]*store.Place
		servicesByID map[int32]*store.Service
	)

	eg, gctx := errgroup.WithContext(ctx)
	if len(placeIDs) > 0 {
		eg.Go(func() error {
			places, err := e.store.ListPlaces(gctx, &store.FindPlace{IDs: placeIDs})
			if err != nil {
				return errors.Wrap(err, "failed to list places")
			}
			placesByID = make(map[int32]*store.Place, len(places))
			for _, p := range places {
				placesByID[p.ID] = p
			}
			return nil
		})
	}
	if len(serviceIDs) > 0 {
		eg.Go(func() error {
			services, err := e.store.ListServices(gctx, &store.FindService{IDs: serviceIDs})
			if err != nil {
				return errors.Wrap(err, "failed to list services")
			}
			servicesByID = make(map[int32]*store.Service, len(services))
			for _, s := range services {
				servicesByID[s.ID] = s
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	kept := make([]*EntityResult, 0, len(groups))
	skipped := 0
	for _, g := range groups {
		switch g.Kind {
		case EntityKindPlace:
			place, ok := placesByID[g.refID]
			if !ok {
				skipped += len(g.Recommendations)
				warnMissingRef(logger, g, "place")
				continue
			}
			g.Place = place
		case EntityKindService:
			service, ok := servicesByID[g.refID]
			if !ok {
				skipped += len(g.Recommendations)
				warnMissingRef(logger, g, "service")
				continue
			}
			g.Service = service
		}
		kept = append(kept, g)
	}
	return kept, skipped, nil
}

func warnMissingRef(logger *slog.Logger, g *EntityResult, kind string) {
	for _, m := range g.Recommendations {
		warning := &DataIntegrityWarning{
			RecommendationID: m.Recommendation.ID,
			Kind:             kind,
			RefID:            g.refID,
		}
		logger.Warn("search member skipped", "warning", warning.Error())
	}
}

// totals counts entities and members across the full result set.
// Standalone recommendations count toward members but not places.
func totals(groups []*EntityResult) (totalPlaces, totalRecommendations int) {
	for _, g := range groups {
		if g.Kind == EntityKindPlace || g.Kind == EntityKindService {
			totalPlaces++
		}
		totalRecommendations += g.TotalRecommendations
	}
	return totalPlaces, totalRecommendations
}

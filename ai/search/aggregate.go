package search

import (
	"fmt"
	"sort"

	"github.com/vouchapp/vouch/store"
)

// groupKey returns the entity grouping key for a recommendation.
// Recommendations referencing the same place or service collapse into
// one entity; everything else stands alone under its own id.
func groupKey(rec *store.Recommendation) (string, EntityKind, int32) {
	switch {
	case rec.PlaceID != nil:
		return fmt.Sprintf("place:%d", *rec.PlaceID), EntityKindPlace, *rec.PlaceID
	case rec.ServiceID != nil:
		return fmt.Sprintf("service:%d", *rec.ServiceID), EntityKindService, *rec.ServiceID
	}
	return fmt.Sprintf("rec:%d", rec.ID), EntityKindRecommendation, 0
}

// aggregate collapses scored recommendations into ranked entity
// groups. Group score is the mean member similarity, so three lukewarm
// mentions do not outrank one strong one. The output order is
// deterministic for identical input.
func aggregate(candidates []*ScoredRecommendation) []*EntityResult {
	groups := make(map[string]*EntityResult, len(candidates))
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		key, kind, refID := groupKey(c.Recommendation)
		group, ok := groups[key]
		if !ok {
			group = &EntityResult{Key: key, Kind: kind, refID: refID}
			groups[key] = group
			order = append(order, key)
		}
		group.Recommendations = append(group.Recommendations, c)
		if ts := c.Recommendation.CreatedTs; ts > group.MostRecentTs {
			group.MostRecentTs = ts
		}
	}

	results := make([]*EntityResult, 0, len(order))
	for _, key := range order {
		group := groups[key]
		group.Score = meanScore(group.Recommendations)
		group.TotalRecommendations = len(group.Recommendations)
		results = append(results, group)
	}

	sortResults(results)
	return results
}

func meanScore(members []*ScoredRecommendation) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		sum += m.Score
	}
	return sum / float64(len(members))
}

// sortResults ranks entities by mean score, then member count, then
// recency, all descending. The key breaks any remaining tie so equal
// inputs always produce the same ordering.
func sortResults(results []*EntityResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalRecommendations != b.TotalRecommendations {
			return a.TotalRecommendations > b.TotalRecommendations
		}
		if a.MostRecentTs != b.MostRecentTs {
			return a.MostRecentTs > b.MostRecentTs
		}
		return a.Key < b.Key
	})
}

package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/vouchapp/vouch/ai/summary"
	"github.com/vouchapp/vouch/internal/profile"
	"github.com/vouchapp/vouch/store"
)

const (
	feedItemLimit      = 50
	feedTitleMaxRunes  = 80
	feedExcerptMaxLen  = 280
	feedRSSContentType = "application/rss+xml; charset=utf-8"
)

// FeedService serves the public recommendations RSS feed. Only public
// recommendations appear; friends-only posts never leave the API.
type FeedService struct {
	Store   *store.Store
	Profile *profile.Profile
}

// RecommendationsRSS handles GET /api/v1/feeds/recommendations.rss.
func (s *FeedService) RecommendationsRSS(c echo.Context) error {
	visibility := store.VisibilityPublic
	list, err := s.Store.ListRecommendations(c.Request().Context(), &store.FindRecommendation{
		Visibility: &visibility,
		Limit:      feedItemLimit,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recommendations").SetInternal(err)
	}

	baseURL := strings.TrimRight(s.Profile.InstanceURL, "/")
	feed := &feeds.Feed{
		Title:       "Vouch public recommendations",
		Link:        &feeds.Link{Href: baseURL + "/api/v1/feeds/recommendations.rss"},
		Description: "Latest public recommendations shared on this Vouch instance.",
		Created:     time.Now(),
	}
	for _, rec := range list {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          rec.UID,
			Title:       feedItemTitle(rec),
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/recommendations/%s", baseURL, rec.UID)},
			Description: summary.Excerpt(rec.Description, feedExcerptMaxLen),
			Created:     time.Unix(rec.CreatedTs, 0),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render feed").SetInternal(err)
	}
	return c.Blob(http.StatusOK, feedRSSContentType, []byte(rss))
}

// feedItemTitle prefers the recommended entity's name over raw text.
func feedItemTitle(rec *store.Recommendation) string {
	switch {
	case rec.Content.Place != nil && rec.Content.Place.Name != "":
		return rec.Content.Place.Name
	case rec.Content.Service != nil && rec.Content.Service.BusinessName != "":
		return rec.Content.Service.BusinessName
	case rec.Content.Tip != nil && rec.Content.Tip.Subject != "":
		return rec.Content.Tip.Subject
	case rec.Content.Contact != nil && rec.Content.Contact.Name != "":
		return rec.Content.Contact.Name
	}
	return summary.Excerpt(rec.Description, feedTitleMaxRunes)
}

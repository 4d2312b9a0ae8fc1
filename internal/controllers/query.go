package controllers

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	statsCacheKey         = "stats"
	maxSuggestions        = 5
	maxSuggestionDistance = 2
)

// SearchResult is the answer to a free-text search
type SearchResult struct {
	Query       string               `json:"query"`
	Results     []models.MovieUpdate `json:"results"`
	Suggestions []string             `json:"suggestions,omitempty"`
}

// QueryController serves the read side of the store to the dashboard
type QueryController struct {
	db        *models.Database
	cache     *cache.Cache
	perPage   int
	maxSearch int
	logger    zerolog.Logger
}

// NewQueryController creates a new query controller
func NewQueryController(db *models.Database, cfg *config.Config, logger zerolog.Logger) *QueryController {
	ttl := cfg.CacheTimeout
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &QueryController{
		db:        db,
		cache:     cache.New(ttl, 2*ttl),
		perPage:   cfg.PostsPerPage,
		maxSearch: cfg.MaxSearchResults,
		logger:    logger.With().Str("component", "query").Logger(),
	}
}

// ListUpdates returns one page of updates, newest first
func (c *QueryController) ListUpdates(ctx context.Context, f models.UpdateFilter) (*models.UpdatePage, error) {
	if f.PerPage <= 0 {
		f.PerPage = c.perPage
	}
	return c.db.ListUpdates(ctx, f)
}

// GetUpdate returns a single update
func (c *QueryController) GetUpdate(ctx context.Context, id uint) (*models.MovieUpdate, error) {
	return c.db.GetUpdate(ctx, id)
}

// Search matches query against stored text. When nothing matches, stored
// movie names close to the query are suggested.
func (c *QueryController) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	results, err := c.db.SearchUpdates(ctx, query, c.maxSearch)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Query: query, Results: results}
	if len(results) > 0 || query == "" {
		return result, nil
	}

	names, err := c.db.MovieNames(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to load movie names for suggestions")
		return result, nil
	}
	result.Suggestions = suggest(query, names)
	return result, nil
}

type suggestion struct {
	name     string
	distance int
}

// suggest returns names within a small edit distance of query, closest first
func suggest(query string, names []string) []string {
	q := strings.ToLower(query)
	var matches []suggestion
	for _, name := range names {
		d := levenshtein.ComputeDistance(q, strings.ToLower(name))
		if d <= maxSuggestionDistance {
			matches = append(matches, suggestion{name: name, distance: d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})

	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.name)
	}
	return out
}

// Stats returns aggregate counts, cached for the configured timeout
func (c *QueryController) Stats(ctx context.Context) (*models.Stats, error) {
	if cached, ok := c.cache.Get(statsCacheKey); ok {
		return cached.(*models.Stats), nil
	}

	stats, err := c.db.Stats(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(statsCacheKey, stats)
	return stats, nil
}

// InvalidateStats drops cached stats after account changes
func (c *QueryController) InvalidateStats() {
	c.cache.Delete(statsCacheKey)
}

// Events returns recent monitoring events
func (c *QueryController) Events(ctx context.Context, platform models.Platform, limit int) ([]models.MonitoringEvent, error) {
	if limit <= 0 || limit > models.MaxPerPage {
		limit = c.perPage
	}
	return c.db.RecentEvents(ctx, platform, limit)
}

// Package news fetches movie articles from NewsAPI domains and RSS/Atom feeds.
package news

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/services/apiclient"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"
	movieQuery     = "movie OR cinema OR bollywood OR tollywood OR kollywood"
)

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
}

type everythingResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

// Client fetches articles for news accounts. A username that is an http(s)
// URL is read as a feed; any other username is a NewsAPI domain.
type Client struct {
	api     *apiclient.Client
	feeds   *apiclient.Client
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// NewClient creates a new news client
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	limits := cfg.Platforms[models.PlatformNews]
	feeds := apiclient.New(cfg.RequestTimeout, 0, 0)
	feeds.SetHeader("User-Agent", "reelwatch/1.0")

	return &Client{
		api:     apiclient.New(cfg.RequestTimeout, limits.RateLimit, limits.RatePeriod),
		feeds:   feeds,
		baseURL: defaultBaseURL,
		apiKey:  cfg.NewsAPIKey,
		logger:  logger.With().Str("client", "news").Logger(),
	}
}

// Platform returns the platform this client polls
func (c *Client) Platform() models.Platform {
	return models.PlatformNews
}

// Available is always true since feed accounts need no credentials
func (c *Client) Available() bool {
	return true
}

// FetchRecent returns articles published after since
func (c *Client) FetchRecent(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	if account.IsFeedURL() {
		return c.fetchFeed(ctx, account, since)
	}
	if c.apiKey == "" {
		c.logger.Debug().Str("domain", account.Username).Msg("NEWS_API_KEY not set, skipping domain")
		return nil, nil
	}
	return c.fetchDomain(ctx, account, since)
}

func (c *Client) fetchDomain(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("domains", account.Username)
	params.Set("q", movieQuery)
	params.Set("sortBy", "publishedAt")
	params.Set("from", since.UTC().Format(time.RFC3339))
	params.Set("language", "en")

	var resp everythingResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/everything", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch articles from %s: %w", account.Username, err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error for %s: %s", account.Username, resp.Message)
	}

	items := make([]models.RawItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		id := ContentIDFromURL(a.URL)
		if id == "" {
			continue
		}
		items = append(items, models.RawItem{
			ContentID:       id,
			Headline:        a.Title,
			Text:            a.Description,
			URL:             a.URL,
			PublishedAt:     a.PublishedAt,
			MediaURL:        a.URLToImage,
			MediaKind:       mediaKind(a.URLToImage),
			AccountName:     account.Name,
			AccountLanguage: account.Language,
		})
	}
	return items, nil
}

func (c *Client) fetchFeed(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	body, err := c.feeds.Get(ctx, account.Username, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", account.Username, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", account.Username, err)
	}

	items := make([]models.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		link := entry.Link
		if link == "" && strings.HasPrefix(entry.GUID, "http") {
			link = entry.GUID
		}
		if link == "" {
			continue
		}

		published := time.Time{}
		switch {
		case entry.PublishedParsed != nil:
			published = *entry.PublishedParsed
		case entry.UpdatedParsed != nil:
			published = *entry.UpdatedParsed
		}
		if !published.IsZero() && published.Before(since) {
			continue
		}

		id := entry.GUID
		if id == "" {
			id = ContentIDFromURL(link)
		}

		image := ""
		if entry.Image != nil {
			image = entry.Image.URL
		}

		items = append(items, models.RawItem{
			ContentID:       id,
			Headline:        entry.Title,
			Text:            entry.Description,
			URL:             link,
			PublishedAt:     published,
			MediaURL:        image,
			MediaKind:       mediaKind(image),
			AccountName:     account.Name,
			AccountLanguage: account.Language,
		})
	}
	return items, nil
}

// ContentIDFromURL derives a stable article id from host and last path segment
func ContentIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	last := path.Base(strings.TrimRight(u.Path, "/"))
	if last == "." || last == "/" || last == "" {
		return u.Host + u.Path
	}
	return u.Host + "/" + last
}

func mediaKind(mediaURL string) models.MediaKind {
	if mediaURL == "" {
		return models.MediaKindNone
	}
	return models.MediaKindImage
}

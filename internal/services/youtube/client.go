// Package youtube fetches recent videos through the YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/services/apiclient"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = 10
	playlistTTL    = 24 * time.Hour
)

type thumbnails struct {
	High struct {
		URL string `json:"url"`
	} `json:"high"`
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

type snippet struct {
	PublishedAt  time.Time  `json:"publishedAt"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelTitle string     `json:"channelTitle"`
	Thumbnails   thumbnails `json:"thumbnails"`
	ResourceID   struct {
		VideoID string `json:"videoId"`
	} `json:"resourceId"`
}

type channelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Client fetches videos for channel and keyword-search accounts
type Client struct {
	api       *apiclient.Client
	baseURL   string
	apiKey    string
	playlists *cache.Cache
	logger    zerolog.Logger
}

// NewClient creates a new YouTube client
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	limits := cfg.Platforms[models.PlatformYouTube]
	return &Client{
		api:       apiclient.New(cfg.RequestTimeout, limits.RateLimit, limits.RatePeriod),
		baseURL:   defaultBaseURL,
		apiKey:    cfg.YouTubeAPIKey,
		playlists: cache.New(playlistTTL, time.Hour),
		logger:    logger.With().Str("client", "youtube").Logger(),
	}
}

// Platform returns the platform this client polls
func (c *Client) Platform() models.Platform {
	return models.PlatformYouTube
}

// Available reports whether an API key is configured
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// FetchRecent returns videos published after since. Accounts named
// "search:<query>" run a keyword search; any other username is a channel id.
func (c *Client) FetchRecent(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	var (
		items []models.RawItem
		err   error
	)
	if query, ok := account.SearchQuery(); ok {
		items, err = c.search(ctx, account, query, since)
	} else {
		items, err = c.channelUploads(ctx, account, since)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	if err := c.fillViewCounts(ctx, items); err != nil {
		// View counts only affect relay thresholds; keep the videos
		c.logger.Warn().Err(err).Str("account", account.Name).Msg("Failed to fetch view counts")
	}
	return items, nil
}

func (c *Client) channelUploads(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	playlistID, err := c.uploadsPlaylist(ctx, account.Username)
	if err != nil {
		return nil, err
	}

	params := c.params()
	params.Set("part", "snippet")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var resp playlistItemsResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/playlistItems", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to list uploads of %s: %w", account.Name, err)
	}

	items := make([]models.RawItem, 0, len(resp.Items))
	for _, entry := range resp.Items {
		if entry.Snippet.PublishedAt.Before(since) {
			continue
		}
		items = append(items, toItem(entry.Snippet.ResourceID.VideoID, entry.Snippet, account, account.Name))
	}
	return items, nil
}

func (c *Client) search(ctx context.Context, account *models.SocialAccount, query string, since time.Time) ([]models.RawItem, error) {
	params := c.params()
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("publishedAfter", since.UTC().Format(time.RFC3339))

	var resp searchResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/search", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}

	items := make([]models.RawItem, 0, len(resp.Items))
	for _, entry := range resp.Items {
		if entry.ID.VideoID == "" {
			continue
		}
		name := entry.Snippet.ChannelTitle
		if name == "" {
			name = account.Name
		}
		items = append(items, toItem(entry.ID.VideoID, entry.Snippet, account, name))
	}
	return items, nil
}

// uploadsPlaylist resolves a channel id to its uploads playlist, cached for a day
func (c *Client) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	if id, ok := c.playlists.Get(channelID); ok {
		return id.(string), nil
	}

	params := c.params()
	params.Set("part", "contentDetails")
	params.Set("id", channelID)

	var resp channelsResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/channels", params, &resp); err != nil {
		return "", fmt.Errorf("failed to look up channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("channel %s not found", channelID)
	}

	id := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	c.playlists.Set(channelID, id, cache.DefaultExpiration)
	return id, nil
}

func (c *Client) fillViewCounts(ctx context.Context, items []models.RawItem) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ContentID)
	}

	params := c.params()
	params.Set("part", "statistics")
	params.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/videos", params, &resp); err != nil {
		return err
	}

	views := make(map[string]int64, len(resp.Items))
	for _, v := range resp.Items {
		n, err := strconv.ParseInt(v.Statistics.ViewCount, 10, 64)
		if err == nil {
			views[v.ID] = n
		}
	}
	for i := range items {
		items[i].Engagement = views[items[i].ContentID]
	}
	return nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("key", c.apiKey)
	return params
}

func toItem(videoID string, s snippet, account *models.SocialAccount, name string) models.RawItem {
	thumb := s.Thumbnails.High.URL
	if thumb == "" {
		thumb = s.Thumbnails.Default.URL
	}
	return models.RawItem{
		ContentID:       videoID,
		Headline:        s.Title,
		Text:            s.Description,
		URL:             "https://www.youtube.com/watch?v=" + videoID,
		PublishedAt:     s.PublishedAt,
		MediaURL:        thumb,
		MediaKind:       models.MediaKindVideo,
		AccountName:     name,
		AccountLanguage: account.Language,
	}
}

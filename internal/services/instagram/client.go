// Package instagram fetches recent posts through the Instagram Graph API.
package instagram

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/services/apiclient"
	"github.com/rs/zerolog"
)

const (
	defaultGraphURL     = "https://graph.facebook.com/v19.0"
	defaultInstagramURL = "https://graph.instagram.com"
	mediaLimit          = 10
	mediaFields         = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count"

	// Graph API timestamps carry a numeric offset without a colon
	timestampLayout = "2006-01-02T15:04:05-0700"
)

type mediaItem struct {
	ID           string `json:"id"`
	Caption      string `json:"caption"`
	MediaType    string `json:"media_type"`
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Permalink    string `json:"permalink"`
	Timestamp    string `json:"timestamp"`
	LikeCount    int64  `json:"like_count"`
}

type mediaList struct {
	Data []mediaItem `json:"data"`
}

type discoveryResponse struct {
	BusinessDiscovery struct {
		Username string    `json:"username"`
		Media    mediaList `json:"media"`
	} `json:"business_discovery"`
}

// Client fetches Instagram posts for tracked accounts
type Client struct {
	api          *apiclient.Client
	graphURL     string
	instagramURL string
	token        string
	businessID   string
	logger       zerolog.Logger
}

// NewClient creates a new Instagram client
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	limits := cfg.Platforms[models.PlatformInstagram]
	return &Client{
		api:          apiclient.New(cfg.RequestTimeout, limits.RateLimit, limits.RatePeriod),
		graphURL:     defaultGraphURL,
		instagramURL: defaultInstagramURL,
		token:        cfg.InstagramAccessToken,
		businessID:   cfg.InstagramBusinessID,
		logger:       logger.With().Str("client", "instagram").Logger(),
	}
}

// Platform returns the platform this client polls
func (c *Client) Platform() models.Platform {
	return models.PlatformInstagram
}

// Available reports whether an access token is configured
func (c *Client) Available() bool {
	return c.token != ""
}

// FetchRecent returns posts published after since. With a business account id
// configured each tracked account is looked up through business discovery;
// otherwise the token owner's own media is returned.
func (c *Client) FetchRecent(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	media, err := c.fetchMedia(ctx, account.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instagram media for %s: %w", account.Username, err)
	}

	items := make([]models.RawItem, 0, len(media))
	for _, m := range media {
		published, err := time.Parse(timestampLayout, m.Timestamp)
		if err != nil {
			c.logger.Debug().Str("media_id", m.ID).Str("timestamp", m.Timestamp).Msg("Skipping media with unparseable timestamp")
			continue
		}
		if published.Before(since) {
			continue
		}

		item := models.RawItem{
			ContentID:       m.ID,
			Text:            m.Caption,
			URL:             m.Permalink,
			PublishedAt:     published,
			Engagement:      m.LikeCount,
			AccountName:     account.Name,
			AccountLanguage: account.Language,
		}
		switch m.MediaType {
		case "VIDEO":
			item.MediaURL, item.MediaKind = m.ThumbnailURL, models.MediaKindVideo
		default:
			item.MediaURL, item.MediaKind = m.MediaURL, models.MediaKindImage
		}
		items = append(items, item)
	}

	return items, nil
}

func (c *Client) fetchMedia(ctx context.Context, username string) ([]mediaItem, error) {
	params := url.Values{}
	params.Set("access_token", c.token)

	if c.businessID == "" {
		params.Set("fields", mediaFields)
		params.Set("limit", fmt.Sprint(mediaLimit))

		var list mediaList
		if err := c.api.GetJSON(ctx, c.instagramURL+"/me/media", params, &list); err != nil {
			return nil, err
		}
		return list.Data, nil
	}

	params.Set("fields", fmt.Sprintf("business_discovery.username(%s){media.limit(%d){%s}}", username, mediaLimit, mediaFields))

	var discovery discoveryResponse
	if err := c.api.GetJSON(ctx, c.graphURL+"/"+c.businessID, params, &discovery); err != nil {
		return nil, err
	}
	return discovery.BusinessDiscovery.Media.Data, nil
}

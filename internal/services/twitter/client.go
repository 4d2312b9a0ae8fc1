// Package twitter fetches recent tweets through the X/Twitter v2 API.
package twitter

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/services/apiclient"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.twitter.com/2"
	maxResults     = 10
	userIDTTL      = 24 * time.Hour
)

type userResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

type tweet struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	PublicMetrics struct {
		LikeCount    int64 `json:"like_count"`
		RetweetCount int64 `json:"retweet_count"`
	} `json:"public_metrics"`
	Attachments struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

type media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
}

type timelineResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Media []media `json:"media"`
	} `json:"includes"`
}

// Client fetches tweets for tracked accounts
type Client struct {
	api     *apiclient.Client
	baseURL string
	token   string
	userIDs *cache.Cache
	logger  zerolog.Logger
}

// NewClient creates a new Twitter client
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	limits := cfg.Platforms[models.PlatformTwitter]
	api := apiclient.New(cfg.RequestTimeout, limits.RateLimit, limits.RatePeriod)
	api.SetHeader("Authorization", "Bearer "+cfg.TwitterBearerToken)

	return &Client{
		api:     api,
		baseURL: defaultBaseURL,
		token:   cfg.TwitterBearerToken,
		userIDs: cache.New(userIDTTL, time.Hour),
		logger:  logger.With().Str("client", "twitter").Logger(),
	}
}

// Platform returns the platform this client polls
func (c *Client) Platform() models.Platform {
	return models.PlatformTwitter
}

// Available reports whether a bearer token is configured
func (c *Client) Available() bool {
	return c.token != ""
}

// FetchRecent returns the account's original tweets posted after since
func (c *Client) FetchRecent(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	userID, err := c.lookupUserID(ctx, account.Username)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("max_results", fmt.Sprint(maxResults))
	params.Set("exclude", "retweets,replies")
	params.Set("tweet.fields", "created_at,public_metrics,attachments")
	params.Set("expansions", "attachments.media_keys")
	params.Set("media.fields", "type,url,preview_image_url")
	params.Set("start_time", since.UTC().Format(time.RFC3339))

	var timeline timelineResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/users/"+userID+"/tweets", params, &timeline); err != nil {
		return nil, fmt.Errorf("failed to fetch tweets for @%s: %w", account.Username, err)
	}

	mediaByKey := make(map[string]media, len(timeline.Includes.Media))
	for _, m := range timeline.Includes.Media {
		mediaByKey[m.MediaKey] = m
	}

	items := make([]models.RawItem, 0, len(timeline.Data))
	for _, t := range timeline.Data {
		item := models.RawItem{
			ContentID:       t.ID,
			Text:            t.Text,
			URL:             fmt.Sprintf("https://twitter.com/%s/status/%s", account.Username, t.ID),
			PublishedAt:     t.CreatedAt,
			Engagement:      t.PublicMetrics.LikeCount,
			AccountName:     account.Name,
			AccountLanguage: account.Language,
		}
		for _, key := range t.Attachments.MediaKeys {
			m, ok := mediaByKey[key]
			if !ok {
				continue
			}
			if m.Type == "photo" && m.URL != "" {
				item.MediaURL, item.MediaKind = m.URL, models.MediaKindImage
				break
			}
			if m.PreviewImageURL != "" {
				item.MediaURL, item.MediaKind = m.PreviewImageURL, models.MediaKindVideo
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// lookupUserID resolves a handle to its numeric id, cached for a day
func (c *Client) lookupUserID(ctx context.Context, username string) (string, error) {
	if id, ok := c.userIDs.Get(username); ok {
		return id.(string), nil
	}

	var user userResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"/users/by/username/"+url.PathEscape(username), nil, &user); err != nil {
		return "", fmt.Errorf("failed to look up @%s: %w", username, err)
	}
	if user.Data.ID == "" {
		return "", fmt.Errorf("user @%s not found", username)
	}

	c.userIDs.Set(username, user.Data.ID, cache.DefaultExpiration)
	c.logger.Debug().Str("username", username).Str("user_id", user.Data.ID).Msg("Resolved Twitter user")
	return user.Data.ID, nil
}

// Package telegram relays notifications to a Telegram channel through the Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// Bot API limit for photo captions
	maxCaptionLength = 1024
)

// ErrNotConfigured is returned by the noop sender
var ErrNotConfigured = errors.New("telegram is not configured")

// Sender delivers rendered notifications
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
	Enabled() bool
}

// NewSender builds a Bot API sender when a token and channel are configured,
// and a noop sender otherwise
func NewSender(cfg *config.Config) Sender {
	token := strings.TrimSpace(cfg.TelegramBotToken)
	channel := strings.TrimSpace(cfg.TelegramChannelID)
	if token == "" || channel == "" {
		return noopSender{}
	}

	timeout := cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		channelID:  channel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type noopSender struct{}

func (noopSender) Send(context.Context, models.Notification) error { return ErrNotConfigured }
func (noopSender) Enabled() bool { return false }

// Client posts to one channel
type Client struct {
	baseURL    string
	token      string
	channelID  string
	httpClient *http.Client
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Enabled reports that the client can deliver
func (c *Client) Enabled() bool {
	return true
}

// Send posts the notification as a photo with caption when it carries media
// that fits a caption, and as a plain HTML message otherwise
func (c *Client) Send(ctx context.Context, n models.Notification) error {
	form := url.Values{}
	form.Set("chat_id", c.channelID)
	form.Set("parse_mode", "HTML")

	method := "sendMessage"
	if n.MediaURL != "" && utf8.RuneCountInString(n.Text) <= maxCaptionLength {
		method = "sendPhoto"
		form.Set("photo", n.MediaURL)
		form.Set("caption", n.Text)
	} else {
		form.Set("text", n.Text)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var result apiResponse
	_ = json.Unmarshal(body, &result)
	if resp.StatusCode != http.StatusOK || !result.OK {
		if result.Description == "" {
			result.Description = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("telegram %s returned %d: %s", method, resp.StatusCode, result.Description)
	}

	return nil
}

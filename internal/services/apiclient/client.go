// Package apiclient is the rate-limited HTTP transport shared by the
// platform clients.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Client issues GET requests against one platform API
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
}

// New creates a client allowing limit requests per period with the given timeout
func New(timeout time.Duration, limit int, period time.Duration) *Client {
	every, burst := rate.Inf, 1
	if limit > 0 && period > 0 {
		// The bucket holds a full period's quota and refills evenly
		every, burst = rate.Every(period/time.Duration(limit)), limit
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(every, burst),
		headers:    make(map[string]string),
	}
}

// SetHeader adds a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Get fetches rawURL with query params and returns the body of a 200 response
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RequestError{Kind: KindRateLimited, URL: rawURL, Cause: err}
	}

	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, URL: rawURL, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, URL: rawURL, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, classifyStatus(resp.StatusCode, rawURL, string(body))
	}

	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	body, err := c.Get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Kind: KindDecode, URL: rawURL, Cause: err}
	}
	return nil
}

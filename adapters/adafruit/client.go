// Package adafruit implements the client for the upstream cloud feed
// service (Adafruit IO compatible API).
package adafruit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public Adafruit IO endpoint.
	DefaultBaseURL = "https://io.adafruit.com/api/v2"

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
)

// DataPoint is one record returned by the upstream feed API, ordered
// most-recent-first in list responses.
type DataPoint struct {
	ID           string    `json:"id"`
	Value        string    `json:"value"`
	FeedID       int64     `json:"feed_id"`
	FeedKey      string    `json:"feed_key"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedEpoch int64     `json:"created_epoch"`
	Expiration   string    `json:"expiration"`
}

// Client talks to the upstream feed service. All calls carry an
// explicit timeout and retry transient failures with exponential
// backoff; 4xx responses are terminal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	key        string
	maxRetries uint64
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects the underlying HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the upstream endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithMaxRetries overrides the retry budget for transient failures.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient creates an upstream feed client for the given account.
func NewClient(username, key string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		username:   username,
		key:        key,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchData returns up to limit records of the feed, most recent first.
// Offset pages further back into the feed's history.
func (c *Client) FetchData(ctx context.Context, feedKey string, limit, offset int) ([]DataPoint, error) {
	endpoint := fmt.Sprintf("%s/%s/feeds/%s/data", c.baseURL, c.username, url.PathEscape(feedKey))

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	endpoint += "?" + query.Encode()

	var points []DataPoint
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-AIO-Key", c.key)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("feed data request failed: %w", err)
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}

		points = points[:0]
		if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode feed data: %w", err))
		}
		return nil
	}

	if err := c.retry(ctx, operation, feedKey); err != nil {
		return nil, err
	}
	return points, nil
}

// CreateData publishes a value to the feed. The dashboard uses this to
// issue actuator commands.
func (c *Client) CreateData(ctx context.Context, feedKey, value string) error {
	endpoint := fmt.Sprintf("%s/%s/feeds/%s/data", c.baseURL, c.username, url.PathEscape(feedKey))

	body, err := json.Marshal(map[string]string{"value": value})
	if err != nil {
		return err
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-AIO-Key", c.key)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("feed data publish failed: %w", err)
		}
		defer resp.Body.Close()

		return checkStatus(resp)
	}

	return c.retry(ctx, operation, feedKey)
}

func (c *Client) retry(ctx context.Context, operation backoff.Operation, feedKey string) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Retrying upstream feed call",
			zap.String("feed_key", feedKey),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	return backoff.RetryNotify(operation, policy, notify)
}

// checkStatus classifies a response: 2xx passes, 4xx is permanent,
// everything else is transient and retried.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	err := fmt.Errorf("upstream returned %d: %s", resp.StatusCode, snippet)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}

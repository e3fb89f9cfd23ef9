// Package wordpress lists blog posts from a WordPress REST API.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
	"github.com/wayfarer-labs/wayfarer/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.PostSource = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultRate is the proactive throttle (requests per second)
	// applied to the blog's REST API.
	DefaultRate = 2.0
)

// invalidPageCode is returned by WordPress when the requested page is
// past the end of the listing. It marks the pagination stop, not a
// fetch failure.
const invalidPageCode = "rest_post_invalid_page_number"

// Config holds configuration for the WordPress client.
type Config struct {
	// BaseURL is the blog root, e.g. https://example.com (required).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond throttles listing calls (default: 2).
	RequestsPerSecond float64
}

// Client fetches posts from the WordPress REST posts listing.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// post is the WordPress REST posts response format, narrowed to the
// fields requested via _fields.
type post struct {
	ID    int64  `json:"id"`
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

// restError is the WordPress REST error envelope.
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient creates a new WordPress client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wordpress: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRate
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// ListPosts fetches one page of posts. A page past the end of the
// listing returns an empty slice; any other non-success status is an
// error wrapping domain.ErrUpstreamFetch.
func (c *Client) ListPosts(ctx context.Context, page, perPage int) ([]domain.Document, error) {
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("%w: page and per_page must be positive", domain.ErrInvalidInput)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("_fields", "id,link,title,content")

	endpoint := c.baseURL + "/wp-json/wp/v2/posts?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrUpstreamFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		var restErr restError
		if json.Unmarshal(body, &restErr) == nil && restErr.Code == invalidPageCode {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFetch, resp.StatusCode, string(body))
	}

	var posts []post
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrUpstreamFetch, err)
	}

	docs := make([]domain.Document, 0, len(posts))
	for _, p := range posts {
		docs = append(docs, domain.Document{
			ID:    p.ID,
			URL:   p.Link,
			Title: p.Title.Rendered,
			Body:  p.Content.Rendered,
		})
	}
	return docs, nil
}

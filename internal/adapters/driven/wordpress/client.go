// Package wordpress provides the content source adapter for the WordPress
// REST API.
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driven"
	"github.com/quillstack-labs/wpask-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ContentSource = (*Client)(nil)

// Default configuration values.
const (
	// DefaultTimeout bounds a single HTTP attempt; each retry gets its own.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryBaseDelay is the first backoff step; it doubles per attempt.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultMaxAttempts bounds attempts per Search call (1 initial + retries).
	DefaultMaxAttempts = 3

	// requestsPerSecond throttles calls proactively so the interactive loop
	// cannot hammer the site (100ms spacing).
	requestsPerSecond = 10

	// perPageCap is the WordPress REST API maximum for per_page.
	perPageCap = 100
)

// Config holds configuration for the WordPress client.
type Config struct {
	// BaseURL is the content endpoint URL (required).
	BaseURL string

	// Username and Password are the Basic Auth credentials (required).
	Username string
	Password string

	// Timeout is the per-attempt bound (default 30s); retries are timed
	// separately. Exceeding it reports the source as unavailable.
	Timeout time.Duration

	// RetryBaseDelay is the initial backoff delay (default 500ms).
	// Tests set this low to avoid real sleeps.
	RetryBaseDelay time.Duration

	// MaxAttempts is the attempt bound per call (default 3).
	MaxAttempts int
}

// Client searches WordPress content over the REST API. It owns network
// retry, backoff, rate limiting and the per-call timeout for a single
// upstream call; it never filters results by relevance.
type Client struct {
	client         *http.Client
	baseURL        string
	username       string
	password       string
	timeout        time.Duration
	retryBaseDelay time.Duration
	maxAttempts    int
	limiter        *rate.Limiter
}

// NewClient creates a WordPress client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wordpress: base URL is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("wordpress: credentials are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	return &Client{
		client:         &http.Client{Timeout: cfg.Timeout},
		baseURL:        cfg.BaseURL,
		username:       cfg.Username,
		password:       cfg.Password,
		timeout:        cfg.Timeout,
		retryBaseDelay: cfg.RetryBaseDelay,
		maxAttempts:    cfg.MaxAttempts,
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// contentItem is the wire shape of one entry in the upstream list payload.
type contentItem struct {
	ID      json.Number     `json:"id"`
	Title   string          `json:"title"`
	Excerpt string          `json:"excerpt"`
	Content string          `json:"content"`
	URL     string          `json:"url"`
	Date    string          `json:"date"`
	Author  json.RawMessage `json:"author"`
	Type    string          `json:"type"`
	Slug    string          `json:"slug"`
}

// Search returns at most limit records in upstream order. Transient network
// failures are retried with exponential backoff; credential rejection is
// never retried.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.ContentRecord, error) {
	if limit < 1 {
		limit = 1
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.retryBaseDelay << (attempt - 1)
			logger.Debug("WordPress retry %d/%d in %v", attempt, c.maxAttempts-1, backoff)
			select {
			case <-ctx.Done():
				return nil, domain.NewQueryError(domain.KindSourceUnavailable, "request cancelled", ctx.Err())
			case <-time.After(backoff):
			}
		}

		records, err := c.fetch(ctx, query, limit)
		if err == nil {
			return records, nil
		}
		lastErr = err

		var qe *domain.QueryError
		if errors.As(err, &qe) && !qe.Kind.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// fetch performs one GET against the content endpoint.
func (c *Client) fetch(ctx context.Context, query string, limit int) ([]domain.ContentRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.NewQueryError(domain.KindSourceUnavailable, "request cancelled", err)
	}

	perPage := limit
	if perPage > perPageCap {
		perPage = perPageCap
	}
	params := url.Values{
		"search":         {query},
		"content_format": {"plain"},
		"per_page":       {strconv.Itoa(perPage)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, domain.NewQueryError(domain.KindSourceProtocolError, "building request failed", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewQueryError(domain.KindSourceUnavailable,
			"WordPress API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.Errorf(domain.KindSourceAuthError,
			"WordPress API rejected the credentials (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.Errorf(domain.KindSourceProtocolError,
			"WordPress API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewQueryError(domain.KindSourceUnavailable, "reading response failed", err)
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, domain.NewQueryError(domain.KindSourceProtocolError,
			"WordPress API returned a non-list payload", err)
	}

	records := make([]domain.ContentRecord, 0, len(items))
	for _, item := range items {
		rec := mapRecord(item)
		if !rec.Citable() {
			// A record that cannot be cited must never surface.
			logger.Warn("Dropping uncitable record (id=%q url=%q)", rec.ID, rec.URL)
			continue
		}
		records = append(records, rec)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}

// mapRecord converts a wire item into the domain representation.
func mapRecord(item contentItem) domain.ContentRecord {
	contentType := item.Type
	if contentType == "" {
		contentType = "post"
	}
	return domain.ContentRecord{
		ID:      item.ID.String(),
		Title:   item.Title,
		Excerpt: item.Excerpt,
		Content: item.Content,
		URL:     item.URL,
		Author:  authorName(item.Author),
		Date:    item.Date,
		Type:    contentType,
		Slug:    item.Slug,
	}
}

// authorName extracts a display name from the author field, which the API
// serves either as an object or not at all.
func authorName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "Unknown"
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return obj.Name
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
		return plain
	}
	return "Unknown"
}

// Ping validates the endpoint is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.NewQueryError(domain.KindSourceUnavailable, "request cancelled", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?per_page=1", http.NoBody)
	if err != nil {
		return domain.NewQueryError(domain.KindSourceProtocolError, "building request failed", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.NewQueryError(domain.KindSourceUnavailable, "WordPress API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.Errorf(domain.KindSourceAuthError,
			"WordPress API rejected the credentials (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Errorf(domain.KindSourceProtocolError,
			"WordPress API returned status %d", resp.StatusCode)
	}
	return nil
}

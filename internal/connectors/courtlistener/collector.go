// Package courtlistener provides a collector fetching court opinions
// from the CourtListener REST API with cursor pagination and client-side
// rate limiting.
package courtlistener

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

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/logger"
)

// Ensure Collector implements the interface.
var _ driven.Collector = (*Collector)(nil)

// Defaults for the API client.
const (
	DefaultBaseURL  = "https://www.courtlistener.com/api/rest/v4"
	DefaultPageSize = 20

	// DefaultRequestsPerSecond stays well under the API's documented
	// throttle for authenticated clients.
	DefaultRequestsPerSecond = 2
)

// SourceName is the source recorded on collected documents.
const SourceName = "courtlistener"

// Collector pages through the opinions endpoint.
type Collector struct {
	baseURL  string
	apiToken string
	court    string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
}

// Option configures the collector.
type Option func(*Collector)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Collector) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIToken sets the authorization token sent with every request.
func WithAPIToken(token string) Option {
	return func(c *Collector) { c.apiToken = token }
}

// WithCourt restricts collection to one court identifier, e.g. "scotus".
func WithCourt(court string) Option {
	return func(c *Collector) { c.court = court }
}

// WithPageSize sets the page size requested from the API.
func WithPageSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRequestsPerSecond overrides the client-side rate limit.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Collector) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates a CourtListener collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the collector name.
func (c *Collector) Name() string { return SourceName }

// Metadata describes the collector configuration. The API token is
// deliberately absent.
func (c *Collector) Metadata() map[string]any {
	return map[string]any{
		"base_url":  c.baseURL,
		"court":     c.court,
		"page_size": c.pageSize,
	}
}

// opinion is the subset of the API's opinion resource we consume.
type opinion struct {
	ID          int    `json:"id"`
	PlainText   string `json:"plain_text"`
	DateCreated string `json:"date_created"`
	DownloadURL string `json:"download_url"`
	AbsoluteURL string `json:"absolute_url"`
	Type        string `json:"type"`
}

// page is one cursor-paginated API response.
type page struct {
	Count   int       `json:"count"`
	Next    string    `json:"next"`
	Results []opinion `json:"results"`
}

// Collect fetches up to limit opinions (limit <= 0 follows pagination
// to the end). Opinions without plain text are skipped.
func (c *Collector) Collect(ctx context.Context, limit int) ([]domain.RawDocument, error) {
	pageURL, err := c.firstPageURL()
	if err != nil {
		return nil, err
	}

	var docs []domain.RawDocument
	skipped := 0
	for pageURL != "" {
		if limit > 0 && len(docs) >= limit {
			break
		}

		pg, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return docs, err
		}

		for _, op := range pg.Results {
			if limit > 0 && len(docs) >= limit {
				break
			}
			if strings.TrimSpace(op.PlainText) == "" {
				skipped++
				continue
			}
			sourceID := strconv.Itoa(op.ID)
			docs = append(docs, domain.RawDocument{
				ID:       fmt.Sprintf("%s:%s", SourceName, sourceID),
				Text:     op.PlainText,
				Source:   SourceName,
				SourceID: sourceID,
				Metadata: map[string]any{
					"date_created": op.DateCreated,
					"download_url": op.DownloadURL,
					"absolute_url": op.AbsoluteURL,
					"type":         op.Type,
					"court":        c.court,
				},
			})
		}
		pageURL = pg.Next
	}

	if skipped > 0 {
		logger.Warn("courtlistener: skipped %d opinions without plain text", skipped)
	}
	logger.Debug("courtlistener: collected %d documents", len(docs))
	return docs, nil
}

func (c *Collector) firstPageURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/opinions/")
	if err != nil {
		return "", fmt.Errorf("base url: %w", err)
	}
	q := u.Query()
	q.Set("page_size", strconv.Itoa(c.pageSize))
	if c.court != "" {
		q.Set("cluster__docket__court", c.court)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchPage performs one rate-limited API request.
func (c *Collector) fetchPage(ctx context.Context, pageURL string) (*page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Token "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", pageURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pg page
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", pageURL, err)
	}
	return &pg, nil
}

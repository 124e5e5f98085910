package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const searchLimit = 100

type Options struct {
	BaseURL        string
	APIKey         string
	RateLimit      rate.Limit
	Burst          int
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// CarbonmarkClient talks to the Carbonmark REST API. Every request waits on a
// shared limiter; network errors and 5xx responses are retried with backoff.
type CarbonmarkClient struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

func New(opts Options, log *zap.Logger) *CarbonmarkClient {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 10
	}
	if opts.BackoffInitial == 0 {
		opts.BackoffInitial = 250 * time.Millisecond
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &CarbonmarkClient{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(opts.RateLimit, opts.Burst),
		log:        log,
	}
}

type idEntry struct {
	ID string `json:"id"`
}

// Countries returns the country ids known to the marketplace.
func (c *CarbonmarkClient) Countries(ctx context.Context) ([]string, error) {
	var entries []idEntry
	if err := c.getJSON(ctx, "/countries", nil, &entries); err != nil {
		return nil, err
	}
	return ids(entries), nil
}

// Categories returns the methodology category ids.
func (c *CarbonmarkClient) Categories(ctx context.Context) ([]string, error) {
	var entries []idEntry
	if err := c.getJSON(ctx, "/categories", nil, &entries); err != nil {
		return nil, err
	}
	return ids(entries), nil
}

func (c *CarbonmarkClient) Search(ctx context.Context, f domain.SearchFilter) (*domain.SearchResult, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(searchLimit))
	if f.Country != "" {
		q.Set("country", f.Country)
	}
	if f.Methodology != "" {
		q.Set("category", f.Methodology)
	}
	if f.Name != "" {
		q.Set("name", f.Name)
	}

	var res domain.SearchResult
	if err := c.getJSON(ctx, "/carbonProjects", q, &res); err != nil {
		return nil, err
	}
	if res.Items == nil {
		res.Items = []domain.Project{}
	}
	for i := range res.Items {
		res.Items[i].Normalize()
	}
	if res.ItemsCount == 0 {
		res.ItemsCount = len(res.Items)
	}
	return &res, nil
}

func (c *CarbonmarkClient) Project(ctx context.Context, id string) (*domain.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrProjectNotFound
	}

	var p domain.Project
	if err := c.getJSON(ctx, "/carbonProjects/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (c *CarbonmarkClient) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	backoff := c.opts.BackoffInitial
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		body, status, err := c.do(ctx, u)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		case status == http.StatusNotFound:
			return domain.ErrProjectNotFound
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, status, truncate(body))
		case status < 200 || status >= 300:
			return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, status, truncate(body))
		default:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: decode %s: %v", domain.ErrUpstream, path, err)
			}
			return nil
		}

		if attempt < c.opts.MaxRetries {
			c.log.Warn("marketplace request failed, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * 1.5)
				if backoff > c.opts.BackoffMax {
					backoff = c.opts.BackoffMax
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

func (c *CarbonmarkClient) do(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func ids(entries []idEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			out = append(out, e.ID)
		}
	}
	return out
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

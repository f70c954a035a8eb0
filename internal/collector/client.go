// Package collector fetches project data from the portfolio API and
// writes date-named snapshot files. All endpoints share one rate-limit
// cooldown: when any request sees a 429, every in-flight worker waits
// out the server-provided Retry-After before issuing anything else.
package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the server's documented page_size ceiling.
	DefaultPageSize = 100

	// DefaultRetryWait applies when a 429 carries no usable Retry-After.
	DefaultRetryWait = 5 * time.Second

	// DefaultMaxRetries bounds 429 retries per request. The source
	// behavior retried forever; a terminal ErrRateLimitExceeded is
	// safer for unattended runs.
	DefaultMaxRetries = 5

	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 10 * 1024 * 1024
)

// Client is an authenticated HTTP client for the portfolio API.
type Client struct {
	httpc      *http.Client
	baseURL    string
	authScheme string
	token      string
	pageSize   int
	maxRetries int
	retryWait  time.Duration

	cooldown *cooldown
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpc = h } }

// WithLogger attaches a logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithPageSize sets the page_size query parameter for paginated calls.
func WithPageSize(n int) Option { return func(c *Client) { c.pageSize = n } }

// WithMaxRetries bounds how many times a single request retries on 429.
func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }

// WithSleeper injects the wait function used for rate-limit cooldowns.
// Tests use this to run against a simulated clock.
func WithSleeper(f func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = f }
}

// WithClock injects the time source paired with WithSleeper.
func WithClock(f func() time.Time) Option { return func(c *Client) { c.now = f } }

// NewClient builds a Client for the given API root. The auth scheme and
// token are configuration, not protocol: an odd-looking token only logs
// a warning, it never blocks the run.
func NewClient(baseURL, authScheme, token string, opts ...Option) *Client {
	c := &Client{
		httpc:      &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		authScheme: authScheme,
		token:      token,
		pageSize:   DefaultPageSize,
		maxRetries: DefaultMaxRetries,
		retryWait:  DefaultRetryWait,
		cooldown:   &cooldown{},
		sleep:      sleepCtx,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if strings.ContainsAny(token, " \t\n") || len(token) < 16 {
		c.log.Warn("API token has an unexpected shape, continuing anyway",
			zap.Int("length", len(token)))
	}
	return c
}

// getJSON issues one GET and decodes the body into dynamic JSON values.
// 429 responses arm the shared cooldown and retry the same request up
// to the retry budget; any other non-2xx status is an UpstreamError.
func (c *Client) getJSON(ctx context.Context, rawURL string) (any, error) {
	for attempt := 0; ; attempt++ {
		if err := c.awaitCooldown(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request %s: %w", rawURL, err)
		}
		req.Header.Set("Authorization", c.authScheme+" "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", rawURL, err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response %s: %w", rawURL, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header, body, c.retryWait)
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("%s after %d attempts: %w", rawURL, attempt+1, ErrRateLimitExceeded)
			}
			c.log.Warn("rate limited, pausing all workers",
				zap.String("url", rawURL),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1))
			c.cooldown.arm(c.now(), wait)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &UpstreamError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
		}

		doc, err := oj.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("decode response %s: %w", rawURL, err)
		}
		return doc, nil
	}
}

// awaitCooldown blocks until the shared rate-limit cooldown has passed.
func (c *Client) awaitCooldown(ctx context.Context) error {
	for {
		rem := c.cooldown.remaining(c.now())
		if rem <= 0 {
			return nil
		}
		if err := c.sleep(ctx, rem); err != nil {
			return err
		}
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// retryAfter extracts the wait from the Retry-After header, falling back
// to a retry_after field in a JSON error body, then to the default.
func retryAfter(h http.Header, body []byte, fallback time.Duration) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	if doc, err := oj.Parse(body); err == nil {
		if m, ok := doc.(map[string]any); ok {
			switch v := m["retry_after"].(type) {
			case int64:
				if v > 0 {
					return time.Duration(v) * time.Second
				}
			case float64:
				if v > 0 {
					return time.Duration(v * float64(time.Second))
				}
			case string:
				if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
					return time.Duration(secs * float64(time.Second))
				}
			}
		}
	}
	return fallback
}

// cooldown is the shared rate-limit gate. Arming it pushes the deadline
// forward for every caller, so concurrent workers pause together
// instead of retrying independently.
type cooldown struct {
	mu    sync.Mutex
	until time.Time
}

func (cd *cooldown) arm(now time.Time, d time.Duration) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	if t := now.Add(d); t.After(cd.until) {
		cd.until = t
	}
}

func (cd *cooldown) remaining(now time.Time) time.Duration {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.until.Sub(now)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package helius talks to the Helius REST API: token metadata lookups for
// the metadata cache and webhook registration at startup.
package helius

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/brojonat/burnwatch/service/solana"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

// DefaultBaseURL is the public Helius API endpoint.
const DefaultBaseURL = "https://api.helius.xyz"

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 600 // requests per minute
)

var (
	// ErrInvalidMint is returned before any request is made for a mint that
	// is not a valid base58 public key.
	ErrInvalidMint = errors.New("invalid mint address")

	// ErrNotFound is returned when the provider has no record of the resource.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("helius: status %d", e.StatusCode)
	}
	return fmt.Sprintf("helius: status %d: %s", e.StatusCode, e.Body)
}

// Client is a rate limited Helius API client.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	apiKey  string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request, including the time spent waiting on the
// rate limiter.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the request budget in requests per minute.
// A non-positive value disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
	}
}

// WithMetrics records provider call durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the transport used by resty.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc)
		}
	}
}

// NewClient creates a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		http:    resty.New(),
		apiKey:  apiKey,
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	WithRateLimit(defaultRateLimit)(c)
	for _, opt := range opts {
		opt(c)
	}

	c.http.
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetQueryParam("api-key", c.apiKey).
		AddRequestMiddleware(func(_ *resty.Client, r *resty.Request) error {
			waitCtx, cancel := context.WithTimeout(r.Context(), c.timeout)
			defer cancel()

			if err := c.limiter.Wait(waitCtx); err != nil {
				c.logger.Warn("rate limiter wait failed", "error", err)
				return err
			}
			return nil
		})

	return c
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

type tokenMetadataResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals *int   `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// FetchTokenInfo looks up display metadata for a mint. Absent fields take
// the placeholder defaults; an explicit zero decimals value is kept.
func (c *Client) FetchTokenInfo(ctx context.Context, mint string) (solana.TokenInfo, error) {
	if err := solana.ValidateAddress(mint); err != nil {
		return solana.TokenInfo{}, fmt.Errorf("%w: %s", ErrInvalidMint, mint)
	}

	start := time.Now()
	var out tokenMetadataResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("mint", mint).
		SetResult(&out).
		Get("/v0/token-metadata")
	err = checkResponse(resp, err)
	c.metrics.RecordMetadataFetch(err, time.Since(start).Seconds())
	if err != nil {
		return solana.TokenInfo{}, fmt.Errorf("fetch token metadata for %s: %w", mint, err)
	}

	info := solana.PlaceholderTokenInfo(mint)
	if out.Name != "" {
		info.Name = out.Name
	}
	if out.Symbol != "" {
		info.Symbol = out.Symbol
	}
	if out.Decimals != nil {
		info.Decimals = *out.Decimals
	}
	info.LogoURI = out.LogoURI
	return info, nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	return nil
}

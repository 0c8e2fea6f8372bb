// Package yahoo implements the marketdata.Provider contract against the
// Yahoo Finance v8/v10 JSON endpoints: chart for single-symbol history,
// spark for batched multi-symbol history, quoteSummary for fundamentals.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mercadash/internal/logging"
	"mercadash/internal/marketdata"
)

const (
	defaultBaseURL              = "https://query1.finance.yahoo.com"
	defaultRateLimitPerSec      = 5
	defaultMaxSymbolsPerRequest = 20
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Yahoo Finance JSON API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	limiter    *rate.Limiter
	logger     zerolog.Logger
	// maxSymbolsPerRequest splits large spark symbol lists into chunks.
	maxSymbolsPerRequest int
}

var _ marketdata.Provider = (*Client)(nil)

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithHeader adds headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMaxSymbolsPerRequest sets the spark chunk size.
func WithMaxSymbolsPerRequest(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxSymbolsPerRequest = n
		}
	}
}

// NewClient creates a new Yahoo Finance client.
func NewClient(options ...Option) *Client {
	c := &Client{
		baseURL:              defaultBaseURL,
		httpClient:           http.DefaultClient,
		header:               http.Header{},
		limiter:              rate.NewLimiter(rate.Limit(defaultRateLimitPerSec), defaultRateLimitPerSec),
		logger:               logging.NewSilent(),
		maxSymbolsPerRequest: defaultMaxSymbolsPerRequest,
	}
	// Yahoo rejects requests without a browser-like agent.
	c.header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) mercadash/1.0")
	for _, option := range options {
		option(c)
	}
	return c
}

var errStatus = errors.New("unexpected status")

// getJSON performs a rate-limited GET of path (with query) and decodes the
// body into out. A 404 is reported as marketdata.ErrNoData; other non-2xx
// statuses and decode failures become *marketdata.UpstreamError.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &marketdata.UpstreamError{Endpoint: path, Err: err}
	}
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return &marketdata.UpstreamError{Endpoint: path, Err: err}
	}
	req.Header = c.header.Clone()

	c.logger.Debug().Str("url", reqURL).Msg("yahoo request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &marketdata.UpstreamError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return marketdata.ErrNoData
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &marketdata.UpstreamError{Endpoint: path, StatusCode: resp.StatusCode, Err: errStatus}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &marketdata.UpstreamError{Endpoint: path, Err: err}
	}
	return nil
}

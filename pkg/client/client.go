// Package client provides the core PokeAPI HTTP client: plain GET requests
// against a fixed upstream base, classified failures and typed JSON decoding.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex-web/pkg/logging"
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Prometheus metrics for upstream operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_upstream_requests_total",
		Help: "Total upstream requests by resource and status",
	}, []string{"resource", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokedex_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by resource",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"resource"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})

	upstreamDecodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_upstream_decode_errors_total",
		Help: "Total upstream payloads rejected at the decode boundary by kind",
	}, []string{"kind"})
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents non-2xx statuses outside 4xx/5xx.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// Validator is implemented by upstream records that check their own shape
// after decoding.
type Validator interface {
	Validate() error
}

// Client is the upstream PokeAPI client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the upstream API root, e.g. "https://pokeapi.co/api/v2".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout for a whole request. Zero disables it; callers rely on
	// context cancellation instead.
	Timeout time.Duration

	// Transport tuning
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

// DefaultConfig returns the default configuration for the public PokeAPI.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		UserAgent:           userAgent,
		Timeout:             0,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		// listing fan-out opens up to 300 requests to one host
		MaxIdleConnsPerHost: 64,
	}
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	logger := logging.NewLogger("pokeapi-client")

	return &Client{
		httpClient: newHTTPClient(cfg),
		baseURL:    base,
		config:     cfg,
		logger:     logger,
	}, nil
}

func newHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.Timeout,
	}
}

// Do performs an HTTP request and classifies the outcome. Any transport
// error or non-2xx status is returned as *UpstreamError and the response
// body is closed. There is no retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resource := c.resourceLabel(req.URL)

	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("url", req.URL.String()).
		Str("resource", resource).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// cancellation is the caller's decision, not an upstream failure
		if ctxErr := req.Context().Err(); ctxErr != nil {
			upstreamRequestsTotal.WithLabelValues(resource, "cancelled").Inc()
			return nil, ctxErr
		}

		errClass := c.classifyError(nil, err)
		upstreamErrorsTotal.WithLabelValues(string(errClass)).Inc()
		upstreamRequestsTotal.WithLabelValues(resource, "network_error").Inc()
		c.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Upstream request failed")

		return nil, &UpstreamError{
			ErrorClass: errClass,
			URL:        req.URL.String(),
			Message:    "transport error",
			Err:        err,
		}
	}

	upstreamRequestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()

		errClass := c.classifyError(resp, nil)
		upstreamErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			URL:        req.URL.String(),
			Message:    resp.Status,
		}
	}

	return resp, nil
}

// Get performs a GET request. Relative paths are resolved against the base
// URL; absolute URLs (reference items returned by the upstream) are used as is.
func (c *Client) Get(ctx context.Context, pathOrURL string) (*http.Response, error) {
	target, err := c.resolve(pathOrURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetJSON performs a GET request and decodes the body into v, then runs the
// record's own shape validation. Decode and validation failures are
// returned as *DecodeError.
func (c *Client) GetJSON(ctx context.Context, pathOrURL string, v Validator) error {
	target, err := c.resolve(pathOrURL)
	if err != nil {
		return err
	}

	resp, err := c.Get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		upstreamDecodeErrorsTotal.WithLabelValues(string(DecodeKindSyntax)).Inc()
		return &DecodeError{URL: target, Kind: DecodeKindSyntax, Err: err}
	}

	if err := v.Validate(); err != nil {
		upstreamDecodeErrorsTotal.WithLabelValues(string(DecodeKindShape)).Inc()
		c.logger.Warn().Err(err).Str("url", target).Msg("Upstream payload failed validation")
		return &DecodeError{URL: target, Kind: DecodeKindShape, Err: err}
	}

	return nil
}

// BaseURL returns the configured upstream root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) resolve(pathOrURL string) (string, error) {
	if pathOrURL == "" {
		return "", errors.New("empty request target")
	}

	u, err := url.Parse(pathOrURL)
	if err != nil {
		return "", fmt.Errorf("parse request target: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}

	return c.baseURL.String() + "/" + strings.TrimLeft(pathOrURL, "/"), nil
}

// resourceLabel maps a request URL to its first path segment below the base
// path ("pokemon", "type", ...) to keep metric cardinality bounded.
func (c *Client) resourceLabel(u *url.URL) string {
	p := strings.TrimPrefix(u.Path, c.baseURL.Path)
	p = strings.Trim(p, "/")
	if p == "" {
		return "root"
	}
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return ErrorClassUnexpected
	default:
		return ""
	}
}

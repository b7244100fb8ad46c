// Package httpclient is the shared JSON client behind the CRM and telephony
// integrations: per-client rate limiting, exponential backoff on 429 and 5xx,
// and OpenTelemetry client spans.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize caps how much of a response body is read (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	DefaultMaxRetries = 4
	DefaultBaseDelay  = 400 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
)

// Config describes one remote API
type Config struct {
	Service   string
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 for unlimited
	Burst     int
}

// Client sends JSON requests to one remote API
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	header     http.Header
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBackoff overrides the retry schedule
func WithBackoff(maxRetries int, base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = base
		c.maxDelay = maxDelay
	}
}

// WithHeader adds a header sent on every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     zap.NewNop(),
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		header:     make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the name used in errors and logs
func (c *Client) Service() string {
	return c.cfg.Service
}

// Request is one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Get issues a GET and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Do sends req, retrying 429 and 5xx responses with exponential backoff.
// Any other non-2xx status fails at once. out may be nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return fmt.Errorf("%s: encode request: %w", c.cfg.Service, err)
		}
	}

	target := c.cfg.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	schedule := c.schedule()
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		resp, err := c.send(ctx, req.Method, target, payload)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(ctx.Err())
			}
			return struct{}{}, backoff.Permanent(&APIError{Service: c.cfg.Service, Err: fmt.Errorf("%w: %v", ErrRequestFailed, err)})
		}
		if resp.status >= 200 && resp.status < 300 {
			if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
				return struct{}{}, nil
			}
			if err := json.Unmarshal(resp.body, out); err != nil {
				return struct{}{}, backoff.Permanent(&APIError{Service: c.cfg.Service, StatusCode: resp.status, Body: truncate(resp.body), Err: fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)})
			}
			return struct{}{}, nil
		}

		apiErr := &APIError{Service: c.cfg.Service, StatusCode: resp.status, Body: truncate(resp.body), Err: ErrRequestFailed}
		if !Retryable(resp.status) {
			return struct{}{}, backoff.Permanent(apiErr)
		}
		if attempt > c.maxRetries {
			apiErr.Err = ErrRetriesExhausted
		}
		schedule.retryAfter = resp.retryAfter
		return struct{}{}, apiErr
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(uint(max(c.maxRetries, 0)+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			c.logger.Warn("Retrying external API call",
				zap.String("service", c.cfg.Service),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt+1),
				zap.Int("status", StatusCode(err)),
				zap.Duration("delay", delay),
			)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

// retrySchedule is exponential backoff capped at the max delay. A longer
// Retry-After from the server wins once, under the same cap.
type retrySchedule struct {
	exp        *backoff.ExponentialBackOff
	maxDelay   time.Duration
	retryAfter time.Duration
}

func (c *Client) schedule() *retrySchedule {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.baseDelay
	exp.MaxInterval = c.maxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.Reset()
	return &retrySchedule{exp: exp, maxDelay: c.maxDelay}
}

func (s *retrySchedule) NextBackOff() time.Duration {
	delay := s.exp.NextBackOff()
	if delay <= 0 || delay > s.maxDelay {
		delay = s.maxDelay
	}
	if s.retryAfter > delay {
		delay = min(s.retryAfter, s.maxDelay)
	}
	s.retryAfter = 0
	return delay
}

func (s *retrySchedule) Reset() {
	s.exp.Reset()
	s.retryAfter = 0
}

type response struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range c.header {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	out := &response{status: resp.StatusCode, body: body}
	if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
		out.retryAfter = time.Duration(secs) * time.Second
	}
	return out, nil
}

// Retryable reports whether a status is worth another attempt
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

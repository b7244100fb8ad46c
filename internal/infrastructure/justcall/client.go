// Package justcall reads agents and call records from the JustCall API.
package justcall

import (
	"context"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kanva/portal/internal/infrastructure/config"
	"github.com/kanva/portal/internal/infrastructure/httpclient"
	"go.uber.org/zap"
)

// Client is a JustCall API client
type Client struct {
	http     *httpclient.Client
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// NewClient creates a JustCall client using basic auth with the API key and
// secret.
func NewClient(cfg config.JustCallConfig, logger *zap.Logger, opts ...httpclient.Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	auth := base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":" + cfg.APISecret))
	base := []httpclient.Option{
		httpclient.WithLogger(logger),
		httpclient.WithHeader("Authorization", "Basic "+auth),
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 100
	}
	return &Client{
		http: httpclient.New(httpclient.Config{
			Service:   "justcall",
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}, append(base, opts...)...),
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
	}
}

type page[T any] struct {
	Data []T `json:"data"`
}

// Users lists agents
func (c *Client) Users(ctx context.Context) ([]User, error) {
	query := url.Values{
		"page":     {"0"},
		"per_page": {strconv.Itoa(c.pageSize)},
		"order":    {"desc"},
	}
	var resp page[User]
	if err := c.http.Get(ctx, "/users", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UserByEmail finds an agent by email, case-insensitively. It returns nil
// when no agent matches.
func (c *Client) UserByEmail(ctx context.Context, email string) (*User, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, strings.TrimSpace(email)) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Calls returns every call of an agent within [start, end], paging until an
// empty or short page or the page cap.
func (c *Client) Calls(ctx context.Context, agentID int64, start, end time.Time) ([]Call, error) {
	var all []Call
	for p := 0; p < c.maxPages; p++ {
		query := url.Values{
			"agent_id":   {strconv.FormatInt(agentID, 10)},
			"start_date": {start.Format(time.DateOnly)},
			"end_date":   {end.Format(time.DateOnly)},
			"page":       {strconv.Itoa(p)},
			"per_page":   {strconv.Itoa(c.pageSize)},
		}
		var resp page[Call]
		if err := c.http.Get(ctx, "/calls", query, &resp); err != nil {
			return all, err
		}
		all = append(all, resp.Data...)
		if len(resp.Data) < c.pageSize {
			return all, nil
		}
	}
	c.logger.Warn("JustCall pagination stopped at page cap",
		zap.Int64("agent_id", agentID),
		zap.Int("max_pages", c.maxPages),
		zap.Int("fetched", len(all)),
	)
	return all, nil
}

// PeriodMetricsFor fetches an agent's calls by email and rolls them up for
// the period. An unknown agent yields empty metrics.
func (c *Client) PeriodMetricsFor(ctx context.Context, email string, start, end time.Time) (PeriodMetrics, CallMetrics, error) {
	user, err := c.UserByEmail(ctx, email)
	if err != nil {
		return PeriodMetrics{}, CallMetrics{}, err
	}
	if user == nil {
		c.logger.Warn("JustCall agent not found", zap.String("email", email))
		m := Metrics(nil)
		return RollUp(m, start, end), m, nil
	}
	calls, err := c.Calls(ctx, user.ID, start, end)
	if err != nil {
		return PeriodMetrics{}, CallMetrics{}, err
	}
	m := Metrics(calls)
	return RollUp(m, start, end), m, nil
}

// Package copper reads companies, opportunities and activities from the
// Copper CRM developer API.
package copper

import (
	"context"
	"time"

	"github.com/kanva/portal/internal/infrastructure/config"
	"github.com/kanva/portal/internal/infrastructure/httpclient"
	"go.uber.org/zap"
)

const (
	pathCompanies     = "/companies/search"
	pathOpportunities = "/opportunities/search"
	pathActivities    = "/activities/search"
)

// Client is a Copper API client
type Client struct {
	http     *httpclient.Client
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// NewClient creates a Copper client from configuration. Extra options are
// passed to the underlying HTTP client.
func NewClient(cfg config.CopperConfig, logger *zap.Logger, opts ...httpclient.Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := []httpclient.Option{
		httpclient.WithLogger(logger),
		httpclient.WithHeader("X-PW-AccessToken", cfg.AccessToken),
		httpclient.WithHeader("X-PW-Application", "developer_api"),
		httpclient.WithHeader("X-PW-UserEmail", cfg.UserEmail),
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Client{
		http: httpclient.New(httpclient.Config{
			Service:   "copper",
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}, append(base, opts...)...),
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
	}
}

// CompanyFilter narrows a company search
type CompanyFilter struct {
	ActiveOnly    bool
	ModifiedAfter time.Time
}

// OpportunityFilter narrows an opportunity search
type OpportunityFilter struct {
	AssigneeIDs []int64
	Status      string
	CloseFrom   time.Time
	CloseTo     time.Time
}

// ActivityFilter narrows an activity search
type ActivityFilter struct {
	UserIDs []int64
	TypeIDs []int64
	From    time.Time
	To      time.Time
}

// SearchCompanies returns every company matching the filter
func (c *Client) SearchCompanies(ctx context.Context, filter CompanyFilter) ([]Company, error) {
	body := map[string]any{"sort_by": "name"}
	if filter.ActiveOnly {
		body["custom_fields"] = []map[string]any{{
			"custom_field_definition_id": FieldActiveCustomer,
			"value":                      true,
		}}
	}
	if !filter.ModifiedAfter.IsZero() {
		body["minimum_modified_date"] = filter.ModifiedAfter.Unix()
	}
	return search[Company](ctx, c, pathCompanies, body)
}

// SearchOpportunities returns every opportunity matching the filter
func (c *Client) SearchOpportunities(ctx context.Context, filter OpportunityFilter) ([]Opportunity, error) {
	body := map[string]any{}
	if len(filter.AssigneeIDs) > 0 {
		body["assignee_ids"] = filter.AssigneeIDs
	}
	if filter.Status != "" {
		body["status"] = filter.Status
	}
	if !filter.CloseFrom.IsZero() {
		body["minimum_close_date"] = filter.CloseFrom.Unix()
	}
	if !filter.CloseTo.IsZero() {
		body["maximum_close_date"] = filter.CloseTo.Unix()
	}
	return search[Opportunity](ctx, c, pathOpportunities, body)
}

// SearchActivities returns every activity matching the filter
func (c *Client) SearchActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error) {
	body := map[string]any{}
	if len(filter.UserIDs) > 0 {
		body["user_ids"] = filter.UserIDs
	}
	if len(filter.TypeIDs) > 0 {
		types := make([]map[string]any, 0, len(filter.TypeIDs))
		for _, id := range filter.TypeIDs {
			types = append(types, map[string]any{"category": "user", "id": id})
		}
		body["activity_types"] = types
	}
	if !filter.From.IsZero() {
		body["minimum_activity_date"] = filter.From.Unix()
	}
	if !filter.To.IsZero() {
		body["maximum_activity_date"] = filter.To.Unix()
	}
	return search[Activity](ctx, c, pathActivities, body)
}

// search pages through a search endpoint until an empty or short page, or
// until the page cap is reached.
func search[T any](ctx context.Context, c *Client, path string, filter map[string]any) ([]T, error) {
	var all []T
	for page := 1; page <= c.maxPages; page++ {
		body := make(map[string]any, len(filter)+2)
		for k, v := range filter {
			body[k] = v
		}
		body["page_number"] = page
		body["page_size"] = c.pageSize

		var batch []T
		if err := c.http.Post(ctx, path, body, &batch); err != nil {
			return all, err
		}
		all = append(all, batch...)
		c.logger.Debug("Fetched Copper page",
			zap.String("path", path),
			zap.Int("page", page),
			zap.Int("count", len(batch)),
		)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
	c.logger.Warn("Copper pagination stopped at page cap",
		zap.String("path", path),
		zap.Int("max_pages", c.maxPages),
		zap.Int("fetched", len(all)),
	)
	return all, nil
}

package copper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/infrastructure/config"
	"github.com/kanva/portal/internal/infrastructure/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, pageSize, maxPages int, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CopperConfig{
		BaseURL:     srv.URL,
		AccessToken: "token",
		UserEmail:   "ops@kanva.test",
		PageSize:    pageSize,
		MaxPages:    maxPages,
	}, nil, httpclient.WithBackoff(1, time.Millisecond, time.Millisecond))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func companies(from, n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{"id": from + i, "name": fmt.Sprintf("Company %d", from+i)})
	}
	return out
}

func TestClient_SearchCompanies(t *testing.T) {
	t.Run("sends auth headers and pages until a short page", func(t *testing.T) {
		var pages atomic.Int32
		c := newTestClient(t, 2, 50, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/companies/search", r.URL.Path)
			assert.Equal(t, "token", r.Header.Get("X-PW-AccessToken"))
			assert.Equal(t, "developer_api", r.Header.Get("X-PW-Application"))
			assert.Equal(t, "ops@kanva.test", r.Header.Get("X-PW-UserEmail"))

			body := decodeBody(t, r)
			page := int(body["page_number"].(float64))
			assert.Equal(t, float64(2), body["page_size"])
			assert.Equal(t, int32(page), pages.Add(1))

			switch page {
			case 1:
				_ = json.NewEncoder(w).Encode(companies(1, 2))
			default:
				_ = json.NewEncoder(w).Encode(companies(3, 1))
			}
		})

		got, err := c.SearchCompanies(context.Background(), CompanyFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, int32(2), pages.Load())
	})

	t.Run("stops on an empty page", func(t *testing.T) {
		var pages atomic.Int32
		c := newTestClient(t, 2, 50, func(w http.ResponseWriter, r *http.Request) {
			if pages.Add(1) == 1 {
				_ = json.NewEncoder(w).Encode(companies(1, 2))
				return
			}
			_, _ = w.Write([]byte("[]"))
		})

		got, err := c.SearchCompanies(context.Background(), CompanyFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, int32(2), pages.Load())
	})

	t.Run("honors the page cap", func(t *testing.T) {
		var pages atomic.Int32
		c := newTestClient(t, 1, 3, func(w http.ResponseWriter, r *http.Request) {
			n := int(pages.Add(1))
			_ = json.NewEncoder(w).Encode(companies(n, 1))
		})

		got, err := c.SearchCompanies(context.Background(), CompanyFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, int32(3), pages.Load())
	})

	t.Run("active filter uses the active customer field", func(t *testing.T) {
		c := newTestClient(t, 10, 50, func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody(t, r)
			fields := body["custom_fields"].([]any)
			require.Len(t, fields, 1)
			field := fields[0].(map[string]any)
			assert.Equal(t, float64(FieldActiveCustomer), field["custom_field_definition_id"])
			assert.Equal(t, true, field["value"])
			_, _ = w.Write([]byte("[]"))
		})

		_, err := c.SearchCompanies(context.Background(), CompanyFilter{ActiveOnly: true})
		require.NoError(t, err)
	})

	t.Run("API error surfaces as APIError", func(t *testing.T) {
		c := newTestClient(t, 10, 50, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"bad token"}`))
		})

		_, err := c.SearchCompanies(context.Background(), CompanyFilter{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, httpclient.ErrRequestFailed))
		assert.Equal(t, http.StatusForbidden, httpclient.StatusCode(err))
	})
}

func TestClient_SearchOpportunitiesAndActivities(t *testing.T) {
	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, 10, 50, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		switch r.URL.Path {
		case "/opportunities/search":
			assert.Equal(t, "Won", body["status"])
			assert.Equal(t, float64(from.Unix()), body["minimum_close_date"])
			_, _ = w.Write([]byte(`[{"id":1,"name":"Deal","status":"Won","monetary_value":1250.5,"company_id":42}]`))
		case "/activities/search":
			assert.Equal(t, []any{float64(9)}, body["user_ids"])
			assert.Equal(t, float64(to.Unix()), body["maximum_activity_date"])
			_, _ = w.Write([]byte(`[{"id":1,"type":{"category":"user","id":5},"user_id":9,"activity_date":1751328000},{"id":2,"type":{"category":"user","id":5},"user_id":9},{"id":3,"type":{"category":"user","id":6},"user_id":9}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	opps, err := c.SearchOpportunities(context.Background(), OpportunityFilter{Status: "Won", CloseFrom: from, CloseTo: to})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.True(t, opps[0].Won())
	assert.Equal(t, "1250.5", opps[0].MonetaryValue.String())
	assert.Equal(t, int64(42), *opps[0].CompanyID)

	acts, err := c.SearchActivities(context.Background(), ActivityFilter{UserIDs: []int64{9}, From: from, To: to})
	require.NoError(t, err)
	require.Len(t, acts, 3)
	assert.Equal(t, from, acts[0].Date())
	assert.Equal(t, map[int64]int{5: 2, 6: 1}, ActivityCounts(acts))
}

func TestCompany_Conversions(t *testing.T) {
	var company Company
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 555,
		"name": " Smoke Shop LLC ",
		"address": {"street": "1 Main St", "city": "Austin", "state": "TX", "postal_code": "78701"},
		"custom_fields": [
			{"custom_field_definition_id": 698467, "value": "ACC-9"},
			{"custom_field_definition_id": 713477, "value": 1042},
			{"custom_field_definition_id": 675914, "value": "Wholesale"},
			{"custom_field_definition_id": 712751, "value": true},
			{"custom_field_definition_id": 708027, "value": null}
		]
	}`), &company))

	cand := company.Candidate()
	assert.Equal(t, "555", cand.SourceKey)
	assert.Equal(t, "ACC-9", cand.AccountNumber)
	assert.Equal(t, "1042", cand.AlternateID)

	assert.Equal(t, "true", company.Field(FieldActiveCustomer))
	assert.Equal(t, "", company.Field(FieldSalesRep))
	assert.Equal(t, "", company.Field(FieldRegion))

	cust := company.Customer()
	assert.Equal(t, "Smoke Shop LLC", cust.Name)
	assert.Equal(t, "555", cust.CopperCompanyID)
	assert.Equal(t, sales.AccountTypeWholesale, cust.AccountType)
	assert.Equal(t, "78701", cust.Zip)
}

package reconcile

import (
	"math"

	"github.com/kanva/portal/internal/domain/matching"
	csvimport "github.com/kanva/portal/internal/infrastructure/import"
)

// Stats counts what a reconciliation run did
type Stats struct {
	Total            int     `json:"total"`
	Matched          int     `json:"matched"`
	Unmatched        int     `json:"unmatched"`
	Created          int     `json:"created"`
	Updated          int     `json:"updated"`
	Failed           int     `json:"failed"`
	ByAccountNumber  int     `json:"byAccountNumber"`
	ByAccountOrderID int     `json:"byAccountOrderId"`
	ByName           int     `json:"byName"`
	FromHistory      int     `json:"fromHistory"`
	Ambiguous        int     `json:"ambiguous"`
	Customers        int     `json:"customers,omitempty"`
	Orders           int     `json:"orders,omitempty"`
	LineItems        int     `json:"lineItems,omitempty"`
	Discrepancies    int     `json:"discrepancies,omitempty"`
	MatchRate        float64 `json:"matchRate"`
}

func (s *Stats) addMatch(method matching.Method, ambiguous bool) {
	s.Matched++
	switch method {
	case matching.MethodAccountNumber:
		s.ByAccountNumber++
	case matching.MethodAccountOrderID:
		s.ByAccountOrderID++
	case matching.MethodName:
		s.ByName++
	}
	if ambiguous {
		s.Ambiguous++
	}
}

func (s *Stats) byMethod() map[string]int {
	return map[string]int{
		string(matching.MethodAccountNumber):  s.ByAccountNumber,
		string(matching.MethodAccountOrderID): s.ByAccountOrderID,
		string(matching.MethodName):           s.ByName,
		"history":                             s.FromHistory,
	}
}

// finish computes the match rate as a percentage with one decimal. Order
// imports rate distinct customers, not rows.
func (s *Stats) finish() {
	base := s.Total
	if s.Customers > 0 {
		base = s.Customers
	}
	if base == 0 {
		s.MatchRate = 0
		return
	}
	s.MatchRate = math.Round(float64(s.Matched)/float64(base)*1000) / 10
}

// Result is the response of a reconciliation run
type Result struct {
	RunID       string               `json:"runId"`
	Status      string               `json:"status"`
	Elapsed     string               `json:"elapsed"`
	Stats       Stats                `json:"stats"`
	Errors      []csvimport.RowError `json:"errors"`
	TotalErrors int                  `json:"totalErrors"`
	Truncated   bool                 `json:"truncated,omitempty"`
	ReportKey   string               `json:"reportKey,omitempty"`
}

func (r *Result) collect(errs *csvimport.ErrorCollection) {
	r.Errors = errs.Samples(errorSamples)
	r.TotalErrors = errs.TotalCount()
	r.Truncated = errs.TotalCount() > len(r.Errors)
}

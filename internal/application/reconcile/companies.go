package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/copper"
	csvimport "github.com/kanva/portal/internal/infrastructure/import"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// CompanyRequest selects the CRM companies to reconcile
type CompanyRequest struct {
	ActiveOnly    bool      `json:"activeOnly"`
	ModifiedAfter time.Time `json:"modifiedAfter"`
}

// customerBook is the run-scoped view of existing customers
type customerBook struct {
	index    *matching.Index
	byID     map[string]*sales.Customer
	byCopper map[string]*sales.Customer
	dirty    []*sales.Customer
	marked   map[string]bool
}

func newCustomerBook(customers []sales.Customer) *customerBook {
	b := &customerBook{
		index:    matching.NewIndex(customers),
		byID:     make(map[string]*sales.Customer, len(customers)),
		byCopper: make(map[string]*sales.Customer),
		marked:   make(map[string]bool),
	}
	for i := range customers {
		c := &customers[i]
		b.byID[c.ID] = c
		if c.IsLinkedToCRM() {
			b.byCopper[c.CopperCompanyID] = c
		}
	}
	return b
}

// touch queues c for writing once per chunk
func (b *customerBook) touch(c *sales.Customer) {
	if b.marked[c.ID] {
		return
	}
	b.marked[c.ID] = true
	b.dirty = append(b.dirty, c)
}

// flush returns the queued customers and resets the queue
func (b *customerBook) flush() []*sales.Customer {
	out := b.dirty
	b.dirty = nil
	b.marked = make(map[string]bool)
	return out
}

// ReconcileCompanies links CRM companies to canonical customers. Matched
// customers get the CRM id and any blank fields the company can fill;
// unmatched companies are reported as warnings and never create customers.
func (s *Service) ReconcileCompanies(ctx context.Context, req CompanyRequest) (*Result, error) {
	if s.companies == nil {
		return nil, shared.ErrMissingConfig
	}

	result := &Result{}
	errs := csvimport.NewErrorCollection(csvimport.DefaultMaxErrors)
	run, err := s.runner.Run(ctx, JobCompanies, "reconcile:companies", func(ctx context.Context, _ *scheduler.Run) error {
		return s.reconcileCompanies(ctx, req, &result.Stats, errs)
	})
	if run == nil {
		return nil, err
	}

	result.collect(errs)
	s.metrics.RecordMatches(ctx, string(matching.SourceCopper), result.Stats.byMethod())
	s.metrics.RecordRows(ctx, JobCompanies, "customers", result.Stats.Updated)
	s.finish(ctx, run, result)
	return result, err
}

func (s *Service) reconcileCompanies(ctx context.Context, req CompanyRequest, stats *Stats, errs *csvimport.ErrorCollection) error {
	log := logger.L(ctx)

	companies, err := s.companies.SearchCompanies(ctx, copper.CompanyFilter{
		ActiveOnly:    req.ActiveOnly,
		ModifiedAfter: req.ModifiedAfter,
	})
	if err != nil {
		return fmt.Errorf("fetch companies: %w", err)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].ID < companies[j].ID })
	stats.Total = len(companies)

	existing, err := s.customers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	book := newCustomerBook(existing)
	log.Info("Reconciling companies",
		zap.Int("companies", len(companies)),
		zap.Int("customers", len(existing)),
		zap.Int("fuzzy_pool", book.index.FuzzyPoolSize()),
	)

	for n, chunk := range shared.Chunk(companies, s.chunkSize) {
		if err := scheduler.CheckBudget(ctx); err != nil {
			return err
		}

		keys := make([]string, 0, len(chunk))
		for _, c := range chunk {
			if c.ID != 0 {
				keys = append(keys, c.CompanyID())
			}
		}
		known, err := s.knownMatches(ctx, matching.SourceCopper, keys)
		if err != nil {
			return fmt.Errorf("load match records: %w", err)
		}

		var records []*matching.MatchRecord
		for i, company := range chunk {
			row := n*s.chunkSize + i + 1
			if company.ID == 0 {
				stats.Failed++
				errs.AddRequiredError(row, "company_id")
				continue
			}
			key := company.CompanyID()

			cust, res, fromHistory := s.resolveCompany(company, known[key], book)
			if cust == nil {
				stats.Unmatched++
				errs.AddUnmatchedWarning(row, "company", company.Name, "company")
				continue
			}
			if fromHistory {
				stats.Matched++
				stats.FromHistory++
			} else {
				stats.addMatch(res.Method, res.Ambiguous)
				records = append(records, matching.NewMatchRecord(matching.SourceCopper, key, res, s.now()))
				if res.Ambiguous {
					log.Info("Ambiguous company match",
						zap.String("company_id", key),
						zap.String("customer_id", cust.ID),
						zap.Strings("alternatives", res.Alternatives),
					)
				}
			}
			book.index.MarkMatched(cust.ID)

			if cust.IsLinkedToCRM() && cust.CopperCompanyID != key {
				log.Warn("Customer already linked to another company",
					zap.String("customer_id", cust.ID),
					zap.String("linked_company_id", cust.CopperCompanyID),
					zap.String("company_id", key),
				)
			}
			linked := cust.LinkCRM(key)
			enriched := cust.Enrich(company.Customer())
			if linked {
				book.byCopper[key] = cust
			}
			if linked || enriched {
				book.touch(cust)
			}
		}

		written, err := s.writeCustomers(ctx, book.flush())
		stats.Updated += written
		if err != nil {
			return fmt.Errorf("write customers: %w", err)
		}
		if err := s.writeRecords(ctx, records); err != nil {
			return fmt.Errorf("write match records: %w", err)
		}
		log.Info("Company chunk reconciled",
			zap.Int("chunk", n),
			zap.Int("matched", stats.Matched),
			zap.Int("unmatched", stats.Unmatched),
			zap.Int("failed", stats.Failed),
		)
	}
	return nil
}

// resolveCompany prefers a remembered match, then a customer already carrying
// the CRM id, then the tiered resolver.
func (s *Service) resolveCompany(company copper.Company, prior *matching.MatchRecord, book *customerBook) (*sales.Customer, matching.MatchResult, bool) {
	if prior != nil {
		if c, ok := book.byID[prior.CustomerID]; ok {
			return c, matching.MatchResult{CustomerID: c.ID, Method: prior.Method, Confidence: prior.Confidence}, true
		}
	}
	if c, ok := book.byCopper[company.CompanyID()]; ok {
		return c, matching.MatchResult{CustomerID: c.ID, Method: matching.MethodAccountOrderID, Confidence: 1}, true
	}

	res := s.resolver.Resolve(company.Candidate(), book.index)
	if !res.Matched() {
		return nil, res, false
	}
	c, ok := book.byID[res.CustomerID]
	if !ok {
		return nil, res, false
	}
	return c, res, false
}

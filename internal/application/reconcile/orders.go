package reconcile

import (
	"context"
	"fmt"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	csvimport "github.com/kanva/portal/internal/infrastructure/import"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// OrderRequest carries already-parsed export rows from one source system
type OrderRequest struct {
	Source sales.Source        `json:"source" binding:"required"`
	Rows   []map[string]string `json:"rows" binding:"required"`
}

func validSource(s sales.Source) bool {
	switch s {
	case sales.SourceFishbowl, sales.SourceCopper, sales.SourceShopify, sales.SourceRepRally:
		return true
	}
	return false
}

// scopedID keeps ids from secondary sources apart from ERP ids
func scopedID(source sales.Source, id string) string {
	if source == sales.SourceFishbowl {
		return id
	}
	return string(source) + "_" + id
}

// ImportOrders normalizes order-line rows, links their customers and upserts
// customers, orders and line items. ERP customer ids are canonical; customers
// from other sources are resolved against the existing book first.
func (s *Service) ImportOrders(ctx context.Context, req OrderRequest) (*Result, error) {
	if !validSource(req.Source) {
		return nil, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidInput, req.Source)
	}

	norm := csvimport.NewNormalizer(req.Source, csvimport.WithLocation(s.loc))
	result := &Result{}
	errs := csvimport.NewErrorCollection(csvimport.DefaultMaxErrors)
	jobKey := "reconcile:orders:" + string(req.Source)
	run, err := s.runner.Run(ctx, JobOrders, jobKey, func(ctx context.Context, _ *scheduler.Run) error {
		return s.importOrders(ctx, norm, req.Rows, &result.Stats, errs)
	})
	if run == nil {
		return nil, err
	}

	result.collect(errs)
	s.metrics.RecordMatches(ctx, string(req.Source), result.Stats.byMethod())
	s.metrics.RecordImportErrors(ctx, string(req.Source), result.Stats.Failed)
	s.finish(ctx, run, result)
	return result, err
}

func (s *Service) importOrders(ctx context.Context, norm *csvimport.Normalizer, rows []map[string]string, stats *Stats, errs *csvimport.ErrorCollection) error {
	log := logger.L(ctx)
	source := norm.Source()
	stats.Total = len(rows)

	lines, rowErrs, err := norm.OrderLines(rows)
	errs.Merge(rowErrs)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	stats.Failed = len(rows) - len(lines)

	orders, built, err := csvimport.BuildOrders(source, lines)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	firstRow := make(map[string]int, len(built))
	for _, l := range lines {
		if _, ok := firstRow[l.CustomerID]; !ok {
			firstRow[l.CustomerID] = l.Row
		}
	}

	existing, err := s.customers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	book := newCustomerBook(existing)

	canonical, records, err := s.linkCustomers(ctx, source, built, book, stats, func(id string) {
		errs.AddUnmatchedWarning(firstRow[id], csvimport.ColCustomerID, id, "customer")
	})
	if err != nil {
		return err
	}

	for _, o := range orders {
		customerID := canonical[o.CustomerID]
		o.ID = scopedID(source, o.ID)
		o.CustomerID = customerID
		for i := range o.Items {
			o.Items[i].ID = scopedID(source, o.Items[i].ID)
			o.Items[i].OrderID = o.ID
			o.Items[i].CustomerID = customerID
		}
		stats.LineItems += len(o.Items)
		if d, ok := o.Reconcile(); !ok {
			stats.Discrepancies++
			log.Warn("Order total does not match its lines",
				zap.String("order_id", d.OrderID),
				zap.String("header", d.Header.String()),
				zap.String("lines", d.Lines.String()),
				zap.String("difference", d.Difference.String()),
			)
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
	s.metrics.RecordRows(ctx, JobOrders, "customers", written)

	for n, chunk := range shared.Chunk(orders, s.chunkSize) {
		if err := scheduler.CheckBudget(ctx); err != nil {
			return err
		}
		if err := s.orders.UpsertBatch(ctx, chunk); err != nil {
			return fmt.Errorf("write orders: %w", err)
		}
		stats.Orders += len(chunk)
		s.metrics.RecordRows(ctx, JobOrders, "orders", len(chunk))
		log.Info("Order chunk written", zap.Int("chunk", n), zap.Int("orders", stats.Orders))
	}
	return nil
}

// linkCustomers maps every source customer id to a canonical id, queueing new
// and enriched customers on book. unmatched is called for each customer from a
// secondary source that had to be created.
func (s *Service) linkCustomers(
	ctx context.Context,
	source sales.Source,
	built []*sales.Customer,
	book *customerBook,
	stats *Stats,
	unmatched func(id string),
) (map[string]string, []*matching.MatchRecord, error) {
	canonical := make(map[string]string, len(built))
	stats.Customers = len(built)
	system := matching.SourceSystem(source)

	var known map[string]*matching.MatchRecord
	if source != sales.SourceFishbowl {
		keys := make([]string, 0, len(built))
		for _, c := range built {
			keys = append(keys, c.ID)
		}
		var err error
		if known, err = s.knownMatches(ctx, system, keys); err != nil {
			return nil, nil, fmt.Errorf("load match records: %w", err)
		}
	}

	var records []*matching.MatchRecord
	for _, c := range built {
		sourceID := c.ID

		if source == sales.SourceFishbowl {
			if cur, ok := book.byID[sourceID]; ok {
				stats.addMatch(matching.MethodAccountOrderID, false)
				if cur.Enrich(c) {
					book.touch(cur)
				}
			} else {
				stats.Created++
				book.byID[sourceID] = c
				book.touch(c)
			}
			canonical[sourceID] = sourceID
			continue
		}

		if prior := known[sourceID]; prior != nil {
			if cur, ok := book.byID[prior.CustomerID]; ok {
				stats.Matched++
				stats.FromHistory++
				if cur.Enrich(c) {
					book.touch(cur)
				}
				canonical[sourceID] = cur.ID
				continue
			}
		}

		scoped := scopedID(source, sourceID)
		if cur, ok := book.byID[scoped]; ok {
			stats.Matched++
			stats.FromHistory++
			if cur.Enrich(c) {
				book.touch(cur)
			}
			canonical[sourceID] = scoped
			continue
		}

		res := s.resolver.Resolve(matching.Candidate{
			SourceKey:     sourceID,
			Name:          c.Name,
			AccountNumber: c.AccountNumber,
		}, book.index)
		if cur, ok := book.byID[res.CustomerID]; ok && res.Matched() {
			stats.addMatch(res.Method, res.Ambiguous)
			book.index.MarkMatched(cur.ID)
			if cur.Enrich(c) {
				book.touch(cur)
			}
			canonical[sourceID] = cur.ID
			records = append(records, matching.NewMatchRecord(system, sourceID, res, s.now()))
			continue
		}

		stats.Unmatched++
		stats.Created++
		unmatched(sourceID)
		c.ID = scoped
		book.byID[scoped] = c
		book.index.AddExact(c)
		book.touch(c)
		canonical[sourceID] = scoped
	}
	return canonical, records, nil
}

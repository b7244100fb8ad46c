// Package csvimport turns already-parsed tabular rows from ERP, CRM and
// storefront exports into strict sales records, collecting row-level errors
// instead of aborting the batch.
package csvimport

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Normalizer maps raw rows onto records for one source system
type Normalizer struct {
	source    sales.Source
	headers   *HeaderIndex
	validate  *validator.Validate
	loc       *time.Location
	maxErrors int
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithLocation sets the zone used for dates without one
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithMaxErrors caps the errors kept per batch
func WithMaxErrors(maxErrors int) NormalizerOption {
	return func(n *Normalizer) {
		n.maxErrors = maxErrors
	}
}

// WithHeaderAliases adds header spellings (canonical column -> aliases)
func WithHeaderAliases(extra map[string][]string) NormalizerOption {
	return func(n *Normalizer) {
		n.headers = NewHeaderIndex(extra)
	}
}

// NewNormalizer creates a Normalizer for rows exported by source
func NewNormalizer(source sales.Source, opts ...NormalizerOption) *Normalizer {
	v := validator.New()
	// report canonical column names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("col")
	})
	n := &Normalizer{
		source:    source,
		headers:   NewHeaderIndex(nil),
		validate:  v,
		loc:       time.UTC,
		maxErrors: DefaultMaxErrors,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Source returns the source system the normalizer was built for
func (n *Normalizer) Source() sales.Source {
	return n.source
}

// rowNumber converts a slice index into the spreadsheet row, counting the header
func rowNumber(i int) int {
	return i + 2
}

func headersOf(rows []map[string]string) []string {
	seen := make(map[string]bool)
	var headers []string
	// rows from sparse exports omit empty cells, so look past the first row
	for i := 0; i < len(rows) && i < 50; i++ {
		for h := range rows[i] {
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	return headers
}

func (n *Normalizer) checkColumns(rows []map[string]string, required ...string) error {
	if len(rows) == 0 {
		return ErrNoDataRows
	}
	if missing := n.headers.MissingColumns(headersOf(rows), required...); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// OrderLines normalizes order-line rows. Rows with errors are left out of the
// result and described in the returned collection. The error return is only
// for batch-level problems: no rows or missing required columns.
func (n *Normalizer) OrderLines(rows []map[string]string) ([]OrderLineRecord, *ErrorCollection, error) {
	errs := NewErrorCollection(n.maxErrors)
	if err := n.checkColumns(rows, ColCustomerID, ColOrderNumber, ColLineID, ColPostingDate); err != nil {
		return nil, errs, err
	}

	records := make([]OrderLineRecord, 0, len(rows))
	seenLines := make(map[string]int, len(rows))
	for i, raw := range rows {
		row := rowNumber(i)
		c := n.headers.Canonicalize(raw)
		if len(c) == 0 {
			continue
		}
		before := errs.TotalCount()

		rec := OrderLineRecord{
			Row:           row,
			CustomerID:    c[ColCustomerID],
			CustomerName:  c[ColCustomerName],
			CustomerNum:   c[ColCustomerNum],
			AccountNumber: c[ColAccountNumber],
			AccountType:   c[ColAccountType],
			OrderID:       c[ColOrderID],
			OrderNumber:   c[ColOrderNumber],
			LineID:        c[ColLineID],
			SalesPerson:   firstNonEmpty(c[ColSalesPerson], c[ColSalesRep]),
			ProductNum:    c[ColProductNum],
			ProductName:   c[ColProductName],
			ItemType:      c[ColItemType],
		}
		if rec.OrderID == "" {
			rec.OrderID = rec.OrderNumber
		}

		if s, ok := c[ColPostingDate]; !ok {
			errs.AddRequiredError(row, ColPostingDate)
		} else if d, err := ParseDate(s, n.loc); err != nil {
			errs.AddFormatError(row, ColPostingDate, "MM/DD/YYYY", s)
		} else {
			rec.PostingDate = d
		}
		rec.Quantity = n.amount(errs, row, c, ColQuantity)
		rec.UnitPrice = n.amount(errs, row, c, ColUnitPrice)
		rec.TotalPrice = n.amount(errs, row, c, ColTotalPrice)
		if _, ok := c[ColOrderTotal]; ok {
			total := n.amount(errs, row, c, ColOrderTotal)
			rec.OrderTotal = &total
		}

		n.validateStruct(errs, row, rec)

		if rec.LineID != "" {
			if _, dup := seenLines[rec.LineID]; dup {
				errs.AddDuplicateError(row, ColLineID, rec.LineID)
			}
		}
		if errs.TotalCount() > before {
			continue
		}
		seenLines[rec.LineID] = row
		records = append(records, rec)
	}
	return records, errs, nil
}

// Customers normalizes customer rows. Later rows with an id already seen are
// reported as duplicates and skipped.
func (n *Normalizer) Customers(rows []map[string]string) ([]CustomerRecord, *ErrorCollection, error) {
	errs := NewErrorCollection(n.maxErrors)
	if err := n.checkColumns(rows, ColCustomerID, ColCustomerName); err != nil {
		return nil, errs, err
	}

	records := make([]CustomerRecord, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, raw := range rows {
		row := rowNumber(i)
		c := n.headers.Canonicalize(raw)
		if len(c) == 0 {
			continue
		}
		before := errs.TotalCount()

		rec := CustomerRecord{
			Row:           row,
			ID:            c[ColCustomerID],
			Name:          c[ColCustomerName],
			CustomerNum:   c[ColCustomerNum],
			AccountNumber: c[ColAccountNumber],
			AccountType:   c[ColAccountType],
			SalesPerson:   firstNonEmpty(c[ColSalesPerson], c[ColSalesRep]),
			Street:        c[ColStreet],
			City:          c[ColCity],
			State:         c[ColState],
			Zip:           c[ColZip],
		}
		n.validateStruct(errs, row, rec)
		if rec.ID != "" && seen[rec.ID] {
			errs.AddDuplicateError(row, ColCustomerID, rec.ID)
		}
		if errs.TotalCount() > before {
			continue
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}
	return records, errs, nil
}

func (n *Normalizer) amount(errs *ErrorCollection, row int, c map[string]string, col string) decimal.Decimal {
	raw := c[col]
	d, err := ParseAmount(raw)
	if err != nil {
		errs.AddTypeError(row, col, "number", raw)
		return decimal.Zero
	}
	return d
}

func (n *Normalizer) validateStruct(errs *ErrorCollection, row int, rec any) {
	err := n.validate.Struct(rec)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(NewRowError(row, "", ErrCodeImportValidation, err.Error()))
		return
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			errs.AddRequiredError(row, fe.Field())
		case "max":
			errs.Add(NewRowErrorWithValue(row, fe.Field(), ErrCodeImportValidation,
				"must be at most "+fe.Param()+" characters", fmt.Sprint(fe.Value())))
		default:
			errs.Add(NewRowErrorWithValue(row, fe.Field(), ErrCodeImportValidation,
				"failed "+fe.Tag()+" check", fmt.Sprint(fe.Value())))
		}
	}
}

// BuildOrders groups order lines into orders and derives one customer per
// customer id. Orders keep first-seen order. Header revenue is the exported
// order total when present, otherwise the sum of the lines.
func BuildOrders(source sales.Source, lines []OrderLineRecord) ([]*sales.Order, []*sales.Customer, error) {
	var (
		orders    []*sales.Order
		customers []*sales.Customer
		byOrder   = make(map[string]*sales.Order)
		byCust    = make(map[string]*sales.Customer)
		hasTotal  = make(map[string]bool)
	)

	for _, l := range lines {
		o, ok := byOrder[l.OrderID]
		if !ok {
			var err error
			o, err = sales.NewOrder(l.OrderID, l.OrderNumber, l.CustomerID, l.PostingDate)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", l.Row, err)
			}
			o.Source = source
			o.CustomerNum = l.CustomerNum
			o.CustomerName = l.CustomerName
			o.SalesPerson = l.SalesPerson
			byOrder[l.OrderID] = o
			orders = append(orders, o)
		}
		if l.OrderTotal != nil && !hasTotal[o.ID] {
			o.Revenue = valueobject.NewMoney(*l.OrderTotal)
			hasTotal[o.ID] = true
		}
		o.AddItem(sales.LineItem{
			ID:          l.LineID,
			ProductNum:  l.ProductNum,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   valueobject.NewMoney(l.UnitPrice),
			Revenue:     valueobject.NewMoney(l.TotalPrice),
			TotalPrice:  valueobject.NewMoney(l.TotalPrice),
			IsShipping:  isShippingLine(l),
			PostingDate: l.PostingDate,
			SalesPerson: l.SalesPerson,
		})

		cust := &sales.Customer{
			ID:            l.CustomerID,
			Name:          firstNonEmpty(l.CustomerName, l.CustomerNum, l.CustomerID),
			CustomerNum:   l.CustomerNum,
			AccountNumber: l.AccountNumber,
			SalesPerson:   l.SalesPerson,
			AccountType:   sales.ParseAccountType(l.AccountType),
		}
		d := l.PostingDate
		cust.ObserveOrderDate(&d)
		if existing, ok := byCust[l.CustomerID]; ok {
			existing.Enrich(cust)
			continue
		}
		created, err := sales.NewCustomer(cust.ID, cust.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", l.Row, err)
		}
		created.Enrich(cust)
		byCust[l.CustomerID] = created
		customers = append(customers, created)
	}

	for _, o := range orders {
		if !hasTotal[o.ID] {
			o.Revenue = o.LineTotal()
		}
	}
	return orders, customers, nil
}

// Customer converts the record into a canonical customer
func (r CustomerRecord) Customer() (*sales.Customer, error) {
	c, err := sales.NewCustomer(r.ID, r.Name)
	if err != nil {
		return nil, err
	}
	c.CustomerNum = r.CustomerNum
	c.AccountNumber = r.AccountNumber
	c.AccountType = sales.ParseAccountType(r.AccountType)
	c.SalesPerson = r.SalesPerson
	c.Street = r.Street
	c.City = r.City
	c.State = r.State
	c.Zip = r.Zip
	return c, nil
}

func isShippingLine(l OrderLineRecord) bool {
	if strings.Contains(strings.ToLower(l.ItemType), "shipping") {
		return true
	}
	return sales.LooksLikeShipping(l.ProductNum, l.ProductName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package sales

import (
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Source identifies the system an order or line item was imported from
type Source string

const (
	SourceFishbowl Source = "fishbowl"
	SourceCopper   Source = "copper"
	SourceShopify  Source = "shopify"
	SourceRepRally Source = "reprally"
)

// reconcileTolerance is the largest header/line difference treated as rounding.
var reconcileTolerance = decimal.RequireFromString("0.01")

// Order is a sales transaction belonging to exactly one customer
type Order struct {
	ID           string
	OrderNumber  string
	CustomerID   string
	CustomerNum  string
	CustomerName string
	Source       Source
	PostingDate  time.Time
	Revenue      valueobject.Money
	SalesPerson  string
	Items        []LineItem
	UpdatedAt    time.Time
}

// NewOrder creates an order header
func NewOrder(id, orderNumber, customerID string, postingDate time.Time) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_ID", "Sales order ID cannot be empty")
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_ID", "Order must belong to a customer")
	}
	return &Order{
		ID:          strings.TrimSpace(id),
		OrderNumber: strings.TrimSpace(orderNumber),
		CustomerID:  strings.TrimSpace(customerID),
		PostingDate: postingDate,
		Revenue:     valueobject.Zero(),
		UpdatedAt:   time.Now(),
	}, nil
}

// AddItem attaches a line item, stamping the order keys onto it
func (o *Order) AddItem(item LineItem) {
	item.OrderID = o.ID
	item.OrderNumber = o.OrderNumber
	item.CustomerID = o.CustomerID
	if item.PostingDate.IsZero() {
		item.PostingDate = o.PostingDate
	}
	if item.SalesPerson == "" {
		item.SalesPerson = o.SalesPerson
	}
	o.Items = append(o.Items, item)
}

// LineTotal sums the effective amount of every line item
func (o *Order) LineTotal() valueobject.Money {
	total := valueobject.Zero()
	for _, item := range o.Items {
		total = total.Add(item.Amount())
	}
	return total
}

// TotalQuantity sums line quantities
func (o *Order) TotalQuantity() decimal.Decimal {
	qty := decimal.Zero
	for _, item := range o.Items {
		qty = qty.Add(item.Quantity)
	}
	return qty
}

// Discrepancy describes a header/line mismatch on an order
type Discrepancy struct {
	OrderID    string
	Header     valueobject.Money
	Lines      valueobject.Money
	Difference valueobject.Money
}

// Reconcile compares the header revenue with the line totals. Mismatches are
// tolerated; the caller decides whether to log them. ok is true when the
// totals agree within a cent or the order has no lines.
func (o *Order) Reconcile() (Discrepancy, bool) {
	lines := o.LineTotal()
	d := Discrepancy{
		OrderID:    o.ID,
		Header:     o.Revenue,
		Lines:      lines,
		Difference: o.Revenue.Sub(lines),
	}
	if len(o.Items) == 0 {
		return d, true
	}
	return d, d.Difference.Amount().Abs().LessThanOrEqual(reconcileTolerance)
}

// LineItem is one product line of an order
type LineItem struct {
	ID             string
	OrderID        string
	OrderNumber    string
	CustomerID     string
	ProductNum     string
	ProductName    string
	Quantity       decimal.Decimal
	UnitPrice      valueobject.Money
	Revenue        valueobject.Money
	TotalPrice     valueobject.Money
	IsShipping     bool
	PostingDate    time.Time
	SalesPerson    string
	Classification string
}

// Amount returns Revenue, falling back to TotalPrice when revenue is unset
func (li LineItem) Amount() valueobject.Money {
	if !li.Revenue.IsZero() {
		return li.Revenue
	}
	return li.TotalPrice
}

// ProductKey returns the identifier products are grouped by
func (li LineItem) ProductKey() string {
	if k := strings.TrimSpace(li.ProductNum); k != "" {
		return k
	}
	return strings.TrimSpace(li.ProductName)
}

var shippingMarkers = []string{"shipping", "freight", "delivery charge"}

// LooksLikeShipping flags shipping/freight lines by product number or name
func LooksLikeShipping(productNum, productName string) bool {
	num := strings.ToLower(strings.TrimSpace(productNum))
	name := strings.ToLower(productName)
	if num == "shipping" || num == "freight" || num == "ship" {
		return true
	}
	for _, m := range shippingMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

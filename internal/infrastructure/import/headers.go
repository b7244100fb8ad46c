package csvimport

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names. Every source header is mapped onto one of these
// before any record is built.
const (
	ColCustomerID    = "customer_id"
	ColCustomerName  = "customer_name"
	ColCustomerNum   = "customer_num"
	ColAccountNumber = "account_number"
	ColAccountType   = "account_type"
	ColSalesPerson   = "sales_person"
	ColSalesRep      = "sales_rep"
	ColOrderID       = "order_id"
	ColOrderNumber   = "order_number"
	ColOrderTotal    = "order_total"
	ColLineID        = "line_id"
	ColPostingDate   = "posting_date"
	ColProductNum    = "product_num"
	ColProductName   = "product_name"
	ColItemType      = "item_type"
	ColQuantity      = "quantity"
	ColUnitPrice     = "unit_price"
	ColTotalPrice    = "total_price"
	ColStreet        = "street"
	ColCity          = "city"
	ColState         = "state"
	ColZip           = "zip"
)

// headerAliases lists the spellings seen in ERP, CRM and storefront exports
var headerAliases = map[string][]string{
	ColCustomerID:    {"Account ID", "Customer ID", "Customer Id", "CustomerId"},
	ColCustomerName:  {"Customer Name", "Customer", "Company Name", "Name"},
	ColCustomerNum:   {"Customer Number", "Customer Num", "Customer #"},
	ColAccountNumber: {"Account Number", "Account Order ID", "Account #"},
	ColAccountType:   {"Account Type"},
	ColSalesPerson:   {"Sales Person", "Sales Man", "Salesman"},
	ColSalesRep:      {"Sales Rep"},
	ColOrderID:       {"Sales Order ID", "SO ID", "Order ID"},
	ColOrderNumber:   {"Sales Order Number", "SO Number", "Sales Order", "Order Number", "Order #"},
	ColOrderTotal:    {"Order Total", "SO Total"},
	ColLineID:        {"SO Item ID", "Line Item ID", "Line ID"},
	ColPostingDate:   {"Sales Order Date", "Posting Date", "Order Date", "Date Issued"},
	ColProductNum:    {"Part Number", "Product Number", "Product Num", "SKU"},
	ColProductName:   {"Product", "Product Name", "Product Description", "Part Description"},
	ColItemType:      {"SO Item Type", "Item Type"},
	ColQuantity:      {"Qty Fulfilled", "Quantity", "Qty"},
	ColUnitPrice:     {"Unit Price"},
	ColTotalPrice:    {"Total Price", "Line Total", "Revenue"},
	ColStreet:        {"Billing Address", "Street", "Street Address", "Address"},
	ColCity:          {"Billing City", "City"},
	ColState:         {"Billing State", "State"},
	ColZip:           {"Billing Zip", "Postal Code", "Zip", "Zip Code"},
}

// FoldHeader reduces a header to a comparison key: NFKC-normalized, case
// folded, with everything but letters and digits removed. "Sales order
// Number", "SALES_ORDER_NUMBER" and "sales order number" share one key.
func FoldHeader(h string) string {
	h = cases.Fold().String(norm.NFKC.String(h))
	var sb strings.Builder
	sb.Grow(len(h))
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// HeaderIndex maps source headers onto canonical columns
type HeaderIndex struct {
	byFolded map[string]string
	seen     map[string]string
}

// NewHeaderIndex builds an index over the built-in aliases plus any extras
// (canonical column -> additional spellings).
func NewHeaderIndex(extra map[string][]string) *HeaderIndex {
	idx := &HeaderIndex{
		byFolded: make(map[string]string, 96),
		seen:     make(map[string]string),
	}
	add := func(col string, aliases []string) {
		idx.byFolded[FoldHeader(col)] = col
		for _, a := range aliases {
			if _, taken := idx.byFolded[FoldHeader(a)]; !taken {
				idx.byFolded[FoldHeader(a)] = col
			}
		}
	}
	for col, aliases := range headerAliases {
		add(col, aliases)
	}
	for col, aliases := range extra {
		add(col, aliases)
	}
	return idx
}

// Column returns the canonical column for a source header, or "" when the
// header is unknown.
func (idx *HeaderIndex) Column(header string) string {
	if col, ok := idx.seen[header]; ok {
		return col
	}
	col := idx.byFolded[FoldHeader(header)]
	idx.seen[header] = col
	return col
}

// Canonicalize rewrites a row onto canonical column names with trimmed
// values. Unknown headers are dropped. When two headers map to the same
// column the first non-empty value wins, taken in sorted header order.
func (idx *HeaderIndex) Canonicalize(row map[string]string) map[string]string {
	headers := make([]string, 0, len(row))
	for h := range row {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	out := make(map[string]string, len(row))
	for _, h := range headers {
		col := idx.Column(h)
		if col == "" {
			continue
		}
		v := strings.TrimSpace(row[h])
		if v == "" {
			continue
		}
		if _, exists := out[col]; !exists {
			out[col] = v
		}
	}
	return out
}

// MissingColumns returns the required canonical columns none of the headers
// map to.
func (idx *HeaderIndex) MissingColumns(headers []string, required ...string) []string {
	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		if col := idx.Column(h); col != "" {
			have[col] = true
		}
	}
	var missing []string
	for _, col := range required {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

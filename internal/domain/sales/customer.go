package sales

import (
	"strconv"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/shared"
)

// AccountType is the commercial classification of a customer account
type AccountType string

const (
	AccountTypeDistributor AccountType = "Distributor"
	AccountTypeWholesale   AccountType = "Wholesale"
	AccountTypeRetail      AccountType = "Retail"
)

// ParseAccountType maps free-form account type labels ("wholesale", "DISTRIBUTOR ",
// "Retail Store") onto the known types. Unknown labels return "".
func ParseAccountType(raw string) AccountType {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "wholesale"):
		return AccountTypeWholesale
	case strings.Contains(v, "distributor"):
		return AccountTypeDistributor
	case strings.Contains(v, "retail"):
		return AccountTypeRetail
	default:
		return ""
	}
}

// TransferStatus is a manual override of the computed customer status used
// for commission rates. "auto" (or empty) defers to the computed value.
type TransferStatus string

const (
	TransferStatusAuto        TransferStatus = "auto"
	TransferStatusNew         TransferStatus = "new"
	TransferStatusOwn         TransferStatus = "own"
	TransferStatusSixMonth    TransferStatus = "6month"
	TransferStatusTwelveMonth TransferStatus = "12month"
	TransferStatusTransferred TransferStatus = "transferred"
)

// Customer is the canonical, deduplicated business entity. Source-system
// identifiers converge on one Customer once matched.
type Customer struct {
	ID              string
	Name            string
	CustomerNum     string
	AccountNumber   string
	AccountID       string
	CopperCompanyID string
	Street          string
	City            string
	State           string
	Zip             string
	SalesPerson     string
	AccountType     AccountType
	TransferStatus  TransferStatus
	FirstOrderDate  *time.Time
	LastOrderDate   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewCustomer creates a customer on first sighting
func NewCustomer(id, name string) (*Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_ID", "Customer ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	now := time.Now()
	return &Customer{
		ID:             id,
		Name:           name,
		TransferStatus: TransferStatusAuto,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsLinkedToCRM reports whether the customer already carries a CRM company id.
// Unlinked customers are the only candidates for fuzzy name matching.
func (c *Customer) IsLinkedToCRM() bool {
	return strings.TrimSpace(c.CopperCompanyID) != ""
}

// LinkCRM records the CRM company id. An existing link is never replaced.
func (c *Customer) LinkCRM(companyID string) bool {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" || c.IsLinkedToCRM() {
		return false
	}
	c.CopperCompanyID = companyID
	c.UpdatedAt = time.Now()
	return true
}

// Enrich merges the populated fields of other into c without overwriting any
// field c already has. It returns true when anything changed.
func (c *Customer) Enrich(other *Customer) bool {
	if other == nil {
		return false
	}
	changed := false
	fill := func(dst *string, src string) {
		src = strings.TrimSpace(src)
		if strings.TrimSpace(*dst) == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&c.Name, other.Name)
	fill(&c.CustomerNum, other.CustomerNum)
	fill(&c.AccountNumber, other.AccountNumber)
	fill(&c.AccountID, other.AccountID)
	fill(&c.CopperCompanyID, other.CopperCompanyID)
	fill(&c.Street, other.Street)
	fill(&c.City, other.City)
	fill(&c.State, other.State)
	fill(&c.Zip, other.Zip)
	fill(&c.SalesPerson, other.SalesPerson)
	if c.AccountType == "" && other.AccountType != "" {
		c.AccountType = other.AccountType
		changed = true
	}
	if c.ObserveOrderDate(other.FirstOrderDate) {
		changed = true
	}
	if c.ObserveOrderDate(other.LastOrderDate) {
		changed = true
	}
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}

// ObserveOrderDate widens the first/last order window to include d.
func (c *Customer) ObserveOrderDate(d *time.Time) bool {
	if d == nil || d.IsZero() {
		return false
	}
	changed := false
	if c.FirstOrderDate == nil || d.Before(*c.FirstOrderDate) {
		t := *d
		c.FirstOrderDate = &t
		changed = true
	}
	if c.LastOrderDate == nil || d.After(*c.LastOrderDate) {
		t := *d
		c.LastOrderDate = &t
		changed = true
	}
	return changed
}

// EffectiveAccountType returns the account type used for commission rules.
// Unknown accounts are treated as Retail.
func (c *Customer) EffectiveAccountType() AccountType {
	if c == nil || c.AccountType == "" {
		return AccountTypeRetail
	}
	return c.AccountType
}

// CompareIDs orders customer ids numerically when both are integers and
// lexically otherwise, so "9" sorts before "10".
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	if aErr == nil {
		return -1
	}
	if bErr == nil {
		return 1
	}
	return strings.Compare(a, b)
}

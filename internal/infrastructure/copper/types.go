package copper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// Custom field definition ids configured in the Kanva Copper account
const (
	FieldAccountType    int64 = 675914
	FieldAccountOrderID int64 = 698467
	FieldActiveCustomer int64 = 712751
	FieldAccountID      int64 = 713477
	FieldRegion         int64 = 680701
	FieldSalesRep       int64 = 708027
)

// Address is a Copper postal address
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PhoneNumber is a Copper phone entry
type PhoneNumber struct {
	Number   string `json:"number"`
	Category string `json:"category"`
}

// CustomField is a custom field value. Value may be a string, number, bool
// or option id depending on the field type.
type CustomField struct {
	DefinitionID int64 `json:"custom_field_definition_id"`
	Value        any   `json:"value"`
}

// Company is a Copper company record
type Company struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	AssigneeID   *int64        `json:"assignee_id"`
	Address      *Address      `json:"address"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	EmailDomain  string        `json:"email_domain"`
	CustomFields []CustomField `json:"custom_fields"`
	DateModified int64         `json:"date_modified"`
}

// Field returns a custom field value as text, or "" when absent
func (c Company) Field(id int64) string {
	for _, f := range c.CustomFields {
		if f.DefinitionID != id || f.Value == nil {
			continue
		}
		switch v := f.Value.(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		default:
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

// CompanyID returns the Copper id as a string key
func (c Company) CompanyID() string {
	return strconv.FormatInt(c.ID, 10)
}

// Candidate converts the company into an identity-resolution candidate. The
// Account Order ID field carries the ERP account number and the Account ID
// field carries the ERP customer id.
func (c Company) Candidate() matching.Candidate {
	return matching.Candidate{
		SourceKey:     c.CompanyID(),
		Name:          c.Name,
		AccountNumber: c.Field(FieldAccountOrderID),
		AlternateID:   c.Field(FieldAccountID),
	}
}

// Customer returns the fields the company can contribute to a canonical
// customer through Enrich.
func (c Company) Customer() *sales.Customer {
	cust := &sales.Customer{
		Name:            strings.TrimSpace(c.Name),
		AccountNumber:   c.Field(FieldAccountOrderID),
		CopperCompanyID: c.CompanyID(),
		SalesPerson:     c.Field(FieldSalesRep),
		AccountType:     sales.ParseAccountType(c.Field(FieldAccountType)),
	}
	if c.Address != nil {
		cust.Street = c.Address.Street
		cust.City = c.Address.City
		cust.State = c.Address.State
		cust.Zip = c.Address.PostalCode
	}
	return cust
}

// Opportunity is a Copper deal
type Opportunity struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	CompanyID       *int64          `json:"company_id"`
	AssigneeID      *int64          `json:"assignee_id"`
	Status          string          `json:"status"`
	PipelineID      int64           `json:"pipeline_id"`
	PipelineStageID int64           `json:"pipeline_stage_id"`
	MonetaryValue   decimal.Decimal `json:"monetary_value"`
	CloseDate       string          `json:"close_date"`
	DateCreated     int64           `json:"date_created"`
}

// Won reports whether the deal closed successfully
func (o Opportunity) Won() bool {
	return strings.EqualFold(o.Status, "Won")
}

// ActivityType identifies the kind of activity
type ActivityType struct {
	Category string `json:"category"`
	ID       int64  `json:"id"`
}

// Parent is the record an activity is attached to
type Parent struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Activity is a logged interaction (call, email, meeting, note)
type Activity struct {
	ID           int64        `json:"id"`
	Type         ActivityType `json:"type"`
	Parent       Parent       `json:"parent"`
	UserID       int64        `json:"user_id"`
	ActivityDate int64        `json:"activity_date"`
	Details      string       `json:"details"`
}

// Date returns the activity time in UTC
func (a Activity) Date() time.Time {
	return time.Unix(a.ActivityDate, 0).UTC()
}

// ActivityCounts totals activities by type id, used for the effort bucket
func ActivityCounts(activities []Activity) map[int64]int {
	counts := make(map[int64]int)
	for _, a := range activities {
		counts[a.Type.ID]++
	}
	return counts
}

package csvimport

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fishbowlRow(orderID, lineID, product, total string) map[string]string {
	return map[string]string{
		"Account ID":         "100",
		"Customer Name":      "Smoke Shop LLC",
		"Account type":       "Wholesale",
		"Sales order Number": "SO-" + orderID,
		"Sales Order ID":     orderID,
		"SO Item ID":         lineID,
		"Sales Order Date":   "08/04/2025",
		"Sales person":       "BenW",
		"Part Number":        product,
		"Qty fulfilled":      "2",
		"Unit price":         "$1,000.00",
		"Total Price":        total,
	}
}

func TestNormalizer_OrderLines(t *testing.T) {
	n := NewNormalizer(sales.SourceFishbowl)

	t.Run("normalizes aliased headers", func(t *testing.T) {
		recs, errs, err := n.OrderLines([]map[string]string{fishbowlRow("9082", "L1", "KB-100", "2000")})
		require.NoError(t, err)
		assert.False(t, errs.HasErrors())
		require.Len(t, recs, 1)

		r := recs[0]
		assert.Equal(t, 2, r.Row)
		assert.Equal(t, "100", r.CustomerID)
		assert.Equal(t, "9082", r.OrderID)
		assert.Equal(t, "SO-9082", r.OrderNumber)
		assert.Equal(t, "BenW", r.SalesPerson)
		assert.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), r.PostingDate)
		assert.Equal(t, "1000", r.UnitPrice.String())
		assert.Equal(t, "2000", r.TotalPrice.String())
		assert.Nil(t, r.OrderTotal)
	})

	t.Run("bad rows are reported and skipped", func(t *testing.T) {
		badDate := fishbowlRow("1", "L2", "KB-1", "10")
		badDate["Sales Order Date"] = "someday"
		badQty := fishbowlRow("1", "L3", "KB-1", "10")
		badQty["Qty fulfilled"] = "two"
		noCustomer := fishbowlRow("1", "L4", "KB-1", "10")
		delete(noCustomer, "Account ID")

		recs, errs, err := n.OrderLines([]map[string]string{
			fishbowlRow("1", "L1", "KB-1", "10"),
			badDate,
			badQty,
			noCustomer,
			fishbowlRow("1", "L1", "KB-1", "10"),
		})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 4, errs.TotalCount())

		byRow := make(map[int]RowError)
		for _, e := range errs.Errors() {
			byRow[e.Row] = e
		}
		assert.Equal(t, ErrCodeImportInvalidFormat, byRow[3].Code)
		assert.Equal(t, ErrCodeImportInvalidType, byRow[4].Code)
		assert.Equal(t, ErrCodeImportRequiredField, byRow[5].Code)
		assert.Equal(t, ColCustomerID, byRow[5].Column)
		assert.Equal(t, ErrCodeImportDuplicateInFile, byRow[6].Code)
	})

	t.Run("order id falls back to order number", func(t *testing.T) {
		row := fishbowlRow("7", "L1", "KB-1", "10")
		delete(row, "Sales Order ID")
		recs, _, err := n.OrderLines([]map[string]string{row})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "SO-7", recs[0].OrderID)
	})

	t.Run("overlong values fail validation", func(t *testing.T) {
		row := fishbowlRow("7", "L1", "KB-1", "10")
		row["Account ID"] = strings.Repeat("9", 65)
		_, errs, err := n.OrderLines([]map[string]string{row})
		require.NoError(t, err)
		require.Equal(t, 1, errs.Count())
		assert.Equal(t, ErrCodeImportValidation, errs.Errors()[0].Code)
		assert.Equal(t, ColCustomerID, errs.Errors()[0].Column)
	})

	t.Run("batch level errors", func(t *testing.T) {
		_, _, err := n.OrderLines(nil)
		assert.True(t, errors.Is(err, ErrNoDataRows))

		_, _, err = n.OrderLines([]map[string]string{{"Account ID": "1", "Sales Order Date": "08/01/2025"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingColumns))
		assert.Contains(t, err.Error(), ColOrderNumber)
		assert.Contains(t, err.Error(), ColLineID)
	})

	t.Run("error collection is capped", func(t *testing.T) {
		small := NewNormalizer(sales.SourceFishbowl, WithMaxErrors(2))
		rows := make([]map[string]string, 0, 5)
		for i := 0; i < 5; i++ {
			r := fishbowlRow("1", "L", "KB-1", "x")
			rows = append(rows, r)
		}
		_, errs, err := small.OrderLines(rows)
		require.NoError(t, err)
		assert.Equal(t, 2, errs.Count())
		assert.True(t, errs.IsTruncated())
	})
}

func TestNormalizer_Customers(t *testing.T) {
	n := NewNormalizer(sales.SourceCopper)

	recs, errs, err := n.Customers([]map[string]string{
		{"Customer ID": "100", "Name": "Acme", "Account Type": "Distributor", "Billing City": "Austin"},
		{"Customer ID": "101", "Name": ""},
		{"Customer ID": "100", "Name": "Acme Again"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, errs.TotalCount())

	c, err := recs[0].Customer()
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, sales.AccountTypeDistributor, c.AccountType)
	assert.Equal(t, "Austin", c.City)
}

func TestBuildOrders(t *testing.T) {
	n := NewNormalizer(sales.SourceFishbowl)
	shipping := fishbowlRow("9082", "L3", "Shipping", "25")
	credit := fishbowlRow("9082", "L2", "KB-200", "-500")
	other := fishbowlRow("9100", "L9", "KB-100", "300")
	other["Sales Order Date"] = "2025-06-01"
	other["Customer Name"] = ""
	other["Account Number"] = "ACC-100"

	recs, errs, err := n.OrderLines([]map[string]string{
		fishbowlRow("9082", "L1", "KB-100", "10000"),
		credit,
		shipping,
		other,
	})
	require.NoError(t, err)
	require.False(t, errs.HasErrors())

	orders, customers, err := BuildOrders(sales.SourceFishbowl, recs)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Len(t, customers, 1)

	o := orders[0]
	assert.Equal(t, "9082", o.ID)
	assert.Equal(t, sales.SourceFishbowl, o.Source)
	require.Len(t, o.Items, 3)
	assert.Equal(t, "9525.00", o.Revenue.String())
	assert.True(t, o.Items[2].IsShipping)
	assert.False(t, o.Items[0].IsShipping)
	_, ok := o.Reconcile()
	assert.True(t, ok)

	c := customers[0]
	assert.Equal(t, "100", c.ID)
	assert.Equal(t, "Smoke Shop LLC", c.Name)
	assert.Equal(t, "ACC-100", c.AccountNumber)
	assert.Equal(t, sales.AccountTypeWholesale, c.AccountType)
	require.NotNil(t, c.FirstOrderDate)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *c.FirstOrderDate)
	assert.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), *c.LastOrderDate)
}

func TestBuildOrders_HeaderTotal(t *testing.T) {
	line := fishbowlRow("1", "L1", "KB-1", "100")
	line["Order Total"] = "120"
	n := NewNormalizer(sales.SourceShopify)
	recs, _, err := n.OrderLines([]map[string]string{line})
	require.NoError(t, err)

	orders, _, err := BuildOrders(sales.SourceShopify, recs)
	require.NoError(t, err)
	d, ok := orders[0].Reconcile()
	assert.False(t, ok)
	assert.Equal(t, "20.00", d.Difference.String())
}

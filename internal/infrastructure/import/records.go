package csvimport

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineRecord is one normalized order-line row. Every ERP and storefront
// export is reduced to this shape; nothing downstream looks at raw headers.
type OrderLineRecord struct {
	Row           int
	CustomerID    string `col:"customer_id" validate:"required,max=64"`
	CustomerName  string `col:"customer_name" validate:"max=255"`
	CustomerNum   string `col:"customer_num" validate:"max=64"`
	AccountNumber string `col:"account_number" validate:"max=64"`
	AccountType   string `col:"account_type"`
	OrderID       string `col:"order_id" validate:"required,max=64"`
	OrderNumber   string `col:"order_number" validate:"required,max=64"`
	LineID        string `col:"line_id" validate:"required,max=64"`
	PostingDate   time.Time
	SalesPerson   string `col:"sales_person" validate:"max=128"`
	ProductNum    string `col:"product_num" validate:"max=128"`
	ProductName   string `col:"product_name" validate:"max=512"`
	ItemType      string `col:"item_type"`
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	OrderTotal    *decimal.Decimal
}

// CustomerRecord is one normalized customer or company row
type CustomerRecord struct {
	Row           int
	ID            string `col:"customer_id" validate:"required,max=64"`
	Name          string `col:"customer_name" validate:"required,max=255"`
	CustomerNum   string `col:"customer_num" validate:"max=64"`
	AccountNumber string `col:"account_number" validate:"max=64"`
	AccountType   string `col:"account_type"`
	SalesPerson   string `col:"sales_person" validate:"max=128"`
	Street        string `col:"street" validate:"max=255"`
	City          string `col:"city" validate:"max=128"`
	State         string `col:"state" validate:"max=64"`
	Zip           string `col:"zip" validate:"max=20"`
}

package models

import (
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for sales.Customer
type CustomerModel struct {
	ID              string     `gorm:"type:varchar(64);primaryKey"`
	Name            string     `gorm:"type:varchar(255);not null"`
	CustomerNum     string     `gorm:"type:varchar(64);index"`
	AccountNumber   string     `gorm:"type:varchar(64);index"`
	AccountID       string     `gorm:"type:varchar(64);index"`
	CopperCompanyID string     `gorm:"type:varchar(64);index"`
	Street          string     `gorm:"type:varchar(255)"`
	City            string     `gorm:"type:varchar(100)"`
	State           string     `gorm:"type:varchar(50)"`
	Zip             string     `gorm:"type:varchar(20)"`
	SalesPerson     string     `gorm:"type:varchar(100);index"`
	AccountType     string     `gorm:"type:varchar(20)"`
	TransferStatus  string     `gorm:"type:varchar(20);not null"`
	FirstOrderDate  *time.Time
	LastOrderDate   *time.Time
	Timestamps
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a sales.Customer
func (m *CustomerModel) ToDomain() sales.Customer {
	status := sales.TransferStatus(m.TransferStatus)
	if status == "" {
		status = sales.TransferStatusAuto
	}
	return sales.Customer{
		ID:              m.ID,
		Name:            m.Name,
		CustomerNum:     m.CustomerNum,
		AccountNumber:   m.AccountNumber,
		AccountID:       m.AccountID,
		CopperCompanyID: m.CopperCompanyID,
		Street:          m.Street,
		City:            m.City,
		State:           m.State,
		Zip:             m.Zip,
		SalesPerson:     m.SalesPerson,
		AccountType:     sales.AccountType(m.AccountType),
		TransferStatus:  status,
		FirstOrderDate:  timePtr(m.FirstOrderDate),
		LastOrderDate:   timePtr(m.LastOrderDate),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// CustomerModelFromDomain converts a sales.Customer to its model
func CustomerModelFromDomain(c *sales.Customer) *CustomerModel {
	status := string(c.TransferStatus)
	if status == "" {
		status = string(sales.TransferStatusAuto)
	}
	return &CustomerModel{
		ID:              c.ID,
		Name:            c.Name,
		CustomerNum:     c.CustomerNum,
		AccountNumber:   c.AccountNumber,
		AccountID:       c.AccountID,
		CopperCompanyID: c.CopperCompanyID,
		Street:          c.Street,
		City:            c.City,
		State:           c.State,
		Zip:             c.Zip,
		SalesPerson:     c.SalesPerson,
		AccountType:     string(c.AccountType),
		TransferStatus:  status,
		FirstOrderDate:  timePtr(c.FirstOrderDate),
		LastOrderDate:   timePtr(c.LastOrderDate),
	}
}

// OrderModel is the persistence model for the sales.Order header
type OrderModel struct {
	ID           string            `gorm:"type:varchar(64);primaryKey"`
	OrderNumber  string            `gorm:"type:varchar(64);index"`
	CustomerID   string            `gorm:"type:varchar(64);not null;index"`
	CustomerNum  string            `gorm:"type:varchar(64)"`
	CustomerName string            `gorm:"type:varchar(255)"`
	Source       string            `gorm:"type:varchar(20);not null"`
	PostingDate  time.Time         `gorm:"not null;index"`
	Revenue      valueobject.Money `gorm:"type:decimal(18,4);not null"`
	SalesPerson  string            `gorm:"type:varchar(100);index"`
	Timestamps
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the header; items are attached by the repository
func (m *OrderModel) ToDomain() sales.Order {
	return sales.Order{
		ID:           m.ID,
		OrderNumber:  m.OrderNumber,
		CustomerID:   m.CustomerID,
		CustomerNum:  m.CustomerNum,
		CustomerName: m.CustomerName,
		Source:       sales.Source(m.Source),
		PostingDate:  m.PostingDate,
		Revenue:      m.Revenue,
		SalesPerson:  m.SalesPerson,
		UpdatedAt:    m.UpdatedAt,
	}
}

// OrderModelFromDomain converts an order header
func OrderModelFromDomain(o *sales.Order) *OrderModel {
	return &OrderModel{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerID:   o.CustomerID,
		CustomerNum:  o.CustomerNum,
		CustomerName: o.CustomerName,
		Source:       string(o.Source),
		PostingDate:  o.PostingDate,
		Revenue:      o.Revenue,
		SalesPerson:  o.SalesPerson,
	}
}

// LineItemModel is the persistence model for sales.LineItem
type LineItemModel struct {
	ID             string            `gorm:"type:varchar(64);primaryKey"`
	OrderID        string            `gorm:"type:varchar(64);not null;index"`
	OrderNumber    string            `gorm:"type:varchar(64)"`
	CustomerID     string            `gorm:"type:varchar(64);not null;index"`
	ProductNum     string            `gorm:"type:varchar(100);index"`
	ProductName    string            `gorm:"type:varchar(255)"`
	Quantity       decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	UnitPrice      valueobject.Money `gorm:"type:decimal(18,4);not null"`
	Revenue        valueobject.Money `gorm:"type:decimal(18,4);not null"`
	TotalPrice     valueobject.Money `gorm:"type:decimal(18,4);not null"`
	IsShipping     bool              `gorm:"not null"`
	PostingDate    time.Time         `gorm:"not null;index"`
	SalesPerson    string            `gorm:"type:varchar(100)"`
	Classification string            `gorm:"type:varchar(32)"`
	Timestamps
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "line_items"
}

// ToDomain converts the model to a sales.LineItem
func (m *LineItemModel) ToDomain() sales.LineItem {
	return sales.LineItem{
		ID:             m.ID,
		OrderID:        m.OrderID,
		OrderNumber:    m.OrderNumber,
		CustomerID:     m.CustomerID,
		ProductNum:     m.ProductNum,
		ProductName:    m.ProductName,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		Revenue:        m.Revenue,
		TotalPrice:     m.TotalPrice,
		IsShipping:     m.IsShipping,
		PostingDate:    m.PostingDate,
		SalesPerson:    m.SalesPerson,
		Classification: m.Classification,
	}
}

// LineItemModelFromDomain converts a sales.LineItem
func LineItemModelFromDomain(li *sales.LineItem) *LineItemModel {
	return &LineItemModel{
		ID:             li.ID,
		OrderID:        li.OrderID,
		OrderNumber:    li.OrderNumber,
		CustomerID:     li.CustomerID,
		ProductNum:     li.ProductNum,
		ProductName:    li.ProductName,
		Quantity:       li.Quantity,
		UnitPrice:      li.UnitPrice,
		Revenue:        li.Revenue,
		TotalPrice:     li.TotalPrice,
		IsShipping:     li.IsShipping,
		PostingDate:    li.PostingDate,
		SalesPerson:    li.SalesPerson,
		Classification: li.Classification,
	}
}

// RepModel is the persistence model for sales.Rep
type RepModel struct {
	ID           string `gorm:"type:varchar(64);primaryKey"`
	SalesPerson  string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(255);not null"`
	Email        string `gorm:"type:varchar(255)"`
	Title        string `gorm:"type:varchar(100)"`
	Active       bool   `gorm:"not null"`
	Commissioned bool   `gorm:"not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (RepModel) TableName() string {
	return "reps"
}

// ToDomain converts the model to a sales.Rep
func (m *RepModel) ToDomain() sales.Rep {
	return sales.Rep{
		ID:           m.ID,
		SalesPerson:  m.SalesPerson,
		Name:         m.Name,
		Email:        m.Email,
		Title:        m.Title,
		Active:       m.Active,
		Commissioned: m.Commissioned,
	}
}

// RepModelFromDomain converts a sales.Rep
func RepModelFromDomain(r *sales.Rep) *RepModel {
	return &RepModel{
		ID:           r.ID,
		SalesPerson:  r.SalesPerson,
		Name:         r.Name,
		Email:        r.Email,
		Title:        r.Title,
		Active:       r.Active,
		Commissioned: r.Commissioned,
	}
}

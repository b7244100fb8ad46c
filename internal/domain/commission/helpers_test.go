package commission

import (
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

func money(s string) valueobject.Money {
	m, err := valueobject.NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func item(id, product, name string, qty int64, revenue string) sales.LineItem {
	return sales.LineItem{
		ID:          id,
		ProductNum:  product,
		ProductName: name,
		Quantity:    decimal.NewFromInt(qty),
		Revenue:     money(revenue),
	}
}

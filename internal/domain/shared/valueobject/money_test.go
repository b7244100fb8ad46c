package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoney_Percent(t *testing.T) {
	m := NewMoney(decimal.NewFromInt(10000))
	assert.Equal(t, "800.00", m.Percent(decimal.NewFromInt(8)).String())
	assert.Equal(t, "250.00", m.Percent(decimal.RequireFromString("2.5")).String())
}

func TestMoney_NoFloatDrift(t *testing.T) {
	total := Zero()
	for i := 0; i < 10000; i++ {
		total = total.Add(NewMoneyFromFloat(0.1))
	}
	assert.True(t, total.Equals(NewMoney(decimal.NewFromInt(1000))))
}

func TestMoney_Cents(t *testing.T) {
	m, err := NewMoneyFromString("12.345")
	require.NoError(t, err)
	assert.Equal(t, "12.35", m.Cents().String())

	neg, err := NewMoneyFromString("-12.345")
	require.NoError(t, err)
	assert.Equal(t, "-12.35", neg.Cents().String())
}

func TestSum(t *testing.T) {
	total := Sum(
		NewMoney(decimal.NewFromInt(10000)),
		NewMoney(decimal.NewFromInt(-500)),
		Zero(),
	)
	assert.Equal(t, "9500.00", total.String())
	assert.True(t, Sum().IsZero())
}

func TestMoney_JSON(t *testing.T) {
	m, err := NewMoneyFromString("300.10")
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `"300.1"`, string(data))

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`42.5`), &fromNumber))
	assert.Equal(t, "42.50", fromNumber.String())
}

func TestMoney_Signs(t *testing.T) {
	assert.True(t, NewMoneyFromFloat(-1).IsNegative())
	assert.True(t, NewMoneyFromFloat(1).IsPositive())
	assert.True(t, NewMoneyFromFloat(2).GreaterThan(NewMoneyFromFloat(1)))
}

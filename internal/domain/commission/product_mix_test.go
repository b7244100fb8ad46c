package commission

import (
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posted(li sales.LineItem, at time.Time) sales.LineItem {
	li.PostingDate = at
	return li
}

func TestProductMix(t *testing.T) {
	in := day(2025, 8, 1)
	items := []sales.LineItem{
		posted(item("1", "KB-1", "Kratom Shot", 2, "300"), in),
		posted(item("2", "KB-2", "Kava Shot", 1, "500"), in),
		posted(item("3", "KB-1", "Kratom Shot", 1, "100"), in),
		posted(item("4", "Shipping", "Shipping", 1, "100"), in),
		posted(item("5", "KB-3", "Out of period", 1, "900"), day(2025, 10, 2)),
	}

	mix := ProductMix(items, testPeriod)

	require.Len(t, mix, 2)
	assert.Equal(t, "KB-2", mix[0].ProductNum)
	assert.Equal(t, "500.00", mix[0].Revenue.String())
	assert.Equal(t, "KB-1", mix[1].ProductNum)
	assert.Equal(t, "400.00", mix[1].Revenue.String())
	assert.True(t, mix[1].Quantity.Equal(dec("3")))
	assert.True(t, mix[0].Percentage.Equal(dec("50")))
	assert.True(t, mix[1].Percentage.Equal(dec("40")))
}

func TestProductMixGoals(t *testing.T) {
	mix := []ProductMixLine{
		{ProductNum: "KB-2", Product: "Kava", Revenue: money("500")},
		{ProductNum: "KB-1", Product: "Kratom", Revenue: money("400")},
	}
	subs, actuals := ProductMixGoals(mix, dec("1000"))

	require.Len(t, subs, 2)
	assert.True(t, subs[0].Goal.Equal(dec("500")))
	assert.True(t, actuals["KB-1"].Equal(dec("400")))

	empty, none := ProductMixGoals(nil, dec("1000"))
	assert.Nil(t, empty)
	assert.Empty(t, none)
}

func TestProductMixGoals_TopTen(t *testing.T) {
	var mix []ProductMixLine
	for i := 0; i < 12; i++ {
		mix = append(mix, ProductMixLine{ProductNum: string(rune('A' + i)), Revenue: money("1")})
	}
	subs, _ := ProductMixGoals(mix, dec("100"))
	assert.Len(t, subs, ProductMixTopN)
	assert.True(t, subs[0].Goal.Equal(dec("10")))
}

func TestSplitCustomers(t *testing.T) {
	items := []sales.LineItem{
		{CustomerID: "1", Revenue: money("100")},
		{CustomerID: "2", Revenue: money("50")},
		{CustomerID: "1", Revenue: money("25")},
		{CustomerID: "3", Revenue: money("10")},
	}
	first := map[string]time.Time{
		"1": day(2025, 7, 15),
		"2": day(2024, 1, 1),
	}

	split := SplitCustomers(items, first, testPeriod.Start)

	assert.Equal(t, []string{"1"}, split.NewCustomers)
	assert.Equal(t, []string{"2", "3"}, split.ExistingCustomers)
	assert.Equal(t, "125.00", split.NewRevenue.String())
	assert.Equal(t, "60.00", split.ExistingRevenue.String())
}

package commissionapp

import (
	"testing"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Preview(t *testing.T) {
	svc := NewService(Deps{}, DefaultSettings())
	all := func(v string) map[commission.BucketCode]decimal.Decimal {
		return map[commission.BucketCode]decimal.Decimal{
			commission.BucketNewBusiness:      dec(v),
			commission.BucketProductMix:       dec(v),
			commission.BucketMaintainBusiness: dec(v),
			commission.BucketEffort:           dec(v),
		}
	}
	base := func() PreviewRequest {
		return PreviewRequest{
			Rep:     commission.RepRef{ID: "u1", Name: "Ben Wallner"},
			Period:  commission.Period{ID: "Q3-2025", Start: q3Start, End: q3End},
			Goals:   commission.Goals{Buckets: all("100")},
			Actuals: commission.Actuals{Buckets: all("100")},
		}
	}

	t.Run("full attainment pays the max bonus", func(t *testing.T) {
		res, err := svc.Preview(base())
		require.NoError(t, err)
		assert.True(t, res.Eligible)
		assert.Equal(t, "25000.00", res.Payout.String())
		assert.Len(t, res.Entries, 4)
	})

	t.Run("max bonus override", func(t *testing.T) {
		req := base()
		bonus := dec("1000")
		req.MaxBonus = &bonus
		res, err := svc.Preview(req)
		require.NoError(t, err)
		assert.Equal(t, "1000.00", res.Payout.String())
	})

	t.Run("sub-goals need an id", func(t *testing.T) {
		req := base()
		req.Goals.SubGoals = map[commission.BucketCode][]commission.SubGoal{
			commission.BucketEffort: {{Label: "Calls", Goal: dec("10")}},
		}
		_, err := svc.Preview(req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("negative max bonus", func(t *testing.T) {
		req := base()
		bonus := dec("-1")
		req.MaxBonus = &bonus
		_, err := svc.Preview(req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rep is required", func(t *testing.T) {
		req := base()
		req.Rep.ID = ""
		_, err := svc.Preview(req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

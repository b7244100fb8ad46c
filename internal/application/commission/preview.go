package commissionapp

import (
	"fmt"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PreviewRequest scores supplied actuals against supplied goals without
// touching storage. MaxBonus overrides the configured bonus when set.
type PreviewRequest struct {
	Rep      commission.RepRef  `json:"rep"`
	Period   commission.Period  `json:"period"`
	Actuals  commission.Actuals `json:"actuals"`
	Goals    commission.Goals   `json:"goals"`
	MaxBonus *decimal.Decimal   `json:"maxBonus,omitempty"`
}

// Preview runs the bonus engine on request data only
func (s *Service) Preview(req PreviewRequest) (commission.Result, error) {
	if req.Rep.ID == "" {
		return commission.Result{}, fmt.Errorf("%w: rep id is required", shared.ErrInvalidInput)
	}
	if err := validatePeriod(req.Period.ID, req.Period.Start, req.Period.End); err != nil {
		return commission.Result{}, err
	}
	for code, subs := range req.Goals.SubGoals {
		for i := range subs {
			if err := s.validate.Struct(subs[i]); err != nil {
				return commission.Result{}, fmt.Errorf("%w: bucket %s sub-goal %d: %w", shared.ErrInvalidInput, code, i, err)
			}
		}
	}

	cfg := s.settings.Engine
	if req.MaxBonus != nil {
		cfg.MaxBonus = valueobject.NewMoney(*req.MaxBonus)
	}
	if err := cfg.Validate(); err != nil {
		return commission.Result{}, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return commission.Compute(req.Rep, req.Period, req.Actuals, req.Goals, cfg), nil
}

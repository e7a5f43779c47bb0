package trade

import (
	"errors"
	"fmt"
)

// Economy holds the tuning knobs of the trade model.
type Economy struct {
	// IntelligenceFactor scales the seller/buyer intelligence gap.
	IntelligenceFactor float64 `yaml:"intelligence_factor"`
	// BarterLadder maps a barter skill gap to a price factor. The gap indexes
	// the ladder and is clamped to its ends.
	BarterLadder []float64 `yaml:"barter_ladder"`

	// Free capacity assumed for shopkeepers, who are happy to hold a lot.
	ShopVolumeML int64 `yaml:"shop_volume_ml"`
	ShopWeightG  int64 `yaml:"shop_weight_g"`

	PickupRange     int `yaml:"pickup_range"`      // tiles
	PracticeDivisor int `yaml:"practice_divisor"`  // cents traded per practice point
	MaxSolverStates int `yaml:"max_solver_states"` // category autobalance frontier cap
}

// DefaultEconomy returns the stock tuning.
func DefaultEconomy() Economy {
	return Economy{
		IntelligenceFactor: 0.05,
		BarterLadder:       []float64{1.0, 1.05, 1.15, 1.30, 1.65, 1.85, 1.95, 2.0},
		ShopVolumeML:       5_000_000,
		ShopWeightG:        5_000_000,
		PickupRange:        6,
		PracticeDivisor:    10_000,
		MaxSolverStates:    1 << 12,
	}
}

// Validate checks that the economy can be used for pricing.
func (e Economy) Validate() error {
	var errs []error
	if e.IntelligenceFactor < 0 {
		errs = append(errs, fmt.Errorf("intelligence_factor must not be negative, got %v", e.IntelligenceFactor))
	}
	if len(e.BarterLadder) == 0 {
		errs = append(errs, errors.New("barter_ladder must not be empty"))
	}
	for i, f := range e.BarterLadder {
		if f < 0 {
			errs = append(errs, fmt.Errorf("barter_ladder[%d] must not be negative, got %v", i, f))
		}
	}
	if e.ShopVolumeML <= 0 || e.ShopWeightG <= 0 {
		errs = append(errs, errors.New("shop_volume_ml and shop_weight_g must be positive"))
	}
	if e.PickupRange < 0 {
		errs = append(errs, fmt.Errorf("pickup_range must not be negative, got %d", e.PickupRange))
	}
	if e.PracticeDivisor <= 0 {
		errs = append(errs, fmt.Errorf("practice_divisor must be positive, got %d", e.PracticeDivisor))
	}
	if e.MaxSolverStates <= 0 {
		errs = append(errs, fmt.Errorf("max_solver_states must be positive, got %d", e.MaxSolverStates))
	}
	return errors.Join(errs...)
}

// SkillFactor returns the price factor for a barter skill gap.
func (e Economy) SkillFactor(delta int) float64 {
	if len(e.BarterLadder) == 0 {
		return 1.0
	}
	idx := min(max(delta, 0), len(e.BarterLadder)-1)
	return e.BarterLadder[idx]
}

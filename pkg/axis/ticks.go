package axis

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/raykavin/tradechart/pkg/core"
)

// DefaultDivisions is the number of intervals used when the caller fixes
// the axis bounds instead of letting PlanLimits choose them.
const DefaultDivisions = 6

// Quantiles used to clip outliers when the bounds come from reference data.
const (
	LowerQuantile = 0.03
	UpperQuantile = 0.97
)

// maxTicks caps tick generation for plans built by hand.
const maxTicks = 10_000

var ErrTooManyTicks = errors.New("too many ticks")

// Ticks lists Min, Min+Step, ... up to and including Max.
func Ticks(p Plan) ([]float64, error) {
	if p.Step <= 0 || p.Max < p.Min {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRange, p)
	}

	start := decimal.NewFromFloat(p.Min)
	step := decimal.NewFromFloat(p.Step)
	count := decimal.NewFromFloat(p.Max).Sub(start).Div(step).Round(0).IntPart()
	if count > maxTicks {
		return nil, fmt.Errorf("%w: %d", ErrTooManyTicks, count)
	}

	ticks := make([]float64, 0, count+1)
	for i := int64(0); i <= count; i++ {
		ticks = append(ticks, start.Add(step.Mul(decimal.NewFromInt(i))).InexactFloat64())
	}

	return ticks, nil
}

// EvenPlan splits fixed bounds into divisions equal steps.
func EvenPlan(min, max float64, divisions int) (Plan, error) {
	if divisions <= 0 || !(max > min) {
		return Plan{}, fmt.Errorf("%w: [%v, %v] in %d divisions", ErrInvalidRange, min, max, divisions)
	}

	step := decimal.NewFromFloat(max).
		Sub(decimal.NewFromFloat(min)).
		Div(decimal.NewFromInt(int64(divisions)))

	return Plan{Min: min, Max: max, Step: step.InexactFloat64()}, nil
}

// QuantileRange returns the [lower, upper] quantile bounds of s.
func QuantileRange(s core.Series[float64], lower, upper float64) (Range, error) {
	low, err := core.Quantile(s, lower)
	if err != nil {
		return Range{}, err
	}

	high, err := core.Quantile(s, upper)
	if err != nil {
		return Range{}, err
	}

	return Range{Low: low, High: high}, nil
}

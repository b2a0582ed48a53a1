// Package axis plans numeric and date axes for financial charts: round
// limits, tick steps, tick positions and label sizes.
package axis

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/raykavin/tradechart/pkg/core"
)

// DefaultMaxTicks is the tick-count ceiling used when callers have no
// preference.
const DefaultMaxTicks = 10

var (
	// ErrDegenerateRange is returned when both bounds are zero and the order of
	// magnitude of the range is undefined.
	ErrDegenerateRange = errors.New("degenerate axis range: both bounds are zero")
	ErrInvalidRange    = errors.New("invalid axis range")
	ErrInvalidMaxTicks = errors.New("max ticks must be positive")
)

// stepMultipliers are the candidate steps, as fractions of the magnitude,
// in ascending order. The first one that honours the tick ceiling wins.
var stepMultipliers = [...]decimal.Decimal{
	decimal.RequireFromString("0.005"),
	decimal.RequireFromString("0.01"),
	decimal.RequireFromString("0.025"),
	decimal.RequireFromString("0.05"),
	decimal.RequireFromString("0.1"),
	decimal.RequireFromString("0.25"),
	decimal.RequireFromString("0.5"),
	decimal.RequireFromString("1"),
	decimal.RequireFromString("2"),
	decimal.RequireFromString("2.5"),
}

// Range is the real extent of the values to display.
type Range struct {
	Low  float64
	High float64
}

// RangeOf returns the min/max range of the finite values of s.
func RangeOf(s core.Series[float64]) (Range, error) {
	finite := core.Finite(s)
	if len(finite) == 0 {
		return Range{}, core.ErrEmptySeries
	}
	return Range{Low: finite.Min(), High: finite.Max()}, nil
}

// Extend widens r so that it contains every value.
func (r Range) Extend(values ...float64) Range {
	for _, v := range values {
		r.Low = math.Min(r.Low, v)
		r.High = math.Max(r.High, v)
	}
	return r
}

// Plan is a rounded axis: Min <= Low, Max >= High, and Step > 0.
type Plan struct {
	Min  float64
	Max  float64
	Step float64
}

// TickCount returns the number of steps between Min and Max.
func (p Plan) TickCount() float64 {
	return (p.Max - p.Min) / p.Step
}

func (p Plan) String() string {
	return fmt.Sprintf("[%v, %v] step %v", p.Min, p.Max, p.Step)
}

// PlanRange is PlanLimits for a Range.
func PlanRange(r Range, maxTicks int) (Plan, error) {
	return PlanLimits(r.Low, r.High, maxTicks)
}

// PlanLimits rounds [low, high] outwards to multiples of a "round" step,
// chosen so that the axis has at most maxTicks steps.
//
// The magnitude is the power of ten of max(|low|, |high|). The bounds are
// first rounded to a tenth of the magnitude, then the smallest candidate
// step (magnitude times 0.005 ... 2.5) whose step count fits maxTicks is
// taken, falling back to the largest candidate. A candidate fits only if
// both the provisional bounds and the bounds re-rounded to it stay within
// maxTicks steps. Finally low is floored and high ceiled to that step.
func PlanLimits(low, high float64, maxTicks int) (Plan, error) {
	if math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
		return Plan{}, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, low, high)
	}
	if low > high {
		return Plan{}, fmt.Errorf("%w: low %v above high %v", ErrInvalidRange, low, high)
	}
	if low == 0 && high == 0 {
		return Plan{}, ErrDegenerateRange
	}
	if maxTicks <= 0 {
		return Plan{}, fmt.Errorf("%w: %d", ErrInvalidMaxTicks, maxTicks)
	}

	exp := magnitudeExponent(math.Max(math.Abs(low), math.Abs(high)))
	magnitude := decimal.New(1, exp)
	roundBase := decimal.New(1, exp-1)

	dLow := decimal.NewFromFloat(low)
	dHigh := decimal.NewFromFloat(high)
	span := ceilTo(dHigh, roundBase).Sub(floorTo(dLow, roundBase))
	limit := decimal.NewFromInt(int64(maxTicks))

	step := magnitude.Mul(stepMultipliers[len(stepMultipliers)-1])
	for _, k := range stepMultipliers {
		candidate := magnitude.Mul(k)
		ceiling := candidate.Mul(limit)
		if span.GreaterThan(ceiling) {
			continue
		}
		// The provisional span can fit while the bounds re-rounded to a
		// coarser step do not, e.g. [0.15, 0.95] at step 0.1 with 8 ticks.
		if ceilTo(dHigh, candidate).Sub(floorTo(dLow, candidate)).GreaterThan(ceiling) {
			continue
		}
		step = candidate
		break
	}

	return Plan{
		Min:  floorTo(dLow, step).InexactFloat64(),
		Max:  ceilTo(dHigh, step).InexactFloat64(),
		Step: step.InexactFloat64(),
	}, nil
}

// magnitudeExponent returns floor(log10(v)) for v > 0, corrected for the
// rounding error of math.Log10 near exact powers of ten.
func magnitudeExponent(v float64) int32 {
	exp := int(math.Floor(math.Log10(v)))
	if math.Pow10(exp+1) <= v {
		exp++
	}
	if math.Pow10(exp) > v {
		exp--
	}
	return int32(exp)
}

var one = decimal.NewFromInt(1)

func floorTo(v, unit decimal.Decimal) decimal.Decimal {
	q, r := v.QuoRem(unit, 0)
	if r.IsNegative() {
		q = q.Sub(one)
	}
	return q.Mul(unit)
}

func ceilTo(v, unit decimal.Decimal) decimal.Decimal {
	q, r := v.QuoRem(unit, 0)
	if r.IsPositive() {
		q = q.Add(one)
	}
	return q.Mul(unit)
}

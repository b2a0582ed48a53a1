package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/stat"
)

// Series is an ordered column of values, oldest first.
type Series[T constraints.Ordered] []T

// Values returns the underlying slice of values
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the value at a specified position from the end
// position 0 is the last value, 1 is the second-to-last, etc.
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// LastValues returns a slice with the last 'size' values
// If size exceeds the length, returns the entire series
func (s Series[T]) LastValues(size int) Series[T] {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Min returns the smallest value. The zero value is returned for an empty series.
func (s Series[T]) Min() T {
	return lo.Min(s)
}

// Max returns the largest value. The zero value is returned for an empty series.
func (s Series[T]) Max() T {
	return lo.Max(s)
}

// Finite drops NaN and infinite values, which indicator columns carry during
// their warmup period.
func Finite(s Series[float64]) Series[float64] {
	return lo.Filter(s, func(v float64, _ int) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
}

// Quantile returns the p-quantile of the finite values of s, linearly
// interpolated between order statistics.
func Quantile(s Series[float64], p float64) (float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("quantile %v: %w", p, ErrOutOfRange)
	}

	sorted := slices.Clone(Finite(s))
	if len(sorted) == 0 {
		return 0, ErrEmptySeries
	}
	slices.Sort(sorted)

	return stat.Quantile(p, stat.LinInterp, sorted, nil), nil
}

package indicator

import (
	"fmt"
	"strconv"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/tradechart/pkg/core"
)

// SuperTrend is the ATR trailing band that flips between an upper band in a
// down trend and a lower band in an up trend, stored as
// supertrend_<period>_<factor>.
func SuperTrend(period int, factor float64) Indicator {
	return &superTrend{period: period, factor: factor}
}

type superTrend struct {
	period int
	factor float64
}

func (s superTrend) Name() string {
	return fmt.Sprintf("supertrend(%d, %g)", s.period, s.factor)
}

func (s superTrend) Warmup() int {
	return s.period
}

func (s superTrend) Columns() []string {
	return []string{fmt.Sprintf("supertrend_%d_%s", s.period, strconv.FormatFloat(s.factor, 'f', -1, 64))}
}

func (s superTrend) Load(df *core.Dataframe) error {
	if err := checkWarmup(df, s.Warmup()); err != nil {
		return err
	}

	high, low, closes := df.High, df.Low, df.Close
	atr := talib.Atr(high, low, closes, s.period)

	n := len(closes)
	finalUpper := make([]float64, n)
	finalLower := make([]float64, n)
	trend := make([]float64, n)

	// Starts in a down trend on the upper band.
	finalUpper[0], finalLower[0] = bands(high[0], low[0], atr[0], s.factor)
	trend[0] = finalUpper[0]

	for i := 1; i < n; i++ {
		upper, lower := bands(high[i], low[i], atr[i], s.factor)

		finalUpper[i] = finalUpper[i-1]
		if upper < finalUpper[i-1] || closes[i-1] > finalUpper[i-1] {
			finalUpper[i] = upper
		}

		finalLower[i] = finalLower[i-1]
		if lower > finalLower[i-1] || closes[i-1] < finalLower[i-1] {
			finalLower[i] = lower
		}

		wasDown := trend[i-1] == finalUpper[i-1]
		switch {
		case wasDown && closes[i] > finalUpper[i]:
			trend[i] = finalLower[i]
		case wasDown:
			trend[i] = finalUpper[i]
		case closes[i] < finalLower[i]:
			trend[i] = finalUpper[i]
		default:
			trend[i] = finalLower[i]
		}
	}

	return df.SetColumn(s.Columns()[0], masked(trend, s.Warmup()))
}

func bands(high, low, atr, factor float64) (upper, lower float64) {
	median := (high + low) / 2
	return median + atr*factor, median - atr*factor
}

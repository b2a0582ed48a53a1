package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/tradechart/pkg/core"
)

// EMA is the exponential moving average of close, stored as ema_<period>.
func EMA(period int) Indicator {
	return &movingAverage{kind: "ema", period: period, compute: talib.Ema}
}

// SMA is the simple moving average of close, stored as sma_<period>.
func SMA(period int) Indicator {
	return &movingAverage{kind: "sma", period: period, compute: talib.Sma}
}

type movingAverage struct {
	kind    string
	period  int
	compute func([]float64, int) []float64
}

func (m movingAverage) Name() string {
	return fmt.Sprintf("%s(%d)", m.kind, m.period)
}

func (m movingAverage) Warmup() int {
	return m.period - 1
}

func (m movingAverage) Columns() []string {
	return []string{fmt.Sprintf("%s_%d", m.kind, m.period)}
}

func (m movingAverage) Load(df *core.Dataframe) error {
	if err := checkWarmup(df, m.Warmup()); err != nil {
		return err
	}
	return df.SetColumn(m.Columns()[0], masked(m.compute(df.Close, m.period), m.Warmup()))
}

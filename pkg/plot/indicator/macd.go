package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/tradechart/pkg/core"
)

// MACD stores the moving average convergence divergence line, its signal
// line and their difference as macd, macd_signal and macd_hist. macd_hist
// is meant for DrawBar with a negative colour.
func MACD(fast, slow, signal int) Indicator {
	return &macd{fast: fast, slow: slow, signal: signal}
}

type macd struct {
	fast   int
	slow   int
	signal int
}

func (m macd) Name() string {
	return fmt.Sprintf("macd(%d, %d, %d)", m.fast, m.slow, m.signal)
}

func (m macd) Warmup() int {
	return m.slow + m.signal - 2
}

func (m macd) Columns() []string {
	return []string{"macd", "macd_signal", "macd_hist"}
}

func (m macd) Load(df *core.Dataframe) error {
	if m.fast >= m.slow {
		return fmt.Errorf("fast period %d must be below slow period %d", m.fast, m.slow)
	}
	if err := checkWarmup(df, m.Warmup()); err != nil {
		return err
	}

	line, signal, hist := talib.Macd(df.Close, m.fast, m.slow, m.signal)
	for i, values := range [][]float64{line, signal, hist} {
		if err := df.SetColumn(m.Columns()[i], masked(values, m.Warmup())); err != nil {
			return err
		}
	}
	return nil
}

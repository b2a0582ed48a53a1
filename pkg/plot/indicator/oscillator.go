package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/tradechart/pkg/core"
)

// RSI is the relative strength index of close, stored as rsi_<period>.
func RSI(period int) Indicator {
	return &rsi{period: period}
}

type rsi struct {
	period int
}

func (r rsi) Name() string { return fmt.Sprintf("rsi(%d)", r.period) }

func (r rsi) Warmup() int { return r.period }

func (r rsi) Columns() []string { return []string{fmt.Sprintf("rsi_%d", r.period)} }

func (r rsi) Load(df *core.Dataframe) error {
	if err := checkWarmup(df, r.Warmup()); err != nil {
		return err
	}
	return df.SetColumn(r.Columns()[0], masked(talib.Rsi(df.Close, r.period), r.Warmup()))
}

// CCI is the commodity channel index, stored as cci_<period>.
func CCI(period int) Indicator {
	return &cci{period: period}
}

type cci struct {
	period int
}

func (c cci) Name() string { return fmt.Sprintf("cci(%d)", c.period) }

func (c cci) Warmup() int { return c.period - 1 }

func (c cci) Columns() []string { return []string{fmt.Sprintf("cci_%d", c.period)} }

func (c cci) Load(df *core.Dataframe) error {
	if err := checkWarmup(df, c.Warmup()); err != nil {
		return err
	}
	values := talib.Cci(df.High, df.Low, df.Close, c.period)
	return df.SetColumn(c.Columns()[0], masked(values, c.Warmup()))
}

// Stoch is the slow stochastic oscillator, stored as stoch_k and stoch_d.
func Stoch(fastK, slowK, slowD int) Indicator {
	return &stoch{fastK: fastK, slowK: slowK, slowD: slowD}
}

type stoch struct {
	fastK, slowK, slowD int
}

func (s stoch) Name() string {
	return fmt.Sprintf("stoch(%d, %d, %d)", s.fastK, s.slowK, s.slowD)
}

func (s stoch) Warmup() int {
	return s.fastK + s.slowK + s.slowD - 3
}

func (s stoch) Columns() []string {
	return []string{"stoch_k", "stoch_d"}
}

func (s stoch) Load(df *core.Dataframe) error {
	if err := checkWarmup(df, s.Warmup()); err != nil {
		return err
	}

	k, d := talib.Stoch(df.High, df.Low, df.Close, s.fastK, s.slowK, talib.SMA, s.slowD, talib.SMA)
	if err := df.SetColumn("stoch_k", masked(k, s.Warmup())); err != nil {
		return err
	}
	return df.SetColumn("stoch_d", masked(d, s.Warmup()))
}

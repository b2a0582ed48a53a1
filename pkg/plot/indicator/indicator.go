// Package indicator computes indicator columns with go-talib and stores them
// in a dataframe, where the drawing routines pick them up by name.
package indicator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/raykavin/tradechart/pkg/core"
)

var (
	ErrInsufficientData = errors.New("not enough candles for indicator warmup")
	ErrUnknownIndicator = errors.New("unknown indicator")
)

// Indicator writes one or more columns into a dataframe.
type Indicator interface {
	Name() string
	// Warmup is the number of leading rows without a meaningful value.
	// They are stored as NaN.
	Warmup() int
	Columns() []string
	Load(df *core.Dataframe) error
}

// LoadAll loads every indicator into df, stopping at the first error.
func LoadAll(df *core.Dataframe, indicators ...Indicator) error {
	for _, i := range indicators {
		if err := i.Load(df); err != nil {
			return fmt.Errorf("%s: %w", i.Name(), err)
		}
	}
	return nil
}

// Parse builds an indicator from "name" or "name:arg,arg", for example
// "ema:20", "macd:12,26,9" or "rsi" (default period).
func Parse(spec string) (Indicator, error) {
	name, rawArgs, _ := strings.Cut(strings.ToLower(strings.TrimSpace(spec)), ":")

	var args []float64
	if rawArgs != "" {
		for _, raw := range strings.Split(rawArgs, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("indicator %q: %w", spec, err)
			}
			args = append(args, v)
		}
	}

	build, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
	}

	indicator, err := build(args)
	if err != nil {
		return nil, fmt.Errorf("indicator %q: %w", spec, err)
	}
	return indicator, nil
}

type parser func(args []float64) (Indicator, error)

var parsers = map[string]parser{
	"ema": periodParser(20, func(p int) Indicator { return EMA(p) }),
	"sma": periodParser(20, func(p int) Indicator { return SMA(p) }),
	"rsi": periodParser(14, func(p int) Indicator { return RSI(p) }),
	"cci": periodParser(20, func(p int) Indicator { return CCI(p) }),
	"macd": func(args []float64) (Indicator, error) {
		p, err := periods(args, 12, 26, 9)
		if err != nil {
			return nil, err
		}
		return MACD(p[0], p[1], p[2]), nil
	},
	"stoch": func(args []float64) (Indicator, error) {
		p, err := periods(args, 14, 3, 3)
		if err != nil {
			return nil, err
		}
		return Stoch(p[0], p[1], p[2]), nil
	},
	"supertrend": func(args []float64) (Indicator, error) {
		period, factor := 10, 3.0
		switch len(args) {
		case 0:
		case 2:
			factor = args[1]
			fallthrough
		case 1:
			p, err := periods(args[:1], period)
			if err != nil {
				return nil, err
			}
			period = p[0]
		default:
			return nil, errors.New("expected period and factor")
		}
		if factor <= 0 {
			return nil, errors.New("factor must be positive")
		}
		return SuperTrend(period, factor), nil
	},
}

func periodParser(defaultPeriod int, build func(int) Indicator) parser {
	return func(args []float64) (Indicator, error) {
		p, err := periods(args, defaultPeriod)
		if err != nil {
			return nil, err
		}
		return build(p[0]), nil
	}
}

// periods validates args as positive integers, falling back to defaults
// when no argument is given.
func periods(args []float64, defaults ...int) ([]int, error) {
	if len(args) == 0 {
		return defaults, nil
	}
	if len(args) != len(defaults) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(defaults), len(args))
	}

	out := make([]int, len(args))
	for i, v := range args {
		if v < 1 || v != math.Trunc(v) {
			return nil, fmt.Errorf("period %v must be a positive integer", v)
		}
		out[i] = int(v)
	}
	return out, nil
}

func checkWarmup(df *core.Dataframe, warmup int) error {
	if df.Len() <= warmup {
		return fmt.Errorf("%w: have %d, need more than %d", ErrInsufficientData, df.Len(), warmup)
	}
	return nil
}

// masked replaces the first warmup values with NaN.
func masked(values []float64, warmup int) core.Series[float64] {
	out := make(core.Series[float64], len(values))
	copy(out, values)
	for i := 0; i < warmup && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out
}

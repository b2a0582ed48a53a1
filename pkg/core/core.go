package core

import (
	"context"
	"time"
)

// Feeder supplies historical candles for charting.
type Feeder interface {
	CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]Candle, error)
}

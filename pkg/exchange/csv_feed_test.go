package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/tradechart/pkg/core"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

// hourlyCandles returns n hourly candles from first, with prices rising by 1.
func hourlyCandles(first time.Time, n int) []core.Candle {
	candles := make([]core.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = core.Candle{
			Pair:     "BTCUSDT",
			Time:     first.Add(time.Duration(i) * time.Hour),
			Open:     price,
			Close:    price + 0.5,
			Low:      price - 1,
			High:     price + 1,
			Volume:   1,
			Complete: true,
			Metadata: map[string]float64{"close_d": price + 0.7},
		}
	}
	return candles
}

func writeCandles(t *testing.T, candles []core.Candle) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "candles.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := NewCandleWriter(file, -1)
	require.NoError(t, writer.Write(candles...))
	require.NoError(t, writer.Flush())
	return path
}

func TestCSVFeedResample(t *testing.T) {
	t.Run("hourly to 4h", func(t *testing.T) {
		path := writeCandles(t, hourlyCandles(start, 10))

		feed, err := NewCSVFeed("4h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h"})
		require.NoError(t, err)

		candles, err := feed.Candles("BTCUSDT", "4h")
		require.NoError(t, err)
		require.Len(t, candles, 2)

		first := candles[0]
		assert.Equal(t, start, first.Time)
		assert.Equal(t, 100.0, first.Open)
		assert.Equal(t, 103.5, first.Close)
		assert.Equal(t, 99.0, first.Low)
		assert.Equal(t, 104.0, first.High)
		assert.Equal(t, 4.0, first.Volume)
		assert.Equal(t, 103.7, first.Metadata["close_d"])
		assert.True(t, first.Complete)

		assert.Equal(t, start.Add(4*time.Hour), candles[1].Time)
	})

	t.Run("skips partial first period", func(t *testing.T) {
		path := writeCandles(t, hourlyCandles(start.Add(time.Hour), 8))

		feed, err := NewCSVFeed("4h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h"})
		require.NoError(t, err)

		candles, err := feed.Candles("BTCUSDT", "4h")
		require.NoError(t, err)
		require.Len(t, candles, 1)
		assert.Equal(t, start.Add(4*time.Hour), candles[0].Time)
	})

	t.Run("same timeframe", func(t *testing.T) {
		path := writeCandles(t, hourlyCandles(start, 10))

		feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h"})
		require.NoError(t, err)

		candles, err := feed.Candles("BTCUSDT", "1h")
		require.NoError(t, err)
		assert.Len(t, candles, 10)
	})

	t.Run("heikin ashi", func(t *testing.T) {
		path := writeCandles(t, hourlyCandles(start, 2))

		feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h", HeikinAshi: true})
		require.NoError(t, err)

		candles, err := feed.Candles("BTCUSDT", "1h")
		require.NoError(t, err)
		assert.Equal(t, 100.25, candles[0].Open)
		assert.Equal(t, 100.125, candles[0].Close)
	})

	t.Run("invalid timeframes", func(t *testing.T) {
		path := writeCandles(t, hourlyCandles(start, 10))

		_, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "4h"})
		require.ErrorIs(t, err, ErrInvalidTimeframe)

		_, err = NewCSVFeed("7h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h"})
		require.ErrorIs(t, err, ErrInvalidTimeframe)

		_, err = NewCSVFeed("soon", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h"})
		require.ErrorIs(t, err, ErrInvalidTimeframe)
	})
}

func TestCSVFeedCandlesByPeriod(t *testing.T) {
	path := writeCandles(t, hourlyCandles(start, 10))
	feed, err := NewCSVFeed("1h", PairFeed{Pair: "BTCUSDT", File: path, Timeframe: "1h"})
	require.NoError(t, err)

	candles, err := feed.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start.Add(2*time.Hour), start.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, start.Add(2*time.Hour), candles[0].Time)
	assert.Equal(t, start.Add(4*time.Hour), candles[2].Time)

	_, err = feed.CandlesByPeriod(context.Background(), "ETHUSDT", "1h", start, start.Add(time.Hour))
	require.ErrorIs(t, err, ErrFeedNotFound)

	feed.Limit(2 * time.Hour)
	candles, err = feed.Candles("BTCUSDT", "1h")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, start.Add(8*time.Hour), candles[0].Time)
}

func TestIsTimeOnPeriodBoundary(t *testing.T) {
	sunday := time.Date(2023, time.June, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		time      time.Time
		timeframe string
		expected  bool
	}{
		{"hour", start.Add(time.Hour), "1h", true},
		{"half hour", start.Add(30 * time.Minute), "1h", false},
		{"four hours", start.Add(8 * time.Hour), "4h", true},
		{"not four hours", start.Add(6 * time.Hour), "4h", false},
		{"day", start, "1d", true},
		{"week on sunday", sunday, "1w", true},
		{"week on thursday", start, "1w", false},
		{"fifteen minutes", start.Add(45 * time.Minute), "15m", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := isTimeOnPeriodBoundary(tt.time, tt.timeframe)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

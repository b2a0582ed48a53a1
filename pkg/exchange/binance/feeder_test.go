package binance

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger/zerolog"
)

var start = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

// hourlyKlines serves hourly klines priced by offset, at most limit per call.
func hourlyKlines(offset float64, calls *int) klineFetcher {
	return func(_ context.Context, _, _ string, from, end time.Time, limit int) ([]kline, error) {
		*calls++

		var klines []kline
		for t := from.Truncate(time.Hour); !t.After(end) && len(klines) < limit; t = t.Add(time.Hour) {
			if t.Before(from) {
				continue
			}
			price := strconv.FormatFloat(offset+float64(t.Hour()), 'f', -1, 64)
			klines = append(klines, kline{
				OpenTime: t.UnixMilli(),
				Open:     price,
				High:     price,
				Low:      price,
				Close:    price,
				Volume:   "1",
			})
		}
		return klines, nil
	}
}

func testFeeder(t *testing.T, options ...Option) *Feeder {
	t.Helper()

	l, err := zerolog.New(zerolog.Options{Level: "error", JSON: true, Output: io.Discard})
	require.NoError(t, err)
	return newFeeder(zerolog.NewAdapter(l), options...)
}

func TestFeederPagination(t *testing.T) {
	feeder := testFeeder(t)
	feeder.limit = 2

	calls := 0
	feeder.fetchSpot = hourlyKlines(100, &calls)

	candles, err := feeder.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, start.Add(4*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	require.Len(t, candles, 5)
	for i, candle := range candles {
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), candle.Time)
		assert.Equal(t, 100+float64(i), candle.Close)
		assert.Equal(t, "BTCUSDT", candle.Pair)
		assert.True(t, candle.Complete)
	}
}

func TestFeederFuturesPrices(t *testing.T) {
	feeder := testFeeder(t, WithFuturesPrices())

	calls := 0
	feeder.fetchSpot = hourlyKlines(100, &calls)
	futuresPrices := hourlyKlines(200, &calls)
	feeder.fetchFutures = func(ctx context.Context, pair, period string, from, end time.Time, limit int) ([]kline, error) {
		// no futures kline for the last hour
		return futuresPrices(ctx, pair, period, from, end.Add(-time.Hour), limit)
	}

	candles, err := feeder.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, 200.0, candles[0].Metadata[core.ColumnCloseFutures])
	assert.Equal(t, 201.0, candles[1].Metadata[core.ColumnHighFutures])
	assert.Equal(t, 201.0, candles[1].Metadata[core.ColumnLowFutures])
	assert.True(t, math.IsNaN(candles[2].Metadata[core.ColumnCloseFutures]))
}

func TestFeederHeikinAshi(t *testing.T) {
	feeder := testFeeder(t, WithHeikinAshiCandles())
	feeder.fetchSpot = func(context.Context, string, string, time.Time, time.Time, int) ([]kline, error) {
		return []kline{{OpenTime: start.UnixMilli(), Open: "10", High: "14", Low: "8", Close: "12", Volume: "1"}}, nil
	}

	candles, err := feeder.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, start)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 11.0, candles[0].Open)
	assert.Equal(t, 11.0, candles[0].Close)
}

func TestFeederRetry(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		feeder := testFeeder(t, WithRetries(2))

		calls := 0
		serve := hourlyKlines(100, &calls)
		failures := 1
		feeder.fetchSpot = func(ctx context.Context, pair, period string, from, end time.Time, limit int) ([]kline, error) {
			if failures > 0 {
				failures--
				return nil, errors.New("timeout")
			}
			return serve(ctx, pair, period, from, end, limit)
		}

		candles, err := feeder.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, candles, 2)
	})

	t.Run("gives up", func(t *testing.T) {
		feeder := testFeeder(t, WithRetries(0))

		calls := 0
		feeder.fetchSpot = func(context.Context, string, string, time.Time, time.Time, int) ([]kline, error) {
			calls++
			return nil, errors.New("banned")
		}

		_, err := feeder.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, start.Add(time.Hour))
		require.EqualError(t, err, "banned")
		assert.Equal(t, 1, calls)
	})
}

func TestConvertKlineToCandle(t *testing.T) {
	candle, err := convertKlineToCandle("ETHUSDT", kline{
		OpenTime: start.UnixMilli(),
		Open:     "1850.5",
		High:     "1870",
		Low:      "1840.25",
		Close:    "1860",
		Volume:   "321.5",
	})
	require.NoError(t, err)
	assert.Equal(t, core.Candle{
		Pair:     "ETHUSDT",
		Time:     start,
		Open:     1850.5,
		Close:    1860,
		Low:      1840.25,
		High:     1870,
		Volume:   321.5,
		Complete: true,
	}, candle)

	_, err = convertKlineToCandle("ETHUSDT", kline{Open: "x"})
	require.ErrorIs(t, err, ErrInvalidKline)
}

func TestSplitAssetQuote(t *testing.T) {
	tests := []struct {
		pair, asset, quote string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"ETHBTC", "ETH", "BTC"},
		{"SOLBNB", "SOL", "BNB"},
		{"XRPEUR", "XRP", "EUR"},
		{"BTC", "BTC", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pair, func(t *testing.T) {
			asset, quote := SplitAssetQuote(tt.pair)
			assert.Equal(t, tt.asset, asset)
			assert.Equal(t, tt.quote, quote)
		})
	}
}

package exchange

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger"
	"github.com/raykavin/tradechart/pkg/logger/zerolog"
)

type period struct {
	start, end time.Time
}

// hourlyFeeder serves one candle per hour and records every request.
type hourlyFeeder struct {
	requests []period
	err      error
}

func (f *hourlyFeeder) CandlesByPeriod(_ context.Context, pair, _ string, start, end time.Time) ([]core.Candle, error) {
	f.requests = append(f.requests, period{start, end})
	if f.err != nil {
		return nil, f.err
	}

	var candles []core.Candle
	for t := start.Truncate(time.Hour); !t.After(end); t = t.Add(time.Hour) {
		if t.Before(start) {
			continue
		}
		candles = append(candles, core.Candle{Pair: pair, Time: t, Open: 1, Close: 2, Low: 0.5, High: 3, Volume: 1})
	}
	return candles, nil
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()

	l, err := zerolog.New(zerolog.Options{Level: "info", JSON: true, Output: io.Discard})
	require.NoError(t, err)
	return zerolog.NewAdapter(l)
}

func TestDownload(t *testing.T) {
	feeder := &hourlyFeeder{}
	path := filepath.Join(t.TempDir(), "btc.csv")

	err := NewDownloader(feeder, testLogger(t)).Download(context.Background(), "BTCUSDT", "1h", path,
		WithInterval(start, start.AddDate(0, 0, 1)),
		WithBatchSize(10),
		WithProgressOutput(io.Discard),
	)
	require.NoError(t, err)

	require.Len(t, feeder.requests, 3)
	assert.Equal(t, period{start, start.Add(10*time.Hour - time.Second)}, feeder.requests[0])
	assert.Equal(t, period{start.Add(20 * time.Hour), start.AddDate(0, 0, 1)}, feeder.requests[2])

	candles, err := ReadCandles(path, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, candles, 25)
	assert.Equal(t, start, candles[0].Time)
	assert.Equal(t, start.AddDate(0, 0, 1), candles[24].Time)
	for i := 1; i < len(candles); i++ {
		assert.True(t, candles[i].Time.After(candles[i-1].Time))
	}
}

func TestDownloadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btc.csv")
	interval := WithInterval(start, start.AddDate(0, 0, 1))

	feeder := &hourlyFeeder{err: errors.New("rate limited")}
	err := NewDownloader(feeder, testLogger(t)).Download(context.Background(), "BTCUSDT", "1h", path,
		interval, WithProgressOutput(io.Discard))
	require.EqualError(t, err, "rate limited")

	err = NewDownloader(&hourlyFeeder{}, testLogger(t)).Download(context.Background(), "BTCUSDT", "soon", path,
		interval, WithProgressOutput(io.Discard))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewDownloader(&hourlyFeeder{}, testLogger(t)).Download(ctx, "BTCUSDT", "1h", path,
		interval, WithProgressOutput(io.Discard))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeTimeParameters(t *testing.T) {
	parameters := &Parameters{
		Start: time.Date(2023, time.June, 1, 15, 30, 0, 0, time.UTC),
		End:   time.Date(2023, time.June, 3, 9, 0, 0, 0, time.UTC),
	}
	normalizeTimeParameters(parameters)

	assert.Equal(t, start, parameters.Start)
	assert.Equal(t, time.Date(2023, time.June, 3, 0, 0, 0, 0, time.UTC), parameters.End)

	future := &Parameters{Start: start, End: time.Now().Add(time.Hour)}
	normalizeTimeParameters(future)
	assert.False(t, future.End.After(time.Now()))
}

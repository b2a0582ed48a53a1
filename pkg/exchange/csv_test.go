package exchange

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/tradechart/pkg/core"
)

var start = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestDecodeCandles(t *testing.T) {
	t.Run("header with metadata", func(t *testing.T) {
		input := "time,open,close,low,high,volume,rsi\n" +
			"1685577600,100,101,99,102,10,55.5\n" +
			"1685581200,101,102,100,103,11,\n"

		candles, err := DecodeCandles(strings.NewReader(input), "BTCUSDT")
		require.NoError(t, err)
		require.Len(t, candles, 2)

		assert.Equal(t, core.Candle{
			Pair:     "BTCUSDT",
			Time:     start,
			Open:     100,
			Close:    101,
			Low:      99,
			High:     102,
			Volume:   10,
			Complete: true,
			Metadata: map[string]float64{"rsi": 55.5},
		}, candles[0])
		assert.Equal(t, start.Add(time.Hour), candles[1].Time)
		assert.True(t, math.IsNaN(candles[1].Metadata["rsi"]))
	})

	t.Run("reordered header", func(t *testing.T) {
		input := "volume,high,low,close,open,time\n10,102,99,101,100,1685577600\n"

		candles, err := DecodeCandles(strings.NewReader(input), "BTCUSDT")
		require.NoError(t, err)
		require.Len(t, candles, 1)
		assert.Equal(t, 100.0, candles[0].Open)
		assert.Equal(t, 102.0, candles[0].High)
		assert.Nil(t, candles[0].Metadata)
	})

	t.Run("no header", func(t *testing.T) {
		input := "1685577600,100,101,99,102,10\n"

		candles, err := DecodeCandles(strings.NewReader(input), "BTCUSDT")
		require.NoError(t, err)
		require.Len(t, candles, 1)
		assert.Equal(t, 101.0, candles[0].Close)
		assert.Equal(t, 99.0, candles[0].Low)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := DecodeCandles(strings.NewReader(""), "BTCUSDT")
		require.ErrorIs(t, err, ErrEmptyFile)

		_, err = DecodeCandles(strings.NewReader("time,open,close,low,high\n"), "BTCUSDT")
		require.ErrorIs(t, err, ErrMissingColumn)

		_, err = DecodeCandles(strings.NewReader("1685577600,100,x,99,102,10\n"), "BTCUSDT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
		assert.Contains(t, err.Error(), "close")
	})
}

func TestCandleWriter(t *testing.T) {
	t.Run("header only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewCandleWriter(&buf, 2).Flush())
		assert.Equal(t, "time,open,close,low,high,volume\n", buf.String())
	})

	t.Run("metadata columns", func(t *testing.T) {
		var buf bytes.Buffer
		writer := NewCandleWriter(&buf, 2)

		require.NoError(t, writer.Write(
			core.Candle{Time: start, Open: 1, Close: 2, Low: 0.5, High: 2.5, Volume: 3, Metadata: map[string]float64{"rsi": 40, "ema_20": 1.5}},
			core.Candle{Time: start.Add(time.Hour), Open: 2, Close: 3, Low: 1.5, High: 3.5, Volume: 4},
		))
		require.NoError(t, writer.Flush())

		assert.Equal(t, "time,open,close,low,high,volume,ema_20,rsi\n"+
			"1685577600,1.00,2.00,0.50,2.50,3.00,1.50,40.00\n"+
			"1685581200,2.00,3.00,1.50,3.50,4.00,NaN,NaN\n", buf.String())
	})
}

func TestCSVRoundTrip(t *testing.T) {
	candles := []core.Candle{
		{Time: start, Open: 100, Close: 100.25, Low: 99.5, High: 101, Volume: 12.5, Metadata: map[string]float64{"close_d": 100.3}},
		{Time: start.Add(time.Hour), Open: 100.25, Close: 99.75, Low: 99, High: 100.5, Volume: 7},
	}
	df, err := core.DataframeOf("ETHUSDT", candles)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "eth.csv")
	require.NoError(t, SaveCSV(path, df, -1))

	read, err := ReadCSV(path, "ETHUSDT")
	require.NoError(t, err)

	assert.Equal(t, df.Time, read.Time)
	assert.Equal(t, df.Close, read.Close)
	assert.Equal(t, df.Volume, read.Volume)
	require.Contains(t, read.Metadata, "close_d")
	assert.Equal(t, 100.3, read.Metadata["close_d"][0])
	assert.True(t, math.IsNaN(read.Metadata["close_d"][1]))
}

func TestReadCSVUnsorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unsorted.csv")
	var buf bytes.Buffer
	writer := NewCandleWriter(&buf, -1)
	require.NoError(t, writer.Write(
		core.Candle{Time: start.Add(time.Hour), Close: 1},
		core.Candle{Time: start, Close: 2},
	))
	require.NoError(t, writer.Flush())
	require.NoError(t, writeFile(path, buf.Bytes()))

	_, err := ReadCSV(path, "BTCUSDT")
	require.ErrorIs(t, err, core.ErrUnsortedCandles)

	_, err = ReadCSV(filepath.Join(t.TempDir(), "missing.csv"), "BTCUSDT")
	require.Error(t, err)
}

package plot

import (
	"bytes"
	"image/png"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/tradechart/pkg/axis"
	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger"
	"github.com/raykavin/tradechart/pkg/logger/zerolog"
)

var start = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()

	l, err := zerolog.New(zerolog.Options{Level: "info", JSON: true, Output: io.Discard})
	require.NoError(t, err)
	return zerolog.NewAdapter(l)
}

// priceFrame returns 48 hourly candles closing between 100 and 104.
func priceFrame(t *testing.T) *core.Dataframe {
	t.Helper()

	candles := make([]core.Candle, 48)
	for i := range candles {
		price := 100 + float64(i%5)
		candles[i] = core.Candle{
			Pair:  "BTCUSDT",
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  price,
			Close: price,
			High:  price + 1,
			Low:   price - 1,
			Metadata: map[string]float64{
				"osc":     float64(i%9) - 4,
				"close_d": price + 0.5,
				"high_d":  price + 2,
				"low_d":   price - 2,
			},
		}
	}

	df, err := core.DataframeOf("BTCUSDT", candles)
	require.NoError(t, err)
	return df
}

func frameOf(t *testing.T, column string, values ...float64) *core.Dataframe {
	t.Helper()

	candles := make([]core.Candle, len(values))
	for i, v := range values {
		candles[i] = core.Candle{
			Time:     start.Add(time.Duration(i) * time.Hour),
			Metadata: map[string]float64{column: v},
		}
	}

	df, err := core.DataframeOf("BTCUSDT", candles)
	require.NoError(t, err)
	return df
}

func trade() core.TradeInfo {
	return core.TradeInfo{
		ID:         1,
		Pair:       "BTCUSDT",
		Entry:      start.Add(5 * time.Hour),
		Exit:       start.Add(20 * time.Hour),
		EntryPrice: 101,
		ExitPrice:  109,
		StopLoss:   95,
		TakeProfit: 110,
		ExitReason: core.ExitTakeProfit,
	}
}

func TestPanel_DrawPrice(t *testing.T) {
	df := priceFrame(t)

	t.Run("range from low and high", func(t *testing.T) {
		p := newPanel("price")
		require.NoError(t, p.DrawPrice(df, time.Hour, nil))

		plan, ok := p.YPlan()
		require.True(t, ok)
		assert.Equal(t, axis.Plan{Min: 97.5, Max: 105, Step: 2.5}, plan)
		assert.Equal(t, "close", p.yLabel)
		assert.Len(t, p.series, 3)

		from, to, ok := p.XRange()
		require.True(t, ok)
		assert.Equal(t, start, from)
		assert.Equal(t, start.Add(47*time.Hour), to)
	})

	t.Run("range covers stop loss and take profit", func(t *testing.T) {
		tr := trade()
		p := newPanel("price")
		require.NoError(t, p.DrawPrice(df, time.Hour, &tr))

		plan, _ := p.YPlan()
		assert.Equal(t, axis.Plan{Min: 95, Max: 110, Step: 2.5}, plan)
		// two levels, entry and exit, then close, high and low
		assert.Len(t, p.series, 7)
	})

	t.Run("futures columns", func(t *testing.T) {
		p := newPanel("price")
		require.NoError(t, p.DrawPrice(df, 5*time.Minute, nil, WithFuturesPrice()))
		assert.Equal(t, core.ColumnCloseFutures, p.yLabel)

		plan, _ := p.YPlan()
		assert.LessOrEqual(t, plan.Min, 98.0)
		assert.GreaterOrEqual(t, plan.Max, 106.0)
	})

	t.Run("missing futures columns", func(t *testing.T) {
		p := newPanel("price")
		err := p.DrawPrice(frameOf(t, "x", 1, 2), time.Hour, nil, WithFuturesPrice())
		require.ErrorIs(t, err, core.ErrColumnNotFound)
	})

	t.Run("empty dataframe", func(t *testing.T) {
		p := newPanel("price")
		err := p.DrawPrice(core.NewDataframe("BTCUSDT"), time.Hour, nil)
		require.ErrorIs(t, err, core.ErrEmptyDataframe)
	})
}

func TestPanel_DrawLine(t *testing.T) {
	t.Run("planned from data", func(t *testing.T) {
		p := newPanel("rsi")
		require.NoError(t, p.DrawLine(frameOf(t, "rsi", 12, 40, 88), "rsi"))

		plan, _ := p.YPlan()
		assert.Equal(t, axis.Plan{Min: 10, Max: 90, Step: 10}, plan)
		assert.Len(t, p.yTicks, 9)
		assert.Equal(t, "10", p.yTicks[0].Label)
	})

	t.Run("fixed limits", func(t *testing.T) {
		p := newPanel("rsi")
		require.NoError(t, p.DrawLine(frameOf(t, "rsi", 12, 40, 88), "rsi", WithLimits(0, 60)))

		plan, _ := p.YPlan()
		assert.Equal(t, axis.Plan{Min: 0, Max: 60, Step: 10}, plan)
	})

	t.Run("quantiles of bound data", func(t *testing.T) {
		bound := make([]float64, 101)
		for i := range bound {
			bound[i] = float64(i)
		}

		p := newPanel("x")
		err := p.DrawLine(frameOf(t, "x", -50, 150), "x", WithBoundData(frameOf(t, "x", bound...)))
		require.NoError(t, err)

		plan, _ := p.YPlan()
		assert.Equal(t, axis.Plan{Min: 0, Max: 100, Step: 10}, plan)
	})

	t.Run("separator with fill", func(t *testing.T) {
		p := newPanel("osc")
		err := p.DrawLine(priceFrame(t), "osc", WithSeparator(0), WithFill(Green, Red), WithTrade(trade()))
		require.NoError(t, err)

		// entry, exit, line, separator, two fills
		require.Len(t, p.series, 6)
		above := p.series[4].(*fillSeries)
		below := p.series[5].(*fillSeries)
		assert.True(t, above.include(1))
		assert.False(t, above.include(0))
		assert.True(t, below.include(0))
	})

	t.Run("all zero column", func(t *testing.T) {
		p := newPanel("zero")
		err := p.DrawLine(frameOf(t, "zero", 0, 0, 0), "zero")
		require.ErrorIs(t, err, axis.ErrDegenerateRange)
	})

	t.Run("unknown column", func(t *testing.T) {
		p := newPanel("x")
		require.ErrorIs(t, p.DrawLine(priceFrame(t), "nope"), core.ErrColumnNotFound)
	})

	t.Run("invalid trade", func(t *testing.T) {
		p := newPanel("x")
		tr := trade()
		tr.Exit = tr.Entry.Add(-time.Hour)
		require.ErrorIs(t, p.DrawLine(priceFrame(t), "osc", WithTrade(tr)), core.ErrInvalidTrade)
	})
}

func TestPanel_DrawBar(t *testing.T) {
	df := frameOf(t, "hist", -3, 1, 4, -2)

	p := newPanel("hist")
	require.NoError(t, p.DrawBar(df, time.Hour, "hist", WithNegativeColor(Red)))

	bars := p.series[0].(*barSeries)
	assert.Equal(t, 42*time.Minute, bars.width)
	assert.Equal(t, Green, bars.color(1))
	assert.Equal(t, Red, bars.color(0))
	assert.Equal(t, Red, bars.color(-1))

	p = newPanel("hist")
	require.NoError(t, p.DrawBar(df, time.Hour, "hist", WithNegativeColor(Red), WithSeparator(2)))
	bars = p.series[0].(*barSeries)
	assert.Equal(t, Red, bars.color(1))
	assert.Equal(t, Green, bars.color(3))

	p = newPanel("hist")
	require.NoError(t, p.DrawBar(df, time.Hour, "hist"))
	bars = p.series[0].(*barSeries)
	assert.Equal(t, Green, bars.color(-1))

	require.Error(t, newPanel("hist").DrawBar(df, 0, "hist"))
}

func TestPanel_SetupXAxis(t *testing.T) {
	p := newPanel("x")
	require.NoError(t, p.SetupXAxis(start, start.Add(51*time.Hour), "1D"))

	require.Len(t, p.xTicks, 4)
	assert.Equal(t, "01.06.23", p.xTicks[0].Label)
	assert.Equal(t, "03.06.23", p.xTicks[2].Label)
	assert.Empty(t, p.xTicks[3].Label)

	require.NoError(t, p.SetupXAxis(start, start.Add(12*time.Hour), "6H"))
	require.Len(t, p.xTicks, 3)
	assert.Equal(t, "01.06.23 06:00", p.xTicks[1].Label)

	require.Error(t, p.SetupXAxis(start, start, "1d"))
	require.Error(t, p.SetupXAxis(start, start.Add(time.Hour), "often"))
}

func TestStepBounds(t *testing.T) {
	xs := []time.Time{start, start.Add(2 * time.Hour), start.Add(4 * time.Hour)}

	left, right := stepBounds(xs, 0)
	assert.Equal(t, float64(start.UnixNano()), left)
	assert.Equal(t, float64(start.Add(time.Hour).UnixNano()), right)

	left, right = stepBounds(xs, 2)
	assert.Equal(t, float64(start.Add(3*time.Hour).UnixNano()), left)
	assert.Equal(t, float64(start.Add(4*time.Hour).UnixNano()), right)
}

func TestExitColor(t *testing.T) {
	assert.Equal(t, Red, exitColor(core.ExitStopLoss))
	assert.Equal(t, Green, exitColor(core.ExitTakeProfit))
	assert.Equal(t, Brown, exitColor("timeout"))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("DimGray")
	require.NoError(t, err)
	assert.Equal(t, DimGray, c)

	c, err = ParseColor("#1f77b4")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x1f), c.R)
	assert.Equal(t, uint8(0xb4), c.B)

	_, err = ParseColor("chartreuse-ish")
	require.Error(t, err)
	_, err = ParseColor("#12zz56")
	require.Error(t, err)
}

func TestFigure_OnTrade(t *testing.T) {
	figure, err := NewFigure(testLogger(t))
	require.NoError(t, err)

	first, second := trade(), trade()
	second.ID = 2
	updated := first
	updated.ExitReason = core.ExitStopLoss

	require.NoError(t, figure.OnTrade(first))
	require.NoError(t, figure.OnTrade(second))
	require.NoError(t, figure.OnTrade(updated))

	trades := figure.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, int64(1), trades[0].ID)
	assert.Equal(t, core.ExitStopLoss, trades[0].ExitReason)
	assert.Equal(t, int64(2), trades[1].ID)

	require.ErrorIs(t, figure.OnTrade(core.TradeInfo{ID: 3}), core.ErrInvalidTrade)
}

func TestFigure_Render(t *testing.T) {
	df := priceFrame(t)

	figure, err := NewFigure(testLogger(t), WithWidth(640), WithPanelHeight(240))
	require.NoError(t, err)
	require.NoError(t, figure.OnTrade(trade()))

	price := figure.AddPanel("price")
	require.NoError(t, price.DrawPrice(df, time.Hour, nil))
	price.VerticalLines([]time.Time{start.Add(24 * time.Hour)})

	osc := figure.AddPanel("osc")
	require.NoError(t, osc.DrawBar(df, time.Hour, "osc", WithNegativeColor(Red)))

	var buf bytes.Buffer
	require.NoError(t, figure.Render(&buf))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)

	_, _, ok := osc.XRange()
	assert.True(t, ok, "second panel shares the first panel's x axis")

	path := filepath.Join(t.TempDir(), "figure.png")
	require.NoError(t, figure.Save(path))
	assert.FileExists(t, path)
}

func TestPanel_TradeMarkers(t *testing.T) {
	df := priceFrame(t)
	drawn := trade()
	other := trade()
	other.ID = 2

	price := newPanel("price")
	require.NoError(t, price.DrawPrice(df, time.Hour, &drawn))
	osc := newPanel("osc")
	require.NoError(t, osc.DrawLine(df, "osc", WithTrade(other)))
	plain := newPanel("plain")

	trades := []core.TradeInfo{drawn, other}
	// entry and exit lines per trade not already drawn on the panel
	assert.Len(t, price.tradeMarkers(trades), 2)
	assert.Len(t, osc.tradeMarkers(trades), 2)
	assert.Len(t, plain.tradeMarkers(trades), 4)
}

func TestFigure_RenderErrors(t *testing.T) {
	figure, err := NewFigure(testLogger(t))
	require.NoError(t, err)
	require.ErrorIs(t, figure.Render(io.Discard), ErrEmptyFigure)

	figure.AddPanel("empty")
	require.ErrorIs(t, figure.Render(io.Discard), ErrEmptyPanel)

	figure, err = NewFigure(testLogger(t))
	require.NoError(t, err)
	figure.AddPanel("lines").VerticalLines([]time.Time{start})
	require.ErrorIs(t, figure.Render(io.Discard), ErrNoXAxis)

	_, err = NewFigure(testLogger(t), WithWidth(0))
	require.Error(t, err)
}

package plot

import (
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/tradechart/pkg/axis"
	"github.com/raykavin/tradechart/pkg/core"
)

// Bars take this share of the candle duration.
const barWidthRatio = 0.7

// Opacity of the areas filled by WithFill.
const fillAlpha = 0.4

type drawConfig struct {
	color     drawing.Color
	negColor  *drawing.Color
	lineWidth float64
	alpha     float64
	maxTicks  int

	trade     *core.TradeInfo
	bound     *core.Dataframe
	limits    *axis.Range
	separator *float64
	fillPos   *drawing.Color
	fillNeg   *drawing.Color
	futures   bool
}

// DrawOption customises a drawing routine.
type DrawOption func(*drawConfig)

// WithColor sets the line colour, or the bar colour above the separator.
func WithColor(c drawing.Color) DrawOption {
	return func(cfg *drawConfig) {
		cfg.color = c
	}
}

// WithNegativeColor colours bars at or below the separator.
func WithNegativeColor(c drawing.Color) DrawOption {
	return func(cfg *drawConfig) {
		cfg.negColor = &c
	}
}

func WithLineWidth(width float64) DrawOption {
	return func(cfg *drawConfig) {
		cfg.lineWidth = width
	}
}

func WithAlpha(alpha float64) DrawOption {
	return func(cfg *drawConfig) {
		cfg.alpha = alpha
	}
}

// WithMaxTicks caps the number of Y steps chosen by the planner.
func WithMaxTicks(n int) DrawOption {
	return func(cfg *drawConfig) {
		cfg.maxTicks = n
	}
}

// WithTrade marks the entry and exit of trade on the panel.
func WithTrade(trade core.TradeInfo) DrawOption {
	return func(cfg *drawConfig) {
		cfg.trade = &trade
	}
}

// WithBoundData takes the Y limits from the 3% and 97% quantiles of the same
// column in df instead of the drawn data.
func WithBoundData(df *core.Dataframe) DrawOption {
	return func(cfg *drawConfig) {
		cfg.bound = df
	}
}

// WithLimits fixes the Y limits; the axis is split in six even steps.
func WithLimits(min, max float64) DrawOption {
	return func(cfg *drawConfig) {
		cfg.limits = &axis.Range{Low: min, High: max}
	}
}

// WithSeparator draws a dashed reference line at level. For bars it is the
// level that picks the positive or negative colour.
func WithSeparator(level float64) DrawOption {
	return func(cfg *drawConfig) {
		cfg.separator = &level
	}
}

// WithFill shades the area under a line in pos above the separator and in
// neg at or below it. It needs WithSeparator.
func WithFill(pos, neg drawing.Color) DrawOption {
	return func(cfg *drawConfig) {
		cfg.fillPos, cfg.fillNeg = &pos, &neg
	}
}

// WithFuturesPrice makes DrawPrice use the high_d, low_d and close_d columns.
func WithFuturesPrice() DrawOption {
	return func(cfg *drawConfig) {
		cfg.futures = true
	}
}

func newDrawConfig(color drawing.Color, lineWidth, alpha float64, opts []DrawOption) drawConfig {
	cfg := drawConfig{
		color:     color,
		lineWidth: lineWidth,
		alpha:     alpha,
		maxTicks:  axis.DefaultMaxTicks,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// yPlan picks the Y limits for column: fixed limits first, then quantiles
// of the bound data, then the range of the drawn values.
func (cfg drawConfig) yPlan(column string, values core.Series[float64]) (axis.Plan, error) {
	switch {
	case cfg.limits != nil:
		return axis.EvenPlan(cfg.limits.Low, cfg.limits.High, axis.DefaultDivisions)

	case cfg.bound != nil:
		bound, err := cfg.bound.Column(column)
		if err != nil {
			return axis.Plan{}, fmt.Errorf("bound data: %w", err)
		}
		r, err := axis.QuantileRange(bound, axis.LowerQuantile, axis.UpperQuantile)
		if err != nil {
			return axis.Plan{}, fmt.Errorf("bound data %s: %w", column, err)
		}
		return axis.PlanRange(r, cfg.maxTicks)

	default:
		r, err := axis.RangeOf(values)
		if err != nil {
			return axis.Plan{}, fmt.Errorf("%s: %w", column, err)
		}
		return axis.PlanRange(r, cfg.maxTicks)
	}
}

func lineStyle(c drawing.Color, width, alpha float64) chart.Style {
	return chart.Style{StrokeColor: withAlpha(c, alpha), StrokeWidth: width}
}

func dashedStyle(c drawing.Color, width, alpha float64) chart.Style {
	style := lineStyle(c, width, alpha)
	style.StrokeDashArray = dashed
	return style
}

func columnOf(df *core.Dataframe, column string) (core.Series[float64], error) {
	if df == nil || df.Len() == 0 {
		return nil, core.ErrEmptyDataframe
	}
	return df.Column(column)
}

// DrawLine plots column as a mid-step line and sets the Y axis from it.
func (p *Panel) DrawLine(df *core.Dataframe, column string, opts ...DrawOption) error {
	cfg := newDrawConfig(Grey, 1, 1, opts)

	values, err := columnOf(df, column)
	if err != nil {
		return err
	}

	plan, err := cfg.yPlan(column, values)
	if err != nil {
		return err
	}
	if err := p.setYAxis(column, plan); err != nil {
		return err
	}

	if cfg.trade != nil {
		if err := p.DrawTradeInfo(*cfg.trade, false); err != nil {
			return err
		}
	}

	p.add(&stepSeries{
		annotation: annotation{name: column, style: lineStyle(cfg.color, cfg.lineWidth, cfg.alpha)},
		xs:         df.Time,
		ys:         values,
	})

	if cfg.separator == nil {
		return nil
	}

	sep := *cfg.separator
	p.add(&horizontalLines{
		annotation: annotation{name: column + " separator", style: dashedStyle(Grey, 1, 1)},
		at:         []float64{sep},
	})

	if cfg.fillPos != nil && cfg.fillNeg != nil {
		p.add(
			&fillSeries{
				annotation: annotation{name: column + " above", style: chart.Style{FillColor: withAlpha(*cfg.fillPos, fillAlpha)}},
				xs:         df.Time,
				ys:         values,
				include:    func(v float64) bool { return v > sep },
			},
			&fillSeries{
				annotation: annotation{name: column + " below", style: chart.Style{FillColor: withAlpha(*cfg.fillNeg, fillAlpha)}},
				xs:         df.Time,
				ys:         values,
				include:    func(v float64) bool { return v <= sep },
			},
		)
	}

	return nil
}

// DrawBar plots column as bars 70% of timeStep wide. With a negative colour,
// bars above the separator (zero by default) take the main colour and the
// others the negative one.
func (p *Panel) DrawBar(df *core.Dataframe, timeStep time.Duration, column string, opts ...DrawOption) error {
	cfg := newDrawConfig(Green, 0, 1, opts)

	if timeStep <= 0 {
		return fmt.Errorf("%w: time step %s", axis.ErrInvalidRange, timeStep)
	}

	values, err := columnOf(df, column)
	if err != nil {
		return err
	}

	plan, err := cfg.yPlan(column, values)
	if err != nil {
		return err
	}
	if err := p.setYAxis(column, plan); err != nil {
		return err
	}

	if cfg.trade != nil {
		if err := p.DrawTradeInfo(*cfg.trade, false); err != nil {
			return err
		}
	}

	var sep float64
	if cfg.separator != nil {
		sep = *cfg.separator
	}

	pos := withAlpha(cfg.color, cfg.alpha)
	colorOf := func(float64) drawing.Color { return pos }
	if cfg.negColor != nil {
		neg := withAlpha(*cfg.negColor, cfg.alpha)
		colorOf = func(v float64) drawing.Color {
			if v > sep {
				return pos
			}
			return neg
		}
	}

	p.add(&barSeries{
		annotation: annotation{name: column},
		xs:         df.Time,
		ys:         values,
		width:      time.Duration(barWidthRatio * float64(timeStep)),
		color:      colorOf,
	})

	return nil
}

// DrawPrice plots close in blue with high and low in dim grey, sets the X
// axis from the data span and the Y axis from the low/high range. With a
// trade the range also covers its stop-loss and take-profit, which are drawn
// as horizontal lines.
func (p *Panel) DrawPrice(df *core.Dataframe, timeStep time.Duration, trade *core.TradeInfo, opts ...DrawOption) error {
	cfg := newDrawConfig(Blue, 1, 1, opts)

	highColumn, lowColumn, closeColumn := core.ColumnHigh, core.ColumnLow, core.ColumnClose
	if cfg.futures {
		highColumn, lowColumn, closeColumn = core.ColumnHighFutures, core.ColumnLowFutures, core.ColumnCloseFutures
	}

	closes, err := columnOf(df, closeColumn)
	if err != nil {
		return err
	}
	highs, err := df.Column(highColumn)
	if err != nil {
		return err
	}
	lows, err := df.Column(lowColumn)
	if err != nil {
		return err
	}

	start, end, err := df.Span()
	if err != nil {
		return err
	}
	if err := p.SetupXAxis(start, end, axis.FrequencyFor(timeStep)); err != nil {
		return err
	}

	highRange, err := axis.RangeOf(highs)
	if err != nil {
		return fmt.Errorf("%s: %w", highColumn, err)
	}
	lowRange, err := axis.RangeOf(lows)
	if err != nil {
		return fmt.Errorf("%s: %w", lowColumn, err)
	}
	priceRange := axis.Range{Low: lowRange.Low, High: highRange.High}

	if trade != nil {
		priceRange = priceRange.Extend(trade.PriceLevels()...)
		if err := p.DrawTradeInfo(*trade, true); err != nil {
			return err
		}
	}

	p.add(
		&stepSeries{
			annotation: annotation{name: closeColumn, style: lineStyle(cfg.color, cfg.lineWidth, cfg.alpha)},
			xs:         df.Time,
			ys:         closes,
		},
		&stepSeries{
			annotation: annotation{name: highColumn, style: lineStyle(DimGray, cfg.lineWidth, cfg.alpha)},
			xs:         df.Time,
			ys:         highs,
		},
		&stepSeries{
			annotation: annotation{name: lowColumn, style: lineStyle(DimGray, cfg.lineWidth, cfg.alpha)},
			xs:         df.Time,
			ys:         lows,
		},
	)

	plan, err := axis.PlanRange(priceRange, cfg.maxTicks)
	if err != nil {
		return err
	}
	return p.setYAxis(closeColumn, plan)
}

// DrawTradeInfo marks the entry (black) and exit of trade with dashed
// vertical lines. The exit is red after a stop-loss, green after a
// take-profit and brown otherwise. withLevels also draws the stop-loss (red)
// and take-profit (green) levels.
func (p *Panel) DrawTradeInfo(trade core.TradeInfo, withLevels bool, opts ...DrawOption) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	cfg := newDrawConfig(Black, 1, 0.8, opts)
	p.add(tradeSeries(trade, withLevels, cfg.lineWidth, cfg.alpha)...)
	p.marked[trade.ID] = struct{}{}
	return nil
}

// tradeMarkers returns the entry and exit lines of the trades this panel
// has not marked itself.
func (p *Panel) tradeMarkers(trades []core.TradeInfo) []chart.Series {
	var markers []chart.Series
	for _, trade := range trades {
		if _, ok := p.marked[trade.ID]; ok {
			continue
		}
		markers = append(markers, tradeSeries(trade, false, 1, 0.8)...)
	}
	return markers
}

// VerticalLines draws black dashed reference lines at each time, for
// example the quarterly anchor dates.
func (p *Panel) VerticalLines(times []time.Time, opts ...DrawOption) {
	cfg := newDrawConfig(Black, 1, 0.35, opts)
	p.add(&verticalLines{
		annotation: annotation{name: "reference", style: dashedStyle(cfg.color, cfg.lineWidth, cfg.alpha)},
		at:         times,
	})
}

var exitColors = map[core.ExitReason]drawing.Color{
	core.ExitStopLoss:   Red,
	core.ExitTakeProfit: Green,
}

func exitColor(reason core.ExitReason) drawing.Color {
	if c, ok := exitColors[reason]; ok {
		return c
	}
	return Brown
}

func tradeSeries(trade core.TradeInfo, withLevels bool, width, alpha float64) []chart.Series {
	series := make([]chart.Series, 0, 4)

	if withLevels {
		series = append(series,
			&horizontalLines{
				annotation: annotation{name: "stop loss", style: lineStyle(Red, width, alpha)},
				at:         []float64{trade.StopLoss},
			},
			&horizontalLines{
				annotation: annotation{name: "take profit", style: lineStyle(Green, width, alpha)},
				at:         []float64{trade.TakeProfit},
			},
		)
	}

	return append(series,
		&verticalLines{
			annotation: annotation{name: "entry", style: dashedStyle(Black, width, alpha)},
			at:         []time.Time{trade.Entry},
		},
		&verticalLines{
			annotation: annotation{name: "exit", style: dashedStyle(exitColor(trade.ExitReason), width, alpha)},
			at:         []time.Time{trade.Exit},
		},
	)
}

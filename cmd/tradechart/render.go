package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raykavin/tradechart/pkg/axis"
	"github.com/raykavin/tradechart/pkg/calendar"
	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/exchange"
	"github.com/raykavin/tradechart/pkg/notification"
	"github.com/raykavin/tradechart/pkg/plot"
	"github.com/raykavin/tradechart/pkg/plot/indicator"
)

// renderRequest holds everything needed to draw one figure.
type renderRequest struct {
	Input           string
	Pair            string
	SourceTimeframe string
	Timeframe       string
	Output          string
	Indicators      []string
	Days            int
	Futures         bool
	HeikinAshi      bool
	Anchors         bool
	ShiftDays       int
	Width           int
	PanelHeight     int
	MaxTicks        int
	Trade           *core.TradeInfo
	Trades          []*core.TradeInfo
}

// Render command flags
var (
	render        renderRequest
	renderTradeID int64
	renderTrades  bool
	renderSend    bool
	renderCaption string
)

func buildRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a candle CSV file, its indicators and trades to PNG",
		RunE:  runRender,
	}

	flags := renderCmd.Flags()
	flags.StringVarP(&render.Input, "input", "i", "", "Candle CSV file")
	flags.StringVarP(&render.Pair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	flags.StringVarP(&render.SourceTimeframe, "source-timeframe", "s", "1h", "Timeframe of the CSV candles")
	flags.StringVarP(&render.Timeframe, "timeframe", "t", "", "Resample to this timeframe (default source timeframe)")
	flags.StringVarP(&render.Output, "output", "o", "chart.png", "Output PNG file")
	flags.StringSliceVar(&render.Indicators, "indicator", nil, "Indicator panel, repeatable (e.g. rsi:14, macd:12,26,9)")
	flags.IntVar(&render.Days, "days", 0, "Only draw the last N days")
	flags.BoolVarP(&render.Futures, "futures", "f", false, "Draw the futures price columns")
	flags.BoolVar(&render.HeikinAshi, "heikin-ashi", false, "Draw Heikin-Ashi candles")
	flags.BoolVar(&render.Anchors, "anchors", false, "Mark quarterly anchor dates")
	flags.Int64Var(&renderTradeID, "trade", 0, "Stored trade whose stop-loss and take-profit levels are drawn")
	flags.BoolVar(&renderTrades, "trades", false, "Mark every stored trade of the pair within the chart")
	flags.BoolVar(&renderSend, "send", false, "Publish the chart to the configured Telegram chats")
	flags.StringVar(&renderCaption, "caption", "", "Telegram caption (default pair and timeframe)")

	renderCmd.MarkFlagRequired("input")
	renderCmd.MarkFlagRequired("pair")

	return renderCmd
}

func runRender(_ *cobra.Command, _ []string) error {
	request := render
	request.ShiftDays = cfg.ShiftDays
	request.Width = cfg.Width
	request.PanelHeight = cfg.PanelHeight
	request.MaxTicks = cfg.MaxTicks

	if renderTradeID > 0 || renderTrades {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if renderTradeID > 0 {
			if request.Trade, err = store.Trade(renderTradeID); err != nil {
				return err
			}
		}
		if renderTrades {
			if request.Trades, err = store.Trades(core.WithPair(request.Pair)); err != nil {
				return err
			}
		}
	}

	if err := renderChart(request); err != nil {
		return err
	}
	log.WithField("file", request.Output).Info("Chart rendered")

	if !renderSend {
		return nil
	}
	return publishChart(request)
}

// renderChart loads the candles of r, adds its indicators and writes the
// figure to r.Output.
func renderChart(r renderRequest) error {
	if r.Timeframe == "" {
		r.Timeframe = r.SourceTimeframe
	}

	feed, err := exchange.NewCSVFeed(r.Timeframe, exchange.PairFeed{
		Pair:       r.Pair,
		File:       r.Input,
		Timeframe:  r.SourceTimeframe,
		HeikinAshi: r.HeikinAshi,
	})
	if err != nil {
		return err
	}
	if r.Days > 0 {
		feed.Limit(time.Duration(r.Days) * 24 * time.Hour)
	}

	candles, err := feed.Candles(r.Pair, r.Timeframe)
	if err != nil {
		return err
	}
	df, err := core.DataframeOf(r.Pair, candles)
	if err != nil {
		return err
	}

	step, err := axis.ParseFrequency(r.Timeframe)
	if err != nil {
		return err
	}

	indicators := make([]indicator.Indicator, 0, len(r.Indicators))
	for _, spec := range r.Indicators {
		i, err := indicator.Parse(spec)
		if err != nil {
			return err
		}
		indicators = append(indicators, i)
	}
	if err := indicator.LoadAll(df, indicators...); err != nil {
		return err
	}

	figure, err := plot.NewFigure(log, plot.WithWidth(r.Width), plot.WithPanelHeight(r.PanelHeight))
	if err != nil {
		return err
	}

	start, end, err := df.Span()
	if err != nil {
		return err
	}
	for _, trade := range r.Trades {
		if trade.Entry.After(end) || trade.Exit.Before(start) {
			continue
		}
		if err := figure.OnTrade(*trade); err != nil {
			return err
		}
	}

	priceOptions := []plot.DrawOption{plot.WithMaxTicks(r.MaxTicks)}
	if r.Futures {
		priceOptions = append(priceOptions, plot.WithFuturesPrice())
	}

	price := figure.AddPanel(r.Pair)
	if err := price.DrawPrice(df, step, r.Trade, priceOptions...); err != nil {
		return err
	}

	if r.Anchors {
		anchors := calendar.AnchorsFor(df.Time, r.ShiftDays)
		price.VerticalLines(lo.Map(anchors, func(d calendar.Date, _ int) time.Time { return d.Time() }))
	}

	for _, i := range indicators {
		for _, column := range i.Columns() {
			if err := drawIndicator(figure.AddPanel(column), df, step, column, r.MaxTicks); err != nil {
				return fmt.Errorf("%s: %w", column, err)
			}
		}
	}

	return figure.Save(r.Output)
}

// drawIndicator picks a drawing routine by column name: histograms as
// two-colour bars, bounded oscillators on a fixed 0-100 axis, CCI within its
// quantiles, and anything else as a plain line.
func drawIndicator(panel *plot.Panel, df *core.Dataframe, step time.Duration, column string, maxTicks int) error {
	ticks := plot.WithMaxTicks(maxTicks)

	switch {
	case strings.HasSuffix(column, "_hist"):
		return panel.DrawBar(df, step, column, ticks,
			plot.WithColor(plot.Green), plot.WithNegativeColor(plot.Red))
	case strings.HasPrefix(column, "rsi_"), strings.HasPrefix(column, "stoch_"):
		return panel.DrawLine(df, column, ticks, plot.WithColor(plot.Purple),
			plot.WithLimits(0, 100), plot.WithSeparator(50), plot.WithFill(plot.Green, plot.Red))
	case strings.HasPrefix(column, "cci_"):
		return panel.DrawLine(df, column, ticks, plot.WithColor(plot.Orange),
			plot.WithBoundData(df), plot.WithSeparator(0), plot.WithFill(plot.Green, plot.Red))
	default:
		return panel.DrawLine(df, column, ticks, plot.WithColor(plot.Blue))
	}
}

func publishChart(r renderRequest) error {
	if !cfg.Telegram.Enabled {
		return fmt.Errorf("telegram is disabled, set telegram.enabled in the configuration")
	}

	telegram, err := notification.NewTelegram(cfg.Telegram.Token, cfg.Telegram.Chats)
	if err != nil {
		return err
	}

	file, err := os.Open(r.Output)
	if err != nil {
		return err
	}
	defer file.Close()

	caption := renderCaption
	if caption == "" {
		caption = fmt.Sprintf("%s %s", r.Pair, lo.Ternary(r.Timeframe != "", r.Timeframe, r.SourceTimeframe))
	}

	if err := telegram.SendChart(file, caption); err != nil {
		return err
	}
	if r.Trade != nil {
		telegram.OnTrade(*r.Trade)
	}
	return nil
}

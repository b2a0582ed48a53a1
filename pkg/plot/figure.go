package plot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/StudioSol/set"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/logger"
)

var ErrEmptyFigure = errors.New("figure has no panels")

// Figure stacks panels vertically into a single PNG. Panels without their
// own X axis share the axis of the first panel that has one.
type Figure struct {
	sync.Mutex
	width       int
	panelHeight int
	panels      []*Panel
	tradeIDs    *set.LinkedHashSetINT64
	tradeByID   map[int64]core.TradeInfo
	log         logger.Logger
}

// Option configures a Figure.
type Option func(*Figure)

// WithWidth sets the figure width in pixels.
func WithWidth(width int) Option {
	return func(f *Figure) {
		f.width = width
	}
}

// WithPanelHeight sets the height of each panel in pixels.
func WithPanelHeight(height int) Option {
	return func(f *Figure) {
		f.panelHeight = height
	}
}

// NewFigure creates an empty figure, 1200 pixels wide with 300 pixel panels
// unless options say otherwise.
func NewFigure(log logger.Logger, options ...Option) (*Figure, error) {
	figure := &Figure{
		width:       1200,
		panelHeight: 300,
		tradeIDs:    set.NewLinkedHashSetINT64(),
		tradeByID:   make(map[int64]core.TradeInfo),
		log:         log,
	}

	for _, option := range options {
		option(figure)
	}

	if figure.width <= 0 || figure.panelHeight <= 0 {
		return nil, fmt.Errorf("invalid figure size %dx%d", figure.width, figure.panelHeight)
	}

	return figure, nil
}

// AddPanel appends a panel below the existing ones.
func (f *Figure) AddPanel(name string) *Panel {
	f.Lock()
	defer f.Unlock()

	panel := newPanel(name)
	f.panels = append(f.panels, panel)
	return panel
}

// Panels returns the panels from top to bottom.
func (f *Figure) Panels() []*Panel {
	f.Lock()
	defer f.Unlock()

	return append([]*Panel(nil), f.panels...)
}

// OnTrade records a trade to mark at render time on every panel that has not
// drawn it through DrawTradeInfo, DrawPrice or WithTrade. A trade
// recorded again under the same ID replaces the earlier one and keeps its
// position.
func (f *Figure) OnTrade(trade core.TradeInfo) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	f.Lock()
	defer f.Unlock()

	f.tradeIDs.Add(trade.ID)
	f.tradeByID[trade.ID] = trade
	return nil
}

// Trades returns the recorded trades in the order they were first seen.
func (f *Figure) Trades() []core.TradeInfo {
	f.Lock()
	defer f.Unlock()

	return f.trades()
}

func (f *Figure) trades() []core.TradeInfo {
	trades := make([]core.TradeInfo, 0, len(f.tradeByID))
	for id := range f.tradeIDs.Iter() {
		trades = append(trades, f.tradeByID[id])
	}
	return trades
}

// Render draws every panel and writes the stacked figure to w as PNG.
func (f *Figure) Render(w io.Writer) error {
	f.Lock()
	defer f.Unlock()

	if len(f.panels) == 0 {
		return ErrEmptyFigure
	}

	var shared *Panel
	for _, panel := range f.panels {
		if panel.hasX {
			shared = panel
			break
		}
	}

	trades := f.trades()

	canvas := image.NewRGBA(image.Rect(0, 0, f.width, f.panelHeight*len(f.panels)))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, panel := range f.panels {
		if !panel.hasX && shared != nil {
			panel.shareX(shared)
		}

		markers := panel.tradeMarkers(trades)
		graph, err := panel.chart(f.width, f.panelHeight, markers...)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := graph.Render(chart.PNG, &buf); err != nil {
			return fmt.Errorf("render panel %s: %w", panel.Name, err)
		}

		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("decode panel %s: %w", panel.Name, err)
		}

		area := image.Rect(0, i*f.panelHeight, f.width, (i+1)*f.panelHeight)
		draw.Draw(canvas, area, img, img.Bounds().Min, draw.Over)

		f.log.WithField("panel", panel.Name).Debugf("rendered %d series", len(panel.series)+len(markers))
	}

	return png.Encode(w, canvas)
}

// Save renders the figure to a PNG file at path.
func (f *Figure) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := f.Render(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

package plot

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/tradechart/pkg/axis"
)

var (
	ErrNoXAxis    = errors.New("x axis is not set up")
	ErrNoYAxis    = errors.New("y axis is not set up")
	ErrEmptyPanel = errors.New("panel has nothing to draw")
)

var gridStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("e5e5e5"),
	StrokeWidth: 1,
}

// Panel is one chart of a figure: a time X axis, a numeric Y axis and the
// series drawn on them. A panel is not safe for concurrent use.
type Panel struct {
	Name string

	start, end time.Time
	xTicks     []chart.Tick
	hasX       bool

	yPlan  axis.Plan
	yLabel string
	yTicks []chart.Tick
	hasY   bool

	series []chart.Series
	marked map[int64]struct{}
}

func newPanel(name string) *Panel {
	return &Panel{Name: name, marked: make(map[int64]struct{})}
}

// SetupXAxis limits the X axis to [start, end] with a tick every freq
// ("6h", "1d", ...). Labels show the time of day unless freq is whole days.
func (p *Panel) SetupXAxis(start, end time.Time, freq string) error {
	step, err := axis.ParseFrequency(freq)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("%w: x axis [%s, %s]", axis.ErrInvalidRange, start, end)
	}

	ticks, err := axis.TimeTicks(start, end, step)
	if err != nil {
		return err
	}

	layout := axis.DateLayout(step)
	p.xTicks = lo.Map(ticks, func(t time.Time, _ int) chart.Tick {
		return chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format(layout)}
	})
	// go-chart snaps the axis to the outermost ticks.
	if last := ticks[len(ticks)-1]; last.Before(end) {
		p.xTicks = append(p.xTicks, chart.Tick{Value: chart.TimeToFloat64(end)})
	}

	p.start, p.end, p.hasX = start, end, true
	return nil
}

// XRange returns the X axis limits set by SetupXAxis.
func (p *Panel) XRange() (start, end time.Time, ok bool) {
	return p.start, p.end, p.hasX
}

// YPlan returns the Y axis limits and tick step of the panel.
func (p *Panel) YPlan() (axis.Plan, bool) {
	return p.yPlan, p.hasY
}

func (p *Panel) setYAxis(label string, plan axis.Plan) error {
	// A single-valued plan still needs a non-empty axis.
	if plan.Min == plan.Max {
		plan.Min -= plan.Step
		plan.Max += plan.Step
	}

	ticks, err := axis.Ticks(plan)
	if err != nil {
		return err
	}

	p.yTicks = lo.Map(ticks, func(v float64, _ int) chart.Tick {
		return chart.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)}
	})
	p.yPlan, p.yLabel, p.hasY = plan, label, true
	return nil
}

func (p *Panel) add(series ...chart.Series) {
	p.series = append(p.series, series...)
}

func (p *Panel) shareX(other *Panel) {
	p.start, p.end, p.xTicks, p.hasX = other.start, other.end, other.xTicks, other.hasX
}

// chart builds the go-chart definition of the panel. extra series are drawn
// after the panel's own.
func (p *Panel) chart(width, height int, extra ...chart.Series) (chart.Chart, error) {
	switch {
	case len(p.series) == 0:
		return chart.Chart{}, fmt.Errorf("%w: %s", ErrEmptyPanel, p.Name)
	case !p.hasX:
		return chart.Chart{}, fmt.Errorf("%w: %s", ErrNoXAxis, p.Name)
	case !p.hasY:
		return chart.Chart{}, fmt.Errorf("%w: %s", ErrNoYAxis, p.Name)
	}

	series := make([]chart.Series, 0, len(p.series)+len(extra))
	series = append(series, p.series...)
	series = append(series, extra...)
	for _, s := range series {
		if err := s.Validate(); err != nil {
			return chart.Chart{}, fmt.Errorf("panel %s, series %s: %w", p.Name, s.GetName(), err)
		}
	}

	return chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 12, Left: 12, Right: 12, Bottom: 12},
		},
		XAxis: chart.XAxis{
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(p.start), Max: chart.TimeToFloat64(p.end)},
			Ticks:          p.xTicks,
			TickStyle:      chart.Style{TextRotationDegrees: 90, FontSize: 8},
			GridMajorStyle: gridStyle,
		},
		YAxis: chart.YAxis{
			Name:           p.yLabel,
			NameStyle:      chart.Style{FontSize: axis.FontSize(p.yLabel)},
			Range:          &chart.ContinuousRange{Min: p.yPlan.Min, Max: p.yPlan.Max},
			Ticks:          p.yTicks,
			TickStyle:      chart.Style{FontSize: 8},
			GridMajorStyle: gridStyle,
		},
		Series: series,
	}, nil
}

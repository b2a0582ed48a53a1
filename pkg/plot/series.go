package plot

import (
	"errors"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	_ chart.Series = (*stepSeries)(nil)
	_ chart.Series = (*fillSeries)(nil)
	_ chart.Series = (*barSeries)(nil)
	_ chart.Series = (*verticalLines)(nil)
	_ chart.Series = (*horizontalLines)(nil)
)

var errSeriesLength = errors.New("x and y values differ in length")

// annotation carries the chart.Series methods shared by every series drawn
// on a panel.
type annotation struct {
	name  string
	style chart.Style
}

func (a annotation) GetName() string { return a.name }

func (a annotation) GetStyle() chart.Style { return a.style }

func (a annotation) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (a annotation) strokeOn(r chart.Renderer) {
	r.SetStrokeColor(a.style.StrokeColor)
	r.SetStrokeWidth(a.style.StrokeWidth)
	r.SetStrokeDashArray(a.style.StrokeDashArray)
}

// stepSeries draws a line that changes level halfway between samples.
// NaN values leave a gap.
type stepSeries struct {
	annotation
	xs []time.Time
	ys []float64
}

func (s *stepSeries) Validate() error {
	if len(s.xs) != len(s.ys) {
		return errSeriesLength
	}
	return nil
}

func (s *stepSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	s.strokeOn(r)

	open := false
	for i, v := range s.ys {
		if !isFinite(v) {
			if open {
				r.Stroke()
				open = false
			}
			continue
		}

		left, right := stepBounds(s.xs, i)
		y := toY(box, yrange, v)
		if open {
			r.LineTo(toX(box, xrange, left), y)
		} else {
			r.MoveTo(toX(box, xrange, left), y)
			open = true
		}
		r.LineTo(toX(box, xrange, right), y)
	}

	if open {
		r.Stroke()
	}
}

// fillSeries shades the area between each selected sample and base, one
// mid-step wide.
type fillSeries struct {
	annotation
	xs      []time.Time
	ys      []float64
	base    float64
	include func(float64) bool
}

func (s *fillSeries) Validate() error {
	if len(s.xs) != len(s.ys) {
		return errSeriesLength
	}
	return nil
}

func (s *fillSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	r.SetFillColor(s.style.FillColor)
	r.SetStrokeWidth(0)

	base := toY(box, yrange, s.base)
	for i, v := range s.ys {
		if !isFinite(v) || !s.include(v) {
			continue
		}
		left, right := stepBounds(s.xs, i)
		fillRect(r, toX(box, xrange, left), toX(box, xrange, right), toY(box, yrange, v), base)
	}
}

// barSeries draws one bar per sample from zero to the value, centred on the
// sample time.
type barSeries struct {
	annotation
	xs    []time.Time
	ys    []float64
	width time.Duration
	color func(float64) drawing.Color
}

func (s *barSeries) Validate() error {
	if len(s.xs) != len(s.ys) {
		return errSeriesLength
	}
	if s.width <= 0 {
		return errors.New("bar width must be positive")
	}
	return nil
}

func (s *barSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	r.SetStrokeWidth(0)

	half := float64(s.width) / 2
	zero := toY(box, yrange, 0)
	for i, v := range s.ys {
		if !isFinite(v) {
			continue
		}
		center := chart.TimeToFloat64(s.xs[i])
		r.SetFillColor(s.color(v))
		fillRect(r, toX(box, xrange, center-half), toX(box, xrange, center+half), toY(box, yrange, v), zero)
	}
}

// verticalLines spans the full panel height at each time inside the X range.
type verticalLines struct {
	annotation
	at []time.Time
}

func (s *verticalLines) Validate() error { return nil }

func (s *verticalLines) Render(r chart.Renderer, box chart.Box, xrange, _ chart.Range, _ chart.Style) {
	s.strokeOn(r)
	for _, t := range s.at {
		v := chart.TimeToFloat64(t)
		if v < xrange.GetMin() || v > xrange.GetMax() {
			continue
		}
		x := toX(box, xrange, v)
		r.MoveTo(x, box.Top)
		r.LineTo(x, box.Bottom)
		r.Stroke()
	}
}

// horizontalLines spans the full panel width at each level inside the Y range.
type horizontalLines struct {
	annotation
	at []float64
}

func (s *horizontalLines) Validate() error { return nil }

func (s *horizontalLines) Render(r chart.Renderer, box chart.Box, _, yrange chart.Range, _ chart.Style) {
	s.strokeOn(r)
	for _, v := range s.at {
		if !isFinite(v) || v < yrange.GetMin() || v > yrange.GetMax() {
			continue
		}
		y := toY(box, yrange, v)
		r.MoveTo(box.Left, y)
		r.LineTo(box.Right, y)
		r.Stroke()
	}
}

// stepBounds returns the X extent, in chart units, of sample i on a
// mid-step line: from the midpoint with the previous sample to the midpoint
// with the next one. The first and last samples stop at their own time.
func stepBounds(xs []time.Time, i int) (left, right float64) {
	at := chart.TimeToFloat64(xs[i])
	left, right = at, at
	if i > 0 {
		left = (chart.TimeToFloat64(xs[i-1]) + at) / 2
	}
	if i < len(xs)-1 {
		right = (at + chart.TimeToFloat64(xs[i+1])) / 2
	}
	return left, right
}

func fillRect(r chart.Renderer, x0, x1, y0, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

func toX(box chart.Box, xrange chart.Range, v float64) int {
	v = math.Max(xrange.GetMin(), math.Min(xrange.GetMax(), v))
	return box.Left + xrange.Translate(v)
}

// toY clips v to the Y range, as values outside the axis limits are not
// drawn past the panel edge.
func toY(box chart.Box, yrange chart.Range, v float64) int {
	v = math.Max(yrange.GetMin(), math.Min(yrange.GetMax(), v))
	return box.Bottom - yrange.Translate(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

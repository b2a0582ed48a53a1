package plot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Colours used by the drawing routines.
var (
	Black   = drawing.ColorFromHex("000000")
	Blue    = drawing.ColorFromHex("0000ff")
	Brown   = drawing.ColorFromHex("a52a2a")
	DimGray = drawing.ColorFromHex("696969")
	Green   = drawing.ColorFromHex("008000")
	Grey    = drawing.ColorFromHex("808080")
	Orange  = drawing.ColorFromHex("ffa500")
	Purple  = drawing.ColorFromHex("800080")
	Red     = drawing.ColorFromHex("ff0000")
)

var namedColors = map[string]drawing.Color{
	"black":   Black,
	"blue":    Blue,
	"brown":   Brown,
	"dimgray": DimGray,
	"dimgrey": DimGray,
	"gray":    Grey,
	"green":   Green,
	"grey":    Grey,
	"orange":  Orange,
	"purple":  Purple,
	"red":     Red,
}

// dashed is the stroke pattern of "--" lines.
var dashed = []float64{5, 3}

// ParseColor accepts a colour name (red, dimgray, ...) or a hex triplet
// such as "#1f77b4".
func ParseColor(value string) (drawing.Color, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if c, ok := namedColors[value]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(value, "#")
	if len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("unknown color %q", value)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return drawing.Color{}, fmt.Errorf("unknown color %q: %w", value, err)
	}

	return drawing.ColorFromHex(hex), nil
}

// withAlpha sets the opacity of c, alpha ranging from 0 to 1.
func withAlpha(c drawing.Color, alpha float64) drawing.Color {
	alpha = math.Max(0, math.Min(1, alpha))
	return c.WithAlpha(uint8(math.Round(alpha * 255)))
}

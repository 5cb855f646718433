package view

import (
	"fmt"
	"math"
	"strings"

	"liftlogic/console/internal/history"
)

// SparkPoint is one vertex of the sparkline polyline.
type SparkPoint struct {
	X float64
	Y float64
}

// Polyline is sparkline geometry: a move-to first point followed by
// line-to segments. Empty when there is no history.
type Polyline struct {
	Points []SparkPoint
	Width  float64
	Height float64
	Scale  float64
}

// Sparkline lays out the wait-time series across the drawing area.
// Vertical scale is the window's max average wait, floored at 1; y is
// inverted so larger wait renders higher.
func Sparkline(points []history.Point, width, height float64) Polyline {
	line := Polyline{Width: width, Height: height, Scale: 1}
	if len(points) == 0 || width <= 0 || height <= 0 {
		return line
	}
	for _, p := range points {
		if p.AverageWait > line.Scale {
			line.Scale = p.AverageWait
		}
	}
	step := 0.0
	if len(points) > 1 {
		step = width / float64(len(points)-1)
	}
	line.Points = make([]SparkPoint, len(points))
	for i, p := range points {
		line.Points[i] = SparkPoint{
			X: step * float64(i),
			Y: height - p.AverageWait/line.Scale*height,
		}
	}
	return line
}

// Path emits the polyline as SVG-style move-to/line-to text. Empty
// geometry yields the empty string; a single point yields just the
// move-to.
func (l Polyline) Path() string {
	if len(l.Points) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "M %.2f %.2f", l.Points[0].X, l.Points[0].Y)
	for _, p := range l.Points[1:] {
		fmt.Fprintf(&sb, " L %.2f %.2f", p.X, p.Y)
	}
	return sb.String()
}

var sparkGlyphs = []rune("▁▂▃▄▅▆▇█")

// SparkRow resamples the polyline onto a width-cell glyph row for
// terminal rendering. Derived from the same geometry the Path form
// exposes, so both views agree on scale.
func SparkRow(points []history.Point, width int) string {
	if width <= 0 || len(points) == 0 {
		return ""
	}
	line := Sparkline(points, float64(width), 1)
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}
	for _, p := range line.Points {
		col := int(math.Round(p.X))
		if col < 0 {
			col = 0
		}
		if col >= width {
			col = width - 1
		}
		// Invert back: small Y means tall glyph.
		level := 1 - p.Y/line.Height
		idx := int(math.Round(level * float64(len(sparkGlyphs)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkGlyphs) {
			idx = len(sparkGlyphs) - 1
		}
		if cells[col] == ' ' || sparkGlyphs[idx] > cells[col] {
			cells[col] = sparkGlyphs[idx]
		}
	}
	return string(cells)
}

// Package view holds the pure projections between the current snapshot,
// the metrics history window, and what the display surface draws. Nothing
// here keeps state; every function re-derives from its arguments so the
// surface can recompute on every observation.
package view

import (
	"fmt"
	"math"
	"sort"

	"liftlogic/console/internal/wire"
)

// MaxFloorIndex is the top floor of the building the service simulates
// (100 floors, zero-indexed).
const MaxFloorIndex = 99

// SparkWindow is how many of the retained history points feed the
// sparkline.
const SparkWindow = 200

// FloorsTopDown orders floors by descending level for stacked rendering,
// top floor first. The input is never mutated.
func FloorsTopDown(b wire.Building) []wire.Floor {
	floors := append([]wire.Floor(nil), b.Floors...)
	sort.Slice(floors, func(i, j int) bool {
		return floors[i].Number > floors[j].Number
	})
	return floors
}

// MaxWaiting returns the largest total_waiting across floors, floored at
// 1 so occupancy ratios never divide by zero.
func MaxWaiting(b wire.Building) int {
	max := 1
	for _, f := range b.Floors {
		if f.TotalWaiting > max {
			max = f.TotalWaiting
		}
	}
	return max
}

// OccupancyRatio maps a floor's load onto [0,1] relative to the busiest
// floor. Relative, not absolute, so the heatmap stays readable at any
// overall load scale.
func OccupancyRatio(f wire.Floor, maxWaiting int) float64 {
	if maxWaiting < 1 {
		maxWaiting = 1
	}
	ratio := float64(f.TotalWaiting) / float64(maxWaiting)
	return math.Min(1, math.Max(0, ratio))
}

// OccupancyHSL interpolates green (ratio 0) to red (ratio 1) with
// linearly rising lightness. Hue decreases monotonically in ratio.
func OccupancyHSL(ratio float64) (h, s, l float64) {
	ratio = math.Min(1, math.Max(0, ratio))
	return 120 * (1 - ratio), 70, 40 + 20*ratio
}

// OccupancyColor renders the occupancy hue as a #rrggbb terminal color.
func OccupancyColor(ratio float64) string {
	h, s, l := OccupancyHSL(ratio)
	r, g, b := hslToRGB(h, s/100, l/100)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return uint8(math.Round((r + m) * 255)),
		uint8(math.Round((g + m) * 255)),
		uint8(math.Round((b + m) * 255))
}

// CarOffsetPercent places a car in its shaft as a percentage from the
// bottom, clamped so a slightly overshooting position cannot escape the
// drawing area.
func CarOffsetPercent(position float64) float64 {
	pct := position / MaxFloorIndex * 100
	return math.Min(100, math.Max(0, pct))
}

// HotFloors returns the k busiest floors by total_waiting, busiest first.
// Ties break toward the lower floor number for stable output.
func HotFloors(b wire.Building, k int) []wire.Floor {
	floors := append([]wire.Floor(nil), b.Floors...)
	sort.Slice(floors, func(i, j int) bool {
		if floors[i].TotalWaiting != floors[j].TotalWaiting {
			return floors[i].TotalWaiting > floors[j].TotalWaiting
		}
		return floors[i].Number < floors[j].Number
	})
	if k < 0 {
		k = 0
	}
	if k > len(floors) {
		k = len(floors)
	}
	return floors[:k]
}

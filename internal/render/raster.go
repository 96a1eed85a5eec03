package render

import (
	"math"
	"sort"
)

// FillSpans calls span for every horizontal run inside ring on rows [0, h),
// using the even-odd rule. The ring is in pixel coordinates and may be closed
// or open.
func FillSpans(ring [][2]float64, h int, span func(y, x0, x1 int)) {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	if n < 3 {
		return
	}
	for y := 0; y < h; y++ {
		// sample at the pixel center
		yc := float64(y) + 0.5
		var xs []float64
		for i := 0; i < n; i++ {
			a := ring[i]
			b := ring[(i+1)%n]
			if a[1] == b[1] { // horizontal edge: skip
				continue
			}
			if (yc >= a[1] && yc < b[1]) || (yc >= b[1] && yc < a[1]) {
				t := (yc - a[1]) / (b[1] - a[1])
				xs = append(xs, a[0]+t*(b[0]-a[0]))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Round(xs[i]))
			x1 := int(math.Round(xs[i+1])) - 1
			if x1 < x0 {
				continue
			}
			span(y, x0, x1)
		}
	}
}

// Line walks the pixels between two points using Bresenham.
func Line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Outline walks every edge of ring, including the closing one.
func Outline(ring [][2]float64, plot func(x, y int)) {
	n := len(ring)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		Line(pix(a[0]), pix(a[1]), pix(b[0]), pix(b[1]), plot)
	}
}

func pix(v float64) int { return int(math.Floor(v)) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package render

import (
	"image"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Frame is one rendered picture of a polygon.
type Frame struct {
	Width  int
	Height int

	// Image is the basemap with the polygon drawn on it; nil when the basemap is off.
	Image *image.RGBA
	// Ring is the closed polygon ring in pixel coordinates.
	Ring [][2]float64
	// Extent is the Web Mercator area covered by the surface.
	Extent orb.Bound

	Points int
	Zoom   int // -1 without basemap
	Tiles  int
}

func (f *Frame) toPixel(p orb.Point) [2]float64 {
	w := f.Extent.Max[0] - f.Extent.Min[0]
	h := f.Extent.Max[1] - f.Extent.Min[1]
	return [2]float64{
		(p[0] - f.Extent.Min[0]) / w * float64(f.Width),
		(f.Extent.Max[1] - p[1]) / h * float64(f.Height),
	}
}

// LonLatAt converts a pixel position back to WGS84.
func (f *Frame) LonLatAt(px, py float64) orb.Point {
	w := f.Extent.Max[0] - f.Extent.Min[0]
	h := f.Extent.Max[1] - f.Extent.Min[1]
	m := orb.Point{
		f.Extent.Min[0] + px/float64(f.Width)*w,
		f.Extent.Max[1] - py/float64(f.Height)*h,
	}
	return project.Mercator.ToWGS84(m)
}

// Bound returns the covered area in WGS84.
func (f *Frame) Bound() orb.Bound {
	return orb.Bound{
		Min: project.Mercator.ToWGS84(f.Extent.Min),
		Max: project.Mercator.ToWGS84(f.Extent.Max),
	}
}

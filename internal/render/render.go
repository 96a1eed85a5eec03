// Package render turns a point sequence into a picture of the polygon over a
// Web Mercator basemap.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/rs/zerolog/log"

	"polyviz/internal/geom"
	"polyviz/internal/tiles"
)

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// ErrDegenerate is returned when the polygon has no width or no height.
var ErrDegenerate = errors.New("degenerate polygon: extent has zero width or height")

// Error is any failure raised while building or drawing a frame.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Style is the polygon look.
type Style struct {
	Fill  color.Color
	Edge  color.Color
	Alpha float64
}

// DefaultStyle is light blue at 60% with a black outline.
func DefaultStyle() Style {
	return Style{
		Fill:  color.RGBA{R: 0xAD, G: 0xD8, B: 0xE6, A: 0xFF},
		Edge:  color.RGBA{A: 0xFF},
		Alpha: 0.6,
	}
}

// ParseStyle builds a Style from hex colors.
func ParseStyle(fill, edge string, alpha float64) (Style, error) {
	f, err := colorful.Hex(fill)
	if err != nil {
		return Style{}, fmt.Errorf("fill: %w", err)
	}
	e, err := colorful.Hex(edge)
	if err != nil {
		return Style{}, fmt.Errorf("edge: %w", err)
	}
	return Style{Fill: f, Edge: e, Alpha: alpha}, nil
}

// Options controls the renderer.
type Options struct {
	Basemap     bool
	MaxZoom     int
	MaxTiles    int
	Concurrency int
	Style       Style
}

// Renderer draws frames. It is safe for concurrent use when its Source is.
type Renderer struct {
	src  tiles.Source
	opts Options
}

func New(src tiles.Source, opts Options) *Renderer {
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 19
	}
	if opts.MaxTiles <= 0 {
		opts.MaxTiles = 36
	}
	if opts.Style.Fill == nil || opts.Style.Edge == nil {
		opts.Style = DefaultStyle()
	}
	return &Renderer{src: src, opts: opts}
}

// Basemap reports whether frames carry a basemap image.
func (r *Renderer) Basemap() bool { return r.opts.Basemap && r.src != nil }

// Render draws pts on a width x height pixel surface.
func (r *Renderer) Render(ctx context.Context, pts []geom.Point, width, height int) (*Frame, error) {
	if width < 1 || height < 1 {
		return nil, &Error{Op: "render", Err: fmt.Errorf("surface too small: %dx%d", width, height)}
	}
	start := time.Now()

	merc := toMercator(geom.Polygon(pts))
	bound := merc.Bound()
	if bound.Max[0]-bound.Min[0] <= 0 || bound.Max[1]-bound.Min[1] <= 0 {
		return nil, &Error{Op: "polygon", Err: ErrDegenerate}
	}
	extent := fitAspect(bound, width, height)

	f := &Frame{
		Width:  width,
		Height: height,
		Extent: extent,
		Points: len(pts),
		Zoom:   -1,
	}
	for _, p := range merc[0] {
		f.Ring = append(f.Ring, f.toPixel(p))
	}

	if r.Basemap() {
		img, zoom, n, err := r.basemap(ctx, extent, width, height)
		if err != nil {
			return nil, &Error{Op: "basemap", Err: err}
		}
		f.Image, f.Zoom, f.Tiles = img, zoom, n
		r.overlay(f)
	}

	log.Debug().
		Int("points", len(pts)).
		Int("width", width).
		Int("height", height).
		Int("zoom", f.Zoom).
		Int("tiles", f.Tiles).
		Dur("took", time.Since(start)).
		Msg("Frame rendered")
	return f, nil
}

// toMercator clamps latitudes to the projection limit and projects to EPSG:3857.
func toMercator(p orb.Polygon) orb.Polygon {
	clamped := make(orb.Polygon, len(p))
	for i, ring := range p {
		cr := make(orb.Ring, len(ring))
		for j, pt := range ring {
			cr[j] = orb.Point{pt[0], math.Max(-MaxLat, math.Min(MaxLat, pt[1]))}
		}
		clamped[i] = cr
	}
	return project.Polygon(clamped, project.WGS84.ToMercator)
}

// fitAspect grows b around its center so that it has the pixel aspect ratio of w x h.
func fitAspect(b orb.Bound, w, h int) orb.Bound {
	bw := b.Max[0] - b.Min[0]
	bh := b.Max[1] - b.Min[1]
	target := float64(w) / float64(h)
	c := b.Center()
	if bw/bh < target {
		bw = bh * target
	} else {
		bh = bw / target
	}
	return orb.Bound{
		Min: orb.Point{c[0] - bw/2, c[1] - bh/2},
		Max: orb.Point{c[0] + bw/2, c[1] + bh/2},
	}
}

// overlay blends the polygon fill and draws its outline onto the frame image.
func (r *Renderer) overlay(f *Frame) {
	img := f.Image
	st := r.opts.Style
	fill, _ := colorful.MakeColor(st.Fill)
	edge := color.RGBAModel.Convert(st.Edge).(color.RGBA)
	edge.A = 0xFF

	FillSpans(f.Ring, f.Height, func(y, x0, x1 int) {
		x0 = max(x0, 0)
		x1 = min(x1, f.Width-1)
		for x := x0; x <= x1; x++ {
			under, _ := colorful.MakeColor(img.RGBAAt(x, y))
			r8, g8, b8 := under.BlendRgb(fill, st.Alpha).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r8, G: g8, B: b8, A: 0xFF})
		}
	})
	Outline(f.Ring, func(x, y int) {
		if x >= 0 && y >= 0 && x < f.Width && y < f.Height {
			img.SetRGBA(x, y, edge)
		}
	})
}

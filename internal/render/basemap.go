package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"polyviz/internal/tiles"
)

const (
	tileSize = 256

	// half of the Web Mercator world width in metres
	mercHalf = math.Pi * 6378137.0
)

// background is painted where no tile exists.
var background = color.RGBA{R: 0xE0, G: 0xDF, B: 0xDF, A: 0xFF}

// tileRange is the inclusive block of tiles covering an extent at one zoom.
type tileRange struct {
	Z          maptile.Zoom
	MinX, MinY uint32
	MaxX, MaxY uint32
}

func (t tileRange) count() int {
	return int(t.MaxX-t.MinX+1) * int(t.MaxY-t.MinY+1)
}

func (t tileRange) tiles() []maptile.Tile {
	out := make([]maptile.Tile, 0, t.count())
	for y := t.MinY; y <= t.MaxY; y++ {
		for x := t.MinX; x <= t.MaxX; x++ {
			out = append(out, maptile.New(x, y, t.Z))
		}
	}
	return out
}

// autoZoom picks a zoom so the extent spans a handful of tiles per axis,
// the same rule contextily uses for zoom="auto".
func autoZoom(b orb.Bound) int {
	lon := b.Max[0] - b.Min[0]
	lat := b.Max[1] - b.Min[1]
	zlon := math.Ceil(math.Log2(360 * 2 / lon))
	zlat := math.Ceil(math.Log2(360 * 2 / lat))
	z := math.Min(zlon, zlat)
	if math.IsNaN(z) || math.IsInf(z, 0) || z < 0 {
		return 0
	}
	return int(z)
}

// coverTiles returns the tiles at zoom z covering the Mercator extent.
func coverTiles(ext orb.Bound, z int) tileRange {
	return tileRange{
		Z:    maptile.Zoom(z),
		MinX: tileIndex(ext.Min[0]+mercHalf, z),
		MinY: tileIndex(mercHalf-ext.Max[1], z),
		MaxX: tileIndex(ext.Max[0]+mercHalf, z),
		MaxY: tileIndex(mercHalf-ext.Min[1], z),
	}
}

// tileIndex maps a distance in metres from the west (or north) edge of the
// world to a tile column (or row), clamped to the grid.
func tileIndex(d float64, z int) uint32 {
	n := float64(uint32(1) << uint32(z))
	i := math.Floor(d / (2 * mercHalf) * n)
	return uint32(math.Max(0, math.Min(n-1, i)))
}

// lonLat converts a Mercator point to WGS84, clamped to the tiled world.
func lonLat(p orb.Point) orb.Point {
	ll := project.Mercator.ToWGS84(orb.Point{
		math.Max(-mercHalf, math.Min(mercHalf, p[0])),
		math.Max(-mercHalf, math.Min(mercHalf, p[1])),
	})
	ll[0] = math.Max(-180, math.Min(180-1e-9, ll[0]))
	ll[1] = math.Max(-MaxLat, math.Min(MaxLat, ll[1]))
	return ll
}

// basemap fetches the tiles covering ext and scales them to a width x height image.
func (r *Renderer) basemap(ctx context.Context, ext orb.Bound, width, height int) (*image.RGBA, int, int, error) {
	z := min(autoZoom(orb.Bound{Min: lonLat(ext.Min), Max: lonLat(ext.Max)}), r.opts.MaxZoom)
	rng := coverTiles(ext, z)
	for rng.count() > r.opts.MaxTiles && z > 0 {
		z--
		rng = coverTiles(ext, z)
	}

	log.Debug().
		Int("zoom", z).
		Uint32("min_x", rng.MinX).
		Uint32("min_y", rng.MinY).
		Uint32("max_x", rng.MaxX).
		Uint32("max_y", rng.MaxY).
		Int("count", rng.count()).
		Msg("Fetching basemap tiles")

	imgs, err := tiles.FetchAll(ctx, r.src, rng.tiles(), r.opts.Concurrency)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("fetch tiles at zoom %d: %w", z, err)
	}

	mosaic := stitch(rng, imgs)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(dst, background)

	span := 2 * mercHalf / float64(uint32(1)<<uint32(z))
	left := -mercHalf + float64(rng.MinX)*span
	top := mercHalf - float64(rng.MinY)*span
	scale := tileSize / span

	// extent in mosaic pixels
	sx0 := (ext.Min[0] - left) * scale
	sx1 := (ext.Max[0] - left) * scale
	sy0 := (top - ext.Max[1]) * scale
	sy1 := (top - ext.Min[1]) * scale

	mb := mosaic.Bounds()
	cx0 := math.Max(sx0, 0)
	cy0 := math.Max(sy0, 0)
	cx1 := math.Min(sx1, float64(mb.Dx()))
	cy1 := math.Min(sy1, float64(mb.Dy()))
	if cx1 <= cx0 || cy1 <= cy0 {
		return dst, z, len(imgs), nil
	}

	kx := float64(width) / (sx1 - sx0)
	ky := float64(height) / (sy1 - sy0)
	sr := image.Rect(
		int(math.Floor(cx0)), int(math.Floor(cy0)),
		int(math.Ceil(cx1)), int(math.Ceil(cy1)),
	)
	dr := image.Rect(
		int(math.Round((cx0-sx0)*kx)), int(math.Round((cy0-sy0)*ky)),
		int(math.Round((cx1-sx0)*kx)), int(math.Round((cy1-sy0)*ky)),
	)
	xdraw.CatmullRom.Scale(dst, dr, mosaic, sr, xdraw.Src, nil)

	return dst, z, len(imgs), nil
}

// stitch lays tiles out on one image. Missing tiles stay background.
func stitch(rng tileRange, imgs map[maptile.Tile]image.Image) *image.RGBA {
	w := int(rng.MaxX-rng.MinX+1) * tileSize
	h := int(rng.MaxY-rng.MinY+1) * tileSize
	mosaic := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(mosaic, background)

	for t, img := range imgs {
		ox := int(t.X-rng.MinX) * tileSize
		oy := int(t.Y-rng.MinY) * tileSize
		cell := image.Rect(ox, oy, ox+tileSize, oy+tileSize)
		if img.Bounds().Dx() == tileSize && img.Bounds().Dy() == tileSize {
			xdraw.Draw(mosaic, cell, img, img.Bounds().Min, xdraw.Over)
			continue
		}
		xdraw.ApproxBiLinear.Scale(mosaic, cell, img, img.Bounds(), xdraw.Over, nil)
	}
	return mosaic
}

func fill(img *image.RGBA, c color.RGBA) {
	xdraw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, xdraw.Src)
}

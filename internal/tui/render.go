package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"polyviz/internal/render"
)

// pixels per terminal cell
const (
	blockW, blockH     = 1, 2
	brailleW, brailleH = 2, 4
)

// surfaceSize is the pixel size of the map area for the current mode.
func (m Model) surfaceSize(l layout) (int, int) {
	if m.renderer != nil && m.renderer.Basemap() {
		return l.mapW * blockW, l.mapH * blockH
	}
	return l.mapW * brailleW, l.mapH * brailleH
}

// paint turns a frame into terminal lines.
func paint(f *render.Frame) []string {
	if f.Image != nil {
		return halfBlocks(f.Image)
	}
	return brailleLines(f)
}

// halfBlocks draws two pixels per cell: the upper one as the foreground of
// "▀" and the lower one as its background.
func halfBlocks(img *image.RGBA) []string {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()/blockH
	styles := map[[2]color.RGBA]lipgloss.Style{}
	out := make([]string, h)
	var sb strings.Builder
	for y := 0; y < h; y++ {
		sb.Reset()
		for x := 0; x < w; x++ {
			top := img.RGBAAt(b.Min.X+x, b.Min.Y+y*blockH)
			bot := img.RGBAAt(b.Min.X+x, b.Min.Y+y*blockH+1)
			k := [2]color.RGBA{top, bot}
			st, ok := styles[k]
			if !ok {
				st = lipgloss.NewStyle().Foreground(hexColor(top)).Background(hexColor(bot))
				styles[k] = st
			}
			sb.WriteString(st.Render("▀"))
		}
		out[y] = sb.String()
	}
	return out
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

// brailleLines draws the ring with a dotted fill and a solid outline.
func brailleLines(f *render.Frame) []string {
	br := newBrailleBuf(f.Width/brailleW, f.Height/brailleH)
	render.FillSpans(f.Ring, f.Height, func(y, x0, x1 int) {
		for x := x0; x <= x1; x++ {
			if (x+y)%2 == 0 {
				br.setPixel(x, y)
			}
		}
	})
	render.Outline(f.Ring, br.setPixel)
	lines := br.toLines()
	for i, ln := range lines {
		lines[i] = polyStyle.Render(ln)
	}
	return lines
}

// cellToLonLat converts a map cell coordinate to lon/lat using the frame on display.
func (m Model) cellToLonLat(cx, cy int) (float64, float64, bool) {
	f := m.frame
	if f == nil {
		return 0, 0, false
	}
	sx, sy := brailleW, brailleH
	if f.Image != nil {
		sx, sy = blockW, blockH
	}
	px := (float64(cx) + 0.5) * float64(sx)
	py := (float64(cy) + 0.5) * float64(sy)
	if px >= float64(f.Width) || py >= float64(f.Height) {
		return 0, 0, false
	}
	ll := f.LonLatAt(px, py)
	return ll[0], ll[1], true
}

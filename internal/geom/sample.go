package geom

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

var sample = []Point{
	{Lng: 103.62659, Lat: 1.5783},
	{Lng: 103.62661, Lat: 1.5792},
	{Lng: 103.62662, Lat: 1.5801},
	{Lng: 103.62663, Lat: 1.581},
	{Lng: 103.62664, Lat: 1.5819},
	{Lng: 103.62665, Lat: 1.5828},
	{Lng: 103.62666, Lat: 1.5837},
	{Lng: 103.62667, Lat: 1.5846},
	{Lng: 103.62668, Lat: 1.5855},
	{Lng: 103.6267, Lat: 1.5864},
	{Lng: 103.62659, Lat: 1.58728},
	{Lng: 103.62631, Lat: 1.58813},
}

// Sample returns a copy of the built-in 12 point strip.
func Sample() []Point {
	out := make([]Point, len(sample))
	copy(out, sample)
	return out
}

type jsonPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// FormatPoints writes points as an indented JSON array that ParsePoints accepts.
func FormatPoints(pts []Point) (string, error) {
	out := make([]jsonPoint, len(pts))
	for i, p := range pts {
		out[i] = jsonPoint{Lng: p.Lng, Lat: p.Lat}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Polygon builds a single-ring polygon from pts, closing the ring when needed.
// Vertices are kept as given: duplicates and self-intersections are not touched.
func Polygon(pts []Point) orb.Polygon {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, p.Orb())
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

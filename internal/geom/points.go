package geom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// MinPoints is the smallest number of vertices that forms a polygon.
const MinPoints = 3

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrMalformedJSON = errors.New("malformed json")
	ErrTooFewPoints  = errors.New("too few points")
	ErrMissingField  = errors.New("missing lat or lng")
	ErrInvalidValue  = errors.New("coordinate is not a number")
)

// Point is a WGS84 coordinate as typed by the user.
type Point struct {
	Lat float64
	Lng float64
}

// Orb returns the point as an (x=lng, y=lat) pair.
func (p Point) Orb() orb.Point { return orb.Point{p.Lng, p.Lat} }

// ParsePoints validates text as a JSON array of {"lat","lng"} objects and returns
// the points in input order. Extra keys are ignored.
func ParsePoints(text string) ([]Point, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, ErrEmptyInput
	}
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, diagnostic(s, err))
	}
	if raw[0] != '[' {
		return nil, ErrTooFewPoints
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, diagnostic(s, err))
	}
	if len(elems) < MinPoints {
		return nil, ErrTooFewPoints
	}

	// every element is checked for both keys before any value is decoded
	objs := make([]map[string]json.RawMessage, len(elems))
	for i, el := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(el, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: point %d is not an object", ErrMissingField, i+1)
		}
		_, hasLat := obj["lat"]
		_, hasLng := obj["lng"]
		if !hasLat || !hasLng {
			return nil, fmt.Errorf("%w: point %d", ErrMissingField, i+1)
		}
		objs[i] = obj
	}

	pts := make([]Point, len(objs))
	for i, obj := range objs {
		lat, err := number(obj["lat"])
		if err != nil {
			return nil, fmt.Errorf("%w: point %d lat: %v", ErrInvalidValue, i+1, err)
		}
		lng, err := number(obj["lng"])
		if err != nil {
			return nil, fmt.Errorf("%w: point %d lng: %v", ErrInvalidValue, i+1, err)
		}
		pts[i] = Point{Lat: lat, Lng: lng}
	}
	return pts, nil
}

func number(raw json.RawMessage) (float64, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, errors.New("null")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("got %s", raw)
	}
	return f, nil
}

// diagnostic renders a decoder error with the line and column it points at.
func diagnostic(text string, err error) string {
	var syn *json.SyntaxError
	if !errors.As(err, &syn) {
		return err.Error()
	}
	off := int(syn.Offset)
	if off > len(text) {
		off = len(text)
	}
	line := 1 + strings.Count(text[:off], "\n")
	col := off - strings.LastIndex(text[:off], "\n")
	return fmt.Sprintf("%s: line %d column %d (char %d)", syn.Error(), line, col, off)
}

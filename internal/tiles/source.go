// Package tiles fetches and caches slippy-map basemap tiles.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// ErrNotFound is returned for tiles the server does not have.
var ErrNotFound = errors.New("tile not found")

// Source returns the image of a single tile.
type Source interface {
	Tile(ctx context.Context, t maptile.Tile) (image.Image, error)
}

// StatusError is an unexpected HTTP status from the tile server.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tile server returned %d for %s", e.StatusCode, e.URL)
}

// HTTPSource downloads tiles from a {z}/{x}/{y} URL template.
type HTTPSource struct {
	client    *http.Client
	template  string
	userAgent string
}

func NewHTTPSource(client *http.Client, template, userAgent string) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{client: client, template: template, userAgent: userAgent}
}

func (s *HTTPSource) Tile(ctx context.Context, t maptile.Tile) (image.Image, error) {
	url := BuildURL(s.template, t)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	log.Trace().Str("url", url).Str("format", format).Msg("Tile downloaded")
	return img, nil
}

// BuildURL fills a tile URL template. {tms_y} is the y index counted from the south.
func BuildURL(tpl string, t maptile.Tile) string {
	s := strings.ReplaceAll(tpl, "{z}", fmt.Sprintf("%d", t.Z))
	s = strings.ReplaceAll(s, "{x}", fmt.Sprintf("%d", t.X))
	s = strings.ReplaceAll(s, "{y}", fmt.Sprintf("%d", t.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (uint32(1) << uint32(t.Z)) - 1
		s = strings.ReplaceAll(s, "{tms_y}", fmt.Sprintf("%d", maxCoord-t.Y))
	}

	return s
}

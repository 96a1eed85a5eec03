package tiles

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb/maptile"
)

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

type countingSource struct {
	calls atomic.Int32
	err   error
	fail  map[maptile.Tile]error
	mu    sync.Mutex
	seen  []maptile.Tile
}

func (s *countingSource) Tile(_ context.Context, t maptile.Tile) (image.Image, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, t)
	s.mu.Unlock()
	if err, ok := s.fail[t]; ok {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return solid(color.RGBA{R: uint8(t.X), G: uint8(t.Y), B: uint8(t.Z), A: 255}), nil
}

func TestBuildURL(t *testing.T) {
	tile := maptile.New(3, 1, 2)
	tests := []struct {
		tpl  string
		want string
	}{
		{"https://tile.example.test/{z}/{x}/{y}.png", "https://tile.example.test/2/3/1.png"},
		{"https://tile.example.test/{z}/{x}/{tms_y}.png", "https://tile.example.test/2/3/2.png"},
	}
	for _, tc := range tests {
		if got := BuildURL(tc.tpl, tile); got != tc.want {
			t.Fatalf("BuildURL(%q) = %q, want %q", tc.tpl, got, tc.want)
		}
	}
}

func TestHTTPSourceDownloadsAndDecodes(t *testing.T) {
	var gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		var buf bytes.Buffer
		_ = png.Encode(&buf, solid(color.RGBA{R: 10, G: 20, B: 30, A: 255}))
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client(), srv.URL+"/{z}/{x}/{y}.png", "polyviz-test")
	img, err := src.Tile(context.Background(), maptile.New(5, 6, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "polyviz-test" {
		t.Fatalf("expected user agent, got %q", gotUA)
	}
	if gotPath != "/7/5/6.png" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("unexpected pixel %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestHTTPSourceStatusHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/0/0/0.png":
			http.NotFound(w, r)
		case "/1/0/0.png":
			w.WriteHeader(http.StatusForbidden)
		default:
			_, _ = w.Write([]byte("not an image"))
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client(), srv.URL+"/{z}/{x}/{y}.png", "")
	if _, err := src.Tile(context.Background(), maptile.New(0, 0, 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err := src.Tile(context.Background(), maptile.New(0, 0, 1))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}

	if _, err := src.Tile(context.Background(), maptile.New(1, 1, 1)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCacheServesRepeatsFromMemory(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, "", 2)
	ctx := context.Background()
	a, b, d := maptile.New(0, 0, 1), maptile.New(1, 0, 1), maptile.New(0, 1, 1)

	for _, tile := range []maptile.Tile{a, a, b, a} {
		if _, err := c.Tile(ctx, tile); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", n)
	}

	// b is the least recently used and gets evicted by d
	if _, err := c.Tile(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 cached tiles, got %d", c.Len())
	}
	_, _ = c.Tile(ctx, a)
	if n := src.calls.Load(); n != 3 {
		t.Fatalf("expected a to stay cached, got %d calls", n)
	}
	_, _ = c.Tile(ctx, b)
	if n := src.calls.Load(); n != 4 {
		t.Fatalf("expected b to be refetched, got %d calls", n)
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	src := &countingSource{err: ErrNotFound}
	c := NewCache(src, "", 4)
	for i := 0; i < 2; i++ {
		if _, err := c.Tile(context.Background(), maptile.New(0, 0, 0)); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("expected errors to be retried, got %d calls", n)
	}
}

func TestCacheDiskStore(t *testing.T) {
	dir := t.TempDir()
	tile := maptile.New(2, 3, 4)

	first := &countingSource{}
	if _, err := NewCache(first, dir, 4).Tile(context.Background(), tile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &countingSource{}
	img, err := NewCache(second, dir, 4).Tile(context.Background(), tile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := second.calls.Load(); n != 0 {
		t.Fatalf("expected tile from disk, got %d upstream calls", n)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("unexpected cached tile size %v", img.Bounds())
	}
}

func TestFetchAll(t *testing.T) {
	missing := maptile.New(1, 1, 1)
	src := &countingSource{fail: map[maptile.Tile]error{missing: ErrNotFound}}
	tiles := []maptile.Tile{maptile.New(0, 0, 1), maptile.New(1, 0, 1), maptile.New(0, 1, 1), missing}

	got, err := FetchAll(context.Background(), src, tiles, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(got))
	}
	if _, ok := got[missing]; ok {
		t.Fatal("missing tile must be left out")
	}
}

func TestFetchAllFailure(t *testing.T) {
	boom := errors.New("network down")
	src := &countingSource{err: boom}
	tiles := []maptile.Tile{maptile.New(0, 0, 1), maptile.New(1, 0, 1)}

	if _, err := FetchAll(context.Background(), src, tiles, 1); !errors.Is(err, boom) {
		t.Fatalf("expected network error, got %v", err)
	}
}

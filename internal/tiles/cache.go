package tiles

import (
	"container/list"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
)

// Cache wraps a Source with an in-memory LRU and an optional on-disk
// store laid out as dir/{z}/{x}/{y}.webp.
type Cache struct {
	src   Source
	dir   string
	limit int

	mu    sync.Mutex
	ll    *list.List
	items map[maptile.Tile]*list.Element
}

type entry struct {
	tile maptile.Tile
	img  image.Image
}

// NewCache keeps up to limit tiles in memory. An empty dir disables the disk store.
func NewCache(src Source, dir string, limit int) *Cache {
	if limit <= 0 {
		limit = 1
	}
	return &Cache{
		src:   src,
		dir:   dir,
		limit: limit,
		ll:    list.New(),
		items: make(map[maptile.Tile]*list.Element),
	}
}

func (c *Cache) Tile(ctx context.Context, t maptile.Tile) (image.Image, error) {
	if img, ok := c.get(t); ok {
		return img, nil
	}

	if img, ok := c.readDisk(t); ok {
		c.put(t, img)
		return img, nil
	}

	img, err := c.src.Tile(ctx, t)
	if err != nil {
		return nil, err
	}
	c.put(t, img)
	c.writeDisk(t, img)
	return img, nil
}

// Len reports the number of tiles held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) get(t maptile.Tile) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[t]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).img, true
}

func (c *Cache) put(t maptile.Tile, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[t]; ok {
		el.Value.(*entry).img = img
		c.ll.MoveToFront(el)
		return
	}
	c.items[t] = c.ll.PushFront(&entry{tile: t, img: img})
	for c.ll.Len() > c.limit {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.items, last.Value.(*entry).tile)
	}
}

func (c *Cache) path(t maptile.Tile) string {
	return filepath.Join(
		c.dir,
		fmt.Sprintf("%d", t.Z),
		fmt.Sprintf("%d", t.X),
		fmt.Sprintf("%d", t.Y)+".webp",
	)
}

func (c *Cache) readDisk(t maptile.Tile) (image.Image, bool) {
	if c.dir == "" {
		return nil, false
	}
	f, err := os.Open(c.path(t))
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Debug().Err(err).Str("path", c.path(t)).Msg("Ignoring unreadable cached tile")
		return nil, false
	}
	return img, true
}

func (c *Cache) writeDisk(t maptile.Tile, img image.Image) {
	if c.dir == "" {
		return
	}
	outPath := c.path(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Error().Err(err).Msg("Failed to create tile cache dir")
		return
	}

	f, err := os.Create(outPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create cached tile")
		return
	}
	defer func() { _ = f.Close() }()

	if err := webp.Encode(f, img, &webp.Options{Lossless: false, Quality: 85}); err != nil {
		log.Error().Err(err).Str("path", outPath).Msg("Failed to encode webp")
	}
}

package tiles

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
)

type result struct {
	Tile maptile.Tile
	Img  image.Image
	Err  error
}

// FetchAll downloads tiles with up to concurrency workers. Missing tiles
// (ErrNotFound) are left out of the map; any other failure cancels the
// remaining work and is returned.
func FetchAll(ctx context.Context, src Source, tiles []maptile.Tile, concurrency int) (map[maptile.Tile]image.Image, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan maptile.Tile, len(tiles))
	results := make(chan result, len(tiles))
	for _, t := range tiles {
		jobs <- t
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if ctx.Err() != nil {
					results <- result{Tile: t, Err: ctx.Err()}
					continue
				}
				img, err := src.Tile(ctx, t)
				if err != nil && !errors.Is(err, ErrNotFound) {
					cancel()
				}
				results <- result{Tile: t, Img: img, Err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	out := make(map[maptile.Tile]image.Image, len(tiles))
	var firstErr error
	for res := range results {
		switch {
		case res.Err == nil:
			out[res.Tile] = res.Img
		case errors.Is(res.Err, ErrNotFound):
			log.Debug().Uint32("z", uint32(res.Tile.Z)).Uint32("x", res.Tile.X).Uint32("y", res.Tile.Y).Msg("Tile missing, left blank")
		case firstErr == nil || errors.Is(firstErr, context.Canceled):
			firstErr = res.Err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

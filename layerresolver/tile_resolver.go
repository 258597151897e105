package layerresolver

import (
	"context"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb/maptile"
)

const DefaultTileSize = 256

type TileResolver struct {
	logger  *logpkg.Logger
	fetcher imagefetcher.Fetcher
}

func NewTileResolver(logger *logpkg.Logger, fetcher imagefetcher.Fetcher) *TileResolver {
	return &TileResolver{logger, fetcher}
}

// tileCache makes sure each distinct tile is only fetched once while resolving one tile layer
type tileCache struct {
	mu      sync.Mutex
	entries map[maptile.Tile]*tileCacheEntry
}

type tileCacheEntry struct {
	once sync.Once
	img  image.Image
	err  errorsx.Error
}

func newTileCache() *tileCache {
	return &tileCache{entries: make(map[maptile.Tile]*tileCacheEntry)}
}

func (c *tileCache) load(tile maptile.Tile, fetch func() (image.Image, errorsx.Error)) (image.Image, errorsx.Error) {
	c.mu.Lock()
	entry, ok := c.entries[tile]
	if !ok {
		entry = new(tileCacheEntry)
		c.entries[tile] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				entry.img, entry.err = nil, errorsx.Errorf("panic loading tile %d/%d/%d: %v", tile.Z, tile.X, tile.Y, r)
			}
		}()
		entry.img, entry.err = fetch()
	})

	return entry.img, entry.err
}

func (r *TileResolver) Resolve(ctx context.Context, layer bigimage.Layer, cc *bigimage.CaptureContext) errorsx.Error {
	tileLayer, ok := layer.(*bigimage.TileLayer)
	if !ok {
		return errorsx.Errorf("expected a tile layer but got %T", layer)
	}

	tileSize := tileLayer.TileSize
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	size := float64(tileSize)
	zoom := maptile.Zoom(math.Round(cc.Snapshot.Zoom))

	minX := int(math.Floor(cc.Bounds.Min.X / size))
	minY := int(math.Floor(cc.Bounds.Min.Y / size))
	maxX := int(math.Floor(cc.Bounds.Max.X / size))
	maxY := int(math.Floor(cc.Bounds.Max.Y / size))

	cache := newTileCache()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		records []*bigimage.TileRecord
	)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tile, ok := tileLayer.WrapTile(x, y, zoom)
			if !ok {
				continue
			}

			position := bigimage.Point{X: float64(x) * size, Y: float64(y) * size}.Subtract(cc.Bounds.Min)

			wg.Add(1)
			go func(tile maptile.Tile, position bigimage.Point) {
				defer wg.Done()
				defer logPanic(r.logger, "tile layer %d: tile %d/%d/%d", tileLayer.ID, tile.Z, tile.X, tile.Y)

				img, err := cache.load(tile, func() (image.Image, errorsx.Error) {
					return r.fetcher.Load(ctx, tileLayer.TileURL(tile))
				})
				if err != nil {
					r.logger.Debug("tile layer %d: couldn't load tile %d/%d/%d. Error: %s", tileLayer.ID, tile.Z, tile.X, tile.Y, err)
					return
				}

				mu.Lock()
				defer mu.Unlock()
				records = append(records, &bigimage.TileRecord{
					Tile:     tile,
					Image:    img,
					Position: position,
				})
			}(tile, position)
		}
	}

	wg.Wait()

	if len(records) == 0 {
		return nil
	}

	sort.Slice(records, func(a, b int) bool {
		if records[a].Position.Y != records[b].Position.Y {
			return records[a].Position.Y < records[b].Position.Y
		}
		return records[a].Position.X < records[b].Position.X
	})

	cc.SetTileLayer(tileLayer.ID, &bigimage.TileLayerRecord{
		LayerID:  tileLayer.ID,
		TileSize: tileSize,
		Opacity:  tileLayer.Opacity,
		Tiles:    records,
	})

	return nil
}

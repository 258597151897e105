package layerresolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// Resolver turns one layer into at most one record on the capture context
type Resolver interface {
	Resolve(ctx context.Context, layer bigimage.Layer, cc *bigimage.CaptureContext) errorsx.Error
}

// Collector dispatches every layer of a map view to its resolver and waits for all of them to settle
type Collector struct {
	logger        *logpkg.Logger
	tiles         Resolver
	markers       Resolver
	shapes        Resolver
	circleMarkers Resolver
	clusterGroups Resolver
}

func NewCollector(logger *logpkg.Logger, fetcher imagefetcher.Fetcher, conf *exportconfig.Config) *Collector {
	return &Collector{
		logger:        logger,
		tiles:         NewTileResolver(logger, fetcher),
		markers:       NewMarkerResolver(fetcher, conf.DefaultMarkerIcon()),
		shapes:        NewShapeResolver(),
		circleMarkers: NewCircleMarkerResolver(logger, fetcher, conf),
		clusterGroups: NewClusterGroupResolver(logger, fetcher, conf),
	}
}

func (c *Collector) classify(layer bigimage.Layer) Resolver {
	switch layer.Kind() {
	case bigimage.LayerKindTile:
		return c.tiles
	case bigimage.LayerKindMarker:
		return c.markers
	case bigimage.LayerKindPath:
		pathLayer, ok := layer.(*bigimage.PathLayer)
		if ok && pathLayer.IsCircleMarker() {
			return c.circleMarkers
		}
		return c.shapes
	case bigimage.LayerKindCircle:
		return c.shapes
	case bigimage.LayerKindClusterGroup:
		return c.clusterGroups
	default:
		return nil
	}
}

// Collect resolves all layers of the capture's map view into records.
// It returns once every dispatched resolver has finished. Resolver failures are logged and otherwise ignored.
func (c *Collector) Collect(ctx context.Context, cc *bigimage.CaptureContext) {
	var wg sync.WaitGroup

	cc.View.ForEachLayer(func(layer bigimage.Layer) {
		if layer == nil {
			return
		}

		resolver := c.classify(layer)
		if resolver == nil {
			c.logger.Debug("capture %s: skipping layer %d of unsupported kind %s", cc.ID, layer.LayerID(), layer.Kind())
			return
		}

		if !cc.Claim(layer.LayerID()) {
			c.logger.Debug("capture %s: layer %d already resolved", cc.ID, layer.LayerID())
			return
		}

		wg.Add(1)
		go func(layer bigimage.Layer, resolver Resolver) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.logger.Warn("capture %s: recovered from panic resolving layer %d (%s): %v", cc.ID, layer.LayerID(), layer.Kind(), r)
				}
			}()

			err := resolver.Resolve(ctx, layer, cc)
			if err != nil {
				c.logger.Warn("capture %s: couldn't resolve layer %d (%s). Error: %s", cc.ID, layer.LayerID(), layer.Kind(), err)
			}
		}(layer, resolver)
	})

	wg.Wait()
}

// logPanic recovers a panicking goroutine and logs it. It must be deferred directly.
func logPanic(logger *logpkg.Logger, format string, args ...interface{}) {
	r := recover()
	if r == nil {
		return
	}

	logger.Warn("%s: recovered from panic: %v", fmt.Sprintf(format, args...), r)
}

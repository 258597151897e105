package capture

import (
	"context"
	"errors"
	"image/color"
	"sync"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/compositor"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/chamendrieg/mapexport/exporter"
	"github.com/chamendrieg/mapexport/fonts"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/chamendrieg/mapexport/layerresolver"
	"github.com/chamendrieg/mapexport/styling"
	"github.com/google/uuid"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

var (
	ErrCaptureInProgress = errors.New("a capture is already in progress")
	ErrSurfaceTooLarge   = errors.New("the image would be too large")
)

// MapCapturer turns a map view into an exported image
type MapCapturer interface {
	Capture(ctx context.Context, view bigimage.MapView, options CaptureOptions) (*exporter.Blob, errorsx.Error)
	IsBusy() bool
}

type CaptureOptions struct {
	// Scale enlarges the captured area and the image by this factor. 0 means no scaling.
	Scale float64
	// Filename of the exported image. Empty means the configured filename.
	Filename string
	// Sink receives the image. It can be nil, when only the returned blob is used.
	Sink exporter.Sink
}

type Capturer struct {
	logger        *logpkg.Logger
	conf          *exportconfig.Config
	collector     *layerresolver.Collector
	compositor    *compositor.Compositor
	exporter      *exporter.Exporter
	busyIndicator BusyIndicator
	newID         func() string

	mu   sync.Mutex
	busy bool
}

var _ MapCapturer = &Capturer{}

func NewCapturer(logger *logpkg.Logger, conf *exportconfig.Config, fetcher imagefetcher.Fetcher, busyIndicator BusyIndicator) (*Capturer, errorsx.Error) {
	var background color.Color
	if conf.Background != "" {
		parsedBackground, err := styling.ParseColor(conf.Background)
		if err != nil {
			return nil, errorsx.Wrap(err, "background", conf.Background)
		}
		background = parsedBackground
	}

	if busyIndicator == nil {
		busyIndicator = NoopBusyIndicator{}
	}

	return &Capturer{
		logger:        logger,
		conf:          conf,
		collector:     layerresolver.NewCollector(logger, fetcher, conf),
		compositor:    compositor.NewCompositor(logger, fonts.DefaultFont(), fonts.BoldFont(), background),
		exporter:      exporter.NewExporter(conf.Filename),
		busyIndicator: busyIndicator,
		newID: func() string {
			return uuid.New().String()
		},
	}, nil
}

// Capture snapshots the view, resolves and draws all of its layers, and exports the image.
// Only one capture runs at a time. While one is running, other calls fail with ErrCaptureInProgress.
func (c *Capturer) Capture(ctx context.Context, view bigimage.MapView, options CaptureOptions) (*exporter.Blob, errorsx.Error) {
	if !c.start() {
		return nil, errorsx.Wrap(ErrCaptureInProgress)
	}
	defer c.finish()

	captureID := c.newID()

	snapshot := bigimage.TakeSnapshot(view)
	bounds := bigimage.NewCaptureBounds(snapshot)
	surface := snapshot.Size

	scale := bigimage.ClampScale(options.Scale, c.conf.MinScale, c.conf.MaxScale)

	width, height := bigimage.ScaledSize(surface, scale)
	maxSize := float64(c.conf.MaxSurfaceSize)
	if maxSize > 0 && !(width <= maxSize && height <= maxSize) {
		return nil, errorsx.Wrap(ErrSurfaceTooLarge, "width", width, "height", height, "maxSurfaceSize", c.conf.MaxSurfaceSize)
	}

	bigimage.AdjustScale(bounds, &surface, scale)

	c.logger.Info("capture %s: starting. Zoom: %v, size: %dx%d, scale: %v", captureID, snapshot.Zoom, surface.Width, surface.Height, scale)

	cc := bigimage.NewCaptureContext(captureID, view, snapshot, bounds, surface)

	span := startSpan(ctx, "collect layers")
	c.collector.Collect(ctx, cc)
	endSpan(ctx, span)

	c.logger.Debug("capture %s: %d layers produced a record", captureID, cc.RecordCount())

	span = startSpan(ctx, "composite")
	img, err := c.compositor.Composite(ctx, cc)
	endSpan(ctx, span)
	if err != nil {
		return nil, errorsx.Wrap(err, "captureID", captureID)
	}

	span = startSpan(ctx, "export")
	blob, err := c.exporter.Export(img, options.Filename, options.Sink)
	endSpan(ctx, span)
	if err != nil {
		return nil, errorsx.Wrap(err, "captureID", captureID)
	}

	c.logger.Info("capture %s: exported %s", captureID, blob)

	return blob, nil
}

func (c *Capturer) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Capturer) start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return false
	}

	c.busy = true
	c.busyIndicator.SetBusy(true)
	return true
}

func (c *Capturer) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy = false
	c.busyIndicator.SetBusy(false)
}

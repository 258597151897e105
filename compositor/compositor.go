package compositor

import (
	"context"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/styling"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

const (
	tooltipOffsetY      = 22
	clusterImageOffset  = 20
	clusterCountOffsetY = 5
)

// Compositor draws the records of a capture onto a new image
type Compositor struct {
	logger     *logpkg.Logger
	font       *truetype.Font
	boldFont   *truetype.Font
	background color.Color
}

// NewCompositor creates a compositor. A nil background leaves the image transparent.
func NewCompositor(logger *logpkg.Logger, font, boldFont *truetype.Font, background color.Color) *Compositor {
	return &Compositor{
		logger:     logger,
		font:       font,
		boldFont:   boldFont,
		background: background,
	}
}

// Composite draws tiles, then paths, then markers, then circles.
// Within each group, records are drawn in the order of the IDs of the layers they came from.
func (c *Compositor) Composite(ctx context.Context, cc *bigimage.CaptureContext) (*image.RGBA, errorsx.Error) {
	if cc.Surface.Width <= 0 || cc.Surface.Height <= 0 {
		return nil, errorsx.Errorf("invalid surface size: %dx%d", cc.Surface.Width, cc.Surface.Height)
	}

	img := NewImageWithBackground(image.Rect(0, 0, cc.Surface.Width, cc.Surface.Height), c.background)

	for _, tileLayer := range cc.TileLayers() {
		for _, tile := range tileLayer.Tiles {
			drawImage(img, tile.Image, toImagePoint(tile.Position.X, tile.Position.Y), image.Pt(tileLayer.TileSize, tileLayer.TileSize), tileLayer.Opacity)
		}
	}

	for _, path := range cc.Paths() {
		err := drawPath(img, path)
		if err != nil {
			c.logger.Warn("capture %s: couldn't draw path. Error: %s", cc.ID, err)
		}
	}

	for _, marker := range cc.Markers() {
		err := c.drawMarker(img, marker)
		if err != nil {
			c.logger.Warn("capture %s: couldn't draw marker. Error: %s", cc.ID, err)
		}
	}

	for _, circle := range cc.Circles() {
		err := drawCircle(img, cc, circle.Circle)
		if err != nil {
			c.logger.Warn("capture %s: couldn't draw circle %d. Error: %s", cc.ID, circle.Circle.ID, err)
		}
	}

	return img, nil
}

func (c *Compositor) drawMarker(img *image.RGBA, marker *bigimage.MarkerRecord) errorsx.Error {
	x, y := marker.Position.X, marker.Position.Y

	switch marker.Kind {
	case bigimage.MarkerKindText:
		return c.drawText(img, marker.Text, x, y, styling.MarkerTextStyle)
	case bigimage.MarkerKindImageTooltip:
		drawImageAtNaturalSize(img, marker.Image, toImagePoint(x, y))
		return c.drawText(img, marker.Tooltip, x, y+tooltipOffsetY, styling.TooltipTextStyle)
	case bigimage.MarkerKindCluster:
		drawImageAtNaturalSize(img, marker.Image, toImagePoint(x-clusterImageOffset, y-clusterImageOffset))

		countX := x - 4
		if marker.Count >= 10 {
			countX = x - 8
		}
		return c.drawText(img, strconv.Itoa(marker.Count), countX, y+clusterCountOffsetY, styling.ClusterCountTextStyle)
	default:
		drawImageAtNaturalSize(img, marker.Image, toImagePoint(x, y))
		return nil
	}
}

func roundToInt(val float64) int {
	return int(math.Round(val))
}

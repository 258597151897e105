package layerresolver

import (
	"context"
	"image"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/chamendrieg/mapexport/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// circleIconOffset moves the circle icon so that it is centred on the marker
const circleIconOffset = 13

// CircleMarkerResolver draws circle markers (paths with a pixel radius) as the configured circle icon matching their fill colour
type CircleMarkerResolver struct {
	logger  *logpkg.Logger
	fetcher imagefetcher.Fetcher
	conf    *exportconfig.Config
}

func NewCircleMarkerResolver(logger *logpkg.Logger, fetcher imagefetcher.Fetcher, conf *exportconfig.Config) *CircleMarkerResolver {
	return &CircleMarkerResolver{logger, fetcher, conf}
}

func (r *CircleMarkerResolver) Resolve(ctx context.Context, layer bigimage.Layer, cc *bigimage.CaptureContext) errorsx.Error {
	pathLayer, ok := layer.(*bigimage.PathLayer)
	if !ok || !pathLayer.IsCircleMarker() {
		return errorsx.Errorf("expected a circle marker but got %T", layer)
	}

	point := cc.Project(pathLayer.LatLng)
	if !bigimage.IsOnSurface(point, cc.Surface) {
		return nil
	}

	style := pathLayer.Style
	if style == nil {
		style = styling.DefaultFilledPathStyle()
	}

	img, err := r.loadIcon(ctx, style.EffectiveFillColor())
	if err != nil {
		return errorsx.Wrap(err, "circleMarkerID", pathLayer.ID)
	}

	cc.SetMarker(pathLayer.ID, &bigimage.MarkerRecord{
		Kind:     bigimage.MarkerKindImage,
		Image:    img,
		Position: bigimage.Point{X: point.X - circleIconOffset, Y: point.Y - circleIconOffset},
	})

	return nil
}

func (r *CircleMarkerResolver) loadIcon(ctx context.Context, fillColor string) (image.Image, errorsx.Error) {
	icon, matched := r.conf.MatchCircleIcon(fillColor)
	if icon == nil {
		return nil, errorsx.Errorf("no circle icons configured")
	}

	img, err := r.fetcher.Load(ctx, icon.Path)
	if err == nil {
		return img, nil
	}

	fallback := r.conf.DefaultCircleIcon()
	if !matched || fallback.Path == icon.Path {
		return nil, errorsx.Wrap(err, "iconPath", icon.Path)
	}

	r.logger.Debug("couldn't load circle icon %q, using %q instead. Error: %s", icon.Path, fallback.Path, err)

	return r.fetcher.Load(ctx, fallback.Path)
}

package layerresolver

import (
	"context"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/styling"
	"github.com/jamesrr39/goutil/errorsx"
)

// ShapeResolver handles polylines, polygons and circles with a metre radius
type ShapeResolver struct{}

func NewShapeResolver() *ShapeResolver {
	return &ShapeResolver{}
}

func (r *ShapeResolver) Resolve(ctx context.Context, layer bigimage.Layer, cc *bigimage.CaptureContext) errorsx.Error {
	switch shape := layer.(type) {
	case *bigimage.CircleLayer:
		// projected when drawn
		cc.SetCircle(shape.ID, &bigimage.CircleRecord{Circle: shape})
		return nil
	case *bigimage.PathLayer:
		return r.resolvePath(shape, cc)
	default:
		return errorsx.Errorf("expected a path or circle layer but got %T", layer)
	}
}

func (r *ShapeResolver) resolvePath(pathLayer *bigimage.PathLayer, cc *bigimage.CaptureContext) errorsx.Error {
	if len(pathLayer.LatLngs) == 0 {
		return nil
	}

	style := pathLayer.Style
	if style == nil {
		style = styling.DefaultPathStyle()
	}

	var latLngs []bigimage.LatLng
	if style.Fill {
		latLngs = pathLayer.LatLngs[0]
	} else {
		for _, ring := range pathLayer.LatLngs {
			latLngs = append(latLngs, ring...)
		}
	}

	var (
		points       []bigimage.Point
		reachesImage bool
	)
	for _, latLng := range latLngs {
		point := cc.Project(latLng)
		points = append(points, point)

		if point.X < float64(cc.Surface.Width) && point.Y < float64(cc.Surface.Height) {
			reachesImage = true
		}
	}

	if !reachesImage {
		return nil
	}

	cc.SetPath(pathLayer.ID, &bigimage.PathRecord{
		Points: points,
		Closed: style.Fill,
		Style:  style,
	})

	return nil
}

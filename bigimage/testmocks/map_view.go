package testmocks

import (
	"github.com/chamendrieg/mapexport/bigimage"
)

// MockMapView is a map view with a flat projection: a coordinate projects to the pixel (lng, lat)
type MockMapView struct {
	SizeVal           bigimage.SurfaceSize
	ZoomVal           float64
	PixelBoundsVal    bigimage.PixelBounds
	Layers            []bigimage.Layer
	ProjectFunc       func(latLng bigimage.LatLng) bigimage.Point
	VisibleParentFunc func(group *bigimage.ClusterGroupLayer, marker *bigimage.MarkerLayer) *bigimage.ClusterNode
}

var _ bigimage.MapView = &MockMapView{}

// NewMockMapView creates a view whose pixel bounds start at the origin
func NewMockMapView(width, height int, zoom float64, layers ...bigimage.Layer) *MockMapView {
	return &MockMapView{
		SizeVal: bigimage.SurfaceSize{Width: width, Height: height},
		ZoomVal: zoom,
		PixelBoundsVal: bigimage.PixelBounds{
			Max: bigimage.Point{X: float64(width), Y: float64(height)},
		},
		Layers: layers,
	}
}

func (v *MockMapView) Size() bigimage.SurfaceSize {
	return v.SizeVal
}

func (v *MockMapView) Zoom() float64 {
	return v.ZoomVal
}

func (v *MockMapView) PixelBounds() bigimage.PixelBounds {
	return v.PixelBoundsVal
}

func (v *MockMapView) Project(latLng bigimage.LatLng) bigimage.Point {
	if v.ProjectFunc != nil {
		return v.ProjectFunc(latLng)
	}
	return bigimage.Point{X: latLng.Lng, Y: latLng.Lat}
}

func (v *MockMapView) ForEachLayer(visit func(layer bigimage.Layer)) {
	for _, layer := range v.Layers {
		visit(layer)
	}
}

func (v *MockMapView) VisibleParent(group *bigimage.ClusterGroupLayer, marker *bigimage.MarkerLayer) *bigimage.ClusterNode {
	if v.VisibleParentFunc == nil {
		return nil
	}
	return v.VisibleParentFunc(group, marker)
}

package staticview

import (
	"testing"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(val float64) *float64 {
	return &val
}

func newTestDocument(layers ...*LayerDocument) *ViewDocument {
	return &ViewDocument{
		Width:  200,
		Height: 100,
		Center: &LatLngDocument{0, 0},
		Zoom:   float64Ptr(1),
		Layers: layers,
	}
}

func collectLayers(view *View) []bigimage.Layer {
	var layers []bigimage.Layer
	view.ForEachLayer(func(layer bigimage.Layer) {
		layers = append(layers, layer)
	})
	return layers
}

func TestNewView_placement(t *testing.T) {
	view, err := NewView(newTestDocument())
	require.NoError(t, err)

	assert.Equal(t, bigimage.SurfaceSize{Width: 200, Height: 100}, view.Size())
	assert.Equal(t, 1.0, view.Zoom())
	assert.Equal(t, bigimage.LatLng{}, view.Center())
	assert.Equal(t, bigimage.PixelBounds{
		Min: bigimage.Point{X: 156, Y: 206},
		Max: bigimage.Point{X: 356, Y: 306},
	}, view.PixelBounds())

	point := view.Project(bigimage.LatLng{})
	assert.InDelta(t, 256, point.X, 1e-9)
	assert.InDelta(t, 256, point.Y, 1e-9)
}

func TestNewView_fitBounds(t *testing.T) {
	doc := &ViewDocument{
		Width:  300,
		Height: 300,
		Bounds: &BoundsDocument{MinLat: 0, MinLon: -90, MaxLat: 66.51326044311186, MaxLon: 0},
	}

	view, err := NewView(doc)
	require.NoError(t, err)

	assert.Equal(t, 2.0, view.Zoom())
	assert.InDelta(t, -45, view.Center().Lng, 1e-6)
	assert.InDelta(t, 384-150, view.PixelBounds().Min.X, 1e-6)
}

func TestNewView_invalid(t *testing.T) {
	testCases := map[string]*ViewDocument{
		"no size": {
			Center: &LatLngDocument{0, 0},
			Zoom:   float64Ptr(1),
		},
		"too big": {
			Width:  MaxViewSize + 1,
			Height: 10,
			Center: &LatLngDocument{0, 0},
			Zoom:   float64Ptr(1),
		},
		"no placement": {
			Width:  10,
			Height: 10,
		},
		"zoom out of range": {
			Width:  10,
			Height: 10,
			Center: &LatLngDocument{0, 0},
			Zoom:   float64Ptr(MaxZoom + 1),
		},
		"unknown layer type": newTestDocument(&LayerDocument{Type: "heatmap"}),
		"tile layer without url": newTestDocument(&LayerDocument{Type: LayerTypeTile}),
		"marker without position": newTestDocument(&LayerDocument{Type: LayerTypeMarker}),
		"circle without position": newTestDocument(&LayerDocument{Type: LayerTypeCircle, Radius: 10}),
		"bad path colour": newTestDocument(&LayerDocument{
			Type:  LayerTypePolyline,
			Style: &StyleDocument{Color: "nope"},
		}),
		"cluster with a polygon": newTestDocument(&LayerDocument{
			Type:    LayerTypeMarkerCluster,
			Markers: []*LayerDocument{{Type: LayerTypePolygon}},
		}),
		"nil layer": newTestDocument(nil),
	}

	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := NewView(doc)
			assert.Error(t, err)
		})
	}
}

func TestNewView_layers(t *testing.T) {
	doc := newTestDocument(
		&LayerDocument{Type: LayerTypeTile, URL: "https://{s}.example.com/{z}/{x}/{y}.png"},
		&LayerDocument{ID: 5, Type: LayerTypeMarker, LatLng: &LatLngDocument{1, 2}, Icon: &IconDocument{IconURL: "pin.png"}},
		&LayerDocument{Type: LayerTypePolygon, LatLngs: RingsDocument{{{0, 0}, {1, 1}, {1, 0}}}},
		&LayerDocument{Type: LayerTypePolyline, LatLngs: RingsDocument{{{0, 0}, {1, 1}}}},
		&LayerDocument{Type: LayerTypeCircleMarker, LatLng: &LatLngDocument{0, 0}},
	)

	view, err := NewView(doc)
	require.NoError(t, err)

	layers := collectLayers(view)
	require.Len(t, layers, 5)

	tileLayer := layers[0].(*bigimage.TileLayer)
	assert.Equal(t, bigimage.LayerID(6), tileLayer.ID)
	assert.Equal(t, 256, tileLayer.TileSize)
	assert.Equal(t, 1.0, tileLayer.Opacity)
	assert.Equal(t, []string{"a", "b", "c"}, tileLayer.Subdomains)

	marker := layers[1].(*bigimage.MarkerLayer)
	assert.Equal(t, bigimage.LayerID(5), marker.ID)
	assert.Equal(t, bigimage.LatLng{Lat: 1, Lng: 2}, marker.LatLng)
	assert.Equal(t, "pin.png", marker.Icon.ImageURL)

	polygon := layers[2].(*bigimage.PathLayer)
	assert.Equal(t, bigimage.LayerID(7), polygon.ID)
	assert.True(t, polygon.Style.Fill)
	assert.False(t, polygon.IsCircleMarker())

	polyline := layers[3].(*bigimage.PathLayer)
	assert.Equal(t, bigimage.LayerID(8), polyline.ID)
	assert.False(t, polyline.Style.Fill)

	circleMarker := layers[4].(*bigimage.PathLayer)
	assert.True(t, circleMarker.IsCircleMarker())
	assert.Equal(t, float64(DefaultCircleMarkerRadius), circleMarker.Radius)
	assert.True(t, circleMarker.Style.Fill)
}

func TestNewView_circles(t *testing.T) {
	doc := newTestDocument(
		&LayerDocument{Type: LayerTypeCircle, LatLng: &LatLngDocument{0, 0}, Radius: 100000},
		&LayerDocument{Type: LayerTypeCircle, LatLng: &LatLngDocument{40, 40}, Radius: 1000},
	)

	view, err := NewView(doc)
	require.NoError(t, err)

	layers := collectLayers(view)
	require.Len(t, layers, 2)

	inView := layers[0].(*bigimage.CircleLayer)
	radius, radiusY := inView.PixelRadii()
	assert.Greater(t, radius, 0.0)
	assert.Greater(t, radiusY, 0.0)
	assert.False(t, inView.IsEmpty())

	outOfView := layers[1].(*bigimage.CircleLayer)
	assert.True(t, outOfView.IsEmpty())
}

func TestNewView_markerClusters(t *testing.T) {
	doc := newTestDocument(&LayerDocument{
		Type: LayerTypeMarkerCluster,
		Markers: []*LayerDocument{
			{LatLng: &LatLngDocument{0, 0}},
			{LatLng: &LatLngDocument{0.1, 0.1}},
			{LatLng: &LatLngDocument{60, 100}},
		},
	})

	view, err := NewView(doc)
	require.NoError(t, err)

	layers := collectLayers(view)
	require.Len(t, layers, 3)

	group := layers[0].(*bigimage.ClusterGroupLayer)
	assert.Equal(t, bigimage.LayerID(1), group.ID)
	require.Len(t, group.Markers, 3)
	assert.Equal(t, bigimage.LayerID(2), group.Markers[0].ID)
	assert.Equal(t, bigimage.LayerID(3), group.Markers[1].ID)
	assert.Equal(t, bigimage.LayerID(4), group.Markers[2].ID)

	// the lone marker is shown by itself
	assert.Same(t, group.Markers[2], layers[1])
	assert.Nil(t, view.VisibleParent(group, group.Markers[2]))

	clusterMarker := layers[2].(*bigimage.MarkerLayer)
	assert.Equal(t, bigimage.LayerID(5), clusterMarker.ID)
	assert.Equal(t, 2, clusterMarker.ChildCount)
	assert.Equal(t, "<div><span>2</span></div>", clusterMarker.Icon.HTML)

	node := view.VisibleParent(group, group.Markers[0])
	require.NotNil(t, node)
	assert.Same(t, node, view.VisibleParent(group, group.Markers[1]))
	assert.Equal(t, bigimage.LayerID(5), node.ID)
	assert.Equal(t, 2, node.ChildCount)
	assert.Empty(t, node.IconURL)

	expectedPoint := ProjectLatLng(bigimage.LatLng{Lat: 0.05, Lng: 0.05}, 1)
	assert.InDelta(t, expectedPoint.X, node.Point.X, 1e-9)
	assert.InDelta(t, expectedPoint.Y, node.Point.Y, 1e-9)

	assert.Nil(t, view.VisibleParent(&bigimage.ClusterGroupLayer{}, group.Markers[0]))
}

func TestNewView_markerClusterWithIcon(t *testing.T) {
	doc := newTestDocument(
		&LayerDocument{ID: 10, Type: LayerTypeTile, URL: "tiles/{z}/{x}/{y}.png"},
		&LayerDocument{
			Type:           LayerTypeMarkerCluster,
			ClusterIconURL: "cluster.png",
			Markers: []*LayerDocument{
				{LatLng: &LatLngDocument{0, 0}},
				{LatLng: &LatLngDocument{0.1, 0.1}},
			},
		},
	)

	view, err := NewView(doc)
	require.NoError(t, err)

	layers := collectLayers(view)
	require.Len(t, layers, 3)

	group := layers[1].(*bigimage.ClusterGroupLayer)
	assert.Equal(t, bigimage.LayerID(11), group.ID)

	clusterMarker := layers[2].(*bigimage.MarkerLayer)
	assert.Equal(t, bigimage.LayerID(14), clusterMarker.ID)
	assert.Equal(t, "cluster.png", clusterMarker.Icon.ImageURL)

	node := view.VisibleParent(group, group.Markers[0])
	require.NotNil(t, node)
	assert.Equal(t, "cluster.png", node.IconURL)
}

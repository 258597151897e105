package staticview

import (
	"fmt"
	"math"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/jamesrr39/goutil/errorsx"
)

// MaxViewSize is the biggest width or height of a view
const MaxViewSize = 16384

// circleBoundsPadding is how far (relative to the view size) circles outside of the view are still drawn
const circleBoundsPadding = 0.1

// View is a map view built from a view document. It does not change after it is created.
type View struct {
	size        bigimage.SurfaceSize
	zoom        float64
	center      bigimage.LatLng
	pixelBounds bigimage.PixelBounds
	layers      []bigimage.Layer
	clusters    map[*bigimage.ClusterGroupLayer]*clusterIndex
}

var _ bigimage.MapView = &View{}

// NewView places the view and builds its layers. Layers without an ID are given one.
func NewView(doc *ViewDocument) (*View, errorsx.Error) {
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, errorsx.Errorf("view size must be positive, got %dx%d", doc.Width, doc.Height)
	}
	if doc.Width > MaxViewSize || doc.Height > MaxViewSize {
		return nil, errorsx.Errorf("view size can be at most %dx%d, got %dx%d", MaxViewSize, MaxViewSize, doc.Width, doc.Height)
	}

	v := &View{
		size:     bigimage.SurfaceSize{Width: doc.Width, Height: doc.Height},
		clusters: make(map[*bigimage.ClusterGroupLayer]*clusterIndex),
	}

	switch {
	case doc.Center != nil && doc.Zoom != nil:
		if *doc.Zoom < 0 || *doc.Zoom > MaxZoom {
			return nil, errorsx.Errorf("zoom must be between 0 and %d, got %v", MaxZoom, *doc.Zoom)
		}
		v.center = doc.Center.LatLng()
		v.zoom = *doc.Zoom
	case doc.Bounds != nil:
		v.center, v.zoom = FitBounds(doc.Bounds.OSMBounds(), v.size)
	default:
		return nil, errorsx.Errorf("the view needs either a center and zoom, or bounds")
	}

	centerPoint := ProjectLatLng(v.center, v.zoom)
	topLeft := bigimage.Point{
		X: math.Round(centerPoint.X - float64(v.size.Width)/2),
		Y: math.Round(centerPoint.Y - float64(v.size.Height)/2),
	}
	v.pixelBounds = bigimage.PixelBounds{
		Min: topLeft,
		Max: topLeft.Add(bigimage.Point{X: float64(v.size.Width), Y: float64(v.size.Height)}),
	}

	ids := newIDAllocator(doc.Layers)

	for idx, layerDoc := range doc.Layers {
		if layerDoc == nil {
			return nil, errorsx.Errorf("layer at index %d is empty", idx)
		}

		layer, err := v.buildLayer(layerDoc, ids)
		if err != nil {
			return nil, errorsx.Wrap(err, "layerIndex", idx, "layerType", layerDoc.Type)
		}
		v.layers = append(v.layers, layer)
	}

	// cluster nodes are numbered after every layer, so they never share an identity with one
	for _, layer := range v.layers {
		group, ok := layer.(*bigimage.ClusterGroupLayer)
		if !ok {
			continue
		}
		v.clusters[group].assignIDs(ids)
	}

	return v, nil
}

func (v *View) Size() bigimage.SurfaceSize {
	return v.size
}

func (v *View) Zoom() float64 {
	return v.zoom
}

func (v *View) Center() bigimage.LatLng {
	return v.center
}

func (v *View) PixelBounds() bigimage.PixelBounds {
	return v.pixelBounds
}

func (v *View) Project(latLng bigimage.LatLng) bigimage.Point {
	return ProjectLatLng(latLng, v.zoom)
}

// ForEachLayer visits the layers in the order of the document.
// A marker cluster group is followed by its unclustered markers and then by the markers standing in for its clusters.
func (v *View) ForEachLayer(visit func(layer bigimage.Layer)) {
	for _, layer := range v.layers {
		visit(layer)

		group, ok := layer.(*bigimage.ClusterGroupLayer)
		if !ok {
			continue
		}

		index := v.clusters[group]
		for _, marker := range index.unclustered {
			visit(marker)
		}
		for _, node := range index.nodes {
			visit(node.marker)
		}
	}
}

func (v *View) VisibleParent(group *bigimage.ClusterGroupLayer, marker *bigimage.MarkerLayer) *bigimage.ClusterNode {
	index, ok := v.clusters[group]
	if !ok {
		return nil
	}

	node, ok := index.parents[marker]
	if !ok {
		return nil
	}

	return node.ClusterNode
}

func (v *View) buildLayer(doc *LayerDocument, ids *idAllocator) (bigimage.Layer, errorsx.Error) {
	id := ids.idFor(doc)

	switch doc.Type {
	case LayerTypeTile:
		return buildTileLayer(id, doc)
	case LayerTypeMarker:
		return buildMarkerLayer(id, doc)
	case LayerTypePolyline, LayerTypePolygon:
		return buildPathLayer(id, doc)
	case LayerTypeCircle:
		return v.buildCircleLayer(id, doc)
	case LayerTypeCircleMarker:
		return buildCircleMarkerLayer(id, doc)
	case LayerTypeMarkerCluster:
		return v.buildClusterGroupLayer(id, doc, ids)
	default:
		return nil, errorsx.Errorf("unknown layer type: %q", doc.Type)
	}
}

func buildTileLayer(id bigimage.LayerID, doc *LayerDocument) (*bigimage.TileLayer, errorsx.Error) {
	if doc.URL == "" {
		return nil, errorsx.Errorf("tile layer has no url")
	}

	tileSize := doc.TileSize
	if tileSize == 0 {
		tileSize = BaseTileSize
	}
	if tileSize < 0 {
		return nil, errorsx.Errorf("tile size must be positive, got %d", tileSize)
	}

	opacity := 1.0
	if doc.Opacity != nil {
		opacity = *doc.Opacity
	}

	subdomains := doc.Subdomains
	if len(subdomains) == 0 {
		subdomains = subdomainsFromString(DefaultSubdomains)
	}

	return &bigimage.TileLayer{
		ID:          id,
		TileSize:    tileSize,
		Opacity:     opacity,
		URLTemplate: doc.URL,
		Subdomains:  subdomains,
		NoWrap:      doc.NoWrap,
	}, nil
}

func buildMarkerLayer(id bigimage.LayerID, doc *LayerDocument) (*bigimage.MarkerLayer, errorsx.Error) {
	if doc.LatLng == nil {
		return nil, errorsx.Errorf("marker has no latLng")
	}

	marker := &bigimage.MarkerLayer{
		ID:      id,
		LatLng:  doc.LatLng.LatLng(),
		Tooltip: doc.Tooltip,
	}
	if doc.Icon != nil {
		marker.Icon = doc.Icon.toIcon()
	}

	return marker, nil
}

func buildPathLayer(id bigimage.LayerID, doc *LayerDocument) (*bigimage.PathLayer, errorsx.Error) {
	style, err := doc.Style.toPathStyle(doc.Type == LayerTypePolygon)
	if err != nil {
		return nil, err
	}

	return &bigimage.PathLayer{
		ID:      id,
		LatLngs: doc.LatLngs.LatLngs(),
		Style:   style,
	}, nil
}

func buildCircleMarkerLayer(id bigimage.LayerID, doc *LayerDocument) (*bigimage.PathLayer, errorsx.Error) {
	if doc.LatLng == nil {
		return nil, errorsx.Errorf("circle marker has no latLng")
	}

	style, err := doc.Style.toPathStyle(true)
	if err != nil {
		return nil, err
	}

	radius := doc.Radius
	if radius == 0 {
		radius = DefaultCircleMarkerRadius
	}
	if radius < 0 {
		return nil, errorsx.Errorf("circle marker radius must be positive, got %v", radius)
	}

	return &bigimage.PathLayer{
		ID:     id,
		LatLng: doc.LatLng.LatLng(),
		Radius: radius,
		Style:  style,
	}, nil
}

func (v *View) buildCircleLayer(id bigimage.LayerID, doc *LayerDocument) (*bigimage.CircleLayer, errorsx.Error) {
	if doc.LatLng == nil {
		return nil, errorsx.Errorf("circle has no latLng")
	}
	if doc.Radius < 0 {
		return nil, errorsx.Errorf("circle radius must not be negative, got %v", doc.Radius)
	}

	style, err := doc.Style.toPathStyle(true)
	if err != nil {
		return nil, err
	}

	circle := &bigimage.CircleLayer{
		ID:     id,
		LatLng: doc.LatLng.LatLng(),
		Radius: doc.Radius,
		Style:  style,
	}

	radius, radiusY, point := circlePixelRadii(circle.LatLng, circle.Radius, v.zoom)
	circleBounds := bigimage.PixelBounds{
		Min: point.Subtract(bigimage.Point{X: radius, Y: radiusY}),
		Max: point.Add(bigimage.Point{X: radius, Y: radiusY}),
	}
	empty := radius != 0 && !v.paddedPixelBounds().Intersects(circleBounds)
	circle.SetProjected(radius, radiusY, empty)

	return circle, nil
}

func (v *View) paddedPixelBounds() bigimage.PixelBounds {
	padding := bigimage.Point{
		X: float64(v.size.Width) * circleBoundsPadding,
		Y: float64(v.size.Height) * circleBoundsPadding,
	}
	return bigimage.PixelBounds{
		Min: v.pixelBounds.Min.Subtract(padding),
		Max: v.pixelBounds.Max.Add(padding),
	}
}

func (v *View) buildClusterGroupLayer(id bigimage.LayerID, doc *LayerDocument, ids *idAllocator) (*bigimage.ClusterGroupLayer, errorsx.Error) {
	group := &bigimage.ClusterGroupLayer{ID: id}

	for idx, markerDoc := range doc.Markers {
		if markerDoc == nil || (markerDoc.Type != "" && markerDoc.Type != LayerTypeMarker) {
			return nil, errorsx.Errorf("marker cluster entry at index %d is not a marker", idx)
		}

		marker, err := buildMarkerLayer(ids.idFor(markerDoc), markerDoc)
		if err != nil {
			return nil, errorsx.Wrap(err, "markerIndex", idx)
		}
		group.Markers = append(group.Markers, marker)
	}

	cellSize := doc.MaxClusterRadius
	if cellSize == 0 {
		cellSize = DefaultMaxClusterRadius
	}
	if cellSize < 0 {
		return nil, errorsx.Errorf("maxClusterRadius must be positive, got %d", cellSize)
	}

	v.clusters[group] = buildClusterIndex(group, float64(cellSize), v.zoom, doc.ClusterIconURL)

	return group, nil
}

// clusterNode is a cluster with the marker that is shown in its place
type clusterNode struct {
	*bigimage.ClusterNode
	marker *bigimage.MarkerLayer
}

type clusterIndex struct {
	nodes       []*clusterNode
	unclustered []*bigimage.MarkerLayer
	parents     map[*bigimage.MarkerLayer]*clusterNode
}

type gridCell struct {
	x, y int
}

// buildClusterIndex puts the markers on a grid of square cells. Every cell with more than one marker becomes a cluster.
func buildClusterIndex(group *bigimage.ClusterGroupLayer, cellSize, zoom float64, iconURL string) *clusterIndex {
	index := &clusterIndex{
		parents: make(map[*bigimage.MarkerLayer]*clusterNode),
	}

	var cellOrder []gridCell
	cells := make(map[gridCell][]*bigimage.MarkerLayer)

	for _, marker := range group.Markers {
		point := ProjectLatLng(marker.LatLng, zoom)
		cell := gridCell{
			x: int(math.Floor(point.X / cellSize)),
			y: int(math.Floor(point.Y / cellSize)),
		}

		if _, ok := cells[cell]; !ok {
			cellOrder = append(cellOrder, cell)
		}
		cells[cell] = append(cells[cell], marker)
	}

	for _, cell := range cellOrder {
		markers := cells[cell]
		if len(markers) == 1 {
			index.unclustered = append(index.unclustered, markers[0])
			continue
		}

		var latSum, lngSum float64
		for _, marker := range markers {
			latSum += marker.LatLng.Lat
			lngSum += marker.LatLng.Lng
		}
		center := bigimage.LatLng{
			Lat: latSum / float64(len(markers)),
			Lng: lngSum / float64(len(markers)),
		}

		node := &clusterNode{
			ClusterNode: &bigimage.ClusterNode{
				Point:      ProjectLatLng(center, zoom),
				ChildCount: len(markers),
				IconURL:    iconURL,
			},
			marker: &bigimage.MarkerLayer{
				LatLng:     center,
				ChildCount: len(markers),
			},
		}

		if iconURL != "" {
			node.marker.Icon = &bigimage.Icon{ImageURL: iconURL}
		} else {
			node.marker.Icon = &bigimage.Icon{
				HTML: fmt.Sprintf("<div><span>%d</span></div>", len(markers)),
			}
		}

		index.nodes = append(index.nodes, node)
		for _, marker := range markers {
			index.parents[marker] = node
		}
	}

	return index
}

func (index *clusterIndex) assignIDs(ids *idAllocator) {
	for _, node := range index.nodes {
		id := ids.next()
		node.ID = id
		node.marker.ID = id
	}
}

// idAllocator hands out identities that no layer of the document uses
type idAllocator struct {
	nextID bigimage.LayerID
}

func newIDAllocator(docs []*LayerDocument) *idAllocator {
	var maxID bigimage.LayerID

	var visit func(docs []*LayerDocument)
	visit = func(docs []*LayerDocument) {
		for _, doc := range docs {
			if doc == nil {
				continue
			}
			if doc.ID > maxID {
				maxID = doc.ID
			}
			visit(doc.Markers)
		}
	}
	visit(docs)

	return &idAllocator{nextID: maxID + 1}
}

func (a *idAllocator) next() bigimage.LayerID {
	id := a.nextID
	a.nextID++
	return id
}

// idFor returns the layer's own ID, or a new one if it has none
func (a *idAllocator) idFor(doc *LayerDocument) bigimage.LayerID {
	if doc.ID != 0 {
		return doc.ID
	}
	return a.next()
}

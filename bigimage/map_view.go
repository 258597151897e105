package bigimage

// MapView is the host map that is being captured
type MapView interface {
	Size() SurfaceSize
	Zoom() float64
	PixelBounds() PixelBounds
	// Project converts a coordinate to an absolute pixel at the current zoom
	Project(latLng LatLng) Point
	ForEachLayer(visit func(layer Layer))
	// VisibleParent returns the cluster the marker is currently shown as, or nil when it isn't clustered
	VisibleParent(group *ClusterGroupLayer, marker *MarkerLayer) *ClusterNode
}

func TakeSnapshot(view MapView) Snapshot {
	return Snapshot{
		Size:        view.Size(),
		Zoom:        view.Zoom(),
		PixelBounds: view.PixelBounds(),
	}
}

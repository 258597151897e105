package bigimage

// Project converts a coordinate to a pixel relative to the capture bounds
func Project(view MapView, latLng LatLng, bounds *CaptureBounds) Point {
	return view.Project(latLng).Subtract(bounds.Min)
}

// ProjectMarker projects a marker and moves it by its icon anchor, giving the top-left corner of the icon
func ProjectMarker(view MapView, marker *MarkerLayer, bounds *CaptureBounds) Point {
	point := Project(view, marker.LatLng, bounds)

	if marker.Icon != nil && marker.Icon.Anchor != nil {
		point = point.Subtract(*marker.Icon.Anchor)
	}

	return point
}

// IsOnSurface tells whether a projected point lies on the raster surface.
// Points on the right or bottom edge (x == width or y == height) are outside.
func IsOnSurface(point Point, surface SurfaceSize) bool {
	// written as positive comparisons so NaN coordinates are outside
	return point.X >= 0 && point.X < float64(surface.Width) &&
		point.Y >= 0 && point.Y < float64(surface.Height)
}

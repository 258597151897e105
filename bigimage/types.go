package bigimage

import (
	"math"

	"github.com/paulmach/orb"
)

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) Add(other Point) Point {
	return Point{p.X + other.X, p.Y + other.Y}
}

func (p Point) Subtract(other Point) Point {
	return Point{p.X - other.X, p.Y - other.Y}
}

func (p Point) Floor() Point {
	return Point{math.Floor(p.X), math.Floor(p.Y)}
}

type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// OrbPoint converts to the (lon, lat) ordering orb uses
func (ll LatLng) OrbPoint() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

func LatLngFromOrbPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

type SurfaceSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type PixelBounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func (b PixelBounds) Size() Point {
	return b.Max.Subtract(b.Min)
}

func (b PixelBounds) Center() Point {
	return Point{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Intersects is true when the two bounds share any area or edge
func (b PixelBounds) Intersects(other PixelBounds) bool {
	return other.Max.X >= b.Min.X && other.Min.X <= b.Max.X &&
		other.Max.Y >= b.Min.Y && other.Min.Y <= b.Max.Y
}

// Snapshot is the state of the map view at the moment a capture starts
type Snapshot struct {
	Size        SurfaceSize
	Zoom        float64
	PixelBounds PixelBounds
}

// CaptureBounds is the pixel-space window that is rendered.
// It starts as the snapshot's pixel bounds and is widened by AdjustScale.
type CaptureBounds struct {
	Min Point
	Max Point
}

func NewCaptureBounds(snapshot Snapshot) *CaptureBounds {
	return &CaptureBounds{
		Min: snapshot.PixelBounds.Min,
		Max: snapshot.PixelBounds.Max,
	}
}

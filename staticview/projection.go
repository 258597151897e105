package staticview

import (
	"math"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
)

const (
	BaseTileSize = 256
	MaxZoom      = 18
	// MaxLatitude is the latitude at which the Web Mercator world becomes square
	MaxLatitude = 85.0511287798
)

// worldSize is the width (and height) of the whole world in pixels at the zoom level
func worldSize(zoom float64) float64 {
	return BaseTileSize * math.Exp2(zoom)
}

// ProjectLatLng converts a coordinate to an absolute Web Mercator (EPSG:3857) pixel
func ProjectLatLng(latLng bigimage.LatLng, zoom float64) bigimage.Point {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, latLng.Lat))
	merc := project.WGS84.ToMercator(orb.Point{latLng.Lng, lat})

	scale := worldSize(zoom)
	circumference := 2 * math.Pi * orb.EarthRadius

	return bigimage.Point{
		X: scale * (0.5 + merc.X()/circumference),
		Y: scale * (0.5 - merc.Y()/circumference),
	}
}

// UnprojectPoint converts an absolute pixel back to a coordinate
func UnprojectPoint(point bigimage.Point, zoom float64) bigimage.LatLng {
	scale := worldSize(zoom)
	circumference := 2 * math.Pi * orb.EarthRadius

	merc := orb.Point{
		(point.X/scale - 0.5) * circumference,
		(0.5 - point.Y/scale) * circumference,
	}

	return bigimage.LatLngFromOrbPoint(project.Mercator.ToWGS84(merc))
}

// FitBounds finds the centre and the largest whole zoom level that shows all of the bounds in a view of the given size
func FitBounds(bounds osm.Bounds, size bigimage.SurfaceSize) (center bigimage.LatLng, zoom float64) {
	northWest := ProjectLatLng(bigimage.LatLng{Lat: bounds.MaxLat, Lng: bounds.MinLon}, 0)
	southEast := ProjectLatLng(bigimage.LatLng{Lat: bounds.MinLat, Lng: bounds.MaxLon}, 0)

	boundsWidth := southEast.X - northWest.X
	boundsHeight := southEast.Y - northWest.Y

	zoom = MaxZoom
	if boundsWidth > 0 || boundsHeight > 0 {
		ratio := math.Inf(1)
		if boundsWidth > 0 {
			ratio = float64(size.Width) / boundsWidth
		}
		if boundsHeight > 0 {
			ratio = math.Min(ratio, float64(size.Height)/boundsHeight)
		}
		zoom = math.Floor(math.Log2(ratio))
	}
	zoom = math.Max(0, math.Min(MaxZoom, zoom))

	middle := bigimage.Point{
		X: (northWest.X + southEast.X) / 2,
		Y: (northWest.Y + southEast.Y) / 2,
	}
	center = UnprojectPoint(middle, 0)

	return center, zoom
}

// BoundsForTile gives the geographic bounds covered by a tile
func BoundsForTile(tile maptile.Tile) osm.Bounds {
	n := math.Exp2(float64(tile.Z))

	longitudeMin := float64(tile.X)/n*360 - 180
	latitudeMax := math.Atan(math.Sinh(math.Pi*(1-2*float64(tile.Y)/n))) * 180 / math.Pi

	longitudeMax := float64(tile.X+1)/n*360 - 180
	latitudeMin := math.Atan(math.Sinh(math.Pi*(1-2*float64(tile.Y+1)/n))) * 180 / math.Pi

	return osm.Bounds{
		MinLat: latitudeMin,
		MaxLat: latitudeMax,
		MinLon: longitudeMin,
		MaxLon: longitudeMax,
	}
}

// circlePixelRadii converts the metre radius of a circle to horizontal and vertical pixel radii,
// measuring along the meridian and then the parallel through the circle's centre
func circlePixelRadii(center bigimage.LatLng, radiusMetres, zoom float64) (radius, radiusY float64, point bigimage.Point) {
	d := math.Pi / 180
	lat := center.Lat
	lng := center.Lng

	latR := bigimage.DegreesForMetres(radiusMetres)
	top := ProjectLatLng(bigimage.LatLng{Lat: lat + latR, Lng: lng}, zoom)
	bottom := ProjectLatLng(bigimage.LatLng{Lat: lat - latR, Lng: lng}, zoom)
	point = bigimage.Point{X: (top.X + bottom.X) / 2, Y: (top.Y + bottom.Y) / 2}

	lat2 := UnprojectPoint(point, zoom).Lat
	lngR := math.Acos((math.Cos(latR*d)-math.Sin(lat*d)*math.Sin(lat2*d))/(math.Cos(lat*d)*math.Cos(lat2*d))) / d
	if math.IsNaN(lngR) || lngR == 0 {
		// the circle covers a pole
		lngR = latR / math.Cos(d*lat)
	}

	if !math.IsNaN(lngR) {
		radius = point.X - ProjectLatLng(bigimage.LatLng{Lat: lat2, Lng: lng - lngR}, zoom).X
	}
	radiusY = point.Y - top.Y

	return radius, radiusY, point
}

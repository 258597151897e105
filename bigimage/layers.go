package bigimage

import (
	"math"
	"strconv"
	"strings"

	"github.com/chamendrieg/mapexport/styling"
	"github.com/paulmach/orb/maptile"
)

type LayerID int64

type LayerKind int

const (
	LayerKindUnknown      LayerKind = 0
	LayerKindTile         LayerKind = 1
	LayerKindMarker       LayerKind = 2
	LayerKindPath         LayerKind = 3
	LayerKindCircle       LayerKind = 4
	LayerKindClusterGroup LayerKind = 5
)

var layerKindNames = []string{
	"Unknown",
	"Tile",
	"Marker",
	"Path",
	"Circle",
	"ClusterGroup",
}

func (k LayerKind) String() string {
	if int(k) < 0 || int(k) >= len(layerKindNames) {
		return layerKindNames[LayerKindUnknown]
	}
	return layerKindNames[k]
}

type Layer interface {
	LayerID() LayerID
	Kind() LayerKind
}

var (
	_ Layer = &TileLayer{}
	_ Layer = &MarkerLayer{}
	_ Layer = &PathLayer{}
	_ Layer = &CircleLayer{}
	_ Layer = &ClusterGroupLayer{}
)

type TileLayer struct {
	ID          LayerID
	TileSize    int
	Opacity     float64
	URLTemplate string
	Subdomains  []string
	NoWrap      bool
}

func (l *TileLayer) LayerID() LayerID { return l.ID }
func (l *TileLayer) Kind() LayerKind  { return LayerKindTile }

// TileURL fills in the {s}, {z}, {x}, {y} and {r} placeholders of the URL template
func (l *TileLayer) TileURL(tile maptile.Tile) string {
	subdomain := ""
	if len(l.Subdomains) > 0 {
		idx := int(tile.X+tile.Y) % len(l.Subdomains)
		subdomain = l.Subdomains[idx]
	}

	return strings.NewReplacer(
		"{s}", subdomain,
		"{z}", strconv.Itoa(int(tile.Z)),
		"{x}", strconv.FormatUint(uint64(tile.X), 10),
		"{y}", strconv.FormatUint(uint64(tile.Y), 10),
		"{r}", "",
	).Replace(l.URLTemplate)
}

// WrapTile maps a grid position onto the tile that should be fetched for it.
// Returns false when there is no such tile (above/below the world, or outside it when wrapping is off).
func (l *TileLayer) WrapTile(x, y int, zoom maptile.Zoom) (maptile.Tile, bool) {
	limit := 1 << uint(zoom)

	if y < 0 || y >= limit {
		return maptile.Tile{}, false
	}

	if l.NoWrap {
		if x < 0 || x >= limit {
			return maptile.Tile{}, false
		}
	} else {
		x = ((x % limit) + limit) % limit
	}

	return maptile.New(uint32(x), uint32(y), zoom), true
}

type Icon struct {
	ImageURL string
	// HTML is the inline content of icons that are not images
	HTML   string
	Anchor *Point
}

type MarkerLayer struct {
	ID      LayerID
	LatLng  LatLng
	Icon    *Icon
	Tooltip string
	// ChildCount is set on markers that represent a cluster
	ChildCount int
}

func (l *MarkerLayer) LayerID() LayerID { return l.ID }
func (l *MarkerLayer) Kind() LayerKind  { return LayerKindMarker }

// PathLayer is a polyline or polygon. With a Radius (pixels) set it is a circle marker
type PathLayer struct {
	ID LayerID
	// LatLngs holds the rings of the shape. Unfilled lines use all rings, filled shapes only the first one.
	LatLngs [][]LatLng
	Style   *styling.PathStyle
	// circle marker fields
	LatLng LatLng
	Radius float64
}

func (l *PathLayer) LayerID() LayerID { return l.ID }
func (l *PathLayer) Kind() LayerKind  { return LayerKindPath }

func (l *PathLayer) IsCircleMarker() bool {
	return l.Radius > 0
}

// CircleLayer is a circle with a radius in metres.
// The map view projects it (SetProjected) when it is added, like the host library does on each zoom.
type CircleLayer struct {
	ID     LayerID
	LatLng LatLng
	Radius float64
	Style  *styling.PathStyle

	pixelRadius  float64
	pixelRadiusY float64
	empty        bool
}

func (l *CircleLayer) LayerID() LayerID { return l.ID }
func (l *CircleLayer) Kind() LayerKind  { return LayerKindCircle }

func (l *CircleLayer) SetProjected(radius, radiusY float64, empty bool) {
	l.pixelRadius = radius
	l.pixelRadiusY = radiusY
	l.empty = empty
}

func (l *CircleLayer) PixelRadii() (radius, radiusY float64) {
	return l.pixelRadius, l.pixelRadiusY
}

// IsEmpty reports that the circle has nothing to draw in the current view
func (l *CircleLayer) IsEmpty() bool {
	return l.empty
}

type ClusterGroupLayer struct {
	ID      LayerID
	Markers []*MarkerLayer
}

func (l *ClusterGroupLayer) LayerID() LayerID { return l.ID }
func (l *ClusterGroupLayer) Kind() LayerKind  { return LayerKindClusterGroup }

// ClusterNode is a cluster of markers, as currently shown on the map
type ClusterNode struct {
	// ID orders the cluster among markers when drawing. It may equal a layer ID.
	ID LayerID
	// Point is the absolute projected pixel of the cluster at the current zoom
	Point      Point
	ChildCount int
	// IconURL is set when the cluster uses an image icon, which is not drawn as a count badge
	IconURL string
}

// EarthRadiusMetres is used to convert the metre radius of circles to degrees
const EarthRadiusMetres = 6371000

// DegreesForMetres converts a distance along a meridian to degrees of latitude
func DegreesForMetres(metres float64) float64 {
	return (metres / EarthRadiusMetres) * 180 / math.Pi
}

package staticview

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/paulmach/osm"
	"gopkg.in/yaml.v3"
)

type LayerType string

const (
	LayerTypeTile          LayerType = "tile"
	LayerTypeMarker        LayerType = "marker"
	LayerTypePolyline      LayerType = "polyline"
	LayerTypePolygon       LayerType = "polygon"
	LayerTypeCircle        LayerType = "circle"
	LayerTypeCircleMarker  LayerType = "circleMarker"
	LayerTypeMarkerCluster LayerType = "markerCluster"
)

const (
	DefaultSubdomains         = "abc"
	DefaultCircleMarkerRadius = 10
	DefaultMaxClusterRadius   = 80
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from the file extension. Anything but .yaml/.yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ViewDocument describes a map view and its layers.
// The view is placed either with Center and Zoom, or fitted to Bounds.
type ViewDocument struct {
	Width  int              `json:"width" yaml:"width"`
	Height int              `json:"height" yaml:"height"`
	Center *LatLngDocument  `json:"center" yaml:"center"`
	Zoom   *float64         `json:"zoom" yaml:"zoom"`
	Bounds *BoundsDocument  `json:"bounds" yaml:"bounds"`
	Layers []*LayerDocument `json:"layers" yaml:"layers"`
}

type BoundsDocument struct {
	MinLat float64 `json:"minLat" yaml:"minLat"`
	MinLon float64 `json:"minLon" yaml:"minLon"`
	MaxLat float64 `json:"maxLat" yaml:"maxLat"`
	MaxLon float64 `json:"maxLon" yaml:"maxLon"`
}

func (b *BoundsDocument) OSMBounds() osm.Bounds {
	return osm.Bounds{
		MinLat: b.MinLat,
		MaxLat: b.MaxLat,
		MinLon: b.MinLon,
		MaxLon: b.MaxLon,
	}
}

// LatLngDocument is a [lat, lng] pair
type LatLngDocument [2]float64

func (l LatLngDocument) LatLng() bigimage.LatLng {
	return bigimage.LatLng{Lat: l[0], Lng: l[1]}
}

// RingsDocument accepts either a flat list of [lat, lng] pairs or a list of rings
type RingsDocument [][]LatLngDocument

func (r *RingsDocument) UnmarshalJSON(data []byte) error {
	var rings [][]LatLngDocument
	err := json.Unmarshal(data, &rings)
	if err == nil {
		*r = rings
		return nil
	}

	var flat []LatLngDocument
	err = json.Unmarshal(data, &flat)
	if err != nil {
		return err
	}

	*r = RingsDocument{flat}
	return nil
}

func (r *RingsDocument) UnmarshalYAML(value *yaml.Node) error {
	var rings [][]LatLngDocument
	err := value.Decode(&rings)
	if err == nil {
		*r = rings
		return nil
	}

	var flat []LatLngDocument
	err = value.Decode(&flat)
	if err != nil {
		return err
	}

	*r = RingsDocument{flat}
	return nil
}

func (r RingsDocument) LatLngs() [][]bigimage.LatLng {
	var rings [][]bigimage.LatLng
	for _, ring := range r {
		if len(ring) == 0 {
			continue
		}
		var latLngs []bigimage.LatLng
		for _, latLng := range ring {
			latLngs = append(latLngs, latLng.LatLng())
		}
		rings = append(rings, latLngs)
	}
	return rings
}

// Subdomains accepts a string ("abc", one subdomain per character) or a list of strings
type Subdomains []string

func subdomainsFromString(s string) Subdomains {
	var subdomains Subdomains
	for _, char := range s {
		subdomains = append(subdomains, string(char))
	}
	return subdomains
}

func (s *Subdomains) UnmarshalJSON(data []byte) error {
	var str string
	err := json.Unmarshal(data, &str)
	if err == nil {
		*s = subdomainsFromString(str)
		return nil
	}

	var list []string
	err = json.Unmarshal(data, &list)
	if err != nil {
		return err
	}
	*s = list
	return nil
}

func (s *Subdomains) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = subdomainsFromString(value.Value)
		return nil
	}

	var list []string
	err := value.Decode(&list)
	if err != nil {
		return err
	}
	*s = list
	return nil
}

type IconDocument struct {
	IconURL    string      `json:"iconUrl" yaml:"iconUrl"`
	HTML       string      `json:"html" yaml:"html"`
	IconAnchor *[2]float64 `json:"iconAnchor" yaml:"iconAnchor"`
}

func (i *IconDocument) toIcon() *bigimage.Icon {
	icon := &bigimage.Icon{
		ImageURL: i.IconURL,
		HTML:     i.HTML,
	}
	if i.IconAnchor != nil {
		icon.Anchor = &bigimage.Point{X: i.IconAnchor[0], Y: i.IconAnchor[1]}
	}
	return icon
}

// StyleDocument holds the path options. Options that are not set take the default for the layer type.
type StyleDocument struct {
	Stroke      *bool    `json:"stroke" yaml:"stroke"`
	Color       string   `json:"color" yaml:"color"`
	Weight      *float64 `json:"weight" yaml:"weight"`
	Opacity     *float64 `json:"opacity" yaml:"opacity"`
	LineCap     string   `json:"lineCap" yaml:"lineCap"`
	LineJoin    string   `json:"lineJoin" yaml:"lineJoin"`
	DashArray   string   `json:"dashArray" yaml:"dashArray"`
	Fill        *bool    `json:"fill" yaml:"fill"`
	FillColor   string   `json:"fillColor" yaml:"fillColor"`
	FillOpacity *float64 `json:"fillOpacity" yaml:"fillOpacity"`
	FillRule    string   `json:"fillRule" yaml:"fillRule"`
}

func (s *StyleDocument) toPathStyle(filled bool) (*styling.PathStyle, errorsx.Error) {
	style := styling.DefaultPathStyle()
	style.Fill = filled

	if s == nil {
		return style, nil
	}

	if s.Stroke != nil {
		style.Stroke = *s.Stroke
	}
	if s.Color != "" {
		_, err := styling.ParseColor(s.Color)
		if err != nil {
			return nil, errorsx.Wrap(err, "option", "color")
		}
		style.Color = s.Color
	}
	if s.Weight != nil {
		style.Weight = *s.Weight
	}
	if s.Opacity != nil {
		style.Opacity = *s.Opacity
	}
	if s.LineCap != "" {
		style.LineCap = styling.LineCap(s.LineCap)
	}
	if s.LineJoin != "" {
		style.LineJoin = styling.LineJoin(s.LineJoin)
	}
	if s.DashArray != "" {
		dashes, err := styling.ParseDashArray(s.DashArray)
		if err != nil {
			return nil, err
		}
		style.DashArray = dashes
	}
	if s.Fill != nil {
		style.Fill = *s.Fill
	}
	if s.FillColor != "" {
		_, err := styling.ParseColor(s.FillColor)
		if err != nil {
			return nil, errorsx.Wrap(err, "option", "fillColor")
		}
		style.FillColor = s.FillColor
	}
	if s.FillOpacity != nil {
		style.FillOpacity = *s.FillOpacity
	}
	if s.FillRule != "" {
		style.FillRule = styling.FillRule(s.FillRule)
	}

	return style, nil
}

// LayerDocument is one layer of the view. Which fields apply depends on the Type.
type LayerDocument struct {
	ID   bigimage.LayerID `json:"id" yaml:"id"`
	Type LayerType        `json:"type" yaml:"type"`

	// tile layers
	URL        string     `json:"url" yaml:"url"`
	TileSize   int        `json:"tileSize" yaml:"tileSize"`
	Opacity    *float64   `json:"opacity" yaml:"opacity"`
	Subdomains Subdomains `json:"subdomains" yaml:"subdomains"`
	NoWrap     bool       `json:"noWrap" yaml:"noWrap"`

	// markers, circles and circle markers
	LatLng *LatLngDocument `json:"latLng" yaml:"latLng"`
	// Icon of a marker. Markers without one are drawn with the configured markerIcon, or not at all.
	Icon    *IconDocument `json:"icon" yaml:"icon"`
	Tooltip string        `json:"tooltip" yaml:"tooltip"`
	// Radius is in metres for circles and in pixels for circle markers
	Radius float64 `json:"radius" yaml:"radius"`

	// polylines and polygons
	LatLngs RingsDocument  `json:"latLngs" yaml:"latLngs"`
	Style   *StyleDocument `json:"style" yaml:"style"`

	// marker clusters
	Markers          []*LayerDocument `json:"markers" yaml:"markers"`
	ClusterIconURL   string           `json:"clusterIconUrl" yaml:"clusterIconUrl"`
	MaxClusterRadius int              `json:"maxClusterRadius" yaml:"maxClusterRadius"`
}

func DecodeViewDocument(data []byte, format Format) (*ViewDocument, errorsx.Error) {
	doc := new(ViewDocument)

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, doc)
	case FormatJSON:
		err = json.Unmarshal(data, doc)
	default:
		return nil, errorsx.Errorf("unknown view document format: %q", format)
	}
	if err != nil {
		return nil, errorsx.Wrap(err, "format", format)
	}

	return doc, nil
}

// LoadViewDocument reads a view document file. A leading "~/" is expanded to the user's home directory.
func LoadViewDocument(fs gofs.Fs, path string) (*ViewDocument, errorsx.Error) {
	expandedPath, err := userextra.ExpandUser(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	data, err := fs.ReadFile(expandedPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", expandedPath)
	}

	doc, decodeErr := DecodeViewDocument(data, FormatFromPath(expandedPath))
	if decodeErr != nil {
		return nil, errorsx.Wrap(decodeErr, "path", expandedPath)
	}

	return doc, nil
}

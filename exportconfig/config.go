package exportconfig

import (
	"strings"
	"time"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/userextra"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFilename         = "mapExport.png"
	DefaultMaxScale         = 10
	DefaultMinScale         = 1
	DefaultFetchConcurrency = 8
	DefaultMaxSurfaceSize   = 16384
)

// CircleIcon is an image used for circle markers with a matching fill colour
type CircleIcon struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// MarkerIcon is drawn for markers that don't have an icon of their own.
// Anchor is the pixel of the image that sits on the marker's position.
type MarkerIcon struct {
	Path   string     `yaml:"path" json:"path"`
	Anchor [2]float64 `yaml:"anchor" json:"anchor"`
}

// ControlConfig describes the button a client shows to trigger a capture
type ControlConfig struct {
	Label    string   `yaml:"label" json:"label"`
	Title    string   `yaml:"title" json:"title"`
	Classes  []string `yaml:"classes" json:"classes"`
	Position string   `yaml:"position" json:"position"`
}

type Config struct {
	MaxScale            float64       `yaml:"maxScale" json:"maxScale"`
	MinScale            float64       `yaml:"minScale" json:"minScale"`
	ClusterSmallImgSrc  string        `yaml:"clusterSmallImgSrc" json:"clusterSmallImgSrc"`
	ClusterMediumImgSrc string        `yaml:"clusterMediumImgSrc" json:"clusterMediumImgSrc"`
	ClusterLargeImgSrc  string        `yaml:"clusterLargeImgSrc" json:"clusterLargeImgSrc"`
	CircleIcons         []*CircleIcon `yaml:"circleIcons" json:"circleIcons"`
	MarkerIcon          *MarkerIcon   `yaml:"markerIcon" json:"markerIcon"`
	Filename            string        `yaml:"filename" json:"filename"`
	Background          string        `yaml:"background" json:"background"`
	FetchConcurrency    uint          `yaml:"fetchConcurrency" json:"fetchConcurrency"`
	// MaxSurfaceSize is the biggest width or height, in pixels, of an exported image
	MaxSurfaceSize int `yaml:"maxSurfaceSize" json:"maxSurfaceSize"`
	// FetchTimeout of 0 means image loads are never timed out
	FetchTimeout time.Duration `yaml:"fetchTimeout" json:"fetchTimeout"`
	Control      ControlConfig `yaml:"control" json:"control"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.MaxScale <= 0 {
		c.MaxScale = DefaultMaxScale
	}
	if c.MinScale <= 0 {
		c.MinScale = DefaultMinScale
	}
	if c.Filename == "" {
		c.Filename = DefaultFilename
	}
	if c.FetchConcurrency == 0 {
		c.FetchConcurrency = DefaultFetchConcurrency
	}
	if c.MaxSurfaceSize <= 0 {
		c.MaxSurfaceSize = DefaultMaxSurfaceSize
	}
	if c.Control.Label == "" {
		c.Control.Label = "\U0001F4E5"
	}
	if c.Control.Title == "" {
		c.Control.Title = "Get image"
	}
	if c.Control.Position == "" {
		c.Control.Position = "topright"
	}
}

func (c *Config) Validate() errorsx.Error {
	if c.MinScale > c.MaxScale {
		return errorsx.Errorf("minScale (%v) is bigger than maxScale (%v)", c.MinScale, c.MaxScale)
	}

	for idx, icon := range c.CircleIcons {
		if icon == nil || icon.Path == "" {
			return errorsx.Errorf("circle icon at index %d has no path", idx)
		}
	}

	if c.MarkerIcon != nil && c.MarkerIcon.Path == "" {
		return errorsx.Errorf("markerIcon has no path")
	}

	return nil
}

// DefaultMarkerIcon is the icon for markers without one, or nil when markers without an icon aren't drawn
func (c *Config) DefaultMarkerIcon() *bigimage.Icon {
	if c.MarkerIcon == nil {
		return nil
	}

	return &bigimage.Icon{
		ImageURL: c.MarkerIcon.Path,
		Anchor:   &bigimage.Point{X: c.MarkerIcon.Anchor[0], Y: c.MarkerIcon.Anchor[1]},
	}
}

// ClusterImageSrc returns the image used to draw a cluster of the given tier
func (c *Config) ClusterImageSrc(tier bigimage.ClusterTier) string {
	switch tier {
	case bigimage.ClusterTierSmall:
		return c.ClusterSmallImgSrc
	case bigimage.ClusterTierMedium:
		return c.ClusterMediumImgSrc
	default:
		return c.ClusterLargeImgSrc
	}
}

// MatchCircleIcon finds the icon named like the fill colour (case-insensitive).
// If no icon matches, the first configured icon is returned with matched = false.
// It returns nil if there are no icons configured.
func (c *Config) MatchCircleIcon(fillColor string) (icon *CircleIcon, matched bool) {
	if len(c.CircleIcons) == 0 {
		return nil, false
	}

	for _, icon := range c.CircleIcons {
		if strings.EqualFold(icon.Name, fillColor) {
			return icon, true
		}
	}

	return c.CircleIcons[0], false
}

// DefaultCircleIcon is the fallback circle icon, or nil when none are configured
func (c *Config) DefaultCircleIcon() *CircleIcon {
	if len(c.CircleIcons) == 0 {
		return nil
	}
	return c.CircleIcons[0]
}

func Parse(data []byte) (*Config, errorsx.Error) {
	c := &Config{}
	err := yaml.Unmarshal(data, c)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	c.defaults()

	validationErr := c.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	return c, nil
}

// LoadConfigFile reads a YAML config file. A leading "~/" is expanded to the user's home directory.
func LoadConfigFile(fs gofs.Fs, path string) (*Config, errorsx.Error) {
	expandedPath, err := userextra.ExpandUser(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	data, err := fs.ReadFile(expandedPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", expandedPath)
	}

	c, parseErr := Parse(data)
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "path", expandedPath)
	}

	return c, nil
}

package styling

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

type FillRule string

const (
	FillRuleEvenOdd FillRule = "evenodd"
	FillRuleNonZero FillRule = "nonzero"
)

type LineCap string

const (
	LineCapButt   LineCap = "butt"
	LineCapRound  LineCap = "round"
	LineCapSquare LineCap = "square"
)

type LineJoin string

const (
	LineJoinMiter LineJoin = "miter"
	LineJoinRound LineJoin = "round"
	LineJoinBevel LineJoin = "bevel"
)

// PathStyle mirrors the path options of the host map library.
// Colours are kept as the CSS strings the host gave us and parsed at draw time.
type PathStyle struct {
	Stroke      bool      `json:"stroke" yaml:"stroke"`
	Color       string    `json:"color" yaml:"color"`
	Weight      float64   `json:"weight" yaml:"weight"`
	Opacity     float64   `json:"opacity" yaml:"opacity"`
	LineCap     LineCap   `json:"lineCap" yaml:"lineCap"`
	LineJoin    LineJoin  `json:"lineJoin" yaml:"lineJoin"`
	DashArray   []float64 `json:"dashArray" yaml:"dashArray"`
	Fill        bool      `json:"fill" yaml:"fill"`
	FillColor   string    `json:"fillColor" yaml:"fillColor"`
	FillOpacity float64   `json:"fillOpacity" yaml:"fillOpacity"`
	FillRule    FillRule  `json:"fillRule" yaml:"fillRule"`
}

const DefaultPathColor = "#3388ff"

// DefaultPathStyle returns the style of an unfilled polyline
func DefaultPathStyle() *PathStyle {
	return &PathStyle{
		Stroke:      true,
		Color:       DefaultPathColor,
		Weight:      3,
		Opacity:     1,
		LineCap:     LineCapRound,
		LineJoin:    LineJoinRound,
		Fill:        false,
		FillOpacity: 0.2,
		FillRule:    FillRuleEvenOdd,
	}
}

// DefaultFilledPathStyle returns the style used for polygons and circles
func DefaultFilledPathStyle() *PathStyle {
	style := DefaultPathStyle()
	style.Fill = true
	return style
}

// EffectiveFillColor is the fill colour, or the stroke colour when no fill colour was set
func (s *PathStyle) EffectiveFillColor() string {
	if s.FillColor != "" {
		return s.FillColor
	}
	return s.Color
}

func (s *PathStyle) EffectiveFillRule() FillRule {
	if s.FillRule == "" {
		return FillRuleEvenOdd
	}
	return s.FillRule
}

// ParseDashArray parses a dash pattern in the "5, 10" or "5 10" form
func ParseDashArray(dashArray string) ([]float64, errorsx.Error) {
	fields := strings.FieldsFunc(dashArray, func(r rune) bool {
		return r == ',' || r == ' '
	})

	var dashes []float64
	for _, field := range fields {
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errorsx.Wrap(err, "dashArray", dashArray)
		}
		dashes = append(dashes, val)
	}

	return dashes, nil
}

// TextStyle describes how marker labels are drawn
type TextStyle struct {
	TextSize  float64
	TextColor color.Color
	Bold      bool
}

var (
	MarkerTextStyle = &TextStyle{
		TextSize:  16,
		TextColor: color.White,
	}
	TooltipTextStyle = &TextStyle{
		TextSize:  14,
		TextColor: color.Black,
		Bold:      true,
	}
	ClusterCountTextStyle = &TextStyle{
		TextSize:  15,
		TextColor: color.Black,
	}
)

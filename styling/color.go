package styling

import (
	"image/color"
	"math"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/mazznoer/csscolorparser"
)

// ParseColor parses a CSS colour: a named colour, #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba(), hsl() or hwb()
func ParseColor(s string) (color.NRGBA, errorsx.Error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, errorsx.Errorf("empty colour")
	}

	parsed, err := csscolorparser.Parse(s)
	if err != nil {
		return color.NRGBA{}, errorsx.Wrap(err, "colour", s)
	}

	return color.NRGBA{
		R: clampUint8(parsed.R * 255),
		G: clampUint8(parsed.G * 255),
		B: clampUint8(parsed.B * 255),
		A: clampUint8(parsed.A * 255),
	}, nil
}

// WithAlpha multiplies the alpha channel of c by alpha (0 to 1)
func WithAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = clampUint8(float64(c.A) * alpha)
	return c
}

func clampUint8(val float64) uint8 {
	if math.IsNaN(val) {
		return 0
	}
	return uint8(math.Max(0, math.Min(255, math.Round(val))))
}

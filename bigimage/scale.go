package bigimage

import "math"

// ClampScale restricts a requested scale factor to [minScale, maxScale]. A zero or NaN factor means "no scaling".
func ClampScale(factor, minScale, maxScale float64) float64 {
	if factor == 0 || math.IsNaN(factor) {
		return 0
	}

	if minScale > 0 {
		factor = math.Max(factor, minScale)
	}

	if maxScale > 0 {
		factor = math.Min(factor, maxScale)
	}

	return factor
}

// ScaledSize is the size the surface would have after AdjustScale with the given factor
func ScaledSize(surface SurfaceSize, factor float64) (width, height float64) {
	if factor <= 1 {
		return float64(surface.Width), float64(surface.Height)
	}
	return float64(surface.Width) * factor, float64(surface.Height) * factor
}

// AdjustScale widens the bounds around their centre and enlarges the surface by the given factor.
// Factors of 1 or less (including an unset 0) leave both untouched.
func AdjustScale(bounds *CaptureBounds, surface *SurfaceSize, factor float64) {
	if factor <= 1 {
		return
	}

	addX := (bounds.Max.X - bounds.Min.X) / 2 * (factor - 1)
	addY := (bounds.Max.Y - bounds.Min.Y) / 2 * (factor - 1)

	bounds.Min.X -= addX
	bounds.Min.Y -= addY
	bounds.Max.X += addX
	bounds.Max.Y += addY

	surface.Width = int(float64(surface.Width) * factor)
	surface.Height = int(float64(surface.Height) * factor)
}

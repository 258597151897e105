package compositor

import (
	"image"
	"image/color"
	"image/draw"
)

func NewImageWithBackground(r image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(r)

	if c == nil {
		return img
	}

	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	return img
}

func toImagePoint(x, y float64) image.Point {
	return image.Point{X: roundToInt(x), Y: roundToInt(y)}
}

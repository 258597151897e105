package compositor

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// drawImage draws src scaled to size with its top-left corner at pt
func drawImage(dst xdraw.Image, src image.Image, pt image.Point, size image.Point, opacity float64) {
	if src == nil || opacity <= 0 {
		return
	}

	var mask image.Image
	if opacity < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	}

	srcBounds := src.Bounds()
	dstRect := image.Rectangle{Min: pt, Max: pt.Add(size)}

	if srcBounds.Size() == size {
		xdraw.DrawMask(dst, dstRect, src, srcBounds.Min, mask, image.Point{}, xdraw.Over)
		return
	}

	var opts *xdraw.Options
	if mask != nil {
		opts = &xdraw.Options{SrcMask: mask}
	}

	xdraw.ApproxBiLinear.Scale(dst, dstRect, src, srcBounds, xdraw.Over, opts)
}

func drawImageAtNaturalSize(dst xdraw.Image, src image.Image, pt image.Point) {
	if src == nil {
		return
	}

	drawImage(dst, src, pt, src.Bounds().Size(), 1)
}

package compositor

import (
	"image"
	"math"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
)

func drawPath(img *image.RGBA, record *bigimage.PathRecord) errorsx.Error {
	if len(record.Points) == 0 {
		return nil
	}

	path := new(draw2d.Path)
	for i, point := range record.Points {
		if i == 0 {
			path.MoveTo(point.X, point.Y)
		} else {
			path.LineTo(point.X, point.Y)
		}
	}

	if record.Closed {
		path.Close()
	}

	return fillPath(img, path, record.Style)
}

func drawCircle(img *image.RGBA, cc *bigimage.CaptureContext, circle *bigimage.CircleLayer) errorsx.Error {
	if circle.IsEmpty() {
		return nil
	}

	center := cc.Project(circle.LatLng)

	pixelRadius, pixelRadiusY := circle.PixelRadii()
	radius := math.Max(math.Round(pixelRadius), 1)
	radiusY := math.Max(math.Round(pixelRadiusY), 1)

	path := new(draw2d.Path)
	path.ArcTo(center.X, center.Y, radius, radiusY, 0, 2*math.Pi)
	path.Close()

	style := circle.Style
	if style == nil {
		style = styling.DefaultFilledPathStyle()
	}

	return fillPath(img, path, style)
}

// fillPath fills and then strokes the path, as set in the style
func fillPath(img *image.RGBA, path *draw2d.Path, style *styling.PathStyle) errorsx.Error {
	if style == nil {
		style = styling.DefaultPathStyle()
	}

	gc := draw2dimg.NewGraphicContext(img)

	if style.Fill {
		fillColor, err := styling.ParseColor(style.EffectiveFillColor())
		if err != nil {
			return err
		}

		gc.SetFillColor(styling.WithAlpha(fillColor, style.FillOpacity))
		gc.SetFillRule(toDraw2dFillRule(style.EffectiveFillRule()))
		gc.Fill(path)
	}

	if style.Stroke && style.Weight != 0 {
		strokeColor, err := styling.ParseColor(style.Color)
		if err != nil {
			return err
		}

		gc.SetLineDash(style.DashArray, 0)
		gc.SetStrokeColor(styling.WithAlpha(strokeColor, style.Opacity))
		gc.SetLineWidth(style.Weight)
		gc.SetLineCap(toDraw2dLineCap(style.LineCap))
		gc.SetLineJoin(toDraw2dLineJoin(style.LineJoin))
		gc.Stroke(path)
	}

	return nil
}

func toDraw2dFillRule(fillRule styling.FillRule) draw2d.FillRule {
	if fillRule == styling.FillRuleNonZero {
		return draw2d.FillRuleWinding
	}
	return draw2d.FillRuleEvenOdd
}

func toDraw2dLineCap(lineCap styling.LineCap) draw2d.LineCap {
	switch lineCap {
	case styling.LineCapButt:
		return draw2d.ButtCap
	case styling.LineCapSquare:
		return draw2d.SquareCap
	default:
		return draw2d.RoundCap
	}
}

func toDraw2dLineJoin(lineJoin styling.LineJoin) draw2d.LineJoin {
	switch lineJoin {
	case styling.LineJoinBevel:
		return draw2d.BevelJoin
	case styling.LineJoinMiter:
		return draw2d.MiterJoin
	default:
		return draw2d.RoundJoin
	}
}

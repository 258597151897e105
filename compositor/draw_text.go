package compositor

import (
	"image"

	"github.com/chamendrieg/mapexport/styling"
	"github.com/golang/freetype"
	"github.com/jamesrr39/goutil/errorsx"
)

// drawText draws text with its baseline starting at (x, y)
func (c *Compositor) drawText(img *image.RGBA, text string, x, y float64, style *styling.TextStyle) errorsx.Error {
	if text == "" {
		return nil
	}

	font := c.font
	if style.Bold && c.boldFont != nil {
		font = c.boldFont
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(font)
	ctx.SetFontSize(style.TextSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(style.TextColor))

	_, err := ctx.DrawString(text, freetype.Pt(roundToInt(x), roundToInt(y)))
	if err != nil {
		return errorsx.Wrap(err, "text", text)
	}

	return nil
}

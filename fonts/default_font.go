package fonts

import (
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularFont *truetype.Font
	boldFont    *truetype.Font
)

func init() {
	var err errorsx.Error

	regularFont, err = loadFont(goregular.TTF)
	if err != nil {
		panic(err)
	}

	boldFont, err = loadFont(gobold.TTF)
	if err != nil {
		panic(err)
	}
}

func loadFont(ttf []byte) (*truetype.Font, errorsx.Error) {
	font, err := freetype.ParseFont(ttf)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return font, nil
}

func DefaultFont() *truetype.Font {
	return regularFont
}

func BoldFont() *truetype.Font {
	return boldFont
}

package testmocks

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/jamesrr39/goutil/errorsx"
)

// MockFetcher serves images from memory. Sources it doesn't know fail to load.
type MockFetcher struct {
	Images map[string]image.Image
	// BeforeLoad is called before each load, for example to delay some sources
	BeforeLoad func(src string)

	mu    sync.Mutex
	calls map[string]int
}

var _ imagefetcher.Fetcher = &MockFetcher{}

func NewMockFetcher(images map[string]image.Image) *MockFetcher {
	if images == nil {
		images = make(map[string]image.Image)
	}

	return &MockFetcher{
		Images: images,
		calls:  make(map[string]int),
	}
}

func (f *MockFetcher) Load(ctx context.Context, src string) (image.Image, errorsx.Error) {
	f.mu.Lock()
	f.calls[src]++
	img, ok := f.Images[src]
	f.mu.Unlock()

	if f.BeforeLoad != nil {
		f.BeforeLoad(src)
	}

	if !ok {
		return nil, errorsx.Errorf("image not found: %q", src)
	}

	return img, nil
}

// Calls returns how many times the source was loaded
func (f *MockFetcher) Calls(src string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[src]
}

// TotalCalls returns the number of loads over all sources
func (f *MockFetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, count := range f.calls {
		total += count
	}
	return total
}

// SolidImage creates an image of one colour
func SolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

package compositor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"testing"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/bigimage/testmocks"
	"github.com/chamendrieg/mapexport/fonts"
	"github.com/chamendrieg/mapexport/styling"
	snapshot "github.com/jamesrr39/go-snapshot-testing"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
)

func newTestCompositor(background color.Color) *Compositor {
	return NewCompositor(logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelError), fonts.DefaultFont(), fonts.BoldFont(), background)
}

func newTestCaptureContext(width, height int) *bigimage.CaptureContext {
	view := testmocks.NewMockMapView(width, height, 0)
	snap := bigimage.TakeSnapshot(view)
	return bigimage.NewCaptureContext("test-capture", view, snap, bigimage.NewCaptureBounds(snap), snap.Size)
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	return NewImageWithBackground(image.Rect(0, 0, width, height), c)
}

func filledStyle(fillColor string) *styling.PathStyle {
	style := styling.DefaultFilledPathStyle()
	style.Stroke = false
	style.FillColor = fillColor
	style.FillOpacity = 1
	return style
}

func TestComposite_tiles(t *testing.T) {
	cc := newTestCaptureContext(4, 2)
	cc.SetTileLayer(1, &bigimage.TileLayerRecord{
		LayerID:  1,
		TileSize: 2,
		Opacity:  1,
		Tiles: []*bigimage.TileRecord{
			{Tile: maptile.New(0, 0, 1), Image: solidImage(2, 2, red), Position: bigimage.Point{X: 0, Y: 0}},
			// images are scaled to the tile size
			{Tile: maptile.New(1, 0, 1), Image: solidImage(8, 8, red), Position: bigimage.Point{X: 2, Y: 0}},
		},
	})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	snapshot.AssertMatchesSnapshot(t, "TestComposite_tiles", snapshot.NewImageSnapshot(img))
}

func TestComposite_tileOpacity(t *testing.T) {
	cc := newTestCaptureContext(2, 2)
	cc.SetTileLayer(1, &bigimage.TileLayerRecord{
		LayerID:  1,
		TileSize: 2,
		Opacity:  0.5,
		Tiles: []*bigimage.TileRecord{
			{Image: solidImage(2, 2, red)},
		},
	})

	img, err := newTestCompositor(color.White).Composite(context.Background(), cc)
	require.NoError(t, err)

	pixel := img.RGBAAt(1, 1)
	assert.Equal(t, uint8(0xff), pixel.R)
	assert.InDelta(t, 0x7f, int(pixel.G), 1)
	assert.InDelta(t, 0x7f, int(pixel.B), 1)
	assert.Equal(t, uint8(0xff), pixel.A)
}

func TestComposite_order(t *testing.T) {
	cc := newTestCaptureContext(40, 40)

	cc.SetTileLayer(1, &bigimage.TileLayerRecord{
		LayerID:  1,
		TileSize: 40,
		Opacity:  1,
		Tiles:    []*bigimage.TileRecord{{Image: solidImage(40, 40, color.White)}},
	})

	cc.SetPath(2, &bigimage.PathRecord{
		Points: []bigimage.Point{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 40}, {X: 0, Y: 40}},
		Closed: true,
		Style:  filledStyle("lime"),
	})

	cc.SetMarker(3, &bigimage.MarkerRecord{
		Kind:     bigimage.MarkerKindImage,
		Image:    solidImage(2, 2, blue),
		Position: bigimage.Point{X: 2, Y: 2},
	})
	cc.SetMarker(4, &bigimage.MarkerRecord{
		Kind:     bigimage.MarkerKindImage,
		Image:    solidImage(2, 2, blue),
		Position: bigimage.Point{X: 19, Y: 19},
	})

	circle := &bigimage.CircleLayer{ID: 5, LatLng: bigimage.LatLng{Lat: 20, Lng: 20}, Radius: 100, Style: filledStyle("red")}
	circle.SetProjected(10, 10, false)
	cc.SetCircle(5, &bigimage.CircleRecord{Circle: circle})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	// path over tiles
	assert.Equal(t, green, img.RGBAAt(35, 5))
	// marker over path
	assert.Equal(t, blue, img.RGBAAt(2, 2))
	// circle over marker
	assert.Equal(t, red, img.RGBAAt(20, 20))
}

func TestComposite_emptyCircleIsSkipped(t *testing.T) {
	cc := newTestCaptureContext(40, 40)

	circle := &bigimage.CircleLayer{ID: 5, LatLng: bigimage.LatLng{Lat: 20, Lng: 20}, Radius: 100, Style: filledStyle("red")}
	circle.SetProjected(10, 10, true)
	cc.SetCircle(5, &bigimage.CircleRecord{Circle: circle})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{}, img.RGBAAt(20, 20))
}

func TestComposite_ellipse(t *testing.T) {
	cc := newTestCaptureContext(40, 40)

	circle := &bigimage.CircleLayer{ID: 5, LatLng: bigimage.LatLng{Lat: 20, Lng: 20}, Radius: 100, Style: filledStyle("red")}
	circle.SetProjected(15, 5, false)
	cc.SetCircle(5, &bigimage.CircleRecord{Circle: circle})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	assert.Equal(t, red, img.RGBAAt(30, 20))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(20, 30))
}

func TestComposite_fillOpacity(t *testing.T) {
	cc := newTestCaptureContext(20, 20)

	style := filledStyle("black")
	style.FillOpacity = 0.5
	cc.SetPath(1, &bigimage.PathRecord{
		Points: []bigimage.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}},
		Closed: true,
		Style:  style,
	})

	img, err := newTestCompositor(color.White).Composite(context.Background(), cc)
	require.NoError(t, err)

	pixel := img.RGBAAt(10, 10)
	assert.InDelta(t, 0x80, int(pixel.R), 2)
	assert.Equal(t, pixel.R, pixel.G)
	assert.Equal(t, uint8(0xff), pixel.A)
}

func TestComposite_markerText(t *testing.T) {
	cc := newTestCaptureContext(60, 30)
	cc.SetMarker(1, &bigimage.MarkerRecord{
		Kind:     bigimage.MarkerKindText,
		Text:     "Hut",
		Position: bigimage.Point{X: 5, Y: 20},
	})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	assert.True(t, hasOpaquePixel(img, image.Rect(5, 4, 40, 21)))
	assert.False(t, hasOpaquePixel(img, image.Rect(0, 22, 60, 30)))
}

func TestComposite_cluster(t *testing.T) {
	cc := newTestCaptureContext(60, 60)
	cc.SetClusterGroup(1, &bigimage.ClusterGroupRecord{
		Clusters: []*bigimage.ClusterRecord{
			{
				NodeID: 2,
				Tier:   bigimage.ClusterTierMedium,
				Marker: &bigimage.MarkerRecord{
					Kind:     bigimage.MarkerKindCluster,
					Image:    solidImage(40, 40, green),
					Position: bigimage.Point{X: 30, Y: 30},
					Count:    42,
				},
			},
		},
	})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	assert.Equal(t, green, img.RGBAAt(10, 10))
	assert.Equal(t, green, img.RGBAAt(49, 49))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(50, 50))
}

func TestComposite_badStyleDoesNotStopTheComposite(t *testing.T) {
	cc := newTestCaptureContext(20, 20)
	cc.SetPath(1, &bigimage.PathRecord{
		Points: []bigimage.Point{{X: 0, Y: 0}, {X: 20, Y: 20}},
		Style:  &styling.PathStyle{Stroke: true, Weight: 2, Color: "not-a-colour", Opacity: 1},
	})
	cc.SetMarker(2, &bigimage.MarkerRecord{
		Kind:     bigimage.MarkerKindImage,
		Image:    solidImage(2, 2, blue),
		Position: bigimage.Point{X: 10, Y: 10},
	})

	img, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.NoError(t, err)

	assert.Equal(t, blue, img.RGBAAt(10, 10))
}

func TestComposite_deterministic(t *testing.T) {
	buildContext := func() *bigimage.CaptureContext {
		cc := newTestCaptureContext(50, 50)
		cc.SetTileLayer(1, &bigimage.TileLayerRecord{
			TileSize: 25,
			Opacity:  0.8,
			Tiles: []*bigimage.TileRecord{
				{Image: solidImage(25, 25, red)},
				{Image: solidImage(25, 25, green), Position: bigimage.Point{X: 25}},
			},
		})
		style := styling.DefaultPathStyle()
		style.DashArray = []float64{4, 2}
		cc.SetPath(2, &bigimage.PathRecord{
			Points: []bigimage.Point{{X: 3, Y: 3}, {X: 45, Y: 12}, {X: 20, Y: 40}},
			Style:  style,
		})
		cc.SetMarker(3, &bigimage.MarkerRecord{Kind: bigimage.MarkerKindImageTooltip, Image: solidImage(5, 5, blue), Position: bigimage.Point{X: 10, Y: 10}, Tooltip: "Camp"})
		circle := &bigimage.CircleLayer{ID: 4, LatLng: bigimage.LatLng{Lat: 30, Lng: 30}, Style: styling.DefaultFilledPathStyle()}
		circle.SetProjected(8, 8, false)
		cc.SetCircle(4, &bigimage.CircleRecord{Circle: circle})
		return cc
	}

	encode := func(img image.Image) []byte {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, png.Encode(buf, img))
		return buf.Bytes()
	}

	first, err := newTestCompositor(nil).Composite(context.Background(), buildContext())
	require.NoError(t, err)

	second, err := newTestCompositor(nil).Composite(context.Background(), buildContext())
	require.NoError(t, err)

	assert.Equal(t, encode(first), encode(second))
}

func TestComposite_invalidSurface(t *testing.T) {
	cc := newTestCaptureContext(0, 10)

	_, err := newTestCompositor(nil).Composite(context.Background(), cc)
	require.Error(t, err)
}

func hasOpaquePixel(img *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).A > 0 {
				return true
			}
		}
	}
	return false
}

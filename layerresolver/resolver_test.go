package layerresolver

import (
	"image"
	"image/color"
	"io/ioutil"

	"github.com/chamendrieg/mapexport/bigimage"
	viewmocks "github.com/chamendrieg/mapexport/bigimage/testmocks"
	"github.com/chamendrieg/mapexport/exportconfig"
	fetchermocks "github.com/chamendrieg/mapexport/imagefetcher/testmocks"
	"github.com/jamesrr39/goutil/logpkg"
)

var testLogger = logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelError)

func newTestCaptureContext(view bigimage.MapView) *bigimage.CaptureContext {
	snapshot := bigimage.TakeSnapshot(view)
	return bigimage.NewCaptureContext("test-capture", view, snapshot, bigimage.NewCaptureBounds(snapshot), snapshot.Size)
}

func newTestView(width, height int, layers ...bigimage.Layer) *viewmocks.MockMapView {
	return viewmocks.NewMockMapView(width, height, 2, layers...)
}

func solid(c color.Color) image.Image {
	return fetchermocks.SolidImage(4, 4, c)
}

func testConfig() *exportconfig.Config {
	conf := exportconfig.DefaultConfig()
	conf.ClusterSmallImgSrc = "cluster-small.png"
	conf.ClusterMediumImgSrc = "cluster-medium.png"
	conf.ClusterLargeImgSrc = "cluster-large.png"
	conf.CircleIcons = []*exportconfig.CircleIcon{
		{Name: "blue", Path: "circle-blue.png"},
		{Name: "red", Path: "circle-red.png"},
		{Name: "green", Path: "circle-green.png"},
	}
	return conf
}

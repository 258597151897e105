package imagefetcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	buf := bytes.NewBuffer(nil)
	err := png.Encode(buf, img)
	require.NoError(t, err)

	return buf.Bytes()
}

func newTestFetcher(doer httpextra.Doer, baseURL *url.URL) (*DefaultFetcher, mockfs.MockFs) {
	fs := mockfs.NewMockFs()
	logger := logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelError)
	return NewDefaultFetcher(logger, doer, fs, Options{MaxConcurrentLoads: 2, BaseURL: baseURL}), fs
}

func pngResponder(t *testing.T, requestedURLs *[]string, mu *sync.Mutex) *httpextra.MockDoer {
	pngBytes := encodePNG(t, 3, 2, color.RGBA{R: 0xff, A: 0xff})

	return &httpextra.MockDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			*requestedURLs = append(*requestedURLs, req.URL.String())
			mu.Unlock()

			if req.URL.Path == "/missing.png" {
				return &http.Response{
					StatusCode: http.StatusNotFound,
					Body:       ioutil.NopCloser(bytes.NewBufferString("not found")),
					Header:     make(http.Header),
				}, nil
			}

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       ioutil.NopCloser(bytes.NewReader(pngBytes)),
				Header:     make(http.Header),
			}, nil
		},
	}
}

func TestDefaultFetcher_Load_http(t *testing.T) {
	var requestedURLs []string
	var mu sync.Mutex
	fetcher, _ := newTestFetcher(pngResponder(t, &requestedURLs, &mu), nil)

	img, err := fetcher.Load(context.Background(), "https://tiles.example.org/1/0/0.png")
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, []string{"https://tiles.example.org/1/0/0.png"}, requestedURLs)
}

func TestDefaultFetcher_Load_httpError(t *testing.T) {
	var requestedURLs []string
	var mu sync.Mutex
	fetcher, _ := newTestFetcher(pngResponder(t, &requestedURLs, &mu), nil)

	_, err := fetcher.Load(context.Background(), "https://tiles.example.org/missing.png")
	require.Error(t, err)
}

func TestDefaultFetcher_Load_transportError(t *testing.T) {
	doer := &httpextra.MockDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	}
	fetcher, _ := newTestFetcher(doer, nil)

	_, err := fetcher.Load(context.Background(), "http://localhost:1/tile.png")
	require.Error(t, err)
}

func TestDefaultFetcher_Load_relativeToBaseURL(t *testing.T) {
	var requestedURLs []string
	var mu sync.Mutex
	baseURL, err := url.Parse("https://maps.example.org/app/")
	require.NoError(t, err)

	fetcher, _ := newTestFetcher(pngResponder(t, &requestedURLs, &mu), baseURL)

	_, loadErr := fetcher.Load(context.Background(), "icons/red.png")
	require.NoError(t, loadErr)
	assert.Equal(t, []string{"https://maps.example.org/app/icons/red.png"}, requestedURLs)
}

func TestDefaultFetcher_Load_file(t *testing.T) {
	fetcher, fs := newTestFetcher(nil, nil)

	err := fs.WriteFile("/icons/red.png", encodePNG(t, 4, 4, color.RGBA{R: 0xff, A: 0xff}), os.FileMode(0644))
	require.NoError(t, err)

	img, loadErr := fetcher.Load(context.Background(), "/icons/red.png")
	require.NoError(t, loadErr)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	img, loadErr = fetcher.Load(context.Background(), "file:///icons/red.png")
	require.NoError(t, loadErr)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	_, loadErr = fetcher.Load(context.Background(), "/icons/blue.png")
	require.Error(t, loadErr)
}

func TestDefaultFetcher_Load_dataURI(t *testing.T) {
	fetcher, _ := newTestFetcher(nil, nil)

	pngBytes := encodePNG(t, 2, 5, color.Black)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	img, err := fetcher.Load(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 5), img.Bounds())
}

func TestDefaultFetcher_Load_invalid(t *testing.T) {
	fetcher, fs := newTestFetcher(nil, nil)

	err := fs.WriteFile("/not-an-image.png", []byte("hello"), os.FileMode(0644))
	require.NoError(t, err)

	for _, src := range []string{"", "/not-an-image.png", "ftp://example.org/a.png", "data:image/png;base64"} {
		_, loadErr := fetcher.Load(context.Background(), src)
		assert.Error(t, loadErr, src)
	}
}

func TestDefaultFetcher_Load_concurrent(t *testing.T) {
	var requestedURLs []string
	var mu sync.Mutex
	fetcher, _ := newTestFetcher(pngResponder(t, &requestedURLs, &mu), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fetcher.Load(context.Background(), "https://tiles.example.org/a.png")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, requestedURLs, 10)
}

func Test_decodeDataURI(t *testing.T) {
	data, err := decodeDataURI("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	data, err = decodeDataURI("data:;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	data, err = decodeDataURI(`data:image/svg+xml;charset="utf-8";base64,PHN2Zy8+`)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	_, err = decodeDataURI("data:image/png;base64,***")
	require.Error(t, err)

	_, err = decodeDataURI("data:image/png")
	require.Error(t, err)
}

package imagefetcher

import (
	"bytes"
	"context"
	"image"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	// image formats tiles and icons are served in
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
)

const userAgent = "mapexport/1.0"

// Fetcher resolves an image source (URL, data URI or file path) to a decoded image
type Fetcher interface {
	Load(ctx context.Context, src string) (image.Image, errorsx.Error)
}

type Options struct {
	// MaxConcurrentLoads bounds how many images are fetched at the same time
	MaxConcurrentLoads uint
	// Timeout of 0 means no timeout
	Timeout time.Duration
	// BaseURL is used to resolve relative sources. Without it, relative sources are read from the file system.
	BaseURL *url.URL
}

type DefaultFetcher struct {
	logger  *logpkg.Logger
	client  httpextra.Doer
	fs      gofs.Fs
	sema    *semaphore.Semaphore
	timeout time.Duration
	baseURL *url.URL
}

var _ Fetcher = &DefaultFetcher{}

func NewDefaultFetcher(logger *logpkg.Logger, client httpextra.Doer, fs gofs.Fs, options Options) *DefaultFetcher {
	maxConcurrentLoads := options.MaxConcurrentLoads
	if maxConcurrentLoads == 0 {
		maxConcurrentLoads = 1
	}

	return &DefaultFetcher{
		logger:  logger,
		client:  client,
		fs:      fs,
		sema:    semaphore.NewSemaphore(maxConcurrentLoads),
		timeout: options.Timeout,
		baseURL: options.BaseURL,
	}
}

func (f *DefaultFetcher) Load(ctx context.Context, src string) (image.Image, errorsx.Error) {
	if src == "" {
		return nil, errorsx.Errorf("no image source given")
	}

	f.sema.Add()
	defer f.sema.Done()

	data, err := f.read(ctx, src)
	if err != nil {
		return nil, errorsx.Wrap(err, "src", abbreviate(src))
	}

	img, format, decodeErr := image.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		return nil, errorsx.Wrap(decodeErr, "src", abbreviate(src))
	}

	f.logger.Debug("loaded %s image (%dx%d) from %q", format, img.Bounds().Dx(), img.Bounds().Dy(), abbreviate(src))

	return img, nil
}

func (f *DefaultFetcher) read(ctx context.Context, src string) ([]byte, errorsx.Error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURI(src)
	}

	srcURL, err := url.Parse(src)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if !srcURL.IsAbs() && f.baseURL != nil {
		srcURL = f.baseURL.ResolveReference(srcURL)
	}

	switch srcURL.Scheme {
	case "http", "https":
		return f.readHTTP(ctx, srcURL.String())
	case "file":
		return f.readFile(srcURL.Path)
	case "":
		return f.readFile(src)
	default:
		return nil, errorsx.Errorf("unsupported image source scheme: %q", srcURL.Scheme)
	}
}

func (f *DefaultFetcher) readHTTP(ctx context.Context, src string) ([]byte, errorsx.Error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer resp.Body.Close()

	err = httpextra.CheckResponseCode(http.StatusOK, resp.StatusCode)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	body, err := httpextra.RemoveGzip(resp)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	data, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return data, nil
}

func (f *DefaultFetcher) readFile(path string) ([]byte, errorsx.Error) {
	data, err := f.fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return data, nil
}

// abbreviate shortens inline data URIs for log and error messages
func abbreviate(src string) string {
	const maxLen = 64
	if len(src) <= maxLen {
		return src
	}
	return src[:maxLen] + "..."
}

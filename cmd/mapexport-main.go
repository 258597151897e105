package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chamendrieg/mapexport/capture"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/chamendrieg/mapexport/exporter"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/chamendrieg/mapexport/staticview"
	"github.com/chamendrieg/mapexport/webservices"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/osm"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	DEFAULT_PORT                = 9000
	MAX_SERVER_RUNNING_ATTEMPTS = 50
)

var logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelInfo)

type globalFlags struct {
	verbose    *bool
	configPath *string
}

// setupLogger is called by the commands, once the flags have been parsed
func (f globalFlags) setupLogger() {
	if *f.verbose {
		logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelDebug)
	}
}

func main() {
	flags := globalFlags{
		verbose:    kingpin.Flag("v", "verbose logging").Bool(),
		configPath: kingpin.Flag("config", "path to a YAML options file").String(),
	}

	setupCapture(flags)
	setupServe(flags)

	kingpin.Parse()
}

func loadConfig(fs gofs.Fs, configPath string) (*exportconfig.Config, errorsx.Error) {
	if configPath == "" {
		return exportconfig.DefaultConfig(), nil
	}

	return exportconfig.LoadConfigFile(fs, configPath)
}

func newCapturer(fs gofs.Fs, conf *exportconfig.Config, baseURLStr string) (*capture.Capturer, errorsx.Error) {
	var baseURL *url.URL
	if baseURLStr != "" {
		var err error
		baseURL, err = url.Parse(baseURLStr)
		if err != nil {
			return nil, errorsx.Wrap(err, "baseURL", baseURLStr)
		}
	}

	fetcher := imagefetcher.NewDefaultFetcher(logger, http.DefaultClient, fs, imagefetcher.Options{
		MaxConcurrentLoads: conf.FetchConcurrency,
		Timeout:            conf.FetchTimeout,
		BaseURL:            baseURL,
	})

	return capture.NewCapturer(logger, conf, fetcher, capture.NewLoggingBusyIndicator(logger))
}

func createTracer(fs gofs.Fs, traceFilePath string) (*tracing.Tracer, errorsx.Error) {
	if traceFilePath == "" {
		return nil, nil
	}

	expandedPath, err := userextra.ExpandUser(traceFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", traceFilePath)
	}

	traceFile, err := fs.Create(expandedPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", expandedPath)
	}

	logger.Info("tracing at %q", expandedPath)

	return tracing.NewTracer(traceFile), nil
}

func setupCapture(flags globalFlags) {
	cmd := kingpin.Command("capture", "capture a view document to a PNG image")
	viewPath := cmd.Arg("view-file", "view document (JSON, or YAML with a .yaml/.yml extension)").Required().String()
	scale := cmd.Flag("scale", "enlarge the captured area and the image by this factor").Default("1").Float64()
	outDir := cmd.Flag("out-dir", "directory to write the image to").Default(".").String()
	filename := cmd.Flag("filename", "name of the image file. Defaults to the configured filename").String()
	boundsStr := cmd.Flag("bounds", "fit the view to these bounds instead of its center and zoom. [W,N,E,S] Example: -1,1,1,-1").String()
	tileStr := cmd.Flag("tile", "fit the view to a map tile instead of its center and zoom. [z/x/y] Example: 12/2045/1361").String()
	baseURL := cmd.Flag("base-url", "URL that relative image sources are resolved against. Without it they are read from disk").String()
	shouldOpen := cmd.Flag("open", "open the image after it has been written").Bool()
	shouldProfile := cmd.Flag("profile", "profile the capture performance").Bool()
	traceFilePath := cmd.Flag("trace-file", "write a trace of the capture to this file").String()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			flags.setupLogger()
			fs := gofs.NewOsFs()

			outDirPath, err := userextra.ExpandUser(*outDir)
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *shouldProfile {
				defer profile.Start(profile.ProfilePath(outDirPath), profile.CPUProfile).Stop()
			}

			conf, err := loadConfig(fs, *flags.configPath)
			if err != nil {
				return errorsx.Wrap(err)
			}

			doc, err := staticview.LoadViewDocument(fs, *viewPath)
			if err != nil {
				return errorsx.Wrap(err)
			}

			err = applyPlacementFlags(doc, *boundsStr, *tileStr)
			if err != nil {
				return errorsx.Wrap(err)
			}

			view, err := staticview.NewView(doc)
			if err != nil {
				return errorsx.Wrap(err, "viewPath", *viewPath)
			}

			capturer, err := newCapturer(fs, conf, *baseURL)
			if err != nil {
				return errorsx.Wrap(err)
			}

			tracer, err := createTracer(fs, *traceFilePath)
			if err != nil {
				return errorsx.Wrap(err)
			}

			captureCtx := context.Background()
			var trace *tracing.Trace
			if tracer != nil {
				trace = tracing.StartTrace(tracer, fmt.Sprintf("capture: %s", *viewPath))
				captureCtx = context.WithValue(captureCtx, tracing.TraceCtxKey, trace)
				captureCtx = context.WithValue(captureCtx, tracing.TracerCtxKey, tracer)
			}

			startTime := time.Now()

			sink := exporter.NewFileSink(fs, outDirPath)
			blob, err := capturer.Capture(captureCtx, view, capture.CaptureOptions{
				Scale:    *scale,
				Filename: *filename,
				Sink:     sink,
			})
			if err != nil {
				return errorsx.Wrap(err)
			}

			if tracer != nil {
				err = tracer.EndTrace(trace, blob.String())
				if err != nil {
					return errorsx.Wrap(err)
				}
			}

			logger.Info("wrote %q in %s", sink.LastPath(), time.Since(startTime))

			if *shouldOpen {
				err = open.OpenURL(sink.LastPath())
				if err != nil {
					return errorsx.Wrap(err)
				}
			}

			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

// applyPlacementFlags replaces the placement of the view document with the bounds or tile given on the command line
func applyPlacementFlags(doc *staticview.ViewDocument, boundsStr, tileStr string) errorsx.Error {
	if boundsStr != "" && tileStr != "" {
		return errorsx.Errorf("only one of --bounds and --tile can be given")
	}

	var bounds osm.Bounds
	switch {
	case boundsStr != "":
		var err errorsx.Error
		bounds, err = boundsStrToOSMBounds(strings.Split(boundsStr, ","))
		if err != nil {
			return errorsx.Wrap(err, "bounds", boundsStr)
		}
	case tileStr != "":
		tile, err := parseTile(tileStr)
		if err != nil {
			return errorsx.Wrap(err, "tile", tileStr)
		}
		bounds = staticview.BoundsForTile(tile)
	default:
		return nil
	}

	doc.Center = nil
	doc.Zoom = nil
	doc.Bounds = &staticview.BoundsDocument{
		MinLat: bounds.MinLat,
		MinLon: bounds.MinLon,
		MaxLat: bounds.MaxLat,
		MaxLon: bounds.MaxLon,
	}

	return nil
}

// boundsStrToOSMBounds parses bounds in the [W,N,E,S] order
func boundsStrToOSMBounds(boundsStr []string) (osm.Bounds, errorsx.Error) {
	bounds := osm.Bounds{}

	if len(boundsStr) != 4 {
		return bounds, errorsx.Errorf("expected 4 bounds, but found %d", len(boundsStr))
	}

	for idx, boundStr := range boundsStr {
		boundFloat, err := strconv.ParseFloat(strings.TrimSpace(boundStr), 64)
		if err != nil {
			return bounds, errorsx.Wrap(err)
		}
		switch idx {
		case 0:
			bounds.MinLon = boundFloat
		case 1:
			bounds.MaxLat = boundFloat
		case 2:
			bounds.MaxLon = boundFloat
		case 3:
			bounds.MinLat = boundFloat
		}
	}

	if bounds.MinLon > bounds.MaxLon || bounds.MinLat > bounds.MaxLat {
		return bounds, errorsx.Errorf("bounds are inverted")
	}

	return bounds, nil
}

// parseTile parses a tile in the z/x/y form
func parseTile(tileStr string) (maptile.Tile, errorsx.Error) {
	fragments := strings.Split(tileStr, "/")
	if len(fragments) != 3 {
		return maptile.Tile{}, errorsx.Errorf("expected z/x/y, got %q", tileStr)
	}

	var vals []uint32
	for _, fragment := range fragments {
		val, err := strconv.ParseUint(fragment, 10, 32)
		if err != nil {
			return maptile.Tile{}, errorsx.Wrap(err)
		}
		vals = append(vals, uint32(val))
	}

	z, x, y := vals[0], vals[1], vals[2]
	if z > staticview.MaxZoom {
		return maptile.Tile{}, errorsx.Errorf("zoom level %d is above the maximum (%d)", z, staticview.MaxZoom)
	}
	if x >= 1<<z || y >= 1<<z {
		return maptile.Tile{}, errorsx.Errorf("tile %d/%d is outside of zoom level %d", x, y, z)
	}

	return maptile.New(x, y, maptile.Zoom(z)), nil
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe(flags globalFlags) {
	cmd := kingpin.Command("serve", "serve the capture API")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf("localhost:%d", DEFAULT_PORT)).String()
	baseURL := cmd.Flag("base-url", "URL that relative image sources are resolved against. Without it they are read from disk").String()
	allowAnyCORS := cmd.Flag("cors", "allow requests from any origin").Bool()
	shouldOpen := cmd.Flag("open", "open the info page once the server is running").Bool()
	shouldProfile := cmd.Flag("profile", "profile the request performance").Bool()
	traceFilePath := cmd.Flag("trace-file", "write traces of the requests to this file").String()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			flags.setupLogger()
			fs := gofs.NewOsFs()

			conf, err := loadConfig(fs, *flags.configPath)
			if err != nil {
				return errorsx.Wrap(err)
			}

			capturer, err := newCapturer(fs, conf, *baseURL)
			if err != nil {
				return errorsx.Wrap(err)
			}

			tracer, err := createTracer(fs, *traceFilePath)
			if err != nil {
				return errorsx.Wrap(err)
			}

			router := webservices.NewRouter(logger, conf, capturer, webservices.RouterOptions{
				Tracer:        tracer,
				AllowAnyCORS:  *allowAnyCORS,
				ShouldProfile: *shouldProfile,
			})

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			errChan := make(chan errorsx.Error)

			go func() {
				logger.Info("about to start serving on %q", *addr)
				err := server.ListenAndServe()
				if err != nil {
					errChan <- errorsx.Wrap(err)
				}
			}()

			if *shouldOpen {
				go func() {
					err := waitForServer(server.Addr)
					if err != nil {
						errChan <- err
						return
					}

					err = errorsx.Wrap(open.OpenURL(fmt.Sprintf("http://%s/api/info", server.Addr)))
					if err != nil {
						logger.Warn("couldn't open the browser: %s", err)
					}
				}()
			}

			return <-errChan
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

func waitForServer(addr string) errorsx.Error {
	client := http.Client{
		Timeout: time.Second * 10,
	}

	for i := 0; i < MAX_SERVER_RUNNING_ATTEMPTS; i++ {
		resp, err := client.Get(fmt.Sprintf("http://%s/api/info", addr))
		if err != nil {
			// retry after wait
			time.Sleep(time.Millisecond * 500)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errorsx.Errorf("expected response code %d from /api/info call, but got %d", http.StatusOK, resp.StatusCode)
		}

		return nil
	}

	return errorsx.Errorf("server did not start after %d attempts", MAX_SERVER_RUNNING_ATTEMPTS)
}

package webservices

import (
	"io/ioutil"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/chamendrieg/mapexport/capture"
	"github.com/chamendrieg/mapexport/exporter"
	"github.com/chamendrieg/mapexport/staticview"
	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/pkg/profile"
)

const maxViewDocumentBytes = 10 * 1024 * 1024

type CaptureService struct {
	logger        *logpkg.Logger
	capturer      capture.MapCapturer
	shouldProfile bool
	chi.Router
}

func NewCaptureService(logger *logpkg.Logger, capturer capture.MapCapturer, shouldProfile bool) *CaptureService {
	cs := &CaptureService{logger, capturer, shouldProfile, chi.NewRouter()}

	cs.Post("/", cs.handlePostCapture)

	return cs
}

// handlePostCapture renders the view document in the request body and sends the image back as a download.
// Query parameters: scale, filename and format (json or yaml, otherwise taken from the Content-Type).
func (cs *CaptureService) handlePostCapture(w http.ResponseWriter, r *http.Request) {
	if cs.shouldProfile {
		defer profile.Start().Stop()
	}

	query := r.URL.Query()

	var scale float64
	scaleStr := query.Get("scale")
	if scaleStr != "" {
		var err error
		scale, err = strconv.ParseFloat(scaleStr, 64)
		if err != nil {
			errorsx.HTTPError(w, cs.logger, errorsx.Wrap(err, "scale", scaleStr), http.StatusBadRequest)
			return
		}
		if math.IsNaN(scale) || math.IsInf(scale, 0) {
			errorsx.HTTPError(w, cs.logger, errorsx.Errorf("scale must be a finite number, got %q", scaleStr), http.StatusBadRequest)
			return
		}
	}

	data, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxViewDocumentBytes))
	if err != nil {
		errorsx.HTTPError(w, cs.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	doc, decodeErr := staticview.DecodeViewDocument(data, requestFormat(r))
	if decodeErr != nil {
		errorsx.HTTPError(w, cs.logger, decodeErr, http.StatusBadRequest)
		return
	}

	view, viewErr := staticview.NewView(doc)
	if viewErr != nil {
		errorsx.HTTPError(w, cs.logger, viewErr, http.StatusBadRequest)
		return
	}

	_, captureErr := cs.capturer.Capture(r.Context(), view, capture.CaptureOptions{
		Scale:    scale,
		Filename: query.Get("filename"),
		Sink:     exporter.NewHTTPDownloadSink(w),
	})
	if captureErr != nil {
		switch errorsx.Cause(captureErr) {
		case capture.ErrCaptureInProgress:
			errorsx.HTTPError(w, cs.logger, captureErr, http.StatusConflict)
			return
		case capture.ErrSurfaceTooLarge:
			errorsx.HTTPError(w, cs.logger, captureErr, http.StatusBadRequest)
			return
		}
		errorsx.HTTPError(w, cs.logger, captureErr, http.StatusInternalServerError)
		return
	}
}

func requestFormat(r *http.Request) staticview.Format {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "yaml", "yml":
		return staticview.FormatYAML
	case "json":
		return staticview.FormatJSON
	}

	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		return staticview.FormatYAML
	}

	return staticview.FormatJSON
}

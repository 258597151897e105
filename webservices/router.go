package webservices

import (
	"github.com/chamendrieg/mapexport/capture"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
)

type RouterOptions struct {
	// Tracer records a trace for each request. It can be nil.
	Tracer        *tracing.Tracer
	AllowAnyCORS  bool
	ShouldProfile bool
}

func NewRouter(logger *logpkg.Logger, conf *exportconfig.Config, capturer capture.MapCapturer, options RouterOptions) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	if options.Tracer != nil {
		router.Use(tracing.Middleware(options.Tracer))
	}
	if options.AllowAnyCORS {
		router.Use(httpextra.CorsAllowAnythingMiddleware())
	}

	router.Route("/api/", func(r chi.Router) {
		r.Mount("/info", NewInfoService(logger, conf, capturer))
		r.Mount("/capture", NewCaptureService(logger, capturer, options.ShouldProfile))
	})

	return router
}

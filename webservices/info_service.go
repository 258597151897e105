package webservices

import (
	"net/http"

	"github.com/chamendrieg/mapexport/capture"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/logpkg"
)

func NewInfoService(logger *logpkg.Logger, conf *exportconfig.Config, capturer capture.MapCapturer) *InfoService {
	ws := &InfoService{logger, conf, capturer, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger   *logpkg.Logger
	conf     *exportconfig.Config
	capturer capture.MapCapturer
	chi.Router
}

type scaleType struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type infoType struct {
	Control  exportconfig.ControlConfig `json:"control"`
	Scale    scaleType                  `json:"scale"`
	Filename string                     `json:"filename"`
	Busy     bool                       `json:"busy"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	busy := ws.capturer.IsBusy()
	ws.logger.Debug("info requested. Busy: %v", busy)

	render.JSON(w, r, infoType{
		Control:  ws.conf.Control,
		Scale:    scaleType{ws.conf.MinScale, ws.conf.MaxScale},
		Filename: ws.conf.Filename,
		Busy:     busy,
	})
}

// Package router exposes the grid and proximity operations over HTTP.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/hexproximity/internal/core/config"
	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
	"github.com/mohammed-shakir/hexproximity/internal/hexgrid"
	"github.com/mohammed-shakir/hexproximity/internal/hotness"
	"github.com/mohammed-shakir/hexproximity/internal/mapper"
	"github.com/mohammed-shakir/hexproximity/internal/proximity"
)

const maxBodyBytes = 4 << 20

// RingPurger drops every shared ring set of the active grid.
type RingPurger interface {
	Purge(ctx context.Context) (int, error)
}

// Deps are the collaborators behind the /v1 routes. Hot and Rings are
// optional; their routes answer 404 when unset.
type Deps struct {
	Grid   mapper.Interface
	Engine *proximity.Engine
	Hot    hotness.Ranker
	Rings  RingPurger
}

type api struct {
	log  *slog.Logger
	cfg  config.Config
	deps Deps
}

// Mount registers the /v1 routes on r.
func Mount(r chi.Router, logger *slog.Logger, cfg config.Config, deps Deps) {
	a := &api{log: logger, cfg: cfg, deps: deps}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/cell", a.instrument("/v1/cell", a.cell))
		r.Get("/disk", a.instrument("/v1/disk", a.disk))
		r.Get("/boundary", a.instrument("/v1/boundary", a.boundary))
		r.Get("/parent", a.instrument("/v1/parent", a.parent))
		r.Get("/children", a.instrument("/v1/children", a.children))
		r.Get("/bbox", a.instrument("/v1/bbox", a.bbox))
		r.Post("/polyfill", a.instrument("/v1/polyfill", a.polyfill))
		r.Post("/nearby", a.instrument("/v1/nearby", a.nearby))
		r.Get("/hot", a.instrument("/v1/hot", a.hot))
		r.Delete("/cache/rings", a.instrument("/v1/cache/rings", a.purgeRings))
	})
}

func (a *api) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id,omitempty"`
}

// writeError answers 400 for caller mistakes and 500 for everything else.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error(), Kind: hexgrid.Kind(err)}
	var ee *proximity.EntityError
	if errors.As(err, &ee) {
		body.EntityID = ee.ID
	}

	code := http.StatusBadRequest
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
		body.Kind = "canceled"
	case !hexgrid.IsInputError(err):
		code = http.StatusInternalServerError
		body.Error = "internal error"
		a.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, code, body)
}

// badRequest reports malformed parameters that never reached the grid.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "bad_request"})
}

// SPDX-License-Identifier: MIT

package render

import (
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/ManuGH/ssrserve/internal/httperr"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/manifest"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// knownMethods are the methods the router recognises. Anything else on a
// routed path is answered with 501.
var knownMethods = []string{
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
}

// Route is the router stage that renders the application shell at "/".
// Requests for other paths continue down the pipeline.
type Route struct {
	mux      *chi.Mux
	renderer Renderer
	symbols  *manifest.Manifest
	debug    bool
	logger   zerolog.Logger
}

// RouteOption customises a Route.
type RouteOption func(*Route)

// WithDebug sets the debug flag passed to every render call.
func WithDebug(debug bool) RouteOption {
	return func(rt *Route) { rt.debug = debug }
}

// WithLogger replaces the route logger.
func WithLogger(logger zerolog.Logger) RouteOption {
	return func(rt *Route) { rt.logger = logger }
}

// NewRoute builds the render route. Debug defaults to true.
func NewRoute(renderer Renderer, symbols *manifest.Manifest, opts ...RouteOption) *Route {
	rt := &Route{
		renderer: renderer,
		symbols:  symbols,
		debug:    true,
		logger:   xglog.WithComponent("render"),
	}
	for _, opt := range opts {
		opt(rt)
	}

	mux := chi.NewRouter()
	mux.Use(chimw.GetHead)
	mux.Get("/", pipeline.Handle(rt.serveRender))
	mux.NotFound(func(_ http.ResponseWriter, r *http.Request) {
		pipeline.Pass(r)
	})
	mux.MethodNotAllowed(pipeline.Handle(rt.methodNotAllowed))
	rt.mux = mux

	return rt
}

// Stage returns the pipeline stage of the route.
func (rt *Route) Stage() pipeline.Stage {
	return pipeline.Mount(rt.mux)
}

func (rt *Route) serveRender(w http.ResponseWriter, r *http.Request) error {
	rt.logger.Debug().
		Str(xglog.FieldEvent, "render.dispatch").
		Str(xglog.FieldPath, r.URL.Path).
		Msg("rendering page")

	res, err := rt.renderer.Render(r.Context(), Options{
		Symbols: rt.symbols,
		URL:     pipeline.RequestURL(r),
		Debug:   rt.debug,
	})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = io.WriteString(w, res.HTML)
	return err
}

// methodNotAllowed answers OPTIONS with the allowed methods and rejects
// everything else with a typed error carrying an Allow header.
func (rt *Route) methodNotAllowed(w http.ResponseWriter, r *http.Request) error {
	methods := rt.allowed(r.URL.Path)
	if len(methods) == 0 {
		// chi routes unknown methods here even for unrouted paths.
		pipeline.Pass(r)
		return nil
	}
	allow := strings.Join(methods, ", ")

	switch {
	case !slices.Contains(knownMethods, r.Method):
		return httperr.New(http.StatusNotImplemented, "",
			httperr.WithHeader("Allow", allow))
	case r.Method == http.MethodOptions:
		w.Header().Set("Allow", allow)
		w.WriteHeader(http.StatusOK)
		return nil
	default:
		return httperr.New(http.StatusMethodNotAllowed, "",
			httperr.WithHeader("Allow", allow))
	}
}

// allowed lists the methods routed for path. GET implies HEAD.
func (rt *Route) allowed(path string) []string {
	var out []string
	for _, m := range knownMethods {
		if rt.mux.Match(chi.NewRouteContext(), m, path) {
			out = append(out, m)
		}
	}
	if slices.Contains(out, http.MethodGet) && !slices.Contains(out, http.MethodHead) {
		out = append(out, http.MethodHead)
	}
	if len(out) > 0 && !slices.Contains(out, http.MethodOptions) {
		out = append(out, http.MethodOptions)
	}
	slices.Sort(out)
	return out
}

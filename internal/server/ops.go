// SPDX-License-Identifier: MIT

package server

import (
	"net/http"

	"github.com/ManuGH/ssrserve/internal/health"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewOpsHandler serves the operational endpoints of the ops listener:
// /metrics, /healthz and /readyz.
func NewOpsHandler(hm *health.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", hm.ServeHealth)
	r.Get("/readyz", hm.ServeReady)
	return r
}

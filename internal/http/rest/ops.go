// Package rest exposes the operational HTTP surface: liveness and
// metrics. The bot itself listens on nothing; this server is optional
// and off by default.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mediagrab/mediagrab/internal/telemetry"
)

// OpsHandler serves health and metrics endpoints.
type OpsHandler struct {
	tel *telemetry.Telemetry
}

func NewOpsHandler(tel *telemetry.Telemetry) *OpsHandler {
	return &OpsHandler{tel: tel}
}

// Routes returns the ops router wrapped with HTTP instrumentation.
func (h *OpsHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", h.tel.Handler())

	return otelhttp.NewHandler(r, "ops")
}

func (h *OpsHandler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediagrab/mediagrab/internal/telemetry"
)

func TestOpsHandler_Health(t *testing.T) {
	h := NewOpsHandler(&telemetry.Telemetry{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestOpsHandler_MetricsDisabled(t *testing.T) {
	h := NewOpsHandler(&telemetry.Telemetry{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics endpoint is a 404 when telemetry is disabled")
}

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"insightreport/internal/services"
)

type stubHealth struct {
	ready string
}

func (s stubHealth) LivenessCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "alive"}
}

func (s stubHealth) ReadinessCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: s.ready}
}

func (s stubHealth) Version() map[string]interface{} {
	return map[string]interface{}{"version": "test"}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		ready      string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz ready", "ready", "/healthz", http.StatusOK, `"status":"ready"`},
		{"readyz not ready", "not_ready", "/readyz", http.StatusServiceUnavailable, `"status":"not_ready"`},
		{"livez", "not_ready", "/livez", http.StatusOK, `"status":"alive"`},
		{"version", "ready", "/version", http.StatusOK, `"version":"test"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHealthHandler(stubHealth{ready: tt.ready}, nil).Routes(r)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

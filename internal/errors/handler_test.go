package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightreport/internal/dataprocessing"
	"insightreport/internal/exporter"
	"insightreport/internal/infrastructure"
	"insightreport/internal/services"
	"insightreport/internal/session"
	"insightreport/internal/shared/testutil"
	"insightreport/internal/store"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)

	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	type shareReq struct {
		Password string `validate:"required,min=4"`
	}
	fieldErr := validator.New().Struct(shareReq{Password: "abc"})
	require.Error(t, fieldErr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"report not found", fmt.Errorf("%w: abc", services.ErrReportNotFound), http.StatusNotFound, TypeReportNotFound},
		{"store not found", store.ErrNotFound, http.StatusNotFound, TypeReportNotFound},
		{"wrong password", fmt.Errorf("%w: abc", services.ErrWrongPassword), http.StatusUnauthorized, TypeWrongPassword},
		{"expired", services.ErrReportExpired, http.StatusGone, TypeReportExpired},
		{"no dashboard", services.ErrNoDashboard, http.StatusBadRequest, TypeNoDashboard},
		{"no files", services.ErrNoFiles, http.StatusBadRequest, TypeNoFiles},
		{"too many files", services.ErrTooManyFiles, http.StatusBadRequest, TypeTooManyFiles},
		{"upload too large", services.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
		{"max bytes", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 10}), http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
		{"abandoned", fmt.Errorf("analyze: %w", session.ErrSessionAbandoned), http.StatusConflict, TypeSessionAbandoned},
		{"closed", session.ErrSessionClosed, http.StatusConflict, TypeSessionClosed},
		{"unsupported format", fmt.Errorf("%w: pdf", dataprocessing.ErrUnsupportedFormat), http.StatusBadRequest, TypeUnsupportedFormat},
		{"unknown series", exporter.ErrUnknownSeries, http.StatusBadRequest, TypeUnknownSeries},
		{"validation", fmt.Errorf("invalid share request: %w", fieldErr), http.StatusBadRequest, TypeValidation},
		{"api error", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/abc", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, ProblemContentType, rec.Header().Get("Content-Type"))

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/reports/abc", body["instance"])
			assert.NotContains(t, body, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	type shareReq struct {
		ClientName string `validate:"required"`
		Password   string `validate:"required,min=4"`
	}
	err := validator.New().Struct(shareReq{Password: "abc"})

	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil), err)

	body := decodeProblem(t, rec)
	require.Contains(t, body, "errors")
	fields := body["errors"].([]interface{})
	require.Len(t, fields, 2)
	assert.Equal(t, "clientName", fields[0].(map[string]interface{})["field"])
	assert.Equal(t, "password", fields[1].(map[string]interface{})["field"])
	assert.Equal(t, "must be at least 4", fields[1].(map[string]interface{})["message"])
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
}

func TestErrorHandler_CorrelationIDs(t *testing.T) {
	h := NewErrorHandler(nil, true)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-1")
	ctx = infrastructure.WithTraceID(ctx, "trace-1")
	rec := httptest.NewRecorder()

	h.HandleError(rec, req.WithContext(ctx), fmt.Errorf("boom"))

	body := decodeProblem(t, rec)
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "trace-1", body["trace_id"])
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/panic", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "PATCH")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewErrorHandler(nil, false)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec)["type"])
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	h := NewErrorHandler(nil, false)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		RecoveryMiddleware(h)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

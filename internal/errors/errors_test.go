package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", "bad json")

	assert.Equal(t, "Invalid request format", err.Error())

	var target *APIError
	assert.True(t, errors.As(error(err), &target))
	assert.Equal(t, "bad json", target.Details)
}

func TestAPIError_Render(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, render.Render(rec, req, ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestMissingParameter(t *testing.T) {
	err := MissingParameter("files[]")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Contains(t, err.Message, `"files[]"`)
}

func TestFromValidator_NonValidatorError(t *testing.T) {
	err := FromValidator(errors.New("plain"))
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
	assert.Equal(t, "plain", err.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusGone, TypeReportExpired, "Report Expired", "", "/r/1").
		WithExtension("report_id", "1").
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusGone), body["status"])
	assert.Equal(t, "1", body["report_id"])
	assert.NotContains(t, body, "detail")
	assert.Equal(t, "/r/1", body["instance"])
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	pd := &ProblemDetails{Status: http.StatusTeapot}
	pd.WithExtension("k", "v")
	assert.Equal(t, "v", pd.Extensions["k"])
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"insightreport/internal/dataprocessing"
	"insightreport/internal/exporter"
	"insightreport/internal/infrastructure"
	"insightreport/internal/services"
	"insightreport/internal/session"
	"insightreport/internal/store"
)

// Common error types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeBadRequest       = "/errors/bad-request"
	TypeNotFound         = "/errors/not-found"
	TypeUnauthorized     = "/errors/unauthorized"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypeConflict         = "/errors/conflict"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
)

// Domain-specific error types
const (
	TypeReportNotFound    = "/errors/report/not-found"
	TypeReportExpired     = "/errors/report/expired"
	TypeWrongPassword     = "/errors/report/wrong-password"
	TypeNoDashboard       = "/errors/report/no-dashboard"
	TypeNoFiles           = "/errors/upload/no-files"
	TypeTooManyFiles      = "/errors/upload/too-many-files"
	TypeSessionAbandoned  = "/errors/session/abandoned"
	TypeSessionClosed     = "/errors/session/closed"
	TypeUnsupportedFormat = "/errors/export/unsupported-format"
	TypeUnknownSeries     = "/errors/export/unknown-series"
	TypeWebSocketUpgrade  = "/errors/websocket/upgrade-failed"
)

// problemMapping binds a sentinel error to its problem response
type problemMapping struct {
	target error
	status int
	typ    string
	title  string
}

// Checked in order; the first errors.Is match wins.
var domainProblems = []problemMapping{
	{services.ErrReportNotFound, http.StatusNotFound, TypeReportNotFound, "Report Not Found"},
	{store.ErrNotFound, http.StatusNotFound, TypeReportNotFound, "Report Not Found"},
	{services.ErrWrongPassword, http.StatusUnauthorized, TypeWrongPassword, "Wrong Password"},
	{services.ErrReportExpired, http.StatusGone, TypeReportExpired, "Report Expired"},
	{services.ErrNoDashboard, http.StatusBadRequest, TypeNoDashboard, "No Dashboard"},
	{services.ErrNoFiles, http.StatusBadRequest, TypeNoFiles, "No Files Uploaded"},
	{services.ErrTooManyFiles, http.StatusBadRequest, TypeTooManyFiles, "Too Many Files"},
	{services.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large"},
	{session.ErrSessionAbandoned, http.StatusConflict, TypeSessionAbandoned, "Session Abandoned"},
	{session.ErrSessionClosed, http.StatusConflict, TypeSessionClosed, "Session Closed"},
	{dataprocessing.ErrUnsupportedFormat, http.StatusBadRequest, TypeUnsupportedFormat, "Unsupported Format"},
	{exporter.ErrUnknownSeries, http.StatusBadRequest, TypeUnknownSeries, "Unknown Series"},
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		infrastructure.RecordError(r.Context(), err)
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.decorate(r, problem)
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	problem.Write(w)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return h.apiErrorToProblem(FromValidator(fieldErrs), r)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			TypePayloadTooLarge,
			"Payload Too Large",
			fmt.Sprintf("The request body exceeds the maximum allowed size of %d bytes", tooLarge.Limit),
			r.URL.Path,
		)
	}

	for _, m := range domainProblems {
		if errors.Is(err, m.target) {
			return NewProblemDetails(m.status, m.typ, m.title, err.Error(), r.URL.Path)
		}
	}

	// Abandonment is a context cancellation too, so this comes after the table
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED":
		problemType = TypeValidation
	case "INVALID_REQUEST", "MISSING_PARAMETER":
		problemType = TypeBadRequest
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "UNAUTHORIZED":
		problemType = TypeUnauthorized
	case "CONFLICT":
		problemType = TypeConflict
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = TypeServiceDown
	case "WEBSOCKET_UPGRADE_FAILED":
		problemType = TypeWebSocketUpgrade
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if valErrs, ok := apiErr.Details.([]ValidationError); ok {
		problem.WithExtension("errors", valErrs)
	} else if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	)
	h.decorate(r, problem)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	problem.Write(w)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	)
	h.decorate(r, problem)

	problem.Write(w)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	)
	h.decorate(r, problem)

	problem.Write(w)
}

// decorate adds the correlation ids of the request
func (h *ErrorHandler) decorate(r *http.Request, problem *ProblemDetails) {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		problem.WithExtension("request_id", reqID)
	}
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
}

// getStackTrace returns the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// JSON helper for consistent JSON responses
func (h *ErrorHandler) JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

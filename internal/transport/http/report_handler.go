package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "insightreport/internal/errors"
	"insightreport/internal/services"
)

const (
	// PasswordHeader carries the snapshot password on GET and DELETE
	PasswordHeader = "X-Report-Password"

	// multipartMemory is held in memory before parts spill to disk
	multipartMemory = 8 << 20
)

// uploadFields are the multipart field names accepted for report files
var uploadFields = []string{"files[]", "files"}

// OpenRequest is the body of POST /reports/{id}/open
type OpenRequest struct {
	Password string `json:"password" validate:"required"`
}

// ReportHandler handles report analysis and share link requests
type ReportHandler struct {
	service        ReportService
	maxUploadBytes int64
	validate       *validator.Validate
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler. maxUploadBytes <= 0 disables
// the request body limit.
func NewReportHandler(service ReportService, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &ReportHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		validate:       validator.New(),
		logger:         logger.With(slog.String("component", "report_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/analyze", h.Analyze)
	r.Post("/", h.Share)
	r.Get("/", h.List)

	r.Route("/{id}", func(r chi.Router) {
		r.Post("/open", h.Open)
		r.Delete("/", h.Delete)
		r.Get("/export", h.Export)
	})

	return r
}

// Analyze handles POST /reports/analyze
func (h *ReportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, fmt.Errorf("%w: limit is %d bytes", services.ErrUploadTooLarge, tooLarge.Limit))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads, err := readUploads(r.MultipartForm)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dashboard, err := h.service.Analyze(ctx, r.FormValue("session"), uploads, r.FormValue("cpm"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "Dashboard rendered",
		slog.Int("files", len(uploads)),
		slog.Int("sources", len(dashboard.Sources)))
	render.JSON(w, r, dashboard)
}

func readUploads(form *multipart.Form) ([]services.Upload, error) {
	var uploads []services.Upload
	for _, field := range uploadFields {
		for _, fh := range form.File[field] {
			data, err := readPart(fh)
			if err != nil {
				return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
			}
			uploads = append(uploads, services.Upload{Name: fh.Filename, Data: data})
		}
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Share handles POST /reports
func (h *ReportHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req services.ShareRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.Share(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", result.ShareURL)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// List handles GET /reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"reports": views,
		"count":   len(views),
	})
}

// Open handles POST /reports/{id}/open
func (h *ReportHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Open(r.Context(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Delete handles DELETE /reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	password := r.Header.Get(PasswordHeader)
	if password == "" {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter(PasswordHeader))
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), password); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /reports/{id}/export
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	password := r.Header.Get(PasswordHeader)
	if password == "" {
		h.errorHandler.HandleError(w, r, apierrors.MissingParameter(PasswordHeader))
		return
	}

	q := r.URL.Query()
	result, err := h.service.Export(r.Context(), chi.URLParam(r, "id"), password, q.Get("format"), q.Get("series"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Body)
}

package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sheetbridge/internal/config"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/services"
	"sheetbridge/internal/session"
	apiv1 "sheetbridge/pkg/contracts/api/v1"
)

const uploadPreviewRows = 5

// SessionHandler serves session lifecycle and file upload endpoints.
type SessionHandler struct {
	reformat     *services.ReformatService
	cfg          *config.Config
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(reformat *services.ReformatService, cfg *config.Config, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		reformat:     reformat,
		cfg:          cfg,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "session")),
	}
}

// Create handles POST /api/session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	st := h.reformat.CreateSession()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, apiv1.SessionResponse{SessionID: st.ID, CreatedAt: st.CreatedAt})
}

// Reset handles POST /api/session/{id}/reset, the "start over" action.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.reformat.Reset(id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"session_id": id, "status": "reset"})
}

// Upload handles POST /api/session/{id}/files/{role}. The workbook
// arrives as the multipart "file" field; an optional "sheet" query
// parameter hints which sheet to read.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role := session.FileRole(chi.URLParam(r, "role"))
	sheetHint := r.URL.Query().Get("sheet")

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidInputError(err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidInputError(err))
		return
	}

	result, err := h.reformat.Upload(r.Context(), id, role, data, sheetHint)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, apiv1.UploadResponse{
		Role:      string(result.Role),
		SheetUsed: result.SheetUsed,
		Columns:   result.Table.ColumnNames(),
		RowCount:  result.Table.NumRows(),
		Preview:   apiv1.TablePreview(result.Table, uploadPreviewRows),
	})
}

// decodeAndValidate binds the JSON body into v and runs struct
// validation, rendering a problem on failure. Returns false when the
// request was already answered.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, eh *apierrors.ErrorHandler, validate *validator.Validate, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		eh.HandleError(w, r, apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body"))
		return false
	}
	if err := validate.Struct(v); err != nil {
		eh.HandleError(w, r, apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED",
			"Request validation failed", err.Error()))
		return false
	}
	return true
}

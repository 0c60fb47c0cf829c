package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sheetbridge/internal/config"
	"sheetbridge/internal/dataprocessing"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/services"
	apiv1 "sheetbridge/pkg/contracts/api/v1"
)

const projectPreviewRows = 10

// MappingHandler serves correspondence suggestion, editing, projection,
// and the reformatted download.
type MappingHandler struct {
	reformat     *services.ReformatService
	cfg          *config.Config
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewMappingHandler creates the mapping handler.
func NewMappingHandler(reformat *services.ReformatService, cfg *config.Config, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *MappingHandler {
	return &MappingHandler{
		reformat:     reformat,
		cfg:          cfg,
		errorHandler: errorHandler,
		validate:     validator.New(),
		logger:       logger.With(slog.String("handler", "mapping")),
	}
}

// Suggest handles POST /api/session/{id}/mapping/suggest.
func (h *MappingHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req apiv1.MappingSuggestRequest
	if !decodeAndValidate(w, r, h.errorHandler, h.validate, &req) {
		return
	}

	threshold := h.cfg.Matching.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	caseSensitive := req.CaseSensitive || h.cfg.Matching.CaseSensitive

	corr, err := h.reformat.SuggestMapping(r.Context(), id, threshold, caseSensitive)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, apiv1.MappingFromDomain(corr))
}

// Update handles PUT /api/session/{id}/mapping.
func (h *MappingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req apiv1.MappingUpdateRequest
	if !decodeAndValidate(w, r, h.errorHandler, h.validate, &req) {
		return
	}

	edits := make([]services.MappingEdit, len(req.Edits))
	for i, e := range req.Edits {
		edits[i] = services.MappingEdit{Target: e.Target, Source: e.Source}
	}

	corr, err := h.reformat.UpdateMapping(id, edits)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, apiv1.MappingFromDomain(corr))
}

// Project handles POST /api/session/{id}/project.
func (h *MappingHandler) Project(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req apiv1.ProjectRequest
	if !decodeAndValidate(w, r, h.errorHandler, h.validate, &req) {
		return
	}

	opts := dataprocessing.ProjectOptions{
		DropBlankRows:  req.DropBlankRows,
		TrimWhitespace: req.TrimWhitespace,
		FillMode:       dataprocessing.FillNone,
	}
	if req.FillMode != "" {
		opts.FillMode = dataprocessing.FillMode(req.FillMode)
	}

	projected, err := h.reformat.Project(r.Context(), id, opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, apiv1.ProjectResponse{
		Columns:  projected.ColumnNames(),
		RowCount: projected.NumRows(),
		Preview:  apiv1.TablePreview(projected, projectPreviewRows),
	})
}

// DownloadReformatted handles GET /api/session/{id}/download/reformatted.
// The workbook is buffered first so failures still produce a clean
// problem response.
func (h *MappingHandler) DownloadReformatted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.reformat.WriteReformatted(id, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reformatted.xlsx"`)
	w.Write(buf.Bytes())
}

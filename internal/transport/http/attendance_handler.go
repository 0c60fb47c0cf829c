package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sheetbridge/internal/config"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/services"
	apiv1 "sheetbridge/pkg/contracts/api/v1"
)

// AttendanceHandler serves the grouped attendance report and its
// downloads.
type AttendanceHandler struct {
	attendance   *services.AttendanceService
	cfg          *config.Config
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewAttendanceHandler creates the attendance handler.
func NewAttendanceHandler(attendance *services.AttendanceService, cfg *config.Config, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance:   attendance,
		cfg:          cfg,
		errorHandler: errorHandler,
		validate:     validator.New(),
		logger:       logger.With(slog.String("handler", "attendance")),
	}
}

// Report handles POST /api/session/{id}/attendance/report.
func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req apiv1.AttendanceReportRequest
	if !decodeAndValidate(w, r, h.errorHandler, h.validate, &req) {
		return
	}

	threshold := h.cfg.Matching.CanonicalThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	result, err := h.attendance.GenerateReport(r.Context(), id, services.ReportRequest{
		WorkingDays: req.WorkingDays,
		Spec:        req.Groups.ToDomain(),
		Threshold:   threshold,
		Title:       req.Title,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := apiv1.AttendanceReportResponse{
		Strategy:     string(result.Strategy),
		ExcludedRows: result.ExcludedRows,
		Warnings:     result.Warnings,
	}
	for _, row := range result.Summaries {
		resp.Summaries = append(resp.Summaries, apiv1.SummaryRowDTO{
			Group:         row.GroupKey,
			TotalStudents: row.TotalStudents,
			WorkingDays:   row.WorkingDays,
			Averages:      row.Averages,
		})
	}
	render.JSON(w, r, resp)
}

// DownloadXLSX handles GET /api/session/{id}/download/attendance.xlsx.
func (h *AttendanceHandler) DownloadXLSX(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.attendance.WriteXLSX(id, r.URL.Query().Get("title"), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.xlsx"`)
	w.Write(buf.Bytes())
}

// DownloadCSV handles GET /api/session/{id}/download/attendance.csv.
func (h *AttendanceHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.attendance.WriteCSV(id, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	w.Write(buf.Bytes())
}

// DownloadPDF handles GET /api/session/{id}/download/attendance.pdf.
func (h *AttendanceHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.attendance.WritePDF(r.Context(), id, r.URL.Query().Get("title"), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.pdf"`)
	w.Write(buf.Bytes())
}

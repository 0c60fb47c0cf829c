package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sheetbridge/internal/dataprocessing"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/exporter"
	"sheetbridge/internal/mapping"
	"sheetbridge/internal/report"
	"sheetbridge/internal/session"
	"sheetbridge/internal/similarity"
	"sheetbridge/pkg/contracts/domain"
)

// ProgressBroadcaster receives stage-level progress during report
// generation. The websocket hub implements it; a nil broadcaster is
// replaced with a no-op.
type ProgressBroadcaster interface {
	BroadcastProgress(sessionID, stage string, percent int, message string)
	BroadcastError(sessionID, code, message string)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastProgress(string, string, int, string) {}
func (noopBroadcaster) BroadcastError(string, string, string)        {}

// AttendanceService runs the grouped attendance report workflow over a
// session's source upload: align the canonical vocabulary, project,
// partition, summarize, export.
type AttendanceService struct {
	store      *session.Store
	projector  *dataprocessing.Projector
	grouper    *dataprocessing.Grouper
	summarizer *dataprocessing.Summarizer
	excel      *exporter.ExcelWriter
	csv        *exporter.CSVWriter
	pdf        *report.Renderer
	hub        ProgressBroadcaster
	title      string
	logger     *slog.Logger
}

// NewAttendanceService wires the report pipeline.
func NewAttendanceService(store *session.Store, defaultTitle string, hub ProgressBroadcaster, logger *slog.Logger) *AttendanceService {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = noopBroadcaster{}
	}
	logger = logger.With(slog.String("component", "attendance_service"))
	return &AttendanceService{
		store:      store,
		projector:  dataprocessing.NewProjector(logger),
		grouper:    dataprocessing.NewGrouper(logger),
		summarizer: dataprocessing.NewSummarizer(logger, nil),
		excel:      exporter.NewExcelWriter(logger),
		csv:        exporter.NewCSVWriter(),
		pdf:        report.NewRenderer(logger),
		hub:        hub,
		title:      defaultTitle,
		logger:     logger,
	}
}

// ReportRequest is the resolved input to GenerateReport. Threshold is
// the canonical alignment threshold, already defaulted by the caller.
type ReportRequest struct {
	WorkingDays int
	Spec        domain.GroupSpec
	Threshold   int
	Title       string
}

// ReportResult is the grouping outcome plus its summaries.
type ReportResult struct {
	Strategy     domain.GroupStrategy
	ExcludedRows int
	Warnings     []string
	Summaries    []domain.SummaryRow
}

// GenerateReport aligns the canonical attendance vocabulary against the
// source upload, projects it, partitions rows per the group spec, and
// computes per-group summaries. The result replaces the session's stored
// report; a failure leaves the previous one intact.
func (s *AttendanceService) GenerateReport(ctx context.Context, sessionID string, req ReportRequest) (*ReportResult, error) {
	tracer, m := instrumentation()
	ctx, span := tracer.Start(ctx, "attendance.report")
	defer span.End()

	if req.WorkingDays <= 0 {
		return nil, apierrors.ErrValidation("working_days", "working days must be greater than zero")
	}
	if req.Threshold < 0 || req.Threshold > 100 {
		return nil, apierrors.ErrValidation("threshold", "threshold out of range [0,100]")
	}

	var result *ReportResult
	err := s.store.Update(sessionID, func(st *session.State) error {
		src, ok := st.Uploads[session.RoleSource]
		if !ok {
			return apierrors.MissingUploadError(string(session.RoleSource))
		}

		s.hub.BroadcastProgress(sessionID, "align", 10, "aligning canonical columns")
		builder := mapping.NewBuilder(similarity.NewScorer(), s.logger)
		alignment, err := builder.AlignCanonical(domain.CanonicalAttendanceFields(), src.Table.ColumnNames(), req.Threshold)
		if err != nil {
			return apierrors.ErrValidation("threshold", err.Error())
		}

		warnings := make([]string, 0, len(alignment.Unmatched))
		for _, field := range alignment.Unmatched {
			warnings = append(warnings, "no column matched canonical field "+field+"; its values will be blank")
		}

		// Grouping columns ride along under their own names so the
		// partitioner can see them next to the canonical fields. A column
		// that already is a canonical field must keep the aligner's mapping
		// and not appear twice.
		order := domain.CanonicalAttendanceFields()
		corr := alignment.Columns
		for _, col := range []string{req.Spec.CategoryColumn, req.Spec.IdentifierColumn} {
			if col == "" || slices.Contains(order, col) {
				continue
			}
			if _, present := src.Table.Column(col); present {
				corr.Set(col, col, 100)
				order = append(order, col)
			}
		}

		s.hub.BroadcastProgress(sessionID, "project", 35, "projecting onto canonical schema")
		projected := s.projector.Project(src.Table, corr, order, dataprocessing.ProjectOptions{})

		s.hub.BroadcastProgress(sessionID, "partition", 60, "partitioning rows into groups")
		grouping, err := s.grouper.Partition(projected, req.Spec)
		if err != nil {
			return apierrors.ErrValidation("groups", err.Error())
		}
		warnings = append(warnings, grouping.Warnings...)

		s.hub.BroadcastProgress(sessionID, "summarize", 80, "computing group summaries")
		summaries, err := s.summarizer.Summarize(grouping.Groups, req.WorkingDays)
		if err != nil {
			return apierrors.ErrValidation("working_days", err.Error())
		}

		st.Groups = grouping.Groups
		st.Summaries = summaries
		st.WorkingDays = req.WorkingDays

		result = &ReportResult{
			Strategy:     grouping.Strategy,
			ExcludedRows: grouping.ExcludedRows,
			Warnings:     warnings,
			Summaries:    summaries,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		var apiErr *apierrors.APIError
		if !errors.As(err, &apiErr) {
			err = apierrors.SessionNotFoundError(sessionID)
		}
		if errors.As(err, &apiErr) {
			s.hub.BroadcastError(sessionID, apiErr.ErrorCode, apiErr.Message)
		}
		return nil, err
	}

	m.reports.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", string(result.Strategy))))
	s.hub.BroadcastProgress(sessionID, "complete", 100, "report ready")
	s.logger.InfoContext(ctx, "attendance report generated",
		slog.String("session_id", sessionID),
		slog.String("strategy", string(result.Strategy)),
		slog.Int("groups", len(result.Summaries)),
		slog.Int("warnings", len(result.Warnings)))

	return result, nil
}

// reportState fetches the stored report or fails with a conflict.
func (s *AttendanceService) reportState(sessionID string) ([]domain.Group, []domain.SummaryRow, error) {
	var groups []domain.Group
	var summaries []domain.SummaryRow
	err := s.store.View(sessionID, func(st *session.State) error {
		if len(st.Summaries) == 0 {
			return apierrors.New(http.StatusConflict, "NO_REPORT", "No report generated yet; call attendance/report first")
		}
		groups, summaries = st.Groups, st.Summaries
		return nil
	})
	if err != nil {
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			return nil, nil, err
		}
		return nil, nil, apierrors.SessionNotFoundError(sessionID)
	}
	return groups, summaries, nil
}

// WriteXLSX streams the grouped report workbook.
func (s *AttendanceService) WriteXLSX(sessionID, title string, out io.Writer) error {
	groups, summaries, err := s.reportState(sessionID)
	if err != nil {
		return err
	}
	return s.excel.WriteGroupedReport(out, s.resolveTitle(title), groups, summaries)
}

// WriteCSV streams the summary sheet as CSV.
func (s *AttendanceService) WriteCSV(sessionID string, out io.Writer) error {
	_, summaries, err := s.reportState(sessionID)
	if err != nil {
		return err
	}
	return s.csv.WriteSummary(out, summaries)
}

// WritePDF renders the paginated report. A missing Chrome binary
// surfaces as an input-class error.
func (s *AttendanceService) WritePDF(ctx context.Context, sessionID, title string, out io.Writer) error {
	groups, summaries, err := s.reportState(sessionID)
	if err != nil {
		return err
	}
	pdf, err := s.pdf.Render(ctx, s.resolveTitle(title), groups, summaries)
	if err != nil {
		return apierrors.InvalidInputError(err)
	}
	_, err = out.Write(pdf)
	return err
}

func (s *AttendanceService) resolveTitle(title string) string {
	if title != "" {
		return title
	}
	return s.title
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sheetbridge/internal/dataprocessing"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/mapping"
	"sheetbridge/internal/session"
	"sheetbridge/internal/similarity"
	"sheetbridge/pkg/contracts/domain"
)

// ReformatService drives the schema-reconciliation workflow: upload both
// files, suggest a correspondence, accept edits, project, download.
type ReformatService struct {
	store     *session.Store
	cache     *session.ParseCache
	projector *dataprocessing.Projector
	excel     *exporterWriter
	logger    *slog.Logger
}

// exporterWriter narrows the exporter dependency to what this service
// needs.
type exporterWriter struct {
	writeTable func(out io.Writer, table *domain.Table) error
}

// NewReformatService wires the workflow's collaborators.
func NewReformatService(store *session.Store, cache *session.ParseCache, projector *dataprocessing.Projector, writeTable func(io.Writer, *domain.Table) error, logger *slog.Logger) *ReformatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReformatService{
		store:     store,
		cache:     cache,
		projector: projector,
		excel:     &exporterWriter{writeTable: writeTable},
		logger:    logger.With(slog.String("component", "reformat_service")),
	}
}

// CreateSession starts a new session.
func (s *ReformatService) CreateSession() *session.State {
	return s.store.Create()
}

// Reset is the "start over" action.
func (s *ReformatService) Reset(sessionID string) error {
	if err := s.store.Reset(sessionID); err != nil {
		return apierrors.SessionNotFoundError(sessionID)
	}
	return nil
}

// UploadResult describes one accepted upload.
type UploadResult struct {
	Role      session.FileRole
	SheetUsed string
	Table     *domain.Table
}

// Upload parses an uploaded workbook (through the fingerprint cache) and
// stores it under the given role. A failed parse leaves any previous
// upload for that role intact.
func (s *ReformatService) Upload(ctx context.Context, sessionID string, role session.FileRole, data []byte, sheetHint string) (*UploadResult, error) {
	tracer, m := instrumentation()
	ctx, span := tracer.Start(ctx, "reformat.upload")
	defer span.End()

	if role != session.RoleReference && role != session.RoleSource {
		return nil, apierrors.ErrValidation("role", fmt.Sprintf("unknown file role %q", role))
	}

	key := session.Fingerprint(data, sheetHint)
	table, sheetUsed, err := s.cache.GetOrParse(key, func() (*domain.Table, string, error) {
		return dataprocessing.ParseWorkbook(bytes.NewReader(data), sheetHint, s.logger)
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierrors.InvalidInputError(err)
	}

	err = s.store.Update(sessionID, func(st *session.State) error {
		st.Uploads[role] = &session.Upload{Table: table, SheetUsed: sheetUsed, Fingerprint: key}
		return nil
	})
	if err != nil {
		return nil, apierrors.SessionNotFoundError(sessionID)
	}

	m.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("role", string(role))))
	s.logger.InfoContext(ctx, "file uploaded",
		slog.String("session_id", sessionID),
		slog.String("role", string(role)),
		slog.String("sheet", sheetUsed),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", table.NumColumns()))

	return &UploadResult{Role: role, SheetUsed: sheetUsed, Table: table}, nil
}

// SuggestMapping proposes a correspondence between the reference schema
// and the source schema, replacing any stored mapping.
func (s *ReformatService) SuggestMapping(ctx context.Context, sessionID string, threshold int, caseSensitive bool) (*domain.Correspondence, error) {
	tracer, m := instrumentation()
	ctx, span := tracer.Start(ctx, "reformat.suggest")
	defer span.End()

	var corr *domain.Correspondence
	err := s.store.Update(sessionID, func(st *session.State) error {
		ref, ok := st.Uploads[session.RoleReference]
		if !ok {
			return apierrors.MissingUploadError(string(session.RoleReference))
		}
		src, ok := st.Uploads[session.RoleSource]
		if !ok {
			return apierrors.MissingUploadError(string(session.RoleSource))
		}

		var opts []similarity.Option
		if caseSensitive {
			opts = append(opts, similarity.CaseSensitive())
		}
		builder := mapping.NewBuilder(similarity.NewScorer(opts...), s.logger)

		proposed, err := builder.Build(ref.Table.ColumnNames(), src.Table.ColumnNames(), threshold)
		if err != nil {
			return apierrors.ErrValidation("threshold", err.Error())
		}
		st.Correspondence = proposed
		corr = proposed
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, s.mapStoreError(sessionID, err)
	}
	m.suggestions.Add(ctx, 1)
	return corr, nil
}

// MappingEdit sets or clears one target's source. A nil Source unmaps.
type MappingEdit struct {
	Target string
	Source *string
}

// UpdateMapping applies user edits on top of the stored correspondence.
// Edited entries carry full confidence since the user chose them.
func (s *ReformatService) UpdateMapping(sessionID string, edits []MappingEdit) (*domain.Correspondence, error) {
	var corr *domain.Correspondence
	err := s.store.Update(sessionID, func(st *session.State) error {
		if st.Correspondence == nil {
			return apierrors.New(http.StatusConflict, "NO_MAPPING", "No correspondence proposed yet; call mapping/suggest first")
		}
		for _, edit := range edits {
			if _, ok := st.Correspondence.Get(edit.Target); !ok {
				return apierrors.ErrValidation("target", fmt.Sprintf("unknown target column %q", edit.Target))
			}
			if edit.Source == nil {
				st.Correspondence.Set(edit.Target, domain.NoSource, 0)
			} else {
				st.Correspondence.Set(edit.Target, *edit.Source, 100)
			}
		}
		corr = st.Correspondence
		return nil
	})
	if err != nil {
		return nil, s.mapStoreError(sessionID, err)
	}
	return corr, nil
}

// Project reshapes the source table onto the reference schema using the
// stored correspondence and stores the result.
func (s *ReformatService) Project(ctx context.Context, sessionID string, opts dataprocessing.ProjectOptions) (*domain.Table, error) {
	tracer, m := instrumentation()
	ctx, span := tracer.Start(ctx, "reformat.project")
	defer span.End()

	var projected *domain.Table
	err := s.store.Update(sessionID, func(st *session.State) error {
		ref, ok := st.Uploads[session.RoleReference]
		if !ok {
			return apierrors.MissingUploadError(string(session.RoleReference))
		}
		src, ok := st.Uploads[session.RoleSource]
		if !ok {
			return apierrors.MissingUploadError(string(session.RoleSource))
		}
		if st.Correspondence == nil {
			return apierrors.New(http.StatusConflict, "NO_MAPPING", "No correspondence proposed yet; call mapping/suggest first")
		}

		if opts.TypeHints == nil {
			opts.TypeHints = dataprocessing.InferTypeHints(ref.Table)
		}
		st.Projected = s.projector.Project(src.Table, st.Correspondence, ref.Table.ColumnNames(), opts)
		projected = st.Projected
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, s.mapStoreError(sessionID, err)
	}

	m.projections.Add(ctx, 1)
	s.logger.InfoContext(ctx, "table projected",
		slog.String("session_id", sessionID),
		slog.Int("rows", projected.NumRows()),
		slog.Int("columns", projected.NumColumns()))

	return projected, nil
}

// WriteReformatted streams the projected table as an xlsx workbook.
func (s *ReformatService) WriteReformatted(sessionID string, out io.Writer) error {
	var projected *domain.Table
	err := s.store.View(sessionID, func(st *session.State) error {
		if st.Projected == nil {
			return apierrors.New(http.StatusConflict, "NO_PROJECTION", "Nothing projected yet; call project first")
		}
		projected = st.Projected
		return nil
	})
	if err != nil {
		return s.mapStoreError(sessionID, err)
	}
	return s.excel.writeTable(out, projected)
}

// mapStoreError keeps the service's API error taxonomy: store misses
// become session-not-found, everything else passes through.
func (s *ReformatService) mapStoreError(sessionID string, err error) error {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return apierrors.SessionNotFoundError(sessionID)
}

package dataprocessing

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sheetbridge/pkg/contracts/domain"
)

// FillMode selects what replaces blanks after projection.
type FillMode string

const (
	FillNone         FillMode = "blank"
	FillZero         FillMode = "zero"
	FillEmptyString  FillMode = "empty"
	FillCarryForward FillMode = "carry"
)

// ProjectOptions carries the fill and cleanup policy applied after the
// columns are materialized. The three post-processing steps run in a fixed
// order: drop all-blank rows, trim text whitespace, fill blanks.
type ProjectOptions struct {
	DropBlankRows  bool
	TrimWhitespace bool
	FillMode       FillMode
	// TypeHints maps target labels to the kind projection coerces toward.
	// Coercion is best effort: a cell that refuses to convert keeps its
	// copied value.
	TypeHints map[string]domain.CellKind
}

// Projector materializes output tables from a source table plus a
// finalized correspondence.
type Projector struct {
	logger *slog.Logger
}

// NewProjector creates a projector.
func NewProjector(logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger.With(slog.String("component", "projector"))}
}

// Project builds a table with exactly the columns of targetOrder. A target
// mapped to NoSource, or mapped to a label absent from src, yields a column
// of blanks the length of src's row count. Mapped columns are copied
// verbatim and then coerced toward their type hint. Projection never fails
// on cell content.
func (p *Projector) Project(src *domain.Table, corr *domain.Correspondence, targetOrder []string, opts ProjectOptions) *domain.Table {
	rows := src.NumRows()
	columns := make([]domain.Column, 0, len(targetOrder))

	for _, target := range targetOrder {
		sourceLabel := corr.Source(target)
		srcCol, found := domain.Column{}, false
		if sourceLabel != domain.NoSource {
			srcCol, found = src.Column(sourceLabel)
		}

		cells := make([]domain.Cell, rows)
		if !found {
			for i := range cells {
				cells[i] = domain.Blank
			}
			if sourceLabel != domain.NoSource {
				p.logger.Warn("mapped source column absent, filling blanks",
					slog.String("target", target),
					slog.String("source", sourceLabel))
			}
		} else {
			copy(cells, srcCol.Cells)
			if hint, ok := opts.TypeHints[target]; ok {
				for i, c := range cells {
					cells[i] = coerce(c, hint)
				}
			}
		}
		columns = append(columns, domain.Column{Name: target, Cells: cells})
	}

	out, _ := domain.NewTable(columns)
	out = p.postProcess(out, opts)

	p.logger.Info("projection complete",
		slog.Int("columns", out.NumColumns()),
		slog.Int("rows", out.NumRows()))

	return out
}

// InferTypeHints derives a type hint per reference column from its first
// non-blank cell, so projected data leans toward the reference file's
// original types.
func InferTypeHints(reference *domain.Table) map[string]domain.CellKind {
	hints := make(map[string]domain.CellKind)
	for i := 0; i < reference.NumColumns(); i++ {
		col := reference.ColumnAt(i)
		if _, seen := hints[col.Name]; seen {
			continue
		}
		for _, c := range col.Cells {
			if !c.IsBlank() {
				hints[col.Name] = c.Kind
				break
			}
		}
	}
	return hints
}

// coerce converts a cell toward the hinted kind, keeping the original on
// any failure.
func coerce(c domain.Cell, hint domain.CellKind) domain.Cell {
	if c.IsBlank() || c.Kind == hint {
		return c
	}
	switch hint {
	case domain.KindNumber:
		if c.Kind == domain.KindText {
			s := strings.ReplaceAll(strings.TrimSpace(c.Text), ",", "")
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return domain.NumberCell(v)
			}
		}
	case domain.KindText:
		return domain.TextCell(c.DisplayString())
	case domain.KindDate:
		if c.Kind == domain.KindText {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(c.Text)); err == nil {
					return domain.DateCell(t)
				}
			}
		}
	}
	return c
}

func (p *Projector) postProcess(t *domain.Table, opts ProjectOptions) *domain.Table {
	if opts.DropBlankRows {
		t = dropBlankRows(t)
	}
	if opts.TrimWhitespace {
		t = trimTextColumns(t)
	}
	switch opts.FillMode {
	case FillZero:
		t = fillBlanks(t, domain.NumberCell(0))
	case FillEmptyString:
		t = fillBlanks(t, domain.TextCell(""))
	case FillCarryForward:
		t = carryForward(t)
	}
	return t
}

func dropBlankRows(t *domain.Table) *domain.Table {
	var keep []int
	for i := 0; i < t.NumRows(); i++ {
		for _, c := range t.Row(i) {
			if !c.IsBlank() {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == t.NumRows() {
		return t
	}
	return t.SelectRows(keep)
}

func trimTextColumns(t *domain.Table) *domain.Table {
	cols := make([]domain.Column, t.NumColumns())
	for j := 0; j < t.NumColumns(); j++ {
		col := t.ColumnAt(j)
		cells := make([]domain.Cell, len(col.Cells))
		for i, c := range col.Cells {
			if c.Kind == domain.KindText {
				c = domain.TextCell(strings.TrimSpace(c.Text))
			}
			cells[i] = c
		}
		cols[j] = domain.Column{Name: col.Name, Cells: cells}
	}
	out, _ := domain.NewTable(cols)
	return out
}

func fillBlanks(t *domain.Table, replacement domain.Cell) *domain.Table {
	cols := make([]domain.Column, t.NumColumns())
	for j := 0; j < t.NumColumns(); j++ {
		col := t.ColumnAt(j)
		cells := make([]domain.Cell, len(col.Cells))
		for i, c := range col.Cells {
			if c.IsBlank() {
				c = replacement
			}
			cells[i] = c
		}
		cols[j] = domain.Column{Name: col.Name, Cells: cells}
	}
	out, _ := domain.NewTable(cols)
	return out
}

// carryForward replaces each blank with the most recent non-blank value
// above it in the same column. A blank first row has no predecessor and
// stays blank.
func carryForward(t *domain.Table) *domain.Table {
	cols := make([]domain.Column, t.NumColumns())
	for j := 0; j < t.NumColumns(); j++ {
		col := t.ColumnAt(j)
		cells := make([]domain.Cell, len(col.Cells))
		last := domain.Blank
		for i, c := range col.Cells {
			if c.IsBlank() {
				c = last
			} else {
				last = c
			}
			cells[i] = c
		}
		cols[j] = domain.Column{Name: col.Name, Cells: cells}
	}
	out, _ := domain.NewTable(cols)
	return out
}

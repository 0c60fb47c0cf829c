package domain

import (
	"fmt"
	"time"
)

// CellKind identifies the variant held by a Cell.
type CellKind int

const (
	KindBlank CellKind = iota
	KindNumber
	KindText
	KindDate
)

// String returns a human-readable name for the kind.
func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "blank"
	}
}

// Cell is a tagged variant holding one spreadsheet value. Aggregation only
// consumes Number cells; everything else is skipped rather than coerced at
// computation time.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Date   time.Time
}

// Blank is the shared blank sentinel cell.
var Blank = Cell{Kind: KindBlank}

// NumberCell creates a Number cell.
func NumberCell(v float64) Cell { return Cell{Kind: KindNumber, Number: v} }

// TextCell creates a Text cell.
func TextCell(s string) Cell { return Cell{Kind: KindText, Text: s} }

// DateCell creates a Date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: KindDate, Date: t} }

// IsBlank reports whether the cell holds no value. A Text cell containing
// the empty string counts as blank.
func (c Cell) IsBlank() bool {
	return c.Kind == KindBlank || (c.Kind == KindText && c.Text == "")
}

// Value returns the dynamic value for serialization (nil for blanks).
func (c Cell) Value() any {
	switch c.Kind {
	case KindNumber:
		return c.Number
	case KindText:
		return c.Text
	case KindDate:
		return c.Date
	default:
		return nil
	}
}

// DisplayString renders the cell for previews and CSV output.
func (c Cell) DisplayString() string {
	switch c.Kind {
	case KindNumber:
		return trimFloat(c.Number)
	case KindText:
		return c.Text
	case KindDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// Column is a named, ordered sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Table is an ordered sequence of named columns of equal length. Column
// names are not required to be unique; lookup by name resolves to the
// first column carrying that name (first-seen wins, by policy).
type Table struct {
	columns []Column
	byName  map[string][]int
}

// NewTable builds a Table from columns, enforcing equal column lengths and
// recording every index a name maps to so that first-match lookup is a
// deliberate choice rather than an accident of storage.
func NewTable(columns []Column) (*Table, error) {
	t := &Table{
		columns: columns,
		byName:  make(map[string][]int, len(columns)),
	}
	rows := -1
	for i, col := range columns {
		if rows == -1 {
			rows = len(col.Cells)
		} else if len(col.Cells) != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name, len(col.Cells), rows)
		}
		t.byName[col.Name] = append(t.byName[col.Name], i)
	}
	return t, nil
}

// MustNewTable is NewTable for statically correct inputs (tests, samples).
func MustNewTable(columns []Column) *Table {
	t, err := NewTable(columns)
	if err != nil {
		panic(err)
	}
	return t
}

// ColumnNames returns the column names in table order, duplicates included.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// NumRows returns the row count (all columns share it).
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].Cells)
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Column returns the first column with the given name. When several source
// columns share a name the first one wins; the remaining indices stay
// reachable through ColumnIndices.
func (t *Table) Column(name string) (Column, bool) {
	idx, ok := t.byName[name]
	if !ok || len(idx) == 0 {
		return Column{}, false
	}
	return t.columns[idx[0]], true
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) Column { return t.columns[i] }

// ColumnIndices returns every index whose column carries name.
func (t *Table) ColumnIndices(name string) []int { return t.byName[name] }

// Row materializes row i across all columns.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.columns))
	for j, col := range t.columns {
		row[j] = col.Cells[i]
	}
	return row
}

// SelectRows builds a new table containing only the given row indices, in
// the given order, preserving column structure.
func (t *Table) SelectRows(indices []int) *Table {
	cols := make([]Column, len(t.columns))
	for j, col := range t.columns {
		cells := make([]Cell, len(indices))
		for i, ri := range indices {
			cells[i] = col.Cells[ri]
		}
		cols[j] = Column{Name: col.Name, Cells: cells}
	}
	out, _ := NewTable(cols)
	return out
}

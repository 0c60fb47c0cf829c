package dataprocessing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetbridge/pkg/contracts/domain"
)

// buildWorkbook writes a small workbook to memory for parser tests.
func buildWorkbook(t *testing.T, sheets map[string][][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestParseWorkbook_BasicTable(t *testing.T) {
	r := buildWorkbook(t, map[string][][]any{
		"Data": {
			{"identifier", "name", "score"},
			{1, "Alice", 85},
			{2, "Bob", ""},
		},
	})

	table, sheet, err := ParseWorkbook(r, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Data", sheet)
	assert.Equal(t, []string{"identifier", "name", "score"}, table.ColumnNames())
	assert.Equal(t, 2, table.NumRows())

	col, ok := table.Column("identifier")
	require.True(t, ok)
	assert.Equal(t, domain.NumberCell(1), col.Cells[0])

	col, _ = table.Column("score")
	assert.True(t, col.Cells[1].IsBlank())
}

func TestParseWorkbook_SheetHintFallsBackToFirst(t *testing.T) {
	r := buildWorkbook(t, map[string][][]any{
		"Only": {
			{"a"},
			{"x"},
		},
	})

	table, sheet, err := ParseWorkbook(r, "does-not-exist", nil)
	require.NoError(t, err)
	assert.Equal(t, "Only", sheet)
	assert.Equal(t, 1, table.NumRows())
}

func TestParseWorkbook_UnreadableInput(t *testing.T) {
	_, _, err := ParseWorkbook(bytes.NewReader([]byte("not a workbook")), "", nil)
	assert.Error(t, err)
}

func TestTableFromRows_TrimsTrailingBlankRowsAndPadsShortRows(t *testing.T) {
	table, err := tableFromRows([][]string{
		{"a", "b"},
		{"1"},
		{"2", "3"},
		{"", ""},
		{""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())

	col, _ := table.Column("b")
	assert.True(t, col.Cells[0].IsBlank())
}

func TestTableFromRows_BlankHeadersGetPositionalNames(t *testing.T) {
	table, err := tableFromRows([][]string{
		{"a", "", "c"},
		{"1", "2", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Column 2", "c"}, table.ColumnNames())
}

func TestClassifyCell(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Cell
	}{
		{"", domain.Blank},
		{"   ", domain.Blank},
		{"42", domain.NumberCell(42)},
		{"1,234.5", domain.NumberCell(1234.5)},
		{"2024-05-01", domain.DateCell(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))},
		{"hello", domain.TextCell("hello")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyCell(tt.raw), "raw %q", tt.raw)
	}
}

func TestGenerateSample_Deterministic(t *testing.T) {
	cfg := SampleConfig{
		Names:          []string{"A", "B", "C"},
		AdmissionStart: 100,
		WorkingDays:    20,
		Seed:           7,
	}

	first := GenerateSample(cfg)
	second := GenerateSample(cfg)

	require.Equal(t, 3, first.NumRows())
	for i := 0; i < first.NumRows(); i++ {
		assert.Equal(t, first.Row(i), second.Row(i))
	}

	present, _ := first.Column(domain.FieldPresent)
	absent, _ := first.Column(domain.FieldAbsent)
	for i := range present.Cells {
		assert.Equal(t, float64(cfg.WorkingDays), present.Cells[i].Number+absent.Cells[i].Number)
	}

	// any positive working-days count is valid, including fewer than four
	for days := 1; days <= 4; days++ {
		small := GenerateSample(SampleConfig{Names: []string{"A"}, WorkingDays: days})
		p, _ := small.Column(domain.FieldPresent)
		a, _ := small.Column(domain.FieldAbsent)
		assert.Equal(t, float64(days), p.Cells[0].Number+a.Cells[0].Number)
	}
}

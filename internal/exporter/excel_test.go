package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetbridge/pkg/contracts/domain"
)

func reportFixtures(t *testing.T) ([]domain.Group, []domain.SummaryRow) {
	t.Helper()
	groups := []domain.Group{
		{
			Key: "GRADE 01",
			Rows: domain.MustNewTable([]domain.Column{
				{Name: domain.FieldStudentName, Cells: []domain.Cell{domain.TextCell("Alice")}},
				{Name: domain.FieldPresent, Cells: []domain.Cell{domain.NumberCell(18)}},
			}),
		},
		{
			Key: strings.Repeat("VERY LONG GROUP KEY ", 3),
			Rows: domain.MustNewTable([]domain.Column{
				{Name: domain.FieldStudentName, Cells: []domain.Cell{domain.TextCell("Bob")}},
			}),
		},
	}
	summaries := []domain.SummaryRow{
		{
			GroupKey:      "GRADE 01",
			TotalStudents: 1,
			WorkingDays:   20,
			Averages: map[string]float64{
				domain.FieldPresent:    18,
				domain.FieldAttendance: 90,
			},
		},
	}
	return groups, summaries
}

func TestWriteTable_RoundTrip(t *testing.T) {
	w := NewExcelWriter(nil)
	table := domain.MustNewTable([]domain.Column{
		{Name: "ID", Cells: []domain.Cell{domain.NumberCell(1), domain.NumberCell(2)}},
		{Name: "Full Name", Cells: []domain.Cell{domain.TextCell("Alice"), domain.TextCell("Bob")}},
	})

	var buf bytes.Buffer
	require.NoError(t, w.WriteTable(&buf, table))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Full Name"}, rows[0])
	assert.Equal(t, []string{"1", "Alice"}, rows[1])
}

func TestWriteGroupedReport_SheetsAndTruncation(t *testing.T) {
	w := NewExcelWriter(nil)
	groups, summaries := reportFixtures(t)

	var buf bytes.Buffer
	require.NoError(t, w.WriteGroupedReport(&buf, "Attendance Report", groups, summaries))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 3)
	assert.Equal(t, "Summary", sheets[0])
	assert.Equal(t, "GRADE 01", sheets[1])
	assert.LessOrEqual(t, len([]rune(sheets[2])), SheetNameLimit)

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, "Attendance Report", rows[0][0])
	assert.Equal(t, "Group", rows[1][0])
	assert.Equal(t, "GRADE 01", rows[2][0])

	grade, err := f.GetRows("GRADE 01")
	require.NoError(t, err)
	assert.Equal(t, "GRADE 01", grade[0][0])
	assert.Equal(t, domain.FieldStudentName, grade[1][0])
	assert.Equal(t, "Alice", grade[2][0])
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "short", sanitizeSheetName("short"))
	assert.Equal(t, "A_B_C", sanitizeSheetName(`A:B*C`))

	long := strings.Repeat("x", 40)
	got := sanitizeSheetName(long)
	assert.Len(t, got, SheetNameLimit)
	// deterministic
	assert.Equal(t, got, sanitizeSheetName(long))
}

func TestWriteGroupedReport_CollidingSheetNames(t *testing.T) {
	w := NewExcelWriter(nil)
	oneRow := func(name string) *domain.Table {
		return domain.MustNewTable([]domain.Column{
			{Name: domain.FieldStudentName, Cells: []domain.Cell{domain.TextCell(name)}},
		})
	}
	prefix := strings.Repeat("y", SheetNameLimit)
	groups := []domain.Group{
		{Key: prefix + " FIRST", Rows: oneRow("Alice")},
		{Key: prefix + " SECOND", Rows: oneRow("Bob")},
		{Key: "Summary", Rows: oneRow("Cara")},
	}

	var buf bytes.Buffer
	require.NoError(t, w.WriteGroupedReport(&buf, "t", groups, nil))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	// every group keeps its own sheet: no truncation collision overwrites
	// another group, and a group keyed "Summary" never claims the summary
	// sheet
	sheets := f.GetSheetList()
	require.Len(t, sheets, 4)
	seen := make(map[string]bool, len(sheets))
	for _, sheet := range sheets {
		assert.False(t, seen[sheet], "duplicate sheet %q", sheet)
		seen[sheet] = true
		assert.LessOrEqual(t, len([]rune(sheet)), SheetNameLimit)
	}

	names := make(map[string]bool)
	for _, sheet := range sheets[1:] {
		rows, err := f.GetRows(sheet)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(rows), 3)
		names[rows[2][0]] = true
	}
	assert.Equal(t, map[string]bool{"Alice": true, "Bob": true, "Cara": true}, names)
}

func TestCSVWriter_WriteTable(t *testing.T) {
	w := NewCSVWriter()
	w.BOMPrefix = false
	table := domain.MustNewTable([]domain.Column{
		{Name: "a", Cells: []domain.Cell{domain.NumberCell(1.5), domain.Blank}},
		{Name: "b", Cells: []domain.Cell{domain.TextCell("x"), domain.TextCell("y")}},
	})

	var buf bytes.Buffer
	require.NoError(t, w.WriteTable(&buf, table))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a,b", lines[0])
	assert.Equal(t, "1.5,x", lines[1])
	assert.Equal(t, ",y", lines[2])
}

func TestCSVWriter_WriteSummary(t *testing.T) {
	w := NewCSVWriter()
	w.BOMPrefix = false
	_, summaries := reportFixtures(t)

	var buf bytes.Buffer
	require.NoError(t, w.WriteSummary(&buf, summaries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Group,Total_Students"))
	assert.Equal(t, "GRADE 01,1,18.00,0.00,0.00,0.00,90.00,20", lines[1])
}

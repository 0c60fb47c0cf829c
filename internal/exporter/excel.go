package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"sheetbridge/pkg/contracts/domain"
)

// ExcelWriter serializes tables and grouped reports to xlsx.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates an Excel writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "excel_writer"))}
}

// WriteTable serializes a single table to one sheet named "Sheet1".
func (w *ExcelWriter) WriteTable(out io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := writeHeaderAndRows(f, sheet, table, 1); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("table exported",
		slog.Int("columns", table.NumColumns()),
		slog.Int("rows", table.NumRows()))
	return nil
}

// summarySheetColumns is the fixed column layout of the Summary sheet.
var summarySheetColumns = []struct {
	header string
	width  float64
}{
	{"Group", 16},
	{"Total_Students", 14},
	{"Avg_Present", 12},
	{"Avg_Absent", 12},
	{"Avg_Late", 12},
	{"Avg_Very_Late", 14},
	{"Avg_Attendance_Percentage", 24},
	{"Working_Days", 12},
}

// WriteGroupedReport serializes the grouped attendance report: one Summary
// sheet followed by one sheet per group (sheet names capped at 31 chars),
// each decorated with a merged title row, a bold filled header row, fixed
// column widths, and a 2-decimal display format on the percentage column.
func (w *ExcelWriter) WriteGroupedReport(out io.Writer, title string, groups []domain.Group, summaries []domain.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	pctStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("0.00")})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := w.writeSummarySheet(f, summarySheet, title, summaries, headerStyle, titleStyle, pctStyle); err != nil {
		return err
	}

	used := map[string]bool{summarySheet: true}
	for _, grp := range groups {
		sheet := uniqueSheetName(sanitizeSheetName(grp.Key), used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if err := w.writeGroupSheet(f, sheet, grp, headerStyle, titleStyle); err != nil {
			return err
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("grouped report exported",
		slog.Int("groups", len(groups)),
		slog.Int("summary_rows", len(summaries)))
	return nil
}

func (w *ExcelWriter) writeSummarySheet(f *excelize.File, sheet, title string, summaries []domain.SummaryRow, headerStyle, titleStyle, pctStyle int) error {
	lastCol, err := excelize.ColumnNumberToName(len(summarySheetColumns))
	if err != nil {
		return err
	}

	// merged title row
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("failed to merge title row: %w", err)
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle); err != nil {
		return err
	}

	for i, col := range summarySheetColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s2", name), col.header); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}

	for i, row := range summaries {
		r := i + 3
		values := []any{
			row.GroupKey,
			row.TotalStudents,
			row.Average(domain.FieldPresent),
			row.Average(domain.FieldAbsent),
			row.Average(domain.FieldLate),
			row.Average(domain.FieldVeryLate),
			row.Average(domain.FieldAttendance),
			row.WorkingDays,
		}
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
		// 2-decimal display format on the percentage column
		pctCell, err := excelize.CoordinatesToCellName(7, r)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, pctCell, pctCell, pctStyle); err != nil {
			return err
		}
	}
	return nil
}

func (w *ExcelWriter) writeGroupSheet(f *excelize.File, sheet string, grp domain.Group, headerStyle, titleStyle int) error {
	if err := writeHeaderAndRows(f, sheet, grp.Rows, 2); err != nil {
		return err
	}

	cols := grp.Rows.NumColumns()
	if cols == 0 {
		cols = 1
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("failed to merge title row on %q: %w", sheet, err)
	}
	if err := f.SetCellValue(sheet, "A1", grp.Key); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}
	for i := 1; i <= cols; i++ {
		name, err := excelize.ColumnNumberToName(i)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, 16); err != nil {
			return err
		}
	}
	return nil
}

// writeHeaderAndRows writes the table header at startRow and data rows
// below it.
func writeHeaderAndRows(f *excelize.File, sheet string, table *domain.Table, startRow int) error {
	headers := make([]any, table.NumColumns())
	for i, name := range table.ColumnNames() {
		headers[i] = name
	}
	cell, err := excelize.CoordinatesToCellName(1, startRow)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i := 0; i < table.NumRows(); i++ {
		values := make([]any, table.NumColumns())
		for j, c := range table.Row(i) {
			values[j] = c.Value()
		}
		cell, err := excelize.CoordinatesToCellName(1, startRow+1+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

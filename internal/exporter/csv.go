package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"sheetbridge/pkg/contracts/domain"
)

// CSVWriter exports tables and summary rows as CSV.
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM so Excel recognizes the encoding.
	BOMPrefix bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{BOMPrefix: true}
}

// WriteTable writes a table as CSV: header row then data rows.
func (w *CSVWriter) WriteTable(out io.Writer, table *domain.Table) error {
	if err := w.writeBOM(out); err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	defer cw.Flush()

	if err := cw.Write(table.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i := 0; i < table.NumRows(); i++ {
		record := make([]string, table.NumColumns())
		for j, c := range table.Row(i) {
			record[j] = c.DisplayString()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// WriteSummary writes summary rows with the fixed report column layout.
func (w *CSVWriter) WriteSummary(out io.Writer, summaries []domain.SummaryRow) error {
	if err := w.writeBOM(out); err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	defer cw.Flush()

	header := make([]string, len(summarySheetColumns))
	for i, col := range summarySheetColumns {
		header[i] = col.header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range summaries {
		record := []string{
			row.GroupKey,
			formatInt(row.TotalStudents),
			formatFloat(row.Average(domain.FieldPresent)),
			formatFloat(row.Average(domain.FieldAbsent)),
			formatFloat(row.Average(domain.FieldLate)),
			formatFloat(row.Average(domain.FieldVeryLate)),
			formatFloat(row.Average(domain.FieldAttendance)),
			formatInt(row.WorkingDays),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return cw.Error()
}

func (w *CSVWriter) writeBOM(out io.Writer) error {
	if !w.BOMPrefix {
		return nil
	}
	if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	return nil
}

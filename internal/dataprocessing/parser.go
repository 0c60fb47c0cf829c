package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetbridge/pkg/contracts/domain"
)

// dateLayouts are tried in order when classifying a cell as a date.
var dateLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// ParseWorkbook reads a spreadsheet from r into a Table. The first row of
// the selected sheet provides the column labels; all following rows become
// data. sheetHint selects a named sheet; an empty or unknown name falls
// back to the first sheet. Returns the sheet actually used.
func ParseWorkbook(r io.Reader, sheetHint string, logger *slog.Logger) (*domain.Table, string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook contains no sheets")
	}

	sheet := sheets[0]
	if sheetHint != "" {
		if idx, _ := f.GetSheetIndex(sheetHint); idx >= 0 {
			sheet = sheetHint
		} else {
			logger.Warn("sheet hint not found, falling back to first sheet",
				slog.String("hint", sheetHint),
				slog.String("fallback", sheet))
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, "", fmt.Errorf("sheet %q is empty", sheet)
	}

	table, err := tableFromRows(rows)
	if err != nil {
		return nil, "", err
	}

	logger.Info("workbook parsed",
		slog.String("sheet", sheet),
		slog.Int("columns", table.NumColumns()),
		slog.Int("rows", table.NumRows()))

	return table, sheet, nil
}

// ParseFile is ParseWorkbook over a file path, for the CLI binaries.
func ParseFile(path, sheetHint string, logger *slog.Logger) (*domain.Table, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return ParseWorkbook(f, sheetHint, logger)
}

// tableFromRows converts the raw string grid into a typed Table. The first
// row supplies labels (blank header cells get positional names), trailing
// all-blank data rows are trimmed, and short rows are padded with blanks.
func tableFromRows(rows [][]string) (*domain.Table, error) {
	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil, fmt.Errorf("header row has no columns")
	}

	names := make([]string, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		names[i] = name
	}

	data := rows[1:]
	for len(data) > 0 && rowAllBlank(data[len(data)-1]) {
		data = data[:len(data)-1]
	}

	columns := make([]domain.Column, width)
	for j := 0; j < width; j++ {
		cells := make([]domain.Cell, len(data))
		for i, row := range data {
			raw := ""
			if j < len(row) {
				raw = row[j]
			}
			cells[i] = classifyCell(raw)
		}
		columns[j] = domain.Column{Name: names[j], Cells: cells}
	}

	return domain.NewTable(columns)
}

func rowAllBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// classifyCell maps a raw cell string onto the tagged variant: numeric
// strings (thousands separators tolerated) become Number, recognizable date
// strings become Date, empty becomes Blank, everything else Text.
func classifyCell(raw string) domain.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Blank
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
		return domain.NumberCell(v)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return domain.DateCell(t)
		}
	}
	return domain.TextCell(raw)
}

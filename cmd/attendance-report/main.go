// The attendance-report binary is the one-shot CLI: it reads an
// attendance workbook and a grouping config, aligns the canonical
// attendance vocabulary against the file's columns, partitions rows
// into groups, and writes a grouped multi-sheet report (optionally a
// PDF and a CSV summary as well).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"

	yaml "gopkg.in/yaml.v2"

	"sheetbridge/internal/dataprocessing"
	"sheetbridge/internal/exporter"
	"sheetbridge/internal/mapping"
	"sheetbridge/internal/report"
	"sheetbridge/internal/similarity"
	"sheetbridge/pkg/contracts/domain"
)

// groupsFile is the YAML shape of the -groups config.
type groupsFile struct {
	Groups domain.GroupSpec `yaml:"groups"`
}

func main() {
	inputPath := flag.String("input", "", "attendance workbook to report on")
	sheet := flag.String("sheet", "", "sheet name (default: first)")
	groupsPath := flag.String("groups", "", "YAML file declaring the group list and strategy inputs")
	workingDays := flag.Int("working-days", 0, "number of working days in the period (required, > 0)")
	threshold := flag.Int("threshold", 60, "canonical column alignment threshold [0,100]")
	title := flag.String("title", "Attendance Report", "report title")
	xlsxPath := flag.String("out", "attendance.xlsx", "output workbook path")
	csvPath := flag.String("csv", "", "also write the summary as CSV to this path")
	pdfPath := flag.String("pdf", "", "also render the report as PDF to this path (requires Chrome)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *inputPath == "" || *groupsPath == "" {
		fmt.Fprintln(os.Stderr, "both -input and -groups are required")
		flag.Usage()
		os.Exit(2)
	}
	if *workingDays <= 0 {
		logger.Error("working days must be greater than zero", "working_days", *workingDays)
		os.Exit(2)
	}

	spec, err := loadGroupSpec(*groupsPath)
	if err != nil {
		logger.Error("failed to load group config", "error", err)
		os.Exit(1)
	}

	table, usedSheet, err := dataprocessing.ParseFile(*inputPath, *sheet, logger)
	if err != nil {
		logger.Error("failed to read attendance workbook", "error", err)
		os.Exit(1)
	}
	logger.Info("attendance data loaded", "sheet", usedSheet, "rows", table.NumRows())

	builder := mapping.NewBuilder(similarity.NewScorer(), logger)
	alignment, err := builder.AlignCanonical(domain.CanonicalAttendanceFields(), table.ColumnNames(), *threshold)
	if err != nil {
		logger.Error("failed to align canonical columns", "error", err)
		os.Exit(1)
	}
	for _, field := range alignment.Unmatched {
		logger.Warn("no column matched canonical field; its values will be blank", "field", field)
	}

	order := domain.CanonicalAttendanceFields()
	corr := alignment.Columns
	for _, col := range []string{spec.CategoryColumn, spec.IdentifierColumn} {
		if col == "" || slices.Contains(order, col) {
			continue
		}
		if _, present := table.Column(col); present {
			corr.Set(col, col, 100)
			order = append(order, col)
		}
	}

	projector := dataprocessing.NewProjector(logger)
	projected := projector.Project(table, corr, order, dataprocessing.ProjectOptions{})

	grouper := dataprocessing.NewGrouper(logger)
	grouping, err := grouper.Partition(projected, spec)
	if err != nil {
		logger.Error("failed to partition rows", "error", err)
		os.Exit(1)
	}
	for _, warning := range grouping.Warnings {
		logger.Warn(warning)
	}

	summarizer := dataprocessing.NewSummarizer(logger, nil)
	summaries, err := summarizer.Summarize(grouping.Groups, *workingDays)
	if err != nil {
		logger.Error("failed to summarize groups", "error", err)
		os.Exit(1)
	}

	if err := writeXLSX(*xlsxPath, *title, grouping.Groups, summaries, logger); err != nil {
		logger.Error("failed to write workbook", "error", err)
		os.Exit(1)
	}
	logger.Info("report workbook written", "path", *xlsxPath, "groups", len(grouping.Groups))

	if *csvPath != "" {
		if err := writeCSV(*csvPath, summaries); err != nil {
			logger.Error("failed to write CSV summary", "error", err)
			os.Exit(1)
		}
		logger.Info("summary CSV written", "path", *csvPath)
	}

	if *pdfPath != "" {
		renderer := report.NewRenderer(logger)
		pdf, err := renderer.Render(context.Background(), *title, grouping.Groups, summaries)
		if err != nil {
			logger.Error("failed to render PDF", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			logger.Error("failed to write PDF", "error", err)
			os.Exit(1)
		}
		logger.Info("report PDF written", "path", *pdfPath)
	}
}

func loadGroupSpec(path string) (domain.GroupSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GroupSpec{}, err
	}
	var gf groupsFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return domain.GroupSpec{}, fmt.Errorf("failed to parse group config: %w", err)
	}
	if len(gf.Groups.Keys) == 0 {
		return domain.GroupSpec{}, fmt.Errorf("group config declares no group keys")
	}
	return gf.Groups, nil
}

func writeXLSX(path, title string, groups []domain.Group, summaries []domain.SummaryRow, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.NewExcelWriter(logger).WriteGroupedReport(f, title, groups, summaries)
}

func writeCSV(path string, summaries []domain.SummaryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.NewCSVWriter().WriteSummary(f, summaries)
}

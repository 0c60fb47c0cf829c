// The reformat binary is the one-shot CLI: it reads a reference
// workbook and a source workbook, proposes a column correspondence, and
// writes the source data reshaped onto the reference schema.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"sheetbridge/internal/dataprocessing"
	"sheetbridge/internal/exporter"
	"sheetbridge/internal/mapping"
	"sheetbridge/internal/similarity"
	"sheetbridge/pkg/contracts/domain"
)

func main() {
	referencePath := flag.String("reference", "", "reference workbook providing the target schema")
	sourcePath := flag.String("source", "", "source workbook to reshape")
	outputPath := flag.String("out", "reformatted.xlsx", "output workbook path")
	referenceSheet := flag.String("reference-sheet", "", "sheet name in the reference workbook (default: first)")
	sourceSheet := flag.String("source-sheet", "", "sheet name in the source workbook (default: first)")
	threshold := flag.Int("threshold", 70, "minimum similarity score [0,100] for an automatic match")
	caseSensitive := flag.Bool("case-sensitive", false, "keep letter case significant when matching column labels")
	dropBlank := flag.Bool("drop-blank-rows", false, "drop rows whose cells are all blank")
	trim := flag.Bool("trim", false, "trim whitespace in text columns")
	fillMode := flag.String("fill", "blank", "blank fill mode: blank, zero, empty, or carry")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *referencePath == "" || *sourcePath == "" {
		fmt.Fprintln(os.Stderr, "both -reference and -source are required")
		flag.Usage()
		os.Exit(2)
	}

	reference, refSheet, err := dataprocessing.ParseFile(*referencePath, *referenceSheet, logger)
	if err != nil {
		logger.Error("failed to read reference workbook", "error", err)
		os.Exit(1)
	}
	logger.Info("reference loaded", "sheet", refSheet, "columns", reference.NumColumns())

	source, srcSheet, err := dataprocessing.ParseFile(*sourcePath, *sourceSheet, logger)
	if err != nil {
		logger.Error("failed to read source workbook", "error", err)
		os.Exit(1)
	}
	logger.Info("source loaded", "sheet", srcSheet, "rows", source.NumRows())

	var opts []similarity.Option
	if *caseSensitive {
		opts = append(opts, similarity.CaseSensitive())
	}
	builder := mapping.NewBuilder(similarity.NewScorer(opts...), logger)
	corr, err := builder.Build(reference.ColumnNames(), source.ColumnNames(), *threshold)
	if err != nil {
		logger.Error("failed to build correspondence", "error", err)
		os.Exit(1)
	}

	for _, entry := range corr.Entries() {
		if entry.Mapped() {
			logger.Info("column mapped",
				"target", entry.Target, "source", entry.Source, "score", entry.Confidence)
		} else {
			logger.Warn("column unmapped, will be blank",
				"target", entry.Target, "best_score", entry.Confidence)
		}
	}
	for _, conflict := range corr.Conflicts() {
		logger.Warn("source column feeds multiple targets",
			"source", conflict.Source, "targets", conflict.Targets)
	}

	projector := dataprocessing.NewProjector(logger)
	projected := projector.Project(source, corr, reference.ColumnNames(), dataprocessing.ProjectOptions{
		DropBlankRows:  *dropBlank,
		TrimWhitespace: *trim,
		FillMode:       dataprocessing.FillMode(*fillMode),
		TypeHints:      dataprocessing.InferTypeHints(reference),
	})

	if err := writeWorkbook(*outputPath, projected, logger); err != nil {
		logger.Error("failed to write output workbook", "error", err)
		os.Exit(1)
	}
	logger.Info("reformatted workbook written",
		"path", *outputPath, "rows", projected.NumRows(), "columns", projected.NumColumns())
}

func writeWorkbook(path string, table *domain.Table, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.NewExcelWriter(logger).WriteTable(f, table)
}

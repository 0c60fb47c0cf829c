// Package mapping proposes and maintains correspondences between a target
// column schema and a source column schema. The builder runs the similarity
// scorer over every target/source pair and keeps the best match per target;
// the same machinery aligns the canonical attendance vocabulary against an
// arbitrary uploaded file's headers, just with a different threshold.
package mapping

import (
	"fmt"
	"log/slog"

	"sheetbridge/internal/similarity"
	"sheetbridge/pkg/contracts/domain"
)

// Builder builds correspondences from label similarity.
type Builder struct {
	scorer *similarity.Scorer
	logger *slog.Logger
}

// NewBuilder creates a builder around the given scorer.
func NewBuilder(scorer *similarity.Scorer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		scorer: scorer,
		logger: logger.With(slog.String("component", "mapping_builder")),
	}
}

// Build proposes a correspondence from targets to sources. Every target
// label appears exactly once in the result. Per target the best-scoring
// source wins, first source in input order on ties; a best score below
// threshold (or an empty source list) maps the target to NoSource while
// retaining the achieved score for display.
func (b *Builder) Build(targets, sources []string, threshold int) (*domain.Correspondence, error) {
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("threshold %d out of range [0,100]", threshold)
	}

	corr := domain.NewCorrespondence()
	for _, target := range targets {
		best, bestScore := domain.NoSource, 0
		for _, source := range sources {
			if score := b.scorer.Score(target, source); score > bestScore {
				best, bestScore = source, score
			}
		}
		if bestScore < threshold {
			corr.Set(target, domain.NoSource, bestScore)
			b.logger.Debug("no match above threshold",
				slog.String("target", target),
				slog.Int("best_score", bestScore),
				slog.Int("threshold", threshold))
			continue
		}
		corr.Set(target, best, bestScore)
	}

	b.logger.Info("correspondence proposed",
		slog.Int("targets", len(targets)),
		slog.Int("sources", len(sources)),
		slog.Int("threshold", threshold),
		slog.Int("conflicts", len(corr.Conflicts())))

	return corr, nil
}

// Alignment is the result of matching a canonical vocabulary against the
// columns of an uploaded table.
type Alignment struct {
	// Columns maps each canonical field to the source column feeding it.
	// Unmatched fields keep their literal canonical name as a stand-in,
	// which resolves to "column absent" during projection.
	Columns *domain.Correspondence
	// Unmatched lists the canonical fields no column cleared the threshold
	// for, surfaced to the operator as warnings.
	Unmatched []string
}

// AlignCanonical matches the fixed canonical vocabulary against columnNames
// using its own threshold. Never fails: a field without a sufficiently
// similar column falls back to the literal canonical name.
func (b *Builder) AlignCanonical(fields, columnNames []string, threshold int) (*Alignment, error) {
	corr, err := b.Build(fields, columnNames, threshold)
	if err != nil {
		return nil, err
	}

	aligned := domain.NewCorrespondence()
	var unmatched []string
	for _, entry := range corr.Entries() {
		if entry.Mapped() {
			aligned.Set(entry.Target, entry.Source, entry.Confidence)
			continue
		}
		unmatched = append(unmatched, entry.Target)
		aligned.Set(entry.Target, entry.Target, entry.Confidence)
		b.logger.Warn("canonical field unmatched, using literal name",
			slog.String("field", entry.Target),
			slog.Int("best_score", entry.Confidence),
			slog.Int("threshold", threshold))
	}

	return &Alignment{Columns: aligned, Unmatched: unmatched}, nil
}

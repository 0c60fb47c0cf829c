package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"

	"sheetbridge/pkg/contracts/domain"
)

// Summarizer computes per-group descriptive statistics. It is recreated
// per run; summary rows are derived values, recomputed wholesale whenever
// the set of groups changes.
type Summarizer struct {
	logger     *slog.Logger
	statFields []string
}

// NewSummarizer creates a summarizer over the given stat fields (defaults
// to the attendance vocabulary when empty).
func NewSummarizer(logger *slog.Logger, statFields []string) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(statFields) == 0 {
		statFields = domain.AttendanceStatFields()
	}
	return &Summarizer{
		logger:     logger.With(slog.String("component", "summarizer")),
		statFields: statFields,
	}
}

// Summarize produces one SummaryRow per group, in group order. workingDays
// must be positive; it is the denominator of the attendance percentage and
// a validation failure blocks the whole aggregation, producing no partial
// result. Averages consider Number cells only.
func (s *Summarizer) Summarize(groups []domain.Group, workingDays int) ([]domain.SummaryRow, error) {
	if workingDays <= 0 {
		return nil, fmt.Errorf("working days must be a positive integer, got %d", workingDays)
	}

	rows := make([]domain.SummaryRow, 0, len(groups))
	for _, grp := range groups {
		averages := make(map[string]float64, len(s.statFields))
		for _, field := range s.statFields {
			averages[field] = s.fieldAverage(grp.Rows, field, workingDays)
		}
		rows = append(rows, domain.SummaryRow{
			GroupKey:      grp.Key,
			TotalStudents: grp.Rows.NumRows(),
			WorkingDays:   workingDays,
			Averages:      averages,
		})
	}

	s.logger.Info("summary rows computed",
		slog.Int("groups", len(groups)),
		slog.Int("working_days", workingDays))

	return rows, nil
}

// fieldAverage is the arithmetic mean of the Number cells in the named
// column, rounded to two decimals; blanks and non-numeric cells count
// toward neither sum nor count. The attendance percentage is derived from
// the Present column against workingDays when the table carries no
// percentage column of its own.
func (s *Summarizer) fieldAverage(t *domain.Table, field string, workingDays int) float64 {
	col, ok := t.Column(field)
	if !ok && field == domain.FieldAttendance {
		return s.attendanceAverage(t, workingDays)
	}
	if !ok {
		return 0
	}
	sum, count := 0.0, 0
	for _, c := range col.Cells {
		if c.Kind == domain.KindNumber {
			sum += c.Number
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return round2(sum / float64(count))
}

func (s *Summarizer) attendanceAverage(t *domain.Table, workingDays int) float64 {
	col, ok := t.Column(domain.FieldPresent)
	if !ok {
		return 0
	}
	sum, count := 0.0, 0
	for _, c := range col.Cells {
		if c.Kind == domain.KindNumber {
			sum += c.Number / float64(workingDays) * 100
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return round2(sum / float64(count))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

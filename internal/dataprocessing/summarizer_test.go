package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetbridge/pkg/contracts/domain"
)

func TestSummarize_AttendanceScenario(t *testing.T) {
	s := NewSummarizer(nil, nil)

	group := domain.Group{
		Key: "A",
		Rows: domain.MustNewTable([]domain.Column{
			{Name: domain.FieldPresent, Cells: []domain.Cell{
				domain.NumberCell(8), domain.NumberCell(10),
			}},
			{Name: domain.FieldAbsent, Cells: []domain.Cell{
				domain.NumberCell(2), domain.NumberCell(0),
			}},
		}),
	}

	rows, err := s.Summarize([]domain.Group{group}, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "A", row.GroupKey)
	assert.Equal(t, 2, row.TotalStudents)
	assert.Equal(t, 10, row.WorkingDays)
	assert.Equal(t, 9.00, row.Average(domain.FieldPresent))
	assert.Equal(t, 1.00, row.Average(domain.FieldAbsent))
	assert.Equal(t, 90.00, row.Average(domain.FieldAttendance))
}

func TestSummarize_SkipsBlankAndNonNumericCells(t *testing.T) {
	s := NewSummarizer(nil, []string{domain.FieldPresent})

	group := domain.Group{
		Key: "B",
		Rows: domain.MustNewTable([]domain.Column{
			{Name: domain.FieldPresent, Cells: []domain.Cell{
				domain.NumberCell(10), domain.Blank, domain.TextCell("n/a"), domain.NumberCell(20),
			}},
		}),
	}

	rows, err := s.Summarize([]domain.Group{group}, 30)
	require.NoError(t, err)
	// blank and text cells excluded from both count and sum
	assert.Equal(t, 15.00, rows[0].Average(domain.FieldPresent))
	assert.Equal(t, 4, rows[0].TotalStudents)
}

func TestSummarize_RoundsToTwoDecimals(t *testing.T) {
	s := NewSummarizer(nil, []string{domain.FieldPresent})

	group := domain.Group{
		Key: "C",
		Rows: domain.MustNewTable([]domain.Column{
			{Name: domain.FieldPresent, Cells: []domain.Cell{
				domain.NumberCell(1), domain.NumberCell(2), domain.NumberCell(2),
			}},
		}),
	}

	rows, err := s.Summarize([]domain.Group{group}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1.67, rows[0].Average(domain.FieldPresent))
}

func TestSummarize_WorkingDaysValidation(t *testing.T) {
	s := NewSummarizer(nil, nil)

	for _, wd := range []int{0, -1} {
		rows, err := s.Summarize(nil, wd)
		assert.Error(t, err)
		assert.Nil(t, rows, "no partial report on validation failure")
	}
}

func TestSummarize_ExistingPercentageColumnWins(t *testing.T) {
	s := NewSummarizer(nil, []string{domain.FieldAttendance})

	group := domain.Group{
		Key: "D",
		Rows: domain.MustNewTable([]domain.Column{
			{Name: domain.FieldPresent, Cells: []domain.Cell{domain.NumberCell(5)}},
			{Name: domain.FieldAttendance, Cells: []domain.Cell{domain.NumberCell(42)}},
		}),
	}

	rows, err := s.Summarize([]domain.Group{group}, 10)
	require.NoError(t, err)
	assert.Equal(t, 42.00, rows[0].Average(domain.FieldAttendance))
}

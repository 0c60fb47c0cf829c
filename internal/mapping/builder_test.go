package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetbridge/internal/similarity"
	"sheetbridge/pkg/contracts/domain"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(similarity.NewScorer(), nil)
}

func TestBuild_EveryTargetMappedExactlyOnce(t *testing.T) {
	b := newTestBuilder(t)

	targets := []string{"ID", "Full Name", "Score"}
	corr, err := b.Build(targets, []string{"identifier", "name", "score"}, 0)
	require.NoError(t, err)

	assert.Equal(t, targets, corr.Targets())
	assert.Equal(t, len(targets), corr.Len())
}

func TestBuild_EndToEndScenario(t *testing.T) {
	b := newTestBuilder(t)

	corr, err := b.Build(
		[]string{"ID", "Full Name", "Score"},
		[]string{"identifier", "name", "score"},
		60,
	)
	require.NoError(t, err)

	assert.Equal(t, "identifier", corr.Source("ID"))
	assert.Equal(t, "name", corr.Source("Full Name"))
	assert.Equal(t, "score", corr.Source("Score"))
	for _, e := range corr.Entries() {
		assert.GreaterOrEqual(t, e.Confidence, 60)
	}
}

func TestBuild_ThresholdHundredNeedsExactTokenSortedMatch(t *testing.T) {
	b := newTestBuilder(t)

	corr, err := b.Build(
		[]string{"Student Name", "Grade"},
		[]string{"name student", "grades"},
		100,
	)
	require.NoError(t, err)

	// token-reordered match still scores 100
	assert.Equal(t, "name student", corr.Source("Student Name"))
	// near-match does not
	assert.Equal(t, domain.NoSource, corr.Source("Grade"))

	entry, ok := corr.Get("Grade")
	require.True(t, ok)
	assert.Greater(t, entry.Confidence, 0, "achieved score is retained for display")
}

func TestBuild_EmptySources(t *testing.T) {
	b := newTestBuilder(t)

	corr, err := b.Build([]string{"A", "B"}, nil, 50)
	require.NoError(t, err)

	for _, e := range corr.Entries() {
		assert.False(t, e.Mapped())
		assert.Equal(t, 0, e.Confidence)
	}
}

func TestBuild_TiesKeepFirstSource(t *testing.T) {
	b := newTestBuilder(t)

	// both sources token-sort to the same string, so both score 100
	corr, err := b.Build([]string{"a b"}, []string{"b a", "a b"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "b a", corr.Source("a b"))
}

func TestBuild_ThresholdValidation(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build([]string{"A"}, []string{"A"}, 101)
	assert.Error(t, err)
	_, err = b.Build([]string{"A"}, []string{"A"}, -1)
	assert.Error(t, err)
}

func TestAlignCanonical_FallsBackToLiteralName(t *testing.T) {
	b := newTestBuilder(t)

	fields := domain.CanonicalAttendanceFields()
	alignment, err := b.AlignCanonical(fields,
		[]string{"Adm. No", "Name of Student", "Days Present", "Days Absent"}, 55)
	require.NoError(t, err)

	corr := alignment.Columns
	assert.Equal(t, "Adm. No", corr.Source(domain.FieldAdmissionNo))
	assert.Equal(t, "Name of Student", corr.Source(domain.FieldStudentName))
	assert.Equal(t, "Days Present", corr.Source(domain.FieldPresent))
	assert.Equal(t, "Days Absent", corr.Source(domain.FieldAbsent))

	// nothing resembles "Late" or "Very Late": literal stand-ins + warnings
	assert.Equal(t, domain.FieldLate, corr.Source(domain.FieldLate))
	assert.Equal(t, domain.FieldVeryLate, corr.Source(domain.FieldVeryLate))
	assert.Contains(t, alignment.Unmatched, domain.FieldLate)
	assert.Contains(t, alignment.Unmatched, domain.FieldVeryLate)
}

func TestConflicts_OrderAndContents(t *testing.T) {
	corr := domain.NewCorrespondence()
	corr.Set("First", "src", 100)
	corr.Set("Middle", "other", 100)
	corr.Set("Second", "src", 100)

	conflicts := corr.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "src", conflicts[0].Source)
	assert.Equal(t, []string{"First", "Second"}, conflicts[0].Targets)
}

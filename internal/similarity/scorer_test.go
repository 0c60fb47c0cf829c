package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_IdentityIs100(t *testing.T) {
	s := NewScorer()

	for _, label := range []string{"Student Name", "Admission No", "x", "", "Attendance %"} {
		assert.Equal(t, 100, s.Score(label, label), "label %q", label)
	}
}

func TestScore_TokenOrderIndependent(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 100, s.Score("Student Name", "Name Student"))
	assert.Equal(t, 100, s.Score("very late days", "days late very"))
}

func TestScore_Symmetry(t *testing.T) {
	s := NewScorer()

	pairs := [][2]string{
		{"Full Name", "name"},
		{"ID", "identifier"},
		{"Present", "Absent"},
		{"", "anything"},
	}
	for _, p := range pairs {
		assert.Equal(t, s.Score(p[0], p[1]), s.Score(p[1], p[0]), "pair %v", p)
	}
}

func TestScore_CaseSensitivity(t *testing.T) {
	insensitive := NewScorer()
	sensitive := NewScorer(CaseSensitive())

	assert.Equal(t, 100, insensitive.Score("SCORE", "score"))
	assert.Less(t, sensitive.Score("SCORE", "score"), 100)
}

func TestScore_Values(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		a, b string
		want int
	}{
		{"score", "score", 100},
		// token-sorted "full name" vs "name": indel distance 5 over 13 runes
		{"Full Name", "name", 62},
		// containment: "id" is a substring of "identifier"
		{"ID", "identifier", 90},
		{"", "x", 0},
		{"", "", 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Score(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestScore_100OnlyForTokenSortedEquality(t *testing.T) {
	s := NewScorer()

	assert.Less(t, s.Score("Student Name", "Student Names"), 100)
	assert.Less(t, s.Score("ID", "identifier"), 100)

	// long labels: a tiny edit distance over a large combined length must
	// not round up to a perfect score
	long := strings.Repeat("x", 300)
	almost := strings.Repeat("x", 299) + "y"
	assert.Equal(t, 99, s.Score(long, almost))
	assert.Equal(t, 100, s.Score(long, long))
}

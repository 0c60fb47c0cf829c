// Package similarity scores how alike two column labels are, on a 0-100
// scale, independent of token order. It backs the automatic column-mapping
// suggestions: "Name Student" and "Student Name" must score as a
// near-perfect match, which raw Levenshtein over the unsorted strings does
// not deliver.
package similarity

import (
	"sort"
	"strings"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"
)

// indelOptions weighs substitutions as delete+insert, which makes the
// distance over two strings normalizable by their combined length.
var indelOptions = lev.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 2,
	Matches: lev.IdenticalRunes,
}

// Scorer computes token-sort similarity between labels.
type Scorer struct {
	caseSensitive bool
}

// Option configures a Scorer.
type Option func(*Scorer)

// CaseSensitive keeps letter case significant during comparison. The
// default lower-cases both labels first.
func CaseSensitive() Option {
	return func(s *Scorer) { s.caseSensitive = true }
}

// NewScorer creates a scorer with the given options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the token-sort similarity of a and b in [0,100]. Both
// labels are split on whitespace, their tokens sorted and rejoined, and the
// normalized edit-distance ratio of the two token-sorted strings computed.
// 100 means the token-sorted strings are identical. When one token-sorted
// string contains the other outright (a label abbreviating a longer one,
// e.g. "ID" inside "identifier"), the score is floored at the containment
// grade so such pairs survive sensible thresholds.
func (s *Scorer) Score(a, b string) int {
	sa := s.tokenSort(a)
	sb := s.tokenSort(b)
	if sa == sb {
		return 100
	}
	score := ratio(sa, sb)
	if containmentGrade > score && contains(sa, sb) {
		score = containmentGrade
	}
	return score
}

// containmentGrade mirrors the partial-match weighting of the classic
// WRatio scorer: full containment counts as 90% of a perfect match.
const containmentGrade = 90

func (s *Scorer) tokenSort(label string) string {
	if !s.caseSensitive {
		label = strings.ToLower(label)
	}
	tokens := strings.Fields(label)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// ratio is 100 * (lenA + lenB - indelDistance) / (lenA + lenB), rounded.
// Distinct strings cap at 99: 100 is reserved for token-sorted equality,
// which rounding over long labels would otherwise fake.
func ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := lev.DistanceForStrings(ra, rb, indelOptions)
	score := int(float64(total-dist)/float64(total)*100 + 0.5)
	if dist > 0 && score > 99 {
		score = 99
	}
	return score
}

func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

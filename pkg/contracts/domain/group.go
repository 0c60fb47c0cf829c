package domain

// UnassignedGroup is the sentinel key given to rows whose raw category
// value has no alias entry; such rows are kept, not dropped.
const UnassignedGroup = "Unassigned"

// GroupRange is an inclusive numeric range over the identifier column.
// Membership is resolved first-match-wins across the declared group order,
// so overlapping ranges never double-count a row.
type GroupRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v falls inside the range.
func (r GroupRange) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// GroupSpec declares the partitioning inputs the operator supplies. The
// engine picks the first applicable strategy: category column + aliases,
// then identifier ranges, then positional distribution.
type GroupSpec struct {
	// Keys lists the declared group keys in operator order.
	Keys []string `json:"keys" yaml:"keys"`

	// CategoryColumn names the column holding raw category values; used by
	// the category strategy together with Aliases.
	CategoryColumn string `json:"category_column,omitempty" yaml:"category_column"`
	// Aliases maps raw category values to canonical group keys.
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases"`

	// IdentifierColumn names the numeric column the range strategy reads.
	IdentifierColumn string `json:"identifier_column,omitempty" yaml:"identifier_column"`
	// Ranges maps group key to its inclusive identifier range.
	Ranges map[string]GroupRange `json:"ranges,omitempty" yaml:"ranges"`
}

// GroupStrategy names the strategy the engine actually applied.
type GroupStrategy string

const (
	StrategyCategory   GroupStrategy = "category"
	StrategyRange      GroupStrategy = "range"
	StrategyPositional GroupStrategy = "positional"
)

// Group is one resolved partition: its key and the subset of rows that
// landed in it.
type Group struct {
	Key  string
	Rows *Table
}

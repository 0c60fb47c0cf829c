package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"sheetbridge/pkg/contracts/domain"
)

// Grouper partitions table rows into the operator's declared groups.
type Grouper struct {
	logger *slog.Logger
}

// NewGrouper creates a grouper.
func NewGrouper(logger *slog.Logger) *Grouper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grouper{logger: logger.With(slog.String("component", "grouper"))}
}

// GroupingResult holds the resolved partition plus the bookkeeping the
// caller reports to the operator.
type GroupingResult struct {
	Strategy domain.GroupStrategy
	Groups   []domain.Group
	// ExcludedRows counts rows resolved to a key outside the declared list
	// (category strategy) or matching no range (range strategy).
	ExcludedRows int
	Warnings     []string
}

// Partition splits table into groups. The strategy is chosen by data
// availability, first applicable in fixed order: category column with alias
// table, identifier ranges, positional distribution. Groups that end up
// empty are reported as warnings and dropped. Output groups are in natural
// numeric-aware key order.
func (g *Grouper) Partition(table *domain.Table, spec domain.GroupSpec) (*GroupingResult, error) {
	if len(spec.Keys) == 0 {
		return nil, fmt.Errorf("group list is empty")
	}

	var res *GroupingResult
	switch {
	case g.categoryApplicable(table, spec):
		res = g.partitionByCategory(table, spec)
	case g.rangeApplicable(table, spec):
		res = g.partitionByRange(table, spec)
	default:
		res = g.partitionPositional(table, spec)
		res.Warnings = append(res.Warnings,
			"no usable grouping signal; rows distributed positionally across groups")
	}

	kept := res.Groups[:0]
	for _, grp := range res.Groups {
		if grp.Rows.NumRows() == 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("group %q matched no rows and was excluded", grp.Key))
			continue
		}
		kept = append(kept, grp)
	}
	res.Groups = kept

	SortGroupsNaturally(res.Groups)

	g.logger.Info("rows partitioned",
		slog.String("strategy", string(res.Strategy)),
		slog.Int("groups", len(res.Groups)),
		slog.Int("excluded_rows", res.ExcludedRows),
		slog.Int("warnings", len(res.Warnings)))

	return res, nil
}

func (g *Grouper) categoryApplicable(table *domain.Table, spec domain.GroupSpec) bool {
	if spec.CategoryColumn == "" || len(spec.Aliases) == 0 {
		return false
	}
	_, ok := table.Column(spec.CategoryColumn)
	return ok
}

func (g *Grouper) rangeApplicable(table *domain.Table, spec domain.GroupSpec) bool {
	if spec.IdentifierColumn == "" || len(spec.Ranges) == 0 {
		return false
	}
	_, ok := table.Column(spec.IdentifierColumn)
	return ok
}

func (g *Grouper) partitionByCategory(table *domain.Table, spec domain.GroupSpec) *GroupingResult {
	col, _ := table.Column(spec.CategoryColumn)
	declared := make(map[string]bool, len(spec.Keys))
	for _, k := range spec.Keys {
		declared[k] = true
	}

	buckets := make(map[string][]int)
	excluded := 0
	for i, cell := range col.Cells {
		raw := strings.TrimSpace(cell.DisplayString())
		key, aliased := spec.Aliases[raw]
		if !aliased {
			// no alias entry: keep the row under the explicit sentinel
			buckets[domain.UnassignedGroup] = append(buckets[domain.UnassignedGroup], i)
			continue
		}
		if !declared[key] {
			excluded++
			continue
		}
		buckets[key] = append(buckets[key], i)
	}

	keys := append([]string(nil), spec.Keys...)
	if len(buckets[domain.UnassignedGroup]) > 0 && !declared[domain.UnassignedGroup] {
		keys = append(keys, domain.UnassignedGroup)
	}

	groups := make([]domain.Group, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, domain.Group{Key: key, Rows: table.SelectRows(buckets[key])})
	}

	return &GroupingResult{
		Strategy:     domain.StrategyCategory,
		Groups:       groups,
		ExcludedRows: excluded,
	}
}

func (g *Grouper) partitionByRange(table *domain.Table, spec domain.GroupSpec) *GroupingResult {
	col, _ := table.Column(spec.IdentifierColumn)

	buckets := make(map[string][]int)
	excluded := 0
	for i, cell := range col.Cells {
		id, ok := numericValue(cell)
		if !ok {
			excluded++
			continue
		}
		// first containing range wins, so overlap never double-counts
		assigned := false
		for _, key := range spec.Keys {
			r, declared := spec.Ranges[key]
			if declared && r.Contains(id) {
				buckets[key] = append(buckets[key], i)
				assigned = true
				break
			}
		}
		if !assigned {
			excluded++
		}
	}

	groups := make([]domain.Group, 0, len(spec.Keys))
	for _, key := range spec.Keys {
		groups = append(groups, domain.Group{Key: key, Rows: table.SelectRows(buckets[key])})
	}

	return &GroupingResult{
		Strategy:     domain.StrategyRange,
		Groups:       groups,
		ExcludedRows: excluded,
	}
}

// partitionPositional deals rows out in input order: floor(N/G) each, plus
// one extra for the first N mod G groups.
func (g *Grouper) partitionPositional(table *domain.Table, spec domain.GroupSpec) *GroupingResult {
	n := table.NumRows()
	count := len(spec.Keys)
	base := n / count
	extra := n % count

	groups := make([]domain.Group, 0, count)
	start := 0
	for gi, key := range spec.Keys {
		size := base
		if gi < extra {
			size++
		}
		indices := make([]int, 0, size)
		for i := start; i < start+size; i++ {
			indices = append(indices, i)
		}
		start += size
		groups = append(groups, domain.Group{Key: key, Rows: table.SelectRows(indices)})
	}

	return &GroupingResult{
		Strategy: domain.StrategyPositional,
		Groups:   groups,
	}
}

func numericValue(c domain.Cell) (float64, bool) {
	switch c.Kind {
	case domain.KindNumber:
		return c.Number, true
	case domain.KindText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		return v, err == nil
	default:
		return 0, false
	}
}

// SortGroupsNaturally orders groups by the integer value of the first digit
// run in their key, ascending; keys without digits sort last. The sort is
// stable, so equal keys keep their input order.
func SortGroupsNaturally(groups []domain.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return naturalKey(groups[i].Key) < naturalKey(groups[j].Key)
	})
}

// naturalKey extracts the first run of digits as an integer; +Inf when the
// key has none.
func naturalKey(key string) float64 {
	start := -1
	for i, r := range key {
		if unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			n, _ := strconv.Atoi(key[start:i])
			return float64(n)
		}
	}
	if start != -1 {
		n, _ := strconv.Atoi(key[start:])
		return float64(n)
	}
	return math.Inf(1)
}

package domain

// NoSource is the sentinel a target label maps to when no source column
// feeds it; projection emits a blank-filled column for such targets.
const NoSource = ""

// MappingEntry is one target-to-source assignment with the confidence the
// auto-matcher achieved for it (user edits keep a confidence of 100).
type MappingEntry struct {
	Target     string `json:"target"`
	Source     string `json:"source,omitempty"`
	Confidence int    `json:"confidence"`
}

// Mapped reports whether the entry points at a source label.
func (e MappingEntry) Mapped() bool { return e.Source != NoSource }

// Correspondence maps each target-schema label to a source-schema label or
// to NoSource. Every target label is always present exactly once; entries
// keep the target schema's insertion order. Several targets may share one
// source (fan-out) — legal, but reported by Conflicts.
type Correspondence struct {
	order   []string
	entries map[string]MappingEntry
}

// NewCorrespondence creates an empty correspondence.
func NewCorrespondence() *Correspondence {
	return &Correspondence{entries: make(map[string]MappingEntry)}
}

// Set assigns source (possibly NoSource) to target with the given
// confidence. First assignment of a target fixes its position in the order.
func (c *Correspondence) Set(target, source string, confidence int) {
	if _, seen := c.entries[target]; !seen {
		c.order = append(c.order, target)
	}
	c.entries[target] = MappingEntry{Target: target, Source: source, Confidence: confidence}
}

// Get returns the entry for target.
func (c *Correspondence) Get(target string) (MappingEntry, bool) {
	e, ok := c.entries[target]
	return e, ok
}

// Source returns the source label for target, or NoSource when unmapped or
// unknown.
func (c *Correspondence) Source(target string) string {
	return c.entries[target].Source
}

// Targets returns the target labels in insertion order.
func (c *Correspondence) Targets() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Entries returns all entries in target order.
func (c *Correspondence) Entries() []MappingEntry {
	out := make([]MappingEntry, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.entries[t])
	}
	return out
}

// Len returns the number of target labels.
func (c *Correspondence) Len() int { return len(c.order) }

// Conflict describes one source label referenced by two or more targets.
type Conflict struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// Conflicts returns every source label referenced by at least two targets,
// with the referencing targets listed in the order they were set. Conflicts
// themselves appear in first-seen order of their source label.
func (c *Correspondence) Conflicts() []Conflict {
	byCount := make(map[string][]string)
	var sourceOrder []string
	for _, t := range c.order {
		src := c.entries[t].Source
		if src == NoSource {
			continue
		}
		if _, seen := byCount[src]; !seen {
			sourceOrder = append(sourceOrder, src)
		}
		byCount[src] = append(byCount[src], t)
	}
	var out []Conflict
	for _, src := range sourceOrder {
		if targets := byCount[src]; len(targets) >= 2 {
			out = append(out, Conflict{Source: src, Targets: targets})
		}
	}
	return out
}

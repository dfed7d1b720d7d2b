package warnings

import (
	"sort"

	"github.com/warnlimit/warnlimit/internal/limits"
)

// EntryCount pairs a limits entry with its resolved threshold and the
// number of warnings actually observed for it.
type EntryCount struct {
	Entry     limits.Entry
	Threshold limits.Threshold
	Actual    uint64
}

// IsViolation reports whether the observed count exceeds a finite
// threshold.
func (c EntryCount) IsViolation() bool {
	return c.Threshold.ExceededBy(c.Actual)
}

// compareCounts orders entry counts by entry, then threshold, then actual,
// the deterministic reporting order.
func compareCounts(a, b EntryCount) int {
	if c := a.Entry.Compare(b.Entry); c != 0 {
		return c
	}

	if c := a.Threshold.Compare(b.Threshold); c != 0 {
		return c
	}

	switch {
	case a.Actual < b.Actual:
		return -1
	case a.Actual > b.Actual:
		return 1
	default:
		return 0
	}
}

// Tally is the combined outcome of a run: every entry count, split into
// violations and non-violations. Non-violations are retained for the
// optional limit-ratcheting pass.
type Tally struct {
	violations []EntryCount
	others     []EntryCount
}

// NewTally creates an empty tally with room for capacity counts.
func NewTally(capacity int) *Tally {
	return &Tally{
		violations: make([]EntryCount, 0, capacity),
		others:     make([]EntryCount, 0, capacity),
	}
}

// Add files one entry count under violations or non-violations.
func (t *Tally) Add(count EntryCount) {
	if count.IsViolation() {
		t.violations = append(t.violations, count)
	} else {
		t.others = append(t.others, count)
	}
}

// Sort fixes the reporting order of both lists.
func (t *Tally) Sort() {
	sort.Slice(t.violations, func(i, j int) bool {
		return compareCounts(t.violations[i], t.violations[j]) < 0
	})
	sort.Slice(t.others, func(i, j int) bool {
		return compareCounts(t.others[i], t.others[j]) < 0
	})
}

// Violations returns the entry counts exceeding their threshold.
func (t *Tally) Violations() []EntryCount {
	return t.violations
}

// NonViolations returns the entry counts within their threshold.
func (t *Tally) NonViolations() []EntryCount {
	return t.others
}

// Check compares aggregated occurrence sets against the flattened declared
// limits and produces the sorted tally. Threshold resolution per entry:
// the exact declared entry, else the wildcard entry for the same file and
// kind, else the kind's configured default (Bound(0) when unset).
func Check(
	flat map[limits.Entry]limits.Threshold,
	results map[limits.Entry]Set,
	defaults map[limits.Kind]limits.Threshold,
) *Tally {
	tally := NewTally(len(results))

	for entry, occurrences := range results {
		threshold, ok := flat[entry]
		if !ok {
			threshold, ok = flat[entry.WithWildcard()]
		}

		if !ok {
			threshold = defaults[entry.Kind]
		}

		tally.Add(EntryCount{
			Entry:     entry,
			Threshold: threshold,
			Actual:    uint64(len(occurrences)),
		})
	}

	tally.Sort()

	return tally
}

func sortOccurrences(occurrences []Occurrence) {
	sort.Slice(occurrences, func(i, j int) bool {
		return Less(occurrences[i], occurrences[j])
	})
}

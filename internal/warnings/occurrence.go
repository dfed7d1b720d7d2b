// Package warnings models observed warning occurrences and the tally of
// counts against declared limits.
package warnings

import (
	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
)

// Description is optional free text attached to a warning, stored interned
// to keep occurrences cheap to copy across tasks. It participates in
// occurrence identity: two warnings at the same location with different
// descriptions count separately.
type Description struct {
	present bool
	id      intern.Handle
}

// Describe wraps an interned handle as a description.
func Describe(h intern.Handle) Description {
	return Description{present: true, id: h}
}

// NoDescription returns the absent description.
func NoDescription() Description {
	return Description{}
}

// Resolve returns the description text; ok is false when absent.
func (d Description) Resolve(arena *intern.Arena) (string, bool) {
	if !d.present {
		return "", false
	}

	return arena.Lookup(d.id)
}

// Remap translates the description's handle from one arena to another.
func (d Description) Remap(from, to *intern.Arena) (Description, error) {
	if !d.present {
		return d, nil
	}

	id, err := intern.Remap(d.id, from, to)
	if err != nil {
		return Description{}, err
	}

	return Describe(id), nil
}

// Occurrence is one concrete observed warning: the culprit file blamed for
// it, optional 1-based line and column (0 when the regex did not capture
// them), and its kind, category and description. Occurrences are plain
// comparable values, so a map keyed on Occurrence deduplicates exact
// repeats across scan tasks.
type Occurrence struct {
	Culprit     string
	Line        int
	Column      int
	Kind        limits.Kind
	Category    limits.Category
	Description Description
}

// Remap translates the occurrence's interned fields from one arena to
// another. Kind handles are issued by the global arena and pass through.
func (o Occurrence) Remap(from, to *intern.Arena) (Occurrence, error) {
	category, err := o.Category.Remap(from, to)
	if err != nil {
		return Occurrence{}, err
	}

	description, err := o.Description.Remap(from, to)
	if err != nil {
		return Occurrence{}, err
	}

	o.Category = category
	o.Description = description

	return o, nil
}

// Less orders occurrences by culprit path, then line, then column.
func Less(a, b Occurrence) bool {
	if a.Culprit != b.Culprit {
		return a.Culprit < b.Culprit
	}

	if a.Line != b.Line {
		return a.Line < b.Line
	}

	return a.Column < b.Column
}

// Set is a deduplicating collection of occurrences.
type Set map[Occurrence]struct{}

// NewSet builds a set from the given occurrences.
func NewSet(occurrences ...Occurrence) Set {
	s := make(Set, len(occurrences))
	for _, o := range occurrences {
		s[o] = struct{}{}
	}

	return s
}

// Add inserts an occurrence.
func (s Set) Add(o Occurrence) {
	s[o] = struct{}{}
}

// Extend unions other into s.
func (s Set) Extend(other Set) {
	for o := range other {
		s[o] = struct{}{}
	}
}

// Sorted returns the occurrences in display order.
func (s Set) Sorted() []Occurrence {
	out := make([]Occurrence, 0, len(s))
	for o := range s {
		out = append(out, o)
	}

	sortOccurrences(out)

	return out
}

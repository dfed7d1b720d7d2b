package limits

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/warnlimit/warnlimit/internal/intern"
)

// Ratchet lowers the threshold addressed by entry to the observed actual
// count and reports whether anything changed. Bounds only ever go down;
// unbounded (inf) declarations are a user statement to never enforce and
// are left alone. Entries for kinds or categories this file never declared
// are ignored.
func (f *File) Ratchet(entry Entry, actual uint64) bool {
	limit, ok := f.kinds[entry.Kind]
	if !ok {
		return false
	}

	if !limit.PerCategory() {
		// Kind-wide limits flatten onto the wildcard entry.
		if !entry.Category.IsWildcard() {
			return false
		}

		lowered, changed := lower(limit.Number, actual)
		if changed {
			limit.Number = lowered
			f.kinds[entry.Kind] = limit
		}

		return changed
	}

	current, ok := limit.Categories[entry.Category]
	if !ok {
		return false
	}

	lowered, changed := lower(current, actual)
	if changed {
		limit.Categories[entry.Category] = lowered
	}

	return changed
}

func lower(t Threshold, actual uint64) (Threshold, bool) {
	value, bounded := t.Value()
	if !bounded || actual >= value {
		return t, false
	}

	return Bound(actual), true
}

// Render serializes the declarations back to TOML, pruning per-category
// maps on the way out: a map whose values all agree collapses to a single
// kind-wide number, and after dropping zero-valued entries a lone survivor
// collapses too.
func (f *File) Render(arena *intern.Arena) ([]byte, error) {
	doc := make(map[string]any, len(f.kinds))

	for kind, limit := range f.kinds {
		name, ok := kind.Resolve(arena)
		if !ok {
			return nil, fmt.Errorf("render limits: %w", intern.ErrForeignHandle)
		}

		if !limit.PerCategory() {
			doc[name] = tomlValue(limit.Number)

			continue
		}

		if collapsed, ok := collapse(limit.Categories); ok {
			doc[name] = tomlValue(collapsed)

			continue
		}

		table := make(map[string]any, len(limit.Categories))

		for category, threshold := range limit.Categories {
			if v, bounded := threshold.Value(); bounded && v == 0 {
				continue
			}

			table[category.Resolve(arena)] = tomlValue(threshold)
		}

		doc[name] = table
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encode limits: %w", err)
	}

	return buf.Bytes(), nil
}

// Write renders the declarations and persists them back to the path the
// file was read from.
func (f *File) Write(arena *intern.Arena) error {
	data, err := f.Render(arena)
	if err != nil {
		return err
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}

	return nil
}

// collapse decides whether a per-category map reduces to a single
// kind-wide threshold: either every value agrees (all-zero included), or
// exactly one non-zero entry survives zero-filtering.
func collapse(categories map[Category]Threshold) (Threshold, bool) {
	if len(categories) == 0 {
		return Bound(0), true
	}

	var (
		first    Threshold
		seen     bool
		allEqual = true
		nonZero  []Threshold
	)

	for _, threshold := range categories {
		if !seen {
			first, seen = threshold, true
		} else if threshold != first {
			allEqual = false
		}

		if v, bounded := threshold.Value(); !bounded || v != 0 {
			nonZero = append(nonZero, threshold)
		}
	}

	if allEqual {
		return first, true
	}

	if len(nonZero) == 1 {
		return nonZero[0], true
	}

	return Threshold{}, false
}

func tomlValue(t Threshold) any {
	if t.IsUnbounded() {
		return math.Inf(1)
	}

	value, _ := t.Value()

	return int64(value)
}

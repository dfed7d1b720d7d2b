// Package limits holds the in-memory model for limit declarations: the
// thresholds declared per warning kind (and optionally per category) in
// Limits.toml files, and the composite entries used to key counted
// warnings against those declarations.
package limits

// Limit is one declared bound for a kind: either a single threshold
// applying to every category, or a per-category breakdown. Per-category
// limits may only be declared for kinds whose regex captures a category.
type Limit struct {
	// Number is the kind-wide threshold; only meaningful when Categories
	// is nil.
	Number Threshold

	// Categories maps each declared category (possibly including the
	// wildcard) to its threshold. Non-nil means this is a per-category
	// limit.
	Categories map[Category]Threshold
}

// NumberLimit declares a single kind-wide threshold.
func NumberLimit(t Threshold) Limit {
	return Limit{Number: t}
}

// PerCategoryLimit declares a per-category breakdown.
func PerCategoryLimit(categories map[Category]Threshold) Limit {
	return Limit{Categories: categories}
}

// PerCategory reports whether the limit is a per-category breakdown.
func (l Limit) PerCategory() bool {
	return l.Categories != nil
}

// Entry uniquely identifies one threshold: the limit file that declared it
// (empty when no limit file applies), a kind, and a category. Entries with
// the wildcard category are distinct keys from specific-category entries;
// lookup misses on a specific entry fall back to the wildcard entry for
// the same (file, kind).
type Entry struct {
	File     string
	Kind     Kind
	Category Category
}

// NewEntry builds an entry.
func NewEntry(file string, kind Kind, category Category) Entry {
	return Entry{File: file, Kind: kind, Category: category}
}

// WithWildcard returns the wildcard-category entry for the same file and
// kind.
func (e Entry) WithWildcard() Entry {
	return Entry{File: e.File, Kind: e.Kind, Category: Wildcard()}
}

// Compare orders entries by file path, then kind, then category.
func (e Entry) Compare(other Entry) int {
	switch {
	case e.File < other.File:
		return -1
	case e.File > other.File:
		return 1
	}

	if c := e.Kind.Compare(other.Kind); c != 0 {
		return c
	}

	return e.Category.Compare(other.Category)
}

// File is the parsed contents of one on-disk limit declaration, mapping
// kind to limit, tied to the path it was found at. It is created at
// discovery time and may later be ratcheted down in place before being
// written back.
type File struct {
	path  string
	kinds map[Kind]Limit
}

// NewFile wraps parsed limit declarations.
func NewFile(path string, kinds map[Kind]Limit) *File {
	return &File{path: path, kinds: kinds}
}

// Path returns the filesystem location the declarations were read from.
func (f *File) Path() string {
	return f.path
}

// Limit returns the declared limit for kind.
func (f *File) Limit(kind Kind) (Limit, bool) {
	l, ok := f.kinds[kind]

	return l, ok
}

// Flatten merges every declaration of every file into a single
// entry-to-threshold map, the representation the threshold checker works
// against. Kind-wide limits flatten onto the wildcard-category entry.
func Flatten(files map[string]*File) map[Entry]Threshold {
	flat := make(map[Entry]Threshold)

	for path, file := range files {
		for kind, limit := range file.kinds {
			if !limit.PerCategory() {
				flat[NewEntry(path, kind, Wildcard())] = limit.Number

				continue
			}

			for category, threshold := range limit.Categories {
				flat[NewEntry(path, kind, category)] = threshold
			}
		}
	}

	return flat
}

package limits

import "github.com/warnlimit/warnlimit/internal/intern"

// WildcardName is how the wildcard category is spelled in limit files.
const WildcardName = "_"

// Category is a sub-classification of a warning within a Kind, e.g. a
// specific compiler flag like -Wunused-value. The wildcard category matches
// any category not explicitly declared. A specific category carries an
// interned handle and is only meaningful relative to the arena that issued
// it; use Remap before comparing across arenas.
type Category struct {
	wildcard bool
	id       intern.Handle
}

// CategoryOf wraps an interned handle as a specific category.
func CategoryOf(h intern.Handle) Category {
	return Category{id: h}
}

// Wildcard returns the wildcard category.
func Wildcard() Category {
	return Category{wildcard: true}
}

// ParseCategory interns name in arena, mapping the "_" spelling to the
// wildcard category.
func ParseCategory(name string, arena *intern.Arena) Category {
	if name == WildcardName {
		return Wildcard()
	}

	return CategoryOf(arena.GetOrInsert(name))
}

// IsWildcard reports whether c is the wildcard category.
func (c Category) IsWildcard() bool {
	return c.wildcard
}

// Resolve returns the category name, or "_" for the wildcard.
func (c Category) Resolve(arena *intern.Arena) string {
	if c.wildcard {
		return WildcardName
	}

	value, ok := arena.Lookup(c.id)
	if !ok {
		return "?"
	}

	return value
}

// Remap translates a specific category's handle from one arena to another.
// The wildcard carries no handle and passes through unchanged.
func (c Category) Remap(from, to *intern.Arena) (Category, error) {
	if c.wildcard {
		return c, nil
	}

	id, err := intern.Remap(c.id, from, to)
	if err != nil {
		return Category{}, err
	}

	return CategoryOf(id), nil
}

// Compare orders categories with the wildcard first, then by handle.
func (c Category) Compare(other Category) int {
	switch {
	case c.wildcard && other.wildcard:
		return 0
	case c.wildcard:
		return -1
	case other.wildcard:
		return 1
	case c.id < other.id:
		return -1
	case c.id > other.id:
		return 1
	default:
		return 0
	}
}

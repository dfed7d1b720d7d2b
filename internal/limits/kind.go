package limits

import "github.com/warnlimit/warnlimit/internal/intern"

// Kind identifies a family of warnings sharing one detection regex, e.g.
// one compiler or linter. Kind names are interned in the global arena at
// settings load time, so a Kind is valid for the whole run.
type Kind struct {
	id intern.Handle
}

// KindOf wraps an interned handle as a Kind.
func KindOf(h intern.Handle) Kind {
	return Kind{id: h}
}

// Resolve returns the kind's name as stored in arena.
func (k Kind) Resolve(arena *intern.Arena) (string, bool) {
	return arena.Lookup(k.id)
}

// Compare orders kinds by handle, i.e. by declaration order in the
// settings file.
func (k Kind) Compare(other Kind) int {
	switch {
	case k.id < other.id:
		return -1
	case k.id > other.id:
		return 1
	default:
		return 0
	}
}

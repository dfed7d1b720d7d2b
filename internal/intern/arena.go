// Package intern provides an append-only, searchable string arena.
//
// An Arena hands out stable integer handles for strings. Handles stay valid
// for the arena's whole lifetime and always resolve back to the string they
// were issued for. Arenas are not safe for concurrent use; the scan pipeline
// gives every task its own arena and merges them serially afterwards.
package intern

import (
	"errors"
	"fmt"
)

// Handle identifies a string inside one Arena. A Handle is only meaningful
// relative to the arena that issued it; moving it to another arena requires
// Remap.
type Handle int32

// ErrForeignHandle is returned when a handle is resolved against an arena
// that never issued it.
var ErrForeignHandle = errors.New("handle does not belong to this arena")

// ErrNotMerged is returned by Remap when the destination arena does not
// contain the handle's string. Call MergeFrom on the destination first.
var ErrNotMerged = errors.New("string not present in destination arena")

// Arena is a growable, append-only string store with reverse lookup.
// The zero value is not usable; construct with NewArena.
type Arena struct {
	values []string
	ids    map[string]Handle
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		ids: make(map[string]Handle),
	}
}

// Len reports the number of insertions, including duplicates made via Insert.
func (a *Arena) Len() int {
	return len(a.values)
}

// Insert appends value and returns its new handle. Insert does not
// deduplicate: inserting the same value twice yields two handles, both
// valid. The reverse mapping is overwritten to point at the latest handle,
// which is what makes GetOrInsert idempotent. Components performing merges
// must go through GetOrInsert, never Insert.
func (a *Arena) Insert(value string) Handle {
	id := Handle(len(a.values))
	a.values = append(a.values, value)
	a.ids[value] = id

	return id
}

// GetID returns the handle most recently associated with value.
func (a *Arena) GetID(value string) (Handle, bool) {
	id, ok := a.ids[value]

	return id, ok
}

// Lookup resolves a handle back to its string. It fails only for handles
// issued by a different arena.
func (a *Arena) Lookup(h Handle) (string, bool) {
	if h < 0 || int(h) >= len(a.values) {
		return "", false
	}

	return a.values[h], true
}

// GetOrInsert returns the existing handle for value, or inserts it. This is
// the standard entry point: unlike Insert it is idempotent.
func (a *Arena) GetOrInsert(value string) Handle {
	if id, ok := a.ids[value]; ok {
		return id
	}

	return a.Insert(value)
}

// MergeFrom copies every string of other into a, in other's insertion
// order, deduplicating via GetOrInsert. Handles are not copied; callers
// remap their own handles with Remap afterwards.
func (a *Arena) MergeFrom(other *Arena) {
	for _, value := range other.values {
		a.GetOrInsert(value)
	}
}

// Remap translates a handle issued by from into the equivalent handle in
// to. The destination must already contain the string, normally because
// to.MergeFrom(from) ran first.
func Remap(h Handle, from, to *Arena) (Handle, error) {
	value, ok := from.Lookup(h)
	if !ok {
		return 0, fmt.Errorf("remap handle %d: %w", h, ErrForeignHandle)
	}

	id, ok := to.GetID(value)
	if !ok {
		return 0, fmt.Errorf("remap %q: %w", value, ErrNotMerged)
	}

	return id, nil
}

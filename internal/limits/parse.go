package limits

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/warnlimit/warnlimit/internal/intern"
)

var (
	// ErrUnknownKind indicates a limit file refers to a kind the settings
	// never declared.
	ErrUnknownKind = errors.New("kind not declared in settings")

	// ErrBadThreshold indicates a limit value that is neither a
	// non-negative integer nor inf.
	ErrBadThreshold = errors.New("limit values must be a non-negative integer or inf")

	// ErrNotCategorizable indicates a per-category table for a kind whose
	// regex does not capture a category group.
	ErrNotCategorizable = errors.New("per-category limits require a regex capturing `category`")
)

// ParseFile reads and parses one Limits.toml file. Kind names are resolved
// against arena, which must already hold every declared kind; categories
// are interned into arena as they are seen. The categorizable set gates
// per-category tables.
func ParseFile(arena *intern.Arena, path string, categorizable map[Kind]bool) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read limits file: %w", err)
	}

	file, err := Parse(arena, string(data), categorizable)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	file.path = path

	return file, nil
}

// Parse parses limit declarations from TOML input. Each top-level key is a
// kind name mapping to either a single threshold or a per-category table.
func Parse(arena *intern.Arena, input string, categorizable map[Kind]bool) (*File, error) {
	var raw map[string]toml.Primitive

	md, err := toml.Decode(input, &raw)
	if err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	kinds := make(map[Kind]Limit, len(raw))

	for name, prim := range raw {
		id, ok := arena.GetID(name)
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownKind)
		}

		kind := KindOf(id)

		threshold, scalar, err := decodeThreshold(md, prim)
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", name, err)
		}

		if scalar {
			kinds[kind] = NumberLimit(threshold)

			continue
		}

		categories, err := decodeCategories(arena, md, prim)
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", name, err)
		}

		if !categorizable[kind] {
			return nil, fmt.Errorf("kind %q: %w", name, ErrNotCategorizable)
		}

		kinds[kind] = PerCategoryLimit(categories)
	}

	return &File{kinds: kinds}, nil
}

// decodeThreshold tries to read prim as a scalar threshold. A TOML integer
// must be non-negative; the only accepted float is +inf, which maps to the
// unbounded threshold. scalar is false when prim is not a scalar at all
// (i.e. a per-category table).
func decodeThreshold(md toml.MetaData, prim toml.Primitive) (Threshold, bool, error) {
	var n int64
	if md.PrimitiveDecode(prim, &n) == nil {
		if n < 0 {
			return Threshold{}, true, ErrBadThreshold
		}

		return Bound(uint64(n)), true, nil
	}

	var f float64
	if md.PrimitiveDecode(prim, &f) == nil {
		if !math.IsInf(f, 1) {
			return Threshold{}, true, ErrBadThreshold
		}

		return Unbounded(), true, nil
	}

	return Threshold{}, false, nil
}

func decodeCategories(arena *intern.Arena, md toml.MetaData, prim toml.Primitive) (map[Category]Threshold, error) {
	var table map[string]toml.Primitive
	if err := md.PrimitiveDecode(prim, &table); err != nil {
		return nil, ErrBadThreshold
	}

	categories := make(map[Category]Threshold, len(table))

	for name, catPrim := range table {
		threshold, scalar, err := decodeThreshold(md, catPrim)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}

		if !scalar {
			return nil, fmt.Errorf("category %q: %w", name, ErrBadThreshold)
		}

		categories[ParseCategory(name, arena)] = threshold
	}

	return categories, nil
}

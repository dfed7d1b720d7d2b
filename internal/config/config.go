// Package config loads the warnlimit settings file.
//
// The settings file (Warnlimit.toml by default) declares every kind of
// warning the run should look for. For each kind it carries a regular
// expression matching the warning, glob patterns selecting the log files
// to search, and an optional default threshold used when no limit file
// applies.
package config

import (
	"errors"
	"math"
	"regexp"

	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
)

// DefaultFileName is the settings file looked up under the start directory
// when --config is not given.
const DefaultFileName = "Warnlimit.toml"

// LimitsFileName is the per-directory limit declaration file discovered
// during the walk.
const LimitsFileName = "Limits.toml"

var (
	// ErrMissingRegex indicates a kind without a regex field.
	ErrMissingRegex = errors.New("missing regex")

	// ErrMissingFiles indicates a kind without glob patterns.
	ErrMissingFiles = errors.New("missing files")

	// ErrMissingFileCapture indicates a regex without the mandatory `file`
	// named capture group.
	ErrMissingFileCapture = errors.New("regex does not capture the required field `file`")

	// ErrBadDefault indicates a default threshold that is neither a
	// non-negative integer nor inf.
	ErrBadDefault = errors.New("default must be a non-negative integer or inf")
)

// KindConfig is the per-kind search configuration.
type KindConfig struct {
	// Regex detects one warning per match, compiled in multi-line mode.
	// It captures `file` (mandatory) and optionally `line`, `column`,
	// `category` and `description`.
	Regex *regexp.Regexp

	// Files are the glob patterns selecting relevant log files.
	Files []string

	// Default is the fallback threshold when no limit file covers a
	// culprit. The zero value means zero warnings allowed.
	Default limits.Threshold

	// Categorizable is true when Regex captures a `category` group, the
	// precondition for per-category limits.
	Categorizable bool
}

// Settings holds every declared kind together with the global string
// arena their names are interned in. The arena doubles as the run's
// global arena: scan results are merged into it during aggregation.
type Settings struct {
	arena   *intern.Arena
	kinds   map[limits.Kind]KindConfig
	ordered []limits.Kind
	ignored map[limits.Kind]bool
}

// Arena returns the global string arena.
func (s *Settings) Arena() *intern.Arena {
	return s.arena
}

// Kinds returns the active kinds in declaration order, skipping any kind
// excluded by RestrictTo.
func (s *Settings) Kinds() []limits.Kind {
	active := make([]limits.Kind, 0, len(s.ordered))

	for _, kind := range s.ordered {
		if !s.ignored[kind] {
			active = append(active, kind)
		}
	}

	return active
}

// Config returns the configuration for kind.
func (s *Settings) Config(kind limits.Kind) (KindConfig, bool) {
	cfg, ok := s.kinds[kind]

	return cfg, ok
}

// RestrictTo limits the run to the named kinds. Names that match no
// declared kind are ignored. An empty list clears the restriction.
func (s *Settings) RestrictTo(names []string) {
	s.ignored = make(map[limits.Kind]bool)

	if len(names) == 0 {
		return
	}

	wanted := make(map[limits.Kind]bool, len(names))

	for _, name := range names {
		if id, ok := s.arena.GetID(name); ok {
			wanted[limits.KindOf(id)] = true
		}
	}

	for _, kind := range s.ordered {
		if !wanted[kind] {
			s.ignored[kind] = true
		}
	}
}

// Categorizable returns the set of kinds whose regex captures a category.
func (s *Settings) Categorizable() map[limits.Kind]bool {
	set := make(map[limits.Kind]bool)

	for kind, cfg := range s.kinds {
		if cfg.Categorizable {
			set[kind] = true
		}
	}

	return set
}

// Defaults returns every kind's default threshold.
func (s *Settings) Defaults() map[limits.Kind]limits.Threshold {
	defaults := make(map[limits.Kind]limits.Threshold, len(s.kinds))

	for kind, cfg := range s.kinds {
		defaults[kind] = cfg.Default
	}

	return defaults
}

// Globs returns the glob patterns of every active kind.
func (s *Settings) Globs() map[limits.Kind][]string {
	globs := make(map[limits.Kind][]string)

	for _, kind := range s.Kinds() {
		globs[kind] = s.kinds[kind].Files
	}

	return globs
}

// parseDefault interprets the raw `default` value from the settings file.
// Absent means zero; inf means unbounded.
func parseDefault(value any) (limits.Threshold, error) {
	switch v := value.(type) {
	case nil:
		return limits.Bound(0), nil
	case int:
		if v < 0 {
			return limits.Threshold{}, ErrBadDefault
		}

		return limits.Bound(uint64(v)), nil
	case int64:
		if v < 0 {
			return limits.Threshold{}, ErrBadDefault
		}

		return limits.Bound(uint64(v)), nil
	case uint64:
		return limits.Bound(v), nil
	case float64:
		if math.IsInf(v, 1) {
			return limits.Unbounded(), nil
		}

		return limits.Threshold{}, ErrBadDefault
	default:
		return limits.Threshold{}, ErrBadDefault
	}
}

package scan

import (
	"path/filepath"
	"sort"
	"strings"
)

// Resolver finds the limit file responsible for a culprit file: the one
// whose parent directory is the nearest ancestor of the culprit. Matching
// is by path suffix, so a relative culprit still resolves against
// absolute limit-file paths as long as the trailing components line up.
//
// Lookups are memoized per culprit, since many warnings typically blame
// the same file. A Resolver is not safe for concurrent use; every scan
// task owns its own.
type Resolver struct {
	limitPaths []string
	cache      map[string]string
}

// NewResolver builds a resolver over the discovered limit-file paths. The
// paths are sorted so that a (pathological) tie at the same ancestor depth
// resolves deterministically.
func NewResolver(limitPaths []string) *Resolver {
	paths := make([]string, len(limitPaths))
	copy(paths, limitPaths)
	sort.Strings(paths)

	return &Resolver{
		limitPaths: paths,
		cache:      make(map[string]string),
	}
}

// FindLimitsFor returns the limit file covering culprit, walking the
// culprit's ancestor directories from nearest to furthest. ok is false
// when no ancestor holds a limit file; the caller then falls back to the
// kind's default threshold. The culprit must already use native path
// separators.
func (r *Resolver) FindLimitsFor(culprit string) (string, bool) {
	if cached, ok := r.cache[culprit]; ok {
		return cached, cached != ""
	}

	found := r.find(culprit)
	r.cache[culprit] = found

	return found, found != ""
}

func (r *Resolver) find(culprit string) string {
	for dir := culprit; ; {
		parent := filepath.Dir(dir)
		// The filesystem root and the relative-path top are excluded:
		// a limit file has to live somewhere specific.
		if parent == dir || dir == "." {
			return ""
		}

		for _, limitFile := range r.limitPaths {
			if dirHasSuffix(filepath.Dir(limitFile), dir) {
				return limitFile
			}
		}

		dir = parent
	}
}

// dirHasSuffix reports whether dir ends with the path components of
// suffix. Comparison is component-wise, never inside a component.
func dirHasSuffix(dir, suffix string) bool {
	d := strings.Split(filepath.ToSlash(dir), "/")
	s := strings.Split(filepath.ToSlash(suffix), "/")

	if len(s) > len(d) {
		return false
	}

	d = d[len(d)-len(s):]

	for i := range s {
		if d[i] != s[i] {
			return false
		}
	}

	return true
}

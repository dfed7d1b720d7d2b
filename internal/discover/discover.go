// Package discover walks the start directory looking for files of
// interest: per-directory Limits.toml declarations and log files matching
// the glob patterns registered for the configured warning kinds.
package discover

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/warnlimit/warnlimit/internal/config"
	"github.com/warnlimit/warnlimit/internal/limits"
)

// findingBuffer is the channel capacity between the walker and the
// consumer collecting findings.
const findingBuffer = 100

// Finding is one discovery result: either a limits file or a relevant log
// file.
type Finding interface {
	isFinding()
}

// LimitsFinding reports a Limits.toml declaration at an absolute path.
type LimitsFinding struct {
	Path string
}

// LogFinding reports a log file relevant to at least one kind. The same
// file may be scanned once per kind, each with its own regex.
type LogFinding struct {
	Path  string
	Kinds []limits.Kind
}

func (LimitsFinding) isFinding() {}
func (LogFinding) isFinding()    {}

// Walker traverses a directory tree and reports findings over a channel.
type Walker struct {
	root  string
	globs map[limits.Kind][]string
	order []limits.Kind
	log   *slog.Logger
}

// NewWalker builds a walker over root for the given per-kind glob
// patterns.
func NewWalker(root string, globs map[limits.Kind][]string, log *slog.Logger) *Walker {
	order := make([]limits.Kind, 0, len(globs))
	for kind := range globs {
		order = append(order, kind)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Compare(order[j]) < 0 })

	if log == nil {
		log = slog.Default()
	}

	return &Walker{root: root, globs: globs, order: order, log: log}
}

// Walk starts the traversal in a goroutine and returns the findings
// channel. The channel is closed when the walk finishes. Unreadable
// directory entries are logged and skipped.
func (w *Walker) Walk() <-chan Finding {
	findings := make(chan Finding, findingBuffer)

	go func() {
		defer close(findings)

		gi := loadGitignore(w.root)

		err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				w.log.Warn("skipping unreadable entry", "path", path, "error", err)

				return nil
			}

			name := d.Name()

			if d.IsDir() {
				if path != w.root && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}

				return nil
			}

			rel, err := filepath.Rel(w.root, path)
			if err != nil {
				return nil
			}

			if gi != nil && gi.MatchesPath(rel) {
				return nil
			}

			w.processFile(findings, path, rel, name)

			return nil
		})
		if err != nil {
			w.log.Warn("walk aborted", "root", w.root, "error", err)
		}
	}()

	return findings
}

// processFile classifies one regular file and emits a finding if it is of
// interest. Paths are canonicalized to absolute form so limit-file
// resolution and reporting agree on a single spelling.
func (w *Walker) processFile(findings chan<- Finding, path, rel, name string) {
	if name == config.LimitsFileName {
		findings <- LimitsFinding{Path: canonicalize(path)}

		return
	}

	matched := w.matchingKinds(rel)
	if len(matched) == 0 {
		return
	}

	findings <- LogFinding{Path: canonicalize(path), Kinds: matched}
}

func (w *Walker) matchingKinds(rel string) []limits.Kind {
	slashed := filepath.ToSlash(rel)

	var matched []limits.Kind

	for _, kind := range w.order {
		for _, pattern := range w.globs[kind] {
			ok, err := doublestar.Match(pattern, slashed)
			if err != nil {
				w.log.Warn("bad glob pattern", "pattern", pattern, "error", err)

				continue
			}

			if ok {
				matched = append(matched, kind)

				break
			}
		}
	}

	return matched
}

func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}

	return gi
}

// Package scan searches log files for warnings in parallel.
//
// Every discovered log file is read once; for each kind whose globs
// matched it, a task applies that kind's regex to the shared contents.
// Tasks share no mutable state: each owns a private string arena and a
// private result map, merged serially by the aggregator afterwards.
package scan

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warnlimit/warnlimit/internal/config"
	"github.com/warnlimit/warnlimit/internal/discover"
	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
	"github.com/warnlimit/warnlimit/internal/warnings"
)

// tracerName is the default OTel tracer name for the scan pipeline.
const tracerName = "warnlimit"

// resultBuffer is the capacity of the channel between scan tasks and the
// aggregator.
const resultBuffer = 100

// CaptureError reports a line or column capture that was not a positive
// number. It is fatal to the whole run: a regex that captures garbage
// positions is a configuration problem, not something to skip silently.
type CaptureError struct {
	Group string
	Value string
	Log   string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture for `%s` in %s was not a positive number: %q", e.Group, e.Log, e.Value)
}

// Result is the outcome of one scan task. Category and description
// handles inside Warnings reference the task-local Arena and must be
// remapped when merged into the global arena.
type Result struct {
	Arena    *intern.Arena
	Warnings map[limits.Entry]warnings.Set
}

// FileResult carries either a task result or the error that replaced it.
// Read failures are recoverable (the file's contributions are skipped);
// a CaptureError aborts the run.
type FileResult struct {
	Path string
	Res  *Result
	Err  error
}

// Engine runs the parallel scan.
type Engine struct {
	// Settings supplies the per-kind regexes.
	Settings *config.Settings

	// LimitPaths are the discovered limit-file locations, used to resolve
	// each culprit to its responsible limit file.
	LimitPaths []string

	// Workers caps the number of log files read concurrently. Zero means
	// unbounded fan-out, one task per (file, kind) pair.
	Workers int

	// Tracer is the OTel tracer for pipeline spans. When nil, falls back
	// to otel.Tracer("warnlimit").
	Tracer trace.Tracer
}

// Scan fans out over the given log files and returns the results channel,
// closed when every task finished. Results arrive in completion order;
// the aggregator's merge is commutative, so ordering does not matter.
func (e *Engine) Scan(ctx context.Context, logs []discover.LogFinding) <-chan FileResult {
	results := make(chan FileResult, resultBuffer)

	go func() {
		defer close(results)

		_, span := e.tracer().Start(ctx, "warnlimit.scan",
			trace.WithAttributes(attribute.Int("scan.log_files", len(logs))))
		defer span.End()

		var sem chan struct{}
		if e.Workers > 0 {
			sem = make(chan struct{}, e.Workers)
		}

		var wg sync.WaitGroup

		for _, logFile := range logs {
			wg.Add(1)

			go func(logFile discover.LogFinding) {
				defer wg.Done()

				if sem != nil {
					sem <- struct{}{}
					defer func() { <-sem }()
				}

				e.scanLog(logFile, results)
			}(logFile)
		}

		wg.Wait()
	}()

	return results
}

// scanLog reads one log file and fans out one task per relevant kind, all
// sharing the immutable contents.
func (e *Engine) scanLog(logFile discover.LogFinding, results chan<- FileResult) {
	data, err := os.ReadFile(logFile.Path)
	if err != nil {
		results <- FileResult{Path: logFile.Path, Err: fmt.Errorf("read log file: %w", err)}

		return
	}

	contents := string(data)

	var wg sync.WaitGroup

	for _, kind := range logFile.Kinds {
		cfg, ok := e.Settings.Config(kind)
		if !ok {
			continue
		}

		wg.Add(1)

		go func(kind limits.Kind, re *regexp.Regexp) {
			defer wg.Done()

			res, err := e.scanKind(kind, re, contents, logFile.Path)
			if err != nil {
				results <- FileResult{Path: logFile.Path, Err: err}

				return
			}

			results <- FileResult{Path: logFile.Path, Res: res}
		}(kind, cfg.Regex)
	}

	wg.Wait()
}

// captureIndexes caches the positions of the named groups the warning
// contract defines. file is mandatory (validated at settings load);
// the rest are -1 when the regex does not declare them.
type captureIndexes struct {
	file        int
	line        int
	column      int
	category    int
	description int
}

func indexesFor(re *regexp.Regexp) captureIndexes {
	return captureIndexes{
		file:        re.SubexpIndex("file"),
		line:        re.SubexpIndex("line"),
		column:      re.SubexpIndex("column"),
		category:    re.SubexpIndex("category"),
		description: re.SubexpIndex("description"),
	}
}

func (e *Engine) scanKind(kind limits.Kind, re *regexp.Regexp, contents, logPath string) (*Result, error) {
	res := &Result{
		Arena:    intern.NewArena(),
		Warnings: make(map[limits.Entry]warnings.Set),
	}

	resolver := NewResolver(e.LimitPaths)
	idx := indexesFor(re)

	for _, match := range re.FindAllStringSubmatchIndex(contents, -1) {
		culprit, ok := group(contents, match, idx.file)
		if !ok {
			continue
		}

		culprit = normalizeSeparators(culprit)

		line, err := position(contents, match, idx.line, "line", logPath)
		if err != nil {
			return nil, err
		}

		column, err := position(contents, match, idx.column, "column", logPath)
		if err != nil {
			return nil, err
		}

		category := limits.Wildcard()
		if text, ok := group(contents, match, idx.category); ok {
			category = limits.CategoryOf(res.Arena.GetOrInsert(text))
		}

		description := warnings.NoDescription()
		if text, ok := group(contents, match, idx.description); ok {
			description = warnings.Describe(res.Arena.GetOrInsert(text))
		}

		limitsPath, found := resolver.FindLimitsFor(culprit)

		// Without a covering limit file the entry keys on the wildcard:
		// there are no declared categories to match against.
		entryCategory := category
		if !found {
			entryCategory = limits.Wildcard()
		}

		entry := limits.NewEntry(limitsPath, kind, entryCategory)

		set, ok := res.Warnings[entry]
		if !ok {
			set = warnings.NewSet()
			res.Warnings[entry] = set
		}

		set.Add(warnings.Occurrence{
			Culprit:     culprit,
			Line:        line,
			Column:      column,
			Kind:        kind,
			Category:    category,
			Description: description,
		})
	}

	return res, nil
}

// group extracts a named capture from an index-form match. ok is false
// when the group is undeclared or did not participate in the match.
func group(contents string, match []int, idx int) (string, bool) {
	if idx < 0 || match[2*idx] < 0 {
		return "", false
	}

	return contents[match[2*idx]:match[2*idx+1]], true
}

// position parses an optional 1-based line/column capture. Zero means the
// group did not participate. A capture that participated but is not a
// positive number is a fatal CaptureError.
func position(contents string, match []int, idx int, name, logPath string) (int, error) {
	text, ok := group(contents, match, idx)
	if !ok {
		return 0, nil
	}

	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, &CaptureError{Group: name, Value: text, Log: logPath}
	}

	return n, nil
}

// normalizeSeparators rewrites foreign backslash separators to the slash
// form before the culprit ever reaches the resolver.
func normalizeSeparators(path string) string {
	return strings.ReplaceAll(path, `\`, `/`)
}

func (e *Engine) tracer() trace.Tracer {
	if e.Tracer != nil {
		return e.Tracer
	}

	return otel.Tracer(tracerName)
}

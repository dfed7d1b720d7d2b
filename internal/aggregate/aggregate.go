// Package aggregate merges per-task scan results into a single global
// arena and a single warning-occurrence multiset.
//
// Merging runs on one goroutine after the parallel scans: set union and
// get-or-insert are commutative and idempotent, so completion order does
// not matter, and confining mutation here keeps the whole pipeline free
// of locks.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
	"github.com/warnlimit/warnlimit/internal/scan"
	"github.com/warnlimit/warnlimit/internal/warnings"
)

// tracerName is the default OTel tracer name for aggregation spans.
const tracerName = "warnlimit"

// Collector owns the global arena during the merge phase.
type Collector struct {
	// Arena is the run's global arena, normally the settings arena so
	// kind handles stay valid. Only the collector mutates it.
	Arena *intern.Arena

	// Log receives skipped-file diagnostics. When nil, slog.Default is
	// used.
	Log *slog.Logger

	// Tracer is the OTel tracer for the merge span. When nil, falls back
	// to otel.Tracer("warnlimit").
	Tracer trace.Tracer
}

// Gather drains the scan results channel, merging every task's local
// arena and warnings into the global state. Unreadable log files were
// already turned into recoverable errors by the scanner: they are logged
// and skipped. A CaptureError aborts aggregation.
func (c *Collector) Gather(ctx context.Context, results <-chan scan.FileResult) (map[limits.Entry]warnings.Set, error) {
	_, span := c.tracer().Start(ctx, "warnlimit.aggregate")
	defer span.End()

	merged := make(map[limits.Entry]warnings.Set)

	for fileResult := range results {
		if fileResult.Err != nil {
			var capErr *scan.CaptureError
			if errors.As(fileResult.Err, &capErr) {
				// Leave the remaining tasks free to finish sending.
				go drain(results)

				return nil, fileResult.Err
			}

			c.log().Warn("skipping log file", "path", fileResult.Path, "error", fileResult.Err)

			continue
		}

		if err := c.merge(merged, fileResult.Res); err != nil {
			go drain(results)

			return nil, fmt.Errorf("merge results for %s: %w", fileResult.Path, err)
		}
	}

	span.SetAttributes(attribute.Int("aggregate.entries", len(merged)))

	return merged, nil
}

// merge folds one task result into the merged map, remapping every
// interned handle from the task-local arena to the global one. The set
// union deduplicates occurrences that two tasks both observed.
func (c *Collector) merge(into map[limits.Entry]warnings.Set, res *scan.Result) error {
	c.Arena.MergeFrom(res.Arena)

	for entry, set := range res.Warnings {
		category, err := entry.Category.Remap(res.Arena, c.Arena)
		if err != nil {
			return err
		}

		entry.Category = category

		target, ok := into[entry]
		if !ok {
			target = warnings.NewSet()
			into[entry] = target
		}

		for occurrence := range set {
			remapped, err := occurrence.Remap(res.Arena, c.Arena)
			if err != nil {
				return err
			}

			target.Add(remapped)
		}
	}

	return nil
}

// RemapToDeclared is the reconciliation pass after aggregation.
// Occurrences were keyed by their observed category, but the declared
// limits may only cover a subset of categories plus a wildcard. Every
// entry with no exact declared counterpart is re-keyed to the
// wildcard-category entry for the same (file, kind) when that is
// declared; otherwise it stays as-is and later resolves against the
// kind default. The pass is idempotent, and occurrence sets merge when
// several observed categories collapse onto one wildcard entry.
func RemapToDeclared(
	declared map[limits.Entry]limits.Threshold,
	found map[limits.Entry]warnings.Set,
) map[limits.Entry]warnings.Set {
	out := make(map[limits.Entry]warnings.Set, len(found))

	for entry, set := range found {
		key := entry

		if _, ok := declared[entry]; !ok {
			if _, ok := declared[entry.WithWildcard()]; ok {
				key = entry.WithWildcard()
			}
		}

		target, ok := out[key]
		if !ok {
			target = warnings.NewSet()
			out[key] = target
		}

		target.Extend(set)
	}

	return out
}

func (c *Collector) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}

	return slog.Default()
}

func (c *Collector) tracer() trace.Tracer {
	if c.Tracer != nil {
		return c.Tracer
	}

	return otel.Tracer(tracerName)
}

func drain(results <-chan scan.FileResult) {
	for range results {
	}
}

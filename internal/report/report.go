// Package report renders the final tally for humans: entry counts, the
// offending occurrences behind them, and the closing violation summary.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
	"github.com/warnlimit/warnlimit/internal/warnings"
)

const (
	// maxPathComponents is the display cutoff: longer limit-file paths are
	// shortened to their trailing shownPathComponents.
	maxPathComponents   = 5
	shownPathComponents = 4

	// noLimitsFile marks entries that never resolved to a Limits.toml.
	noLimitsFile = "_"

	// absentPosition replaces a line or column the regex did not capture.
	absentPosition = "?"
)

// Renderer writes the run outcome. Verbosity 0 prints only the closing
// summary, 1 adds one line per violation, 2 additionally lists
// non-violations, each violation's occurrences and a tally table.
type Renderer struct {
	Out       io.Writer
	ErrOut    io.Writer
	Arena     *intern.Arena
	Verbosity int
}

// Render prints the tally according to the renderer's verbosity and
// returns the number of violations.
func (r *Renderer) Render(tally *warnings.Tally, results map[limits.Entry]warnings.Set) int {
	violations := tally.Violations()

	if r.Verbosity >= 2 {
		for _, count := range tally.NonViolations() {
			color.New(color.FgGreen).Fprintln(r.Out, r.FormatEntryCount(count))
		}
	}

	if r.Verbosity >= 1 {
		for _, count := range violations {
			color.New(color.FgRed).Fprintln(r.Out, r.FormatEntryCount(count))

			if r.Verbosity >= 2 {
				for _, occurrence := range results[count.Entry].Sorted() {
					fmt.Fprintf(r.Out, "  => %s\n", r.FormatOccurrence(occurrence))
				}
			}
		}
	}

	if r.Verbosity >= 2 {
		r.renderTable(tally)
	}

	if len(violations) > 0 {
		color.New(color.FgRed).Fprintf(
			r.ErrOut,
			"Found %s violations against specified limits.\n",
			humanize.Comma(int64(len(violations))),
		)
	}

	return len(violations)
}

// FormatEntryCount renders one entry count the way the violation list
// shows it: `<file>:[<kind>/<category>] (<actual> > <threshold>)`, with
// `<=` for counts within bounds and `< inf` for unbounded thresholds.
func (r *Renderer) FormatEntryCount(count warnings.EntryCount) string {
	entry := r.FormatEntry(count.Entry)

	bound, ok := count.Threshold.Value()
	if !ok {
		return fmt.Sprintf("%s (%d < inf)", entry, count.Actual)
	}

	cmp := "<="
	if count.IsViolation() {
		cmp = ">"
	}

	return fmt.Sprintf("%s (%d %s %d)", entry, count.Actual, cmp, bound)
}

// FormatEntry renders `<file>:[<kind>/<category>]`, shortening deep
// limit-file paths to their trailing components.
func (r *Renderer) FormatEntry(entry limits.Entry) string {
	file := noLimitsFile
	if entry.File != "" {
		file = truncatePath(entry.File)
	}

	return fmt.Sprintf("%s:[%s/%s]", file, r.kindName(entry.Kind), entry.Category.Resolve(r.Arena))
}

// FormatOccurrence renders `culprit:line:column`, appending the
// description and `[category]` when present. Missing positions show as
// `?`.
func (r *Renderer) FormatOccurrence(o warnings.Occurrence) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s:%s:%s", o.Culprit, position(o.Line), position(o.Column))

	if desc, ok := o.Description.Resolve(r.Arena); ok {
		fmt.Fprintf(&b, ": %s", desc)
	}

	if !o.Category.IsWildcard() {
		fmt.Fprintf(&b, " [%s]", o.Category.Resolve(r.Arena))
	}

	return b.String()
}

// renderTable prints the whole tally as one table, violations and
// non-violations alike, in the tally's sorted order.
func (r *Renderer) renderTable(tally *warnings.Tally) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(r.Out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"File", "Kind", "Category", "Actual", "Limit"})

	rows := make([]warnings.EntryCount, 0, len(tally.Violations())+len(tally.NonViolations()))
	rows = append(rows, tally.Violations()...)
	rows = append(rows, tally.NonViolations()...)

	for _, count := range rows {
		file := noLimitsFile
		if count.Entry.File != "" {
			file = truncatePath(count.Entry.File)
		}

		tbl.AppendRow(table.Row{
			file,
			r.kindName(count.Entry.Kind),
			count.Entry.Category.Resolve(r.Arena),
			humanize.Comma(int64(count.Actual)),
			count.Threshold.String(),
		})
	}

	tbl.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d violations", len(tally.Violations()))})
	tbl.Render()
}

func (r *Renderer) kindName(k limits.Kind) string {
	name, ok := k.Resolve(r.Arena)
	if !ok {
		return "?"
	}

	return name
}

func position(v int) string {
	if v <= 0 {
		return absentPosition
	}

	return fmt.Sprintf("%d", v)
}

// truncatePath keeps paths readable in reports: anything deeper than
// maxPathComponents is cut down to its last shownPathComponents behind
// an ellipsis component.
func truncatePath(path string) string {
	slashed := filepath.ToSlash(path)

	parts := make([]string, 0, strings.Count(slashed, "/")+1)
	for _, part := range strings.Split(slashed, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}

	count := len(parts)
	if strings.HasPrefix(slashed, "/") {
		count++
	}

	if count <= maxPathComponents {
		return path
	}

	return filepath.FromSlash(".../" + strings.Join(parts[len(parts)-shownPathComponents:], "/"))
}

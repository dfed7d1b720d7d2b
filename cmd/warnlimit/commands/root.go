// Package commands implements the CLI command handlers for warnlimit.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warnlimit/warnlimit/internal/aggregate"
	"github.com/warnlimit/warnlimit/internal/config"
	"github.com/warnlimit/warnlimit/internal/discover"
	"github.com/warnlimit/warnlimit/internal/limits"
	"github.com/warnlimit/warnlimit/internal/report"
	"github.com/warnlimit/warnlimit/internal/scan"
	"github.com/warnlimit/warnlimit/internal/warnings"
)

// ErrLimitsExceeded is returned when at least one warning count exceeded
// its declared limit. The violation list has already been printed; main
// translates this into a non-zero exit without further output.
var ErrLimitsExceeded = errors.New("warning limits exceeded")

// RootCommand holds the flag state for the single warnlimit command.
type RootCommand struct {
	startDir     string
	configFile   string
	verbosity    int
	updateLimits bool
	kinds        []string
	workers      int
	noColor      bool
}

// NewRootCommand creates the warnlimit root command.
func NewRootCommand() *cobra.Command {
	rc := &RootCommand{}

	cmd := &cobra.Command{
		Use:   "warnlimit",
		Short: "Count warnings in log files and check them against limits",
		Long: `warnlimit scans build and tool logs for warning-like messages,
maps every occurrence to the nearest Limits.toml in the source tree, and
fails when observed counts exceed the declared limits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	cmd.Flags().StringVar(&rc.startDir, "start", "", "Directory to search (default: current directory)")
	cmd.Flags().StringVar(&rc.configFile, "config", "", "Settings file (default: <start>/"+config.DefaultFileName+")")
	cmd.Flags().CountVarP(&rc.verbosity, "verbose", "v", "Be more verbose (add more for more)")
	cmd.Flags().BoolVar(&rc.updateLimits, "update-limits", false,
		"Update "+config.LimitsFileName+" files with lower values if no violations were found")
	cmd.Flags().StringSliceVar(&rc.kinds, "kind", nil, "Restrict the run to the named warning kinds (repeatable)")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Cap on concurrent log scans (0 = unbounded)")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *RootCommand) run(cmd *cobra.Command, _ []string) error {
	color.NoColor = rc.noColor //nolint:reassign // intentional override of library global

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: rc.logLevel(),
	}))

	start, err := rc.resolveStart()
	if err != nil {
		return err
	}

	settings, err := config.Load(rc.resolveConfig(start))
	if err != nil {
		return err
	}

	if len(rc.kinds) > 0 {
		settings.RestrictTo(rc.kinds)
	}

	logger.Debug("settings loaded", "kinds", len(settings.Kinds()))

	limitFiles, logs, err := rc.discoverInputs(start, settings, logger)
	if err != nil {
		return err
	}

	logger.Debug("discovery finished", "limit_files", len(limitFiles), "log_files", len(logs))

	engine := &scan.Engine{
		Settings:   settings,
		LimitPaths: sortedPaths(limitFiles),
		Workers:    rc.workers,
	}

	collector := &aggregate.Collector{Arena: settings.Arena(), Log: logger}

	merged, err := collector.Gather(cmd.Context(), engine.Scan(cmd.Context(), logs))
	if err != nil {
		return err
	}

	flat := limits.Flatten(limitFiles)
	results := aggregate.RemapToDeclared(flat, merged)
	tally := warnings.Check(flat, results, settings.Defaults())

	renderer := &report.Renderer{
		Out:       cmd.OutOrStdout(),
		ErrOut:    cmd.ErrOrStderr(),
		Arena:     settings.Arena(),
		Verbosity: rc.verbosity,
	}

	if violations := renderer.Render(tally, results); violations > 0 {
		return ErrLimitsExceeded
	}

	if rc.updateLimits {
		return rc.ratchetLimits(cmd, settings, limitFiles, tally)
	}

	return nil
}

// discoverInputs walks the start directory once, parsing every limits
// file as it is found and collecting the log files to scan.
func (rc *RootCommand) discoverInputs(
	start string,
	settings *config.Settings,
	logger *slog.Logger,
) (map[string]*limits.File, []discover.LogFinding, error) {
	limitFiles := make(map[string]*limits.File)

	var logs []discover.LogFinding

	walker := discover.NewWalker(start, settings.Globs(), logger)
	for finding := range walker.Walk() {
		switch f := finding.(type) {
		case discover.LimitsFinding:
			file, err := limits.ParseFile(settings.Arena(), f.Path, settings.Categorizable())
			if err != nil {
				return nil, nil, fmt.Errorf("parse %s: %w", f.Path, err)
			}

			limitFiles[f.Path] = file
		case discover.LogFinding:
			logs = append(logs, f)
		}
	}

	return limitFiles, logs, nil
}

// ratchetLimits rewrites limit files whose declared bounds sit above the
// counts actually observed. It only ever lowers bounds and only runs
// after a violation-free run.
func (rc *RootCommand) ratchetLimits(
	cmd *cobra.Command,
	settings *config.Settings,
	limitFiles map[string]*limits.File,
	tally *warnings.Tally,
) error {
	changed := make(map[string]bool)

	for _, count := range tally.NonViolations() {
		entry := count.Entry
		if entry.File == "" {
			continue
		}

		file, ok := limitFiles[entry.File]
		if !ok {
			continue
		}

		if file.Ratchet(entry, count.Actual) {
			changed[entry.File] = true
		}
	}

	for _, path := range sortedKeys(changed) {
		fmt.Fprintf(cmd.OutOrStdout(), "Updating `%s`\n", path)

		if err := limitFiles[path].Write(settings.Arena()); err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
	}

	return nil
}

func (rc *RootCommand) resolveStart() (string, error) {
	if rc.startDir != "" {
		return rc.startDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	return cwd, nil
}

func (rc *RootCommand) resolveConfig(start string) string {
	if rc.configFile != "" {
		return rc.configFile
	}

	return filepath.Join(start, config.DefaultFileName)
}

func (rc *RootCommand) logLevel() slog.Level {
	switch {
	case rc.verbosity >= 2:
		return slog.LevelDebug
	case rc.verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func sortedPaths(limitFiles map[string]*limits.File) []string {
	return sortedKeys(limitFiles)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

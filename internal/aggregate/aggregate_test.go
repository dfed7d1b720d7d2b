package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warnlimit/warnlimit/internal/aggregate"
	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
	"github.com/warnlimit/warnlimit/internal/scan"
	"github.com/warnlimit/warnlimit/internal/warnings"
)

// taskResult builds one task-local result: its own arena, one entry for
// the given kind and category names, and the given occurrences keyed by
// culprit path. Kind handles come from the shared global arena, the way
// the scanner issues them from the settings arena.
func taskResult(t *testing.T, kind limits.Kind, categoryName string, culprits ...string) *scan.Result {
	t.Helper()

	arena := intern.NewArena()
	category := limits.ParseCategory(categoryName, arena)
	entry := limits.NewEntry("", kind, category)

	set := warnings.NewSet()
	for _, culprit := range culprits {
		set.Add(warnings.Occurrence{
			Culprit:     culprit,
			Line:        1,
			Kind:        kind,
			Category:    category,
			Description: warnings.NoDescription(),
		})
	}

	return &scan.Result{
		Arena:    arena,
		Warnings: map[limits.Entry]warnings.Set{entry: set},
	}
}

func results(rs ...scan.FileResult) <-chan scan.FileResult {
	ch := make(chan scan.FileResult, len(rs))
	for _, r := range rs {
		ch <- r
	}
	close(ch)

	return ch
}

func TestGather_TwoTasks_MergesIntoGlobalArena(t *testing.T) {
	t.Parallel()

	global := intern.NewArena()
	gcc := limits.KindOf(global.GetOrInsert("gcc"))
	collector := &aggregate.Collector{Arena: global}

	merged, err := collector.Gather(context.Background(), results(
		scan.FileResult{Path: "a.log", Res: taskResult(t, gcc, "-Wpedantic", "src/main.c")},
		scan.FileResult{Path: "b.log", Res: taskResult(t, gcc, "-Wpedantic", "src/other.c")},
	))
	require.NoError(t, err)

	// Both tasks named the same kind and category, so their entries
	// collapse to one key in the global arena.
	require.Len(t, merged, 1)

	for entry, set := range merged {
		name, ok := entry.Kind.Resolve(global)
		require.True(t, ok)
		assert.Equal(t, "gcc", name)
		assert.Equal(t, "-Wpedantic", entry.Category.Resolve(global))
		assert.Len(t, set, 2)
	}
}

func TestGather_SameOccurrenceTwice_Deduplicates(t *testing.T) {
	t.Parallel()

	global := intern.NewArena()
	gcc := limits.KindOf(global.GetOrInsert("gcc"))
	collector := &aggregate.Collector{Arena: global}

	merged, err := collector.Gather(context.Background(), results(
		scan.FileResult{Path: "a.log", Res: taskResult(t, gcc, "-Wpedantic", "src/main.c")},
		scan.FileResult{Path: "b.log", Res: taskResult(t, gcc, "-Wpedantic", "src/main.c")},
	))
	require.NoError(t, err)

	require.Len(t, merged, 1)

	for _, set := range merged {
		assert.Len(t, set, 1)
	}
}

func TestGather_CaptureError_Aborts(t *testing.T) {
	t.Parallel()

	global := intern.NewArena()
	gcc := limits.KindOf(global.GetOrInsert("gcc"))
	collector := &aggregate.Collector{Arena: global}

	capture := &scan.CaptureError{Group: "line", Value: "0", Log: "a.log"}

	merged, err := collector.Gather(context.Background(), results(
		scan.FileResult{Path: "a.log", Err: capture},
		scan.FileResult{Path: "b.log", Res: taskResult(t, gcc, "-Wpedantic", "src/main.c")},
	))
	require.ErrorAs(t, err, &capture)
	assert.Nil(t, merged)
}

func TestGather_UnreadableFile_SkippedNotFatal(t *testing.T) {
	t.Parallel()

	global := intern.NewArena()
	gcc := limits.KindOf(global.GetOrInsert("gcc"))
	collector := &aggregate.Collector{Arena: global}

	merged, err := collector.Gather(context.Background(), results(
		scan.FileResult{Path: "gone.log", Err: assert.AnError},
		scan.FileResult{Path: "b.log", Res: taskResult(t, gcc, "-Wpedantic", "src/main.c")},
	))
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestRemapToDeclared_UndeclaredCategory_FallsBackToWildcard(t *testing.T) {
	t.Parallel()

	arena := intern.NewArena()
	gcc := limits.KindOf(arena.GetOrInsert("gcc"))
	pedantic := limits.ParseCategory("-Wpedantic", arena)
	unused := limits.ParseCategory("-Wunused", arena)

	wildcardEntry := limits.NewEntry("Limits.toml", gcc, limits.Wildcard())
	declared := map[limits.Entry]limits.Threshold{
		wildcardEntry: limits.Bound(1),
	}

	found := map[limits.Entry]warnings.Set{
		limits.NewEntry("Limits.toml", gcc, pedantic): warnings.NewSet(
			warnings.Occurrence{Culprit: "a.c", Kind: gcc, Category: pedantic},
		),
		limits.NewEntry("Limits.toml", gcc, unused): warnings.NewSet(
			warnings.Occurrence{Culprit: "b.c", Kind: gcc, Category: unused},
		),
	}

	remapped := aggregate.RemapToDeclared(declared, found)

	// Both observed categories collapse onto the declared wildcard
	// entry, and their sets merge.
	require.Len(t, remapped, 1)
	assert.Len(t, remapped[wildcardEntry], 2)
}

func TestRemapToDeclared_DeclaredCategory_KeepsExactEntry(t *testing.T) {
	t.Parallel()

	arena := intern.NewArena()
	gcc := limits.KindOf(arena.GetOrInsert("gcc"))
	pedantic := limits.ParseCategory("-Wpedantic", arena)

	exact := limits.NewEntry("Limits.toml", gcc, pedantic)
	declared := map[limits.Entry]limits.Threshold{
		exact: limits.Bound(2),
		limits.NewEntry("Limits.toml", gcc, limits.Wildcard()): limits.Bound(0),
	}

	found := map[limits.Entry]warnings.Set{
		exact: warnings.NewSet(warnings.Occurrence{Culprit: "a.c", Kind: gcc, Category: pedantic}),
	}

	remapped := aggregate.RemapToDeclared(declared, found)

	require.Len(t, remapped, 1)
	assert.Len(t, remapped[exact], 1)
}

func TestRemapToDeclared_NothingDeclared_KeepsObservedEntry(t *testing.T) {
	t.Parallel()

	arena := intern.NewArena()
	gcc := limits.KindOf(arena.GetOrInsert("gcc"))
	pedantic := limits.ParseCategory("-Wpedantic", arena)

	observed := limits.NewEntry("", gcc, pedantic)
	found := map[limits.Entry]warnings.Set{
		observed: warnings.NewSet(warnings.Occurrence{Culprit: "a.c", Kind: gcc, Category: pedantic}),
	}

	remapped := aggregate.RemapToDeclared(nil, found)

	require.Len(t, remapped, 1)
	assert.Len(t, remapped[observed], 1)
}

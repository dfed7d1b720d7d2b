package limits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warnlimit/warnlimit/internal/limits"
)

func TestRatchet_LowersNumberLimit(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	file, err := limits.Parse(arena, "gcc = 10", nil)
	require.NoError(t, err)

	changed := file.Ratchet(limits.NewEntry("", gcc, limits.Wildcard()), 4)
	require.True(t, changed)

	limit, _ := file.Limit(gcc)
	assert.Equal(t, limits.Bound(4), limit.Number)
}

func TestRatchet_NeverRaises(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	file, err := limits.Parse(arena, "gcc = 2", nil)
	require.NoError(t, err)

	assert.False(t, file.Ratchet(limits.NewEntry("", gcc, limits.Wildcard()), 5))
	assert.False(t, file.Ratchet(limits.NewEntry("", gcc, limits.Wildcard()), 2))

	limit, _ := file.Limit(gcc)
	assert.Equal(t, limits.Bound(2), limit.Number)
}

func TestRatchet_LeavesUnboundedAlone(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	file, err := limits.Parse(arena, "gcc = inf", nil)
	require.NoError(t, err)

	assert.False(t, file.Ratchet(limits.NewEntry("", gcc, limits.Wildcard()), 1))

	limit, _ := file.Limit(gcc)
	assert.True(t, limit.Number.IsUnbounded())
}

func TestRatchet_LowersPerCategoryEntry(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 7
_ = 3
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	badCodeID, _ := arena.GetID("-Wbad-code")
	category := limits.CategoryOf(badCodeID)

	require.True(t, file.Ratchet(limits.NewEntry("", gcc, category), 5))

	limit, _ := file.Limit(gcc)
	assert.Equal(t, limits.Bound(5), limit.Categories[category])
	assert.Equal(t, limits.Bound(3), limit.Categories[limits.Wildcard()])
}

func TestRender_AllZeroCategories_CollapseToKindZero(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 0
-Wpedantic = 0
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	out, err := file.Render(arena)
	require.NoError(t, err)
	assert.Equal(t, "gcc = 0\n", string(out))
}

func TestRender_SingleSurvivorCollapsesToKindNumber(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 0
-Wpedantic = 4
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	out, err := file.Render(arena)
	require.NoError(t, err)
	assert.Equal(t, "gcc = 4\n", string(out))
}

func TestRender_MixedCategories_KeepsTableWithoutZeros(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 1
-Wpedantic = 4
-Wunused = 0
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	out, err := file.Render(arena)
	require.NoError(t, err)

	rendered := string(out)
	assert.Contains(t, rendered, "[gcc]")
	assert.Contains(t, rendered, "-Wbad-code = 1")
	assert.Contains(t, rendered, "-Wpedantic = 4")
	assert.NotContains(t, rendered, "-Wunused")
}

func TestRender_UnboundedRendersAsInf(t *testing.T) {
	t.Parallel()

	arena, _ := gccArena(t)

	file, err := limits.Parse(arena, "gcc = inf", nil)
	require.NoError(t, err)

	out, err := file.Render(arena)
	require.NoError(t, err)
	assert.Equal(t, "gcc = inf\n", string(out))
}

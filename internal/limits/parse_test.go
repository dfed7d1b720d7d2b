package limits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
)

func gccArena(t *testing.T) (*intern.Arena, limits.Kind) {
	t.Helper()

	arena := intern.NewArena()
	kind := limits.KindOf(arena.Insert("gcc"))

	return arena, kind
}

func TestParse_Empty_NoDeclarations(t *testing.T) {
	t.Parallel()

	arena := intern.NewArena()

	file, err := limits.Parse(arena, "", nil)
	require.NoError(t, err)
	require.NotNil(t, file)
}

func TestParse_UnknownKind_ReturnsError(t *testing.T) {
	t.Parallel()

	arena := intern.NewArena()

	_, err := limits.Parse(arena, "gcc = 1", nil)
	require.ErrorIs(t, err, limits.ErrUnknownKind)
	assert.Contains(t, err.Error(), "gcc")
}

func TestParse_KnownKind_SingleNumber(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	file, err := limits.Parse(arena, "gcc = 1", nil)
	require.NoError(t, err)

	limit, ok := file.Limit(gcc)
	require.True(t, ok)
	assert.False(t, limit.PerCategory())
	assert.Equal(t, limits.Bound(1), limit.Number)
}

func TestParse_PerCategory_DeclaresEachCategory(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 1
-Wpedantic = 2
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	limit, ok := file.Limit(gcc)
	require.True(t, ok)
	require.True(t, limit.PerCategory())

	badCodeID, ok := arena.GetID("-Wbad-code")
	require.True(t, ok)
	pedanticID, ok := arena.GetID("-Wpedantic")
	require.True(t, ok)

	assert.Equal(t, map[limits.Category]limits.Threshold{
		limits.CategoryOf(badCodeID): limits.Bound(1),
		limits.CategoryOf(pedanticID): limits.Bound(2),
	}, limit.Categories)
}

func TestParse_WildcardCategory_UsesUnderscore(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 2
_ = 1
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	limit, ok := file.Limit(gcc)
	require.True(t, ok)
	assert.Equal(t, limits.Bound(1), limit.Categories[limits.Wildcard()])
}

func TestParse_Inf_IsUnbounded(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = inf
_ = 1
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	badCodeID, ok := arena.GetID("-Wbad-code")
	require.True(t, ok)

	limit, _ := file.Limit(gcc)
	assert.True(t, limit.Categories[limits.CategoryOf(badCodeID)].IsUnbounded())
}

func TestParse_FiniteFloat_Rejected(t *testing.T) {
	t.Parallel()

	arena, _ := gccArena(t)

	input := `
[gcc]
-Wbad-code = 2.0
`

	_, err := limits.Parse(arena, input, map[limits.Kind]bool{limits.KindOf(0): true})
	require.ErrorIs(t, err, limits.ErrBadThreshold)
}

func TestParse_NegativeNumber_Rejected(t *testing.T) {
	t.Parallel()

	arena, _ := gccArena(t)

	_, err := limits.Parse(arena, "gcc = -1", nil)
	require.ErrorIs(t, err, limits.ErrBadThreshold)
}

func TestParse_PerCategoryOnNonCategorizableKind_Rejected(t *testing.T) {
	t.Parallel()

	arena, _ := gccArena(t)

	input := `
[gcc]
-Wbad-code = 1
`

	_, err := limits.Parse(arena, input, nil)
	require.ErrorIs(t, err, limits.ErrNotCategorizable)
}

func TestFlatten_NumberLimitKeysOnWildcard(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	file, err := limits.Parse(arena, "gcc = 3", nil)
	require.NoError(t, err)

	flat := limits.Flatten(map[string]*limits.File{"src/Limits.toml": file})

	want := limits.NewEntry("src/Limits.toml", gcc, limits.Wildcard())
	assert.Equal(t, map[limits.Entry]limits.Threshold{want: limits.Bound(3)}, flat)
}

func TestFlatten_PerCategoryKeysEachCategory(t *testing.T) {
	t.Parallel()

	arena, gcc := gccArena(t)

	input := `
[gcc]
-Wbad-code = 1
_ = 2
`

	file, err := limits.Parse(arena, input, map[limits.Kind]bool{gcc: true})
	require.NoError(t, err)

	flat := limits.Flatten(map[string]*limits.File{"Limits.toml": file})

	badCodeID, _ := arena.GetID("-Wbad-code")
	assert.Equal(t, map[limits.Entry]limits.Threshold{
		limits.NewEntry("Limits.toml", gcc, limits.CategoryOf(badCodeID)): limits.Bound(1),
		limits.NewEntry("Limits.toml", gcc, limits.Wildcard()):            limits.Bound(2),
	}, flat)
}

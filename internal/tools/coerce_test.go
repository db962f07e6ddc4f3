package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoerceVector3_Array(t *testing.T) {
	vec, err := coerceVector3([]any{1, 2.5, "3"}, [3]float64{})
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 2.5, 3}, vec)
}

func TestCoerceVector3_ShortArrayPadsWithZeros(t *testing.T) {
	vec, err := coerceVector3([]any{7}, [3]float64{9, 9, 9})
	require.NoError(t, err)
	require.Equal(t, [3]float64{7, 0, 0}, vec)
}

func TestCoerceVector3_FloatSlice(t *testing.T) {
	vec, err := coerceVector3([]float64{4, 5}, [3]float64{})
	require.NoError(t, err)
	require.Equal(t, [3]float64{4, 5, 0}, vec)

	_, err = coerceVector3([]float64{1, 2, 3, 4}, [3]float64{})
	require.Error(t, err)
}

func TestCoerceVector3_FloatArrayPassesThrough(t *testing.T) {
	vec, err := coerceVector3([3]float64{1, 2, 3}, [3]float64{})
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 2, 3}, vec)
}

func TestCoerceVector3_MapFillsFromDefault(t *testing.T) {
	vec, err := coerceVector3(map[string]any{"y": 4}, [3]float64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 4, 3}, vec)
}

func TestCoerceVector3_ScalarBroadcasts(t *testing.T) {
	vec, err := coerceVector3(2.5, [3]float64{})
	require.NoError(t, err)
	require.Equal(t, [3]float64{2.5, 2.5, 2.5}, vec)
}

func TestCoerceVector3_Rejections(t *testing.T) {
	_, err := coerceVector3([]any{1, 2, 3, 4}, [3]float64{})
	require.Error(t, err)

	_, err = coerceVector3([]any{"abc"}, [3]float64{})
	require.Error(t, err)

	_, err = coerceVector3(true, [3]float64{})
	require.Error(t, err)
}

func TestOptionalInt_CoercesStrings(t *testing.T) {
	got, err := optionalInt(map[string]any{"n": "42"}, "n", 0)
	require.NoError(t, err)
	require.Equal(t, 42, got)

	got, err = optionalInt(map[string]any{}, "n", 7)
	require.NoError(t, err)
	require.Equal(t, 7, got)

	_, err = optionalInt(map[string]any{"n": []any{}}, "n", 0)
	require.Error(t, err)
}

func TestOptionalBool_IsStrict(t *testing.T) {
	got, err := optionalBool(map[string]any{"flag": true}, "flag", false)
	require.NoError(t, err)
	require.True(t, got)

	_, err = optionalBool(map[string]any{"flag": "true"}, "flag", false)
	require.Error(t, err)
}

func TestRequiredName_TrimsAndRejectsBlank(t *testing.T) {
	got, err := requiredName(map[string]any{"name": "  Cube  "}, "name")
	require.NoError(t, err)
	require.Equal(t, "Cube", got)

	_, err = requiredName(map[string]any{"name": "   "}, "name")
	require.Error(t, err)

	_, err = requiredName(map[string]any{}, "name")
	require.Error(t, err)
}

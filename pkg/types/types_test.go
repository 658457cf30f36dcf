package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayFlattensMultiDimensionalLength(t *testing.T) {
	arr := NewArray(Int, []int{2, 3})
	require.Equal(t, 6, arr.Length)
	require.Equal(t, 6, arr.Size())
	require.Equal(t, "int[2][3]", arr.String())
}

func TestArrayEqualsComparesElemAndDims(t *testing.T) {
	a := NewArray(Int, []int{3})
	b := NewArray(Int, []int{3})
	c := NewArray(Bool, []int{3})
	d := NewArray(Int, []int{4})

	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
	require.False(t, a.Equals(d))
}

func TestIsArrayAndIsNumeric(t *testing.T) {
	require.True(t, IsArray(NewArray(Int, []int{1})))
	require.False(t, IsArray(Int))

	require.True(t, IsNumeric(Int))
	require.True(t, IsNumeric(Char))
	require.False(t, IsNumeric(Bool))
	require.False(t, IsNumeric(NewArray(Int, []int{2})))
}

package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec4_MarshalText(t *testing.T) {
	text, err := Vec4{0.2, 0.4, 0.8, 1}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "0.2 0.4 0.8 1", string(text))

	var v Vec4
	require.NoError(t, v.UnmarshalText(text))
	assert.Equal(t, Vec4{0.2, 0.4, 0.8, 1}, v)
}

func TestVec_UnmarshalText_Errors(t *testing.T) {
	var v3 Vec3
	assert.Error(t, v3.UnmarshalText([]byte("1 2")))
	assert.Error(t, v3.UnmarshalText([]byte("1 2 x")))

	var v2 Vec2
	require.NoError(t, v2.UnmarshalText([]byte("  1.5   -2 ")))
	assert.Equal(t, Vec2{1.5, -2}, v2)

	var iv IVec2
	assert.Error(t, iv.UnmarshalText([]byte("1.5 2")))
	require.NoError(t, iv.UnmarshalText([]byte("-3 7")))
	assert.Equal(t, IVec2{-3, 7}, iv)
}

func TestVec_FailedUnmarshalKeepsValue(t *testing.T) {
	v := Vec3{1, 2, 3}
	require.Error(t, v.UnmarshalText([]byte("4 5 nope")))
	assert.Equal(t, Vec3{1, 2, 3}, v)
}

func TestVec4_Clamp(t *testing.T) {
	assert.Equal(t, Vec4{0, 0.5, 1, 1}, Vec4{-1, 0.5, 2, 1}.Clamp(0, 1))
}

func TestIVec2_Contains(t *testing.T) {
	origin := IVec2{2, 2}
	size := IVec2{3, 3}
	assert.True(t, origin.Contains(size, IVec2{2, 2}))
	assert.True(t, origin.Contains(size, IVec2{4, 4}))
	assert.False(t, origin.Contains(size, IVec2{5, 4}))
	assert.False(t, origin.Contains(size, IVec2{1, 3}))
}

package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/engine/light"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredLayoutsMatchWGSL(t *testing.T) {
	assert.NoError(t, ValidateRegisteredLayouts())
}

func TestParseStructLayouts(t *testing.T) {
	layouts := ParseStructLayouts(`
/* header /* nested */ still comment */
struct Inner { a: vec3<f32>, b: f32 }
struct Outer {
    // leading comment
    @align(16) head: u32,
    inner: Inner,
    tail: array<vec2<f32>, 3>,
};
struct Runtime { items: array<u32> }
`)
	inner, ok := layouts["Inner"]
	require.True(t, ok)
	assert.Equal(t, uint64(16), inner.Size)

	outer, ok := layouts["Outer"]
	require.True(t, ok)
	assert.Equal(t, uint64(0), outer.Offsets["head"])
	assert.Equal(t, uint64(16), outer.Offsets["inner"])
	assert.Equal(t, uint64(32), outer.Offsets["tail"])
	assert.Equal(t, uint64(24), outer.Sizes["tail"])
	assert.Equal(t, uint64(64), outer.Size)

	_, ok = layouts["Runtime"]
	assert.False(t, ok, "runtime-sized arrays have no fixed layout")
}

func TestValidateLayoutMismatch(t *testing.T) {
	bad := light.Layout
	bad.Fields = append([]gpu_mirror.FieldDescriptor(nil), light.Layout.Fields...)
	bad.Fields[1].Offset = 16
	assert.ErrorIs(t, ValidateLayout(light.GPULightSource, bad), ErrLayoutMismatch)

	bad = light.Layout
	bad.Stride = 80
	assert.ErrorIs(t, ValidateLayout(light.GPULightSource, bad), ErrLayoutMismatch)

	bad = light.Layout
	bad.Name = "Lamp"
	assert.ErrorIs(t, ValidateLayout(light.GPULightSource, bad), ErrLayoutMismatch)
}

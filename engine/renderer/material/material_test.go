package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMaterialTable(t *testing.T) (registry.Registry, registry.ObjectTable) {
	t.Helper()
	r := registry.NewRegistry(registry.WithWorkers(1))
	t.Cleanup(r.Release)
	for _, f := range Features {
		_, err := r.Components().RegisterComponent(f, nil)
		require.NoError(t, err)
	}
	table, err := r.NewTable("materials", Layout, registry.WithCapacity(16))
	require.NoError(t, err)
	return r, table
}

func TestLayoutMatchesGPUMaterial(t *testing.T) {
	require.NoError(t, Layout.Validate())
	g := GPUMaterial{}
	assert.Equal(t, int(Layout.Stride), g.Size())
	assert.Len(t, g.Marshal(), g.Size())
}

func TestDefaults(t *testing.T) {
	m := NewMaterial(WithName("default"))
	assert.Equal(t, "default", m.Name())
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColor())
	assert.Equal(t, float32(1), m.Roughness())
	assert.Equal(t, float32(1), m.NormalScale())
	assert.Equal(t, AlphaModeOpaque, m.AlphaMode())
	assert.Empty(t, m.Features())
}

func TestFeatures(t *testing.T) {
	m := NewMaterial(
		WithTextures(TextureBaseColor|TextureNormal),
		WithAlphaMode(AlphaModeMask, 0.3),
		WithDoubleSided(),
	)
	assert.Equal(t, []string{FeatureBaseColorMap, FeatureNormalMap, FeatureAlphaMask, FeatureDoubleSided}, m.Features())
	assert.Equal(t, float32(0.3), m.GPU().AlphaCutoff)
}

func TestMaterialSerializesIntoMirror(t *testing.T) {
	r, table := newMaterialTable(t)

	plain := NewMaterial(WithName("plain"))
	mapped := NewMaterial(WithName("mapped"), WithTextures(TextureNormal), WithMetallic(0.8), WithEmissive([3]float32{1, 0.5, 0}))
	mappedToo := NewMaterial(WithName("mapped_too"), WithTextures(TextureNormal))
	for _, m := range []Material{plain, mapped, mappedToo} {
		_, err := table.Add(m)
		require.NoError(t, err)
	}
	assert.Equal(t, mapped.CombinationID(), mappedToo.CombinationID())
	assert.NotEqual(t, plain.CombinationID(), mapped.CombinationID())

	flags, err := r.Combinations().Resolve(mapped.CombinationID())
	require.NoError(t, err)
	assert.Equal(t, []string{FeatureNormalMap}, r.Components().Names(flags))

	_, err = r.Update()
	require.NoError(t, err)

	g := mapped.GPU()
	raw, err := table.Mirror().Snapshot(uint64(Layout.Stride), uint64(Layout.Stride))
	require.NoError(t, err)
	assert.Equal(t, g.Marshal(), raw)
}

func TestSettersQueueUpload(t *testing.T) {
	r, table := newMaterialTable(t)
	m := NewMaterial()
	_, err := table.Add(m)
	require.NoError(t, err)
	_, err = r.Update()
	require.NoError(t, err)

	m.SetBaseColor([4]float32{0.1, 0.2, 0.3, 1})
	m.SetMetallicRoughness(1, 0.25)
	m.SetNormalScale(2)
	m.SetAlphaCutoff(0.1)
	assert.Equal(t, 4, table.Pending())

	result, err := r.Update()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dirty())
	assert.Equal(t, uint64(Layout.Stride), result.Bytes())

	raw, err := table.Mirror().Snapshot(0, uint64(Layout.Stride))
	require.NoError(t, err)
	g := m.GPU()
	assert.Equal(t, g.Marshal(), raw)
	assert.Equal(t, float32(0.25), m.Roughness())
}

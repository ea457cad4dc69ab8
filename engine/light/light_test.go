package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/slot_allocator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLightTable(t *testing.T) (registry.Registry, registry.ObjectTable) {
	t.Helper()
	r := registry.NewRegistry(registry.WithWorkers(1))
	t.Cleanup(r.Release)
	for _, f := range Features {
		_, err := r.Components().RegisterComponent(f, nil)
		require.NoError(t, err)
	}
	table, err := r.NewTable("lights", Layout, registry.WithCapacity(8), registry.WithRemovalPolicy(slot_allocator.RemovalSwapLast))
	require.NoError(t, err)
	return r, table
}

func TestLayoutMatchesGPULight(t *testing.T) {
	require.NoError(t, Layout.Validate())
	g := GPULight{}
	assert.Equal(t, int(Layout.Stride), g.Size())
	assert.Len(t, g.Marshal(), g.Size())
}

func TestDefaultsAndFeatures(t *testing.T) {
	sun := NewLight(LightTypeDirectional)
	assert.Equal(t, [3]float32{0, -1, 0}, sun.Direction())
	assert.True(t, sun.Enabled())
	assert.Equal(t, []string{FeatureDirectional}, sun.Features())

	spot := NewLight(LightTypeSpot, WithCastsShadows(), WithDirection(0, 0, 2), WithSpotCone(40, 20))
	assert.Equal(t, []string{FeatureSpot, FeatureShadowCaster}, spot.Features())
	assert.Equal(t, [3]float32{0, 0, 1}, spot.Direction())
	assert.Greater(t, spot.InnerCone(), spot.OuterCone())
	assert.Equal(t, gpuFlagEnabled|gpuFlagCastsShadows, spot.GPU().Flags)
}

func TestLightsShareCombinationsByFeature(t *testing.T) {
	r, table := newLightTable(t)

	a := NewLight(LightTypePoint, WithPosition(1, 2, 3))
	b := NewLight(LightTypePoint, WithColor(1, 0, 0))
	c := NewLight(LightTypeSpot, WithCastsShadows())
	for _, l := range []Light{a, b, c} {
		_, err := table.Add(l)
		require.NoError(t, err)
	}
	assert.Equal(t, a.CombinationID(), b.CombinationID())
	assert.NotEqual(t, a.CombinationID(), c.CombinationID())

	flags, err := r.Combinations().Resolve(c.CombinationID())
	require.NoError(t, err)
	assert.Equal(t, []string{FeatureSpot, FeatureShadowCaster}, r.Components().Names(flags))
}

func TestSettersQueueUpload(t *testing.T) {
	r, table := newLightTable(t)
	l := NewLight(LightTypePoint)
	_, err := table.Add(l)
	require.NoError(t, err)
	_, err = r.Update()
	require.NoError(t, err)
	assert.Zero(t, table.Pending())

	l.SetPosition(4, 5, 6)
	l.SetIntensity(3)
	l.SetEnabled(false)
	result, err := r.Update()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dirty())

	raw, err := table.Mirror().Snapshot(0, uint64(Layout.Stride))
	require.NoError(t, err)
	g := l.GPU()
	assert.Equal(t, g.Marshal(), raw)
	assert.Zero(t, g.Flags&gpuFlagEnabled)
}

func TestSwapLastRemovalMovesTail(t *testing.T) {
	r, table := newLightTable(t)
	lights := []Light{
		NewLight(LightTypePoint, WithIntensity(1)),
		NewLight(LightTypePoint, WithIntensity(2)),
		NewLight(LightTypePoint, WithIntensity(3)),
	}
	for _, l := range lights {
		_, err := table.Add(l)
		require.NoError(t, err)
	}
	_, err := r.Update()
	require.NoError(t, err)

	require.NoError(t, table.Remove(lights[0]))
	assert.Equal(t, uint32(1), uint32(lights[2].SlotID()))
	_, err = r.Update()
	require.NoError(t, err)

	raw, err := table.Mirror().Snapshot(0, uint64(Layout.Stride))
	require.NoError(t, err)
	g := lights[2].GPU()
	assert.Equal(t, g.Marshal(), raw)
}

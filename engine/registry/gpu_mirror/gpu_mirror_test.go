package gpu_mirror

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = Layout{
	Name:   "test_record",
	Stride: 32,
	Fields: []FieldDescriptor{
		{Name: "color", Offset: 0, Size: 16},
		{Name: "metallic", Offset: 16, Size: 4},
		{Name: "roughness", Offset: 20, Size: 4},
		{Name: "flags", Offset: 24, Size: 4},
	},
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, testLayout.Validate())

	for name, l := range map[string]Layout{
		"zero stride": {Name: "a"},
		"unaligned":   {Name: "b", Stride: 6},
		"past stride": {Name: "c", Stride: 8, Fields: []FieldDescriptor{{Name: "x", Offset: 4, Size: 8}}},
		"overlap":     {Name: "d", Stride: 16, Fields: []FieldDescriptor{{Name: "x", Offset: 0, Size: 8}, {Name: "y", Offset: 4, Size: 4}}},
		"misaligned":  {Name: "e", Stride: 16, Fields: []FieldDescriptor{{Name: "x", Offset: 2, Size: 4}}},
		"duplicate":   {Name: "f", Stride: 16, Fields: []FieldDescriptor{{Name: "x", Offset: 0, Size: 4}, {Name: "x", Offset: 4, Size: 4}}},
		"zero size":   {Name: "g", Stride: 16, Fields: []FieldDescriptor{{Name: "x", Offset: 0}}},
	} {
		assert.Error(t, l.Validate(), name)
	}
}

func TestFieldOffset(t *testing.T) {
	b := NewGPUMirrorBuffer(testLayout, 4)
	rough := testLayout.MustField("roughness")

	off, err := b.FieldOffset(1, rough)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), off)

	off, err = b.FieldOffset(3, rough)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*32+20), off)

	assert.Equal(t, StateClean, b.State(), "FieldOffset must not touch memory")
}

func TestOutOfRange(t *testing.T) {
	b := NewGPUMirrorBuffer(testLayout, 2)
	color := testLayout.MustField("color")

	_, err := b.FieldOffset(0, color)
	assert.ErrorIs(t, err, common.ErrOutOfRange)

	err = b.WriteFloat32s(3, color, []float32{1, 2, 3, 4})
	var oor *common.OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, common.SlotID(3), oor.Slot)

	// Five floats do not fit a 16-byte field.
	err = b.WriteFloat32s(1, color, []float32{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, common.ErrOutOfRange)

	// A descriptor that does not belong to the layout and crosses the record boundary.
	bogus := FieldDescriptor{Name: "bogus", Offset: 28, Size: 8}
	err = b.WriteField(1, bogus, make([]byte, 8))
	assert.ErrorIs(t, err, common.ErrOutOfRange)

	assert.Equal(t, StateClean, b.State(), "failed writes must not dirty the buffer")
}

func TestWriteAndSnapshot(t *testing.T) {
	b := NewGPUMirrorBuffer(testLayout, 4)
	rw, err := b.Record(2)
	require.NoError(t, err)

	require.NoError(t, rw.Vec4(testLayout.MustField("color"), [4]float32{0.25, 0.5, 0.75, 1}))
	require.NoError(t, rw.Float32(testLayout.MustField("metallic"), 0.5))
	require.NoError(t, rw.Uint32(testLayout.MustField("flags"), 7))

	raw, err := b.Snapshot(32, 32)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(raw[0:4])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(raw[12:16])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(raw[16:20])))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(raw[24:28]))

	_, err = b.Snapshot(100, 100)
	assert.ErrorIs(t, err, common.ErrOutOfRange)
}

func TestDirtyRangesAndState(t *testing.T) {
	b := NewGPUMirrorBuffer(testLayout, 4)
	assert.Equal(t, StateClean, b.State())
	assert.Nil(t, b.TakeDirtyRanges())

	require.NoError(t, b.WriteFloat32(1, testLayout.MustField("metallic"), 1))
	require.NoError(t, b.WriteFloat32(1, testLayout.MustField("roughness"), 1))
	require.NoError(t, b.WriteFloat32(3, testLayout.MustField("metallic"), 1))
	assert.Equal(t, StateDirty, b.State())

	ranges := b.TakeDirtyRanges()
	assert.Equal(t, []Range{{Offset: 16, Size: 8}, {Offset: 64 + 16, Size: 4}}, ranges)
	assert.Equal(t, StateClean, b.State())
	assert.Nil(t, b.TakeDirtyRanges())
}

func TestZeroAndCopyRecord(t *testing.T) {
	b := NewGPUMirrorBuffer(testLayout, 3)
	flags := testLayout.MustField("flags")
	require.NoError(t, b.WriteUint32(3, flags, 42))
	require.NoError(t, b.CopyRecord(1, 3))
	require.NoError(t, b.ZeroRecord(3))

	raw, err := b.Snapshot(0, b.Size())
	require.NoError(t, err)
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(raw[24:28]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(raw[64+24:64+28]))

	assert.ErrorIs(t, b.CopyRecord(4, 1), common.ErrOutOfRange)
}

func TestOptions(t *testing.T) {
	b := NewGPUMirrorBuffer(testLayout, 1,
		WithLabel("materials"),
		WithUsage(wgpu.BufferUsageUniform),
		WithConsumerStages(wgpu.ShaderStageCompute),
	)
	assert.Equal(t, "materials", b.Label())
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, b.Usage())
	assert.Equal(t, wgpu.ShaderStageCompute, b.ConsumerStages())
	assert.Equal(t, uint64(32), b.Size())

	assert.Panics(t, func() { NewGPUMirrorBuffer(testLayout, 0) })
	assert.Panics(t, func() { NewGPUMirrorBuffer(Layout{Name: "bad"}, 1) })
}

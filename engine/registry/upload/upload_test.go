package upload

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLayout = gpu_mirror.Layout{
	Name:   "params",
	Stride: 16,
	Fields: []gpu_mirror.FieldDescriptor{
		{Name: "a", Offset: 0, Size: 4},
		{Name: "b", Offset: 4, Size: 4},
		{Name: "c", Offset: 8, Size: 8},
	},
}

type testObject struct {
	common.SlotHandle
}

func dirtyAt(slots ...common.SlotID) []common.Slotted {
	out := make([]common.Slotted, len(slots))
	for i, s := range slots {
		o := &testObject{}
		o.SetSlotID(s)
		out[i] = o
	}
	return out
}

func TestCleanFlushIsEmpty(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 8)
	plan, err := NewScheduler().FlushDirty(mirror, nil)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.True(t, plan.PreBarrier.IsZero())
	assert.True(t, plan.PostBarrier.IsZero())
	assert.Zero(t, plan.TotalBytes())
}

func TestFlushIsIdempotent(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 8)
	s := NewScheduler()
	require.NoError(t, mirror.WriteFloat32(2, testLayout.MustField("b"), 1))

	first, err := s.FlushDirty(mirror, dirtyAt(2))
	require.NoError(t, err)
	assert.Equal(t, []CopyRegion{{SrcOffset: 16, DstOffset: 16, Size: 16}}, first.Copies)
	assert.Equal(t, gpu_mirror.StateClean, mirror.State())

	second, err := s.FlushDirty(mirror, nil)
	require.NoError(t, err)
	assert.True(t, second.Empty())
}

func TestAdjacentRecordsMerge(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 16)
	plan, err := NewScheduler().FlushDirty(mirror, dirtyAt(1, 2, 3, 5, 9, 10))
	require.NoError(t, err)
	assert.Equal(t, []CopyRegion{
		{SrcOffset: 0, DstOffset: 0, Size: 48},
		{SrcOffset: 64, DstOffset: 64, Size: 16},
		{SrcOffset: 128, DstOffset: 128, Size: 32},
	}, plan.Copies)
	assert.Equal(t, uint64(96), plan.TotalBytes())
}

func TestMergeGap(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 16)
	s := NewScheduler(WithMergeGap(15))
	assert.Equal(t, uint64(16), s.MergeGap())

	plan, err := s.FlushDirty(mirror, dirtyAt(1, 3, 6))
	require.NoError(t, err)
	assert.Equal(t, []CopyRegion{
		{SrcOffset: 0, DstOffset: 0, Size: 48},
		{SrcOffset: 80, DstOffset: 80, Size: 16},
	}, plan.Copies)
}

func TestFieldWritesWithoutDirtyObjects(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 4)
	require.NoError(t, mirror.WriteFloat32(1, testLayout.MustField("b"), 2))
	require.NoError(t, mirror.WriteFloat32(3, testLayout.MustField("a"), 2))
	require.NoError(t, mirror.WriteFloat32(1, testLayout.MustField("a"), 2))

	plan, err := NewScheduler().FlushDirty(mirror, nil)
	require.NoError(t, err)
	assert.Equal(t, []CopyRegion{
		{SrcOffset: 0, DstOffset: 0, Size: 8},
		{SrcOffset: 32, DstOffset: 32, Size: 4},
	}, plan.Copies)
}

func TestOutOfRangeSlotKeepsMirrorDirty(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 2)
	require.NoError(t, mirror.WriteFloat32(1, testLayout.MustField("a"), 2))

	_, err := NewScheduler().FlushDirty(mirror, dirtyAt(3))
	assert.ErrorIs(t, err, common.ErrOutOfRange)
	assert.Equal(t, gpu_mirror.StateDirty, mirror.State())
}

func TestBarriersFollowConsumers(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 2,
		gpu_mirror.WithUsage(wgpu.BufferUsageStorage|wgpu.BufferUsageIndirect),
		gpu_mirror.WithConsumerStages(wgpu.ShaderStageCompute|wgpu.ShaderStageVertex),
	)
	plan, err := NewScheduler().FlushDirty(mirror, dirtyAt(1))
	require.NoError(t, err)

	readers := StageComputeShader | StageVertexShader | StageDrawIndirect
	reads := AccessShaderRead | AccessIndirectRead
	assert.Equal(t, Barrier{SrcStages: readers, SrcAccess: reads, DstStages: StageTransfer, DstAccess: AccessTransferWrite}, plan.PreBarrier)
	assert.Equal(t, Barrier{SrcStages: StageTransfer, SrcAccess: AccessTransferWrite, DstStages: readers, DstAccess: reads}, plan.PostBarrier)
	assert.Equal(t, "draw_indirect|vertex_shader|compute_shader", readers.String())
}

func TestConsumerScope(t *testing.T) {
	ps, am := ConsumerScope(wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	assert.Equal(t, StageVertexShader|StageFragmentShader, ps)
	assert.Equal(t, AccessUniformRead, am)

	ps, am = ConsumerScope(wgpu.ShaderStageNone, wgpu.BufferUsageVertex)
	assert.Equal(t, StageVertexInput, ps)
	assert.Equal(t, AccessVertexAttributeRead, am)
	assert.Equal(t, "none", PipelineStage(0).String())
}

func TestWrites(t *testing.T) {
	mirror := gpu_mirror.NewGPUMirrorBuffer(testLayout, 4)
	require.NoError(t, mirror.WriteUint32(2, testLayout.MustField("a"), 0xdeadbeef))
	plan, err := NewScheduler().FlushDirty(mirror, nil)
	require.NoError(t, err)

	provider := bind_group_provider.NewBindGroupProvider("params")
	writes, err := plan.Writes(provider, 3, mirror)
	require.NoError(t, err)
	require.Len(t, writes, 1)
	assert.Equal(t, 3, writes[0].Binding)
	assert.Equal(t, uint64(16), writes[0].Offset)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, writes[0].Data)
	assert.Same(t, provider, writes[0].Provider)

	empty, err := UploadPlan{}.Writes(provider, 0, mirror)
	assert.NoError(t, err)
	assert.Nil(t, empty)
}

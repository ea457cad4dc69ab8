package upload

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineStage is a bit set of GPU pipeline stages taking part in a barrier.
type PipelineStage uint32

const (
	StageDrawIndirect PipelineStage = 1 << iota
	StageVertexInput
	StageVertexShader
	StageFragmentShader
	StageComputeShader
	StageTransfer
)

var stageNames = []struct {
	stage PipelineStage
	name  string
}{
	{StageDrawIndirect, "draw_indirect"},
	{StageVertexInput, "vertex_input"},
	{StageVertexShader, "vertex_shader"},
	{StageFragmentShader, "fragment_shader"},
	{StageComputeShader, "compute_shader"},
	{StageTransfer, "transfer"},
}

func (s PipelineStage) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, n := range stageNames {
		if s&n.stage != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// AccessMask is a bit set of memory access types taking part in a barrier.
type AccessMask uint32

const (
	AccessIndirectRead AccessMask = 1 << iota
	AccessVertexAttributeRead
	AccessUniformRead
	AccessShaderRead
	AccessTransferWrite
)

var accessNames = []struct {
	access AccessMask
	name   string
}{
	{AccessIndirectRead, "indirect_read"},
	{AccessVertexAttributeRead, "vertex_attribute_read"},
	{AccessUniformRead, "uniform_read"},
	{AccessShaderRead, "shader_read"},
	{AccessTransferWrite, "transfer_write"},
}

func (a AccessMask) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	for _, n := range accessNames {
		if a&n.access != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Barrier is a buffer memory barrier: work in SrcStages performing SrcAccess must complete before work in
// DstStages performing DstAccess may start.
type Barrier struct {
	SrcStages PipelineStage
	SrcAccess AccessMask
	DstStages PipelineStage
	DstAccess AccessMask
}

// IsZero reports whether the barrier is empty.
func (b Barrier) IsZero() bool {
	return b == Barrier{}
}

// ConsumerScope derives the pipeline stages and access types that read a buffer from its declared
// consumer shader stages and usage flags.
//
// Parameters:
//   - stages: the shader stages that bind the buffer
//   - usage: the buffer usage flags
//
// Returns:
//   - PipelineStage: the reading stages
//   - AccessMask: the read access types
func ConsumerScope(stages wgpu.ShaderStage, usage wgpu.BufferUsage) (PipelineStage, AccessMask) {
	var ps PipelineStage
	var am AccessMask

	if stages&wgpu.ShaderStageVertex != 0 {
		ps |= StageVertexShader
	}
	if stages&wgpu.ShaderStageFragment != 0 {
		ps |= StageFragmentShader
	}
	if stages&wgpu.ShaderStageCompute != 0 {
		ps |= StageComputeShader
	}
	if ps != 0 {
		if usage&wgpu.BufferUsageUniform != 0 {
			am |= AccessUniformRead
		}
		if usage&wgpu.BufferUsageStorage != 0 {
			am |= AccessShaderRead
		}
	}
	if usage&(wgpu.BufferUsageVertex|wgpu.BufferUsageIndex) != 0 {
		ps |= StageVertexInput
		am |= AccessVertexAttributeRead
	}
	if usage&wgpu.BufferUsageIndirect != 0 {
		ps |= StageDrawIndirect
		am |= AccessIndirectRead
	}
	return ps, am
}

// uploadBarriers returns the write-after-read barrier recorded before the copies and the read-after-write
// barrier recorded after them.
func uploadBarriers(stages wgpu.ShaderStage, usage wgpu.BufferUsage) (pre, post Barrier) {
	ps, am := ConsumerScope(stages, usage)
	pre = Barrier{
		SrcStages: ps,
		SrcAccess: am,
		DstStages: StageTransfer,
		DstAccess: AccessTransferWrite,
	}
	post = Barrier{
		SrcStages: StageTransfer,
		SrcAccess: AccessTransferWrite,
		DstStages: ps,
		DstAccess: am,
	}
	return pre, post
}

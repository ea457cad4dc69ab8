package gpu_mirror

import "github.com/cogentcore/webgpu/wgpu"

// GPUMirrorBufferBuilderOption is a functional option used to configure a GPUMirrorBuffer during construction.
type GPUMirrorBufferBuilderOption func(*gpuMirrorBuffer)

// WithLabel overrides the debug label, which otherwise defaults to the layout name.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - GPUMirrorBufferBuilderOption: a function that sets the label
func WithLabel(label string) GPUMirrorBufferBuilderOption {
	return func(b *gpuMirrorBuffer) {
		b.label = label
	}
}

// WithUsage sets the declared device buffer usage. Defaults to Storage | CopyDst.
// CopyDst is always added since the mirror is only useful as an upload source.
//
// Parameters:
//   - usage: the buffer usage flags
//
// Returns:
//   - GPUMirrorBufferBuilderOption: a function that sets the usage
func WithUsage(usage wgpu.BufferUsage) GPUMirrorBufferBuilderOption {
	return func(b *gpuMirrorBuffer) {
		b.usage = usage | wgpu.BufferUsageCopyDst
	}
}

// WithConsumerStages sets the shader stages that read the device buffer. Defaults to Vertex | Fragment.
//
// Parameters:
//   - stages: the consuming shader stages
//
// Returns:
//   - GPUMirrorBufferBuilderOption: a function that sets the consumer stages
func WithConsumerStages(stages wgpu.ShaderStage) GPUMirrorBufferBuilderOption {
	return func(b *gpuMirrorBuffer) {
		b.consumers = stages
	}
}

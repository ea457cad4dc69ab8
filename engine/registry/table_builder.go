package registry

import (
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/slot_allocator"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/upload"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ObjectTableBuilderOption is a functional option used to configure an ObjectTable during construction.
type ObjectTableBuilderOption func(*objectTable)

// WithCapacity sets the fixed number of slots, which is also the record count of the device buffer.
//
// Parameters:
//   - capacity: the number of slots, ignored unless positive
//
// Returns:
//   - ObjectTableBuilderOption: a function that sets the capacity
func WithCapacity(capacity int) ObjectTableBuilderOption {
	return func(t *objectTable) {
		if capacity > 0 {
			t.capacity = capacity
		}
	}
}

// WithRemovalPolicy sets how removals keep the table gap-free. Defaults to slot_allocator.RemovalShiftDown.
//
// Parameters:
//   - policy: the removal policy
//
// Returns:
//   - ObjectTableBuilderOption: a function that sets the policy
func WithRemovalPolicy(policy slot_allocator.RemovalPolicy) ObjectTableBuilderOption {
	return func(t *objectTable) {
		t.policy = policy
	}
}

// WithUsage sets the usage flags of the device buffer mirrored by the table.
//
// Parameters:
//   - usage: the buffer usage flags
//
// Returns:
//   - ObjectTableBuilderOption: a function that sets the usage
func WithUsage(usage wgpu.BufferUsage) ObjectTableBuilderOption {
	return func(t *objectTable) {
		t.mirrorOps = append(t.mirrorOps, gpu_mirror.WithUsage(usage))
	}
}

// WithConsumerStages sets the shader stages that read the table's device buffer.
//
// Parameters:
//   - stages: the consumer stages
//
// Returns:
//   - ObjectTableBuilderOption: a function that sets the stages
func WithConsumerStages(stages wgpu.ShaderStage) ObjectTableBuilderOption {
	return func(t *objectTable) {
		t.mirrorOps = append(t.mirrorOps, gpu_mirror.WithConsumerStages(stages))
	}
}

// WithMergeGap lets copy regions separated by at most gap bytes merge into one copy.
//
// Parameters:
//   - gap: the largest gap to bridge in bytes
//
// Returns:
//   - ObjectTableBuilderOption: a function that sets the merge gap
func WithMergeGap(gap uint64) ObjectTableBuilderOption {
	return func(t *objectTable) {
		t.schedOps = append(t.schedOps, upload.WithMergeGap(gap))
	}
}

// WithTableLogger sets the logger of the table and its allocator and scheduler.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - ObjectTableBuilderOption: a function that sets the logger
func WithTableLogger(logger *zap.Logger) ObjectTableBuilderOption {
	return func(t *objectTable) {
		if logger != nil {
			t.logger = logger
		}
	}
}

package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackend is the slice of the GPU API the Renderer needs to keep device buffers in step with
// their host mirrors. *wgpuRendererBackend adapts a real device and queue; tests substitute a recorder.
type RendererBackend interface {
	// CreateBuffer allocates a device buffer.
	//
	// Parameters:
	//   - descriptor: the buffer descriptor
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if allocation fails
	CreateBuffer(descriptor *wgpu.BufferDescriptor) (*wgpu.Buffer, error)

	// WriteBuffer enqueues a host-to-device copy into buffer at offset.
	//
	// Parameters:
	//   - buffer: the destination buffer
	//   - offset: the destination byte offset
	//   - data: the bytes to copy
	//
	// Returns:
	//   - error: an error if the queue rejects the write
	WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error
}

// wgpuRendererBackend routes buffer creation to a device and writes to its queue.
type wgpuRendererBackend struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ RendererBackend = &wgpuRendererBackend{}

// NewWGPUBackend wraps an initialized device and its queue.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the device queue
//
// Returns:
//   - RendererBackend: the backend
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue) RendererBackend {
	return &wgpuRendererBackend{device: device, queue: queue}
}

func (b *wgpuRendererBackend) CreateBuffer(descriptor *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	return b.device.CreateBuffer(descriptor)
}

func (b *wgpuRendererBackend) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	return b.queue.WriteBuffer(buffer, offset, data)
}

package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ErrNoBackend is returned when the Renderer was created without a backend.
var ErrNoBackend = errors.New("renderer has no backend")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu      *sync.Mutex
	logger  *zap.Logger
	backend RendererBackend

	stats WriteStats
}

// WriteStats counts the queue traffic issued by a Renderer since it was created.
type WriteStats struct {
	Writes  int
	Bytes   uint64
	Skipped int
}

// Renderer is the upload bridge between GPU-mirrored object tables and device buffers.
//
// CreateMirrorBuffer allocates the device buffer behind one binding of a BindGroupProvider and seeds it with
// the full mirror contents. WriteBuffers then applies the staged writes produced by each frame's registry
// update. Calls are serialized so writes reach the queue in submission order.
type Renderer interface {
	// CreateMirrorBuffer creates the device buffer of a mirror and stores it on provider at binding.
	//
	// Parameters:
	//   - provider: the provider that owns the buffer
	//   - binding: the binding index
	//   - mirror: the host mirror whose size, usage and contents define the buffer
	//
	// Returns:
	//   - error: an error if allocation or the initial upload fails
	CreateMirrorBuffer(provider bind_group_provider.BindGroupProvider, binding int, mirror gpu_mirror.GPUMirrorBuffer) error

	// WriteBuffers writes all staged buffer writes to the GPU queue in order.
	// Writes whose binding has no device buffer yet are skipped.
	//
	// Parameters:
	//   - writes: the staged writes
	//
	// Returns:
	//   - error: the joined queue errors, or nil
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// Stats returns the cumulative queue traffic.
	//
	// Returns:
	//   - WriteStats: the counters
	Stats() WriteStats
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer over the given backend.
//
// Parameters:
//   - backend: the device/queue backend
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:      &sync.Mutex{},
		logger:  zap.NewNop(),
		backend: backend,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) CreateMirrorBuffer(provider bind_group_provider.BindGroupProvider, binding int, mirror gpu_mirror.GPUMirrorBuffer) error {
	if r.backend == nil {
		return ErrNoBackend
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	label := fmt.Sprintf("%s %s Buffer", provider.Label(), mirror.Label())
	buf, err := r.backend.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             mirror.Size(),
		Usage:            mirror.Usage() | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", label, err)
	}

	data, err := mirror.Snapshot(0, mirror.Size())
	if err != nil {
		return err
	}
	if err := r.backend.WriteBuffer(buf, 0, data); err != nil {
		return fmt.Errorf("seed %s: %w", label, err)
	}
	r.stats.Writes++
	r.stats.Bytes += uint64(len(data))
	provider.SetBuffer(binding, buf)

	r.logger.Debug("mirror buffer created", zap.String("buffer", label), zap.Uint64("size", mirror.Size()))
	return nil
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	if r.backend == nil {
		return ErrNoBackend
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			r.stats.Skipped++
			r.logger.Debug("buffer write skipped, binding has no buffer",
				zap.String("provider", w.Provider.Label()), zap.Int("binding", w.Binding))
			continue
		}
		if err := r.backend.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			errs = append(errs, fmt.Errorf("%s binding %d offset %d: %w", w.Provider.Label(), w.Binding, w.Offset, err))
			continue
		}
		r.stats.Writes++
		r.stats.Bytes += uint64(len(w.Data))
	}
	return errors.Join(errs...)
}

func (r *renderer) Stats() WriteStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

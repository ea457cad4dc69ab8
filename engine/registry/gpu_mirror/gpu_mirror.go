// Package gpu_mirror implements the host-side byte buffer that shadows a fixed-size device buffer of records.
package gpu_mirror

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the synchronization state of a mirror buffer within a frame.
type State int

const (
	// StateClean means the host mirror matches what was last handed to the upload scheduler.
	StateClean State = iota
	// StateDirty means at least one write happened since the last TakeDirtyRanges.
	StateDirty
)

// String returns a readable name for the state.
func (s State) String() string {
	if s == StateDirty {
		return "dirty"
	}
	return "clean"
}

// gpuMirrorBuffer is the implementation of the GPUMirrorBuffer interface.
type gpuMirrorBuffer struct {
	mu *sync.Mutex

	label     string
	layout    Layout
	capacity  uint32
	usage     wgpu.BufferUsage
	consumers wgpu.ShaderStage

	data []byte

	// dirty holds the byte ranges written since the last TakeDirtyRanges, in write order.
	// Consecutive touching writes are folded into the previous range on append.
	dirty []Range
}

// GPUMirrorBuffer is a host-addressable byte region shaped like a device buffer holding `capacity`
// records of `layout.Stride` bytes each. Record i (1-based SlotID) starts at (i-1)*stride.
//
// Every write is bounds-checked against both the record and the buffer and records the written byte
// range, moving the buffer from StateClean to StateDirty. TakeDirtyRanges hands the ranges to the
// upload scheduler and returns the buffer to StateClean.
type GPUMirrorBuffer interface {
	// Label returns the debug label of the buffer.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Layout returns the per-record schema.
	//
	// Returns:
	//   - Layout: the record layout
	Layout() Layout

	// Stride returns the size of one record in bytes.
	//
	// Returns:
	//   - uint32: the record stride
	Stride() uint32

	// Capacity returns the number of records the buffer can hold.
	//
	// Returns:
	//   - uint32: the record capacity
	Capacity() uint32

	// Size returns the total size of the buffer in bytes (capacity * stride).
	//
	// Returns:
	//   - uint64: the buffer size
	Size() uint64

	// Usage returns the declared device buffer usage.
	//
	// Returns:
	//   - wgpu.BufferUsage: the usage flags
	Usage() wgpu.BufferUsage

	// ConsumerStages returns the shader stages that read the device buffer.
	//
	// Returns:
	//   - wgpu.ShaderStage: the consuming stages
	ConsumerStages() wgpu.ShaderStage

	// State reports whether the buffer has unflushed writes.
	//
	// Returns:
	//   - State: StateClean or StateDirty
	State() State

	// RecordRange returns the byte range covering the whole record of a slot.
	//
	// Parameters:
	//   - slot: the 1-based slot
	//
	// Returns:
	//   - Range: the record range
	//   - error: *common.OutOfRangeError if the slot is unassigned or beyond capacity
	RecordRange(slot common.SlotID) (Range, error)

	// FieldOffset computes the absolute byte offset of a field within a slot's record. It never touches memory.
	//
	// Parameters:
	//   - slot: the 1-based slot
	//   - field: the field descriptor
	//
	// Returns:
	//   - uint64: the absolute byte offset
	//   - error: *common.OutOfRangeError if the slot or field is outside the buffer or record
	FieldOffset(slot common.SlotID, field FieldDescriptor) (uint64, error)

	// WriteField copies data into a field of a slot's record. len(data) must not exceed field.Size.
	//
	// Parameters:
	//   - slot: the 1-based slot
	//   - field: the field descriptor
	//   - data: the raw little-endian bytes to write
	//
	// Returns:
	//   - error: *common.OutOfRangeError if the write would leave the record or the buffer
	WriteField(slot common.SlotID, field FieldDescriptor, data []byte) error

	// WriteFloat32 writes a single f32 into a field.
	WriteFloat32(slot common.SlotID, field FieldDescriptor, v float32) error

	// WriteUint32 writes a single u32 into a field.
	WriteUint32(slot common.SlotID, field FieldDescriptor, v uint32) error

	// WriteFloat32s writes a packed sequence of f32 values (vecN / matNxM) into a field.
	WriteFloat32s(slot common.SlotID, field FieldDescriptor, v []float32) error

	// ZeroRecord clears every byte of a slot's record.
	//
	// Parameters:
	//   - slot: the 1-based slot
	//
	// Returns:
	//   - error: *common.OutOfRangeError if the slot is unassigned or beyond capacity
	ZeroRecord(slot common.SlotID) error

	// CopyRecord copies the record at src over the record at dst. Object tables call it for every record a
	// removal moves, in the order the allocator renumbers them.
	//
	// Parameters:
	//   - dst: the destination slot
	//   - src: the source slot
	//
	// Returns:
	//   - error: *common.OutOfRangeError if either slot is invalid
	CopyRecord(dst, src common.SlotID) error

	// Record returns a RecordWriter bound to a slot, used by record serializers.
	//
	// Parameters:
	//   - slot: the 1-based slot
	//
	// Returns:
	//   - RecordWriter: the bound writer
	//   - error: *common.OutOfRangeError if the slot is unassigned or beyond capacity
	Record(slot common.SlotID) (RecordWriter, error)

	// Snapshot copies size bytes starting at offset out of the mirror.
	//
	// Parameters:
	//   - offset: the absolute byte offset
	//   - size: the number of bytes
	//
	// Returns:
	//   - []byte: a copy of the bytes
	//   - error: *common.OutOfRangeError if the range exceeds the buffer
	Snapshot(offset, size uint64) ([]byte, error)

	// TakeDirtyRanges returns the ranges written since the last call and returns the buffer to StateClean.
	//
	// Returns:
	//   - []Range: the written ranges in write order, or nil if the buffer was clean
	TakeDirtyRanges() []Range
}

var _ GPUMirrorBuffer = &gpuMirrorBuffer{}

// NewGPUMirrorBuffer creates a zero-filled mirror for capacity records of the given layout.
// The layout is validated; an invalid layout or a zero capacity is a programming error and panics,
// matching how the engine treats fixed GPU allocation sizes.
//
// Parameters:
//   - layout: the record schema
//   - capacity: the number of records
//   - options: functional options to further configure the buffer
//
// Returns:
//   - GPUMirrorBuffer: the new mirror
func NewGPUMirrorBuffer(layout Layout, capacity uint32, options ...GPUMirrorBufferBuilderOption) GPUMirrorBuffer {
	if err := layout.Validate(); err != nil {
		panic("gpu_mirror: " + err.Error())
	}
	if capacity == 0 {
		panic("gpu_mirror: capacity must be greater than zero")
	}

	b := &gpuMirrorBuffer{
		mu:        &sync.Mutex{},
		label:     layout.Name,
		layout:    layout,
		capacity:  capacity,
		usage:     wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		consumers: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	for _, opt := range options {
		opt(b)
	}
	b.data = make([]byte, uint64(capacity)*uint64(layout.Stride))
	return b
}

func (b *gpuMirrorBuffer) Label() string {
	return b.label
}

func (b *gpuMirrorBuffer) Layout() Layout {
	return b.layout
}

func (b *gpuMirrorBuffer) Stride() uint32 {
	return b.layout.Stride
}

func (b *gpuMirrorBuffer) Capacity() uint32 {
	return b.capacity
}

func (b *gpuMirrorBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *gpuMirrorBuffer) Usage() wgpu.BufferUsage {
	return b.usage
}

func (b *gpuMirrorBuffer) ConsumerStages() wgpu.ShaderStage {
	return b.consumers
}

func (b *gpuMirrorBuffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.dirty) > 0 {
		return StateDirty
	}
	return StateClean
}

func (b *gpuMirrorBuffer) RecordRange(slot common.SlotID) (Range, error) {
	if slot == common.UnassignedSlot || uint32(slot) > b.capacity {
		return Range{}, &common.OutOfRangeError{
			Buffer: b.label,
			Slot:   slot,
			Offset: uint64(slot) * uint64(b.layout.Stride),
			Size:   uint64(b.layout.Stride),
			Limit:  uint64(len(b.data)),
		}
	}
	return Range{
		Offset: uint64(slot.Index()) * uint64(b.layout.Stride),
		Size:   uint64(b.layout.Stride),
	}, nil
}

func (b *gpuMirrorBuffer) FieldOffset(slot common.SlotID, field FieldDescriptor) (uint64, error) {
	return b.fieldRange(slot, field, field.Size)
}

// fieldRange validates a write of size bytes at field inside slot and returns its absolute offset.
func (b *gpuMirrorBuffer) fieldRange(slot common.SlotID, field FieldDescriptor, size uint32) (uint64, error) {
	rec, err := b.RecordRange(slot)
	if err != nil {
		return 0, err
	}
	if size > field.Size || uint64(field.Offset)+uint64(size) > uint64(b.layout.Stride) {
		return 0, &common.OutOfRangeError{
			Buffer: b.label,
			Slot:   slot,
			Offset: rec.Offset + uint64(field.Offset),
			Size:   uint64(size),
			Limit:  rec.End(),
		}
	}
	return rec.Offset + uint64(field.Offset), nil
}

func (b *gpuMirrorBuffer) WriteField(slot common.SlotID, field FieldDescriptor, data []byte) error {
	off, err := b.fieldRange(slot, field, uint32(len(data)))
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.data[off:off+uint64(len(data))], data)
	b.markLocked(off, uint64(len(data)))
	return nil
}

func (b *gpuMirrorBuffer) WriteFloat32(slot common.SlotID, field FieldDescriptor, v float32) error {
	return b.WriteUint32(slot, field, math.Float32bits(v))
}

func (b *gpuMirrorBuffer) WriteUint32(slot common.SlotID, field FieldDescriptor, v uint32) error {
	off, err := b.fieldRange(slot, field, 4)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	binary.LittleEndian.PutUint32(b.data[off:off+4], v)
	b.markLocked(off, 4)
	return nil
}

func (b *gpuMirrorBuffer) WriteFloat32s(slot common.SlotID, field FieldDescriptor, v []float32) error {
	size := uint32(len(v) * 4)
	off, err := b.fieldRange(slot, field, size)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, f := range v {
		at := off + uint64(i*4)
		binary.LittleEndian.PutUint32(b.data[at:at+4], math.Float32bits(f))
	}
	b.markLocked(off, uint64(size))
	return nil
}

func (b *gpuMirrorBuffer) ZeroRecord(slot common.SlotID) error {
	rec, err := b.RecordRange(slot)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.data[rec.Offset:rec.End()])
	b.markLocked(rec.Offset, rec.Size)
	return nil
}

func (b *gpuMirrorBuffer) CopyRecord(dst, src common.SlotID) error {
	to, err := b.RecordRange(dst)
	if err != nil {
		return err
	}
	from, err := b.RecordRange(src)
	if err != nil {
		return err
	}
	if dst == src {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.data[to.Offset:to.End()], b.data[from.Offset:from.End()])
	b.markLocked(to.Offset, to.Size)
	return nil
}

func (b *gpuMirrorBuffer) Record(slot common.SlotID) (RecordWriter, error) {
	if _, err := b.RecordRange(slot); err != nil {
		return nil, err
	}
	return &recordWriter{buf: b, slot: slot}, nil
}

func (b *gpuMirrorBuffer) Snapshot(offset, size uint64) ([]byte, error) {
	if offset+size > uint64(len(b.data)) || offset+size < offset {
		return nil, &common.OutOfRangeError{Buffer: b.label, Offset: offset, Size: size, Limit: uint64(len(b.data))}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, size)
	copy(out, b.data[offset:offset+size])
	return out, nil
}

func (b *gpuMirrorBuffer) TakeDirtyRanges() []Range {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.dirty) == 0 {
		return nil
	}
	out := b.dirty
	b.dirty = nil
	return out
}

// markLocked records a written range. Must be called with b.mu held.
func (b *gpuMirrorBuffer) markLocked(offset, size uint64) {
	if size == 0 {
		return
	}
	if n := len(b.dirty); n > 0 {
		last := &b.dirty[n-1]
		if offset >= last.Offset && offset <= last.End() {
			if end := offset + size; end > last.End() {
				last.Size = end - last.Offset
			}
			return
		}
	}
	b.dirty = append(b.dirty, Range{Offset: offset, Size: size})
}

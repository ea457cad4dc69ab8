package gpu_mirror

import "github.com/Carmen-Shannon/oxy-registry/common"

// RecordWriter writes typed fields into one slot of a mirror buffer.
// Serializers receive a RecordWriter so they never compute offsets themselves.
type RecordWriter interface {
	// Slot returns the slot this writer is bound to.
	Slot() common.SlotID

	// Float32 writes a scalar f32 field.
	Float32(field FieldDescriptor, v float32) error

	// Uint32 writes a scalar u32 field.
	Uint32(field FieldDescriptor, v uint32) error

	// Vec2 writes a vec2<f32> field.
	Vec2(field FieldDescriptor, v [2]float32) error

	// Vec3 writes a vec3<f32> field.
	Vec3(field FieldDescriptor, v [3]float32) error

	// Vec4 writes a vec4<f32> field.
	Vec4(field FieldDescriptor, v [4]float32) error

	// Mat3x4 writes a mat3x4<f32> field (three vec4 columns).
	Mat3x4(field FieldDescriptor, v [12]float32) error

	// Mat4 writes a mat4x4<f32> field.
	Mat4(field FieldDescriptor, v [16]float32) error

	// Bytes writes raw little-endian bytes into a field.
	Bytes(field FieldDescriptor, data []byte) error
}

type recordWriter struct {
	buf  *gpuMirrorBuffer
	slot common.SlotID
}

var _ RecordWriter = &recordWriter{}

func (w *recordWriter) Slot() common.SlotID {
	return w.slot
}

func (w *recordWriter) Float32(field FieldDescriptor, v float32) error {
	return w.buf.WriteFloat32(w.slot, field, v)
}

func (w *recordWriter) Uint32(field FieldDescriptor, v uint32) error {
	return w.buf.WriteUint32(w.slot, field, v)
}

func (w *recordWriter) Vec2(field FieldDescriptor, v [2]float32) error {
	return w.buf.WriteFloat32s(w.slot, field, v[:])
}

func (w *recordWriter) Vec3(field FieldDescriptor, v [3]float32) error {
	return w.buf.WriteFloat32s(w.slot, field, v[:])
}

func (w *recordWriter) Vec4(field FieldDescriptor, v [4]float32) error {
	return w.buf.WriteFloat32s(w.slot, field, v[:])
}

func (w *recordWriter) Mat3x4(field FieldDescriptor, v [12]float32) error {
	return w.buf.WriteFloat32s(w.slot, field, v[:])
}

func (w *recordWriter) Mat4(field FieldDescriptor, v [16]float32) error {
	return w.buf.WriteFloat32s(w.slot, field, v[:])
}

func (w *recordWriter) Bytes(field FieldDescriptor, data []byte) error {
	return w.buf.WriteField(w.slot, field, data)
}

package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// MaxGPULights is the default capacity of the lights table. The shader iterates the live prefix of the buffer,
// so the capacity bounds how many lights the GPU can evaluate per frame.
const MaxGPULights = 1024

// Flag bits packed into GPULight.Flags.
const (
	gpuFlagEnabled      uint32 = 1 << 0
	gpuFlagCastsShadows uint32 = 1 << 1
)

// GPULightSource is the WGSL definition of the Light struct. Matches GPULight and Layout exactly.
const GPULightSource = `struct Light {
    position: vec3<f32>,
    light_type: u32,
    color: vec3<f32>,
    intensity: f32,
    direction: vec3<f32>,
    range: f32,
    inner_cone: f32,
    outer_cone: f32,
    flags: u32,
    combination: u32,
};`

// GPULight is the GPU-aligned representation of a single light source.
// Size: 64 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position    [3]float32 // offset  0: world-space position (point/spot) or unused (directional)
	LightType   uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color       [3]float32 // offset 16: RGB color
	Intensity   float32    // offset 28: scalar multiplier
	Direction   [3]float32 // offset 32: normalized direction (directional/spot) or unused (point)
	LightRange  float32    // offset 44: attenuation cutoff distance
	InnerCone   float32    // offset 48: cos(inner half-angle) for spot
	OuterCone   float32    // offset 52: cos(outer half-angle) for spot
	Flags       uint32     // offset 56: bit 0 enabled, bit 1 casts shadows
	Combination uint32     // offset 60: CombinationID selecting the shading variant
}

// Layout is the mirror layout of GPULight.
var Layout = gpu_mirror.Layout{
	Name:   "Light",
	Stride: 64,
	Fields: []gpu_mirror.FieldDescriptor{
		{Name: "position", Offset: 0, Size: 12},
		{Name: "light_type", Offset: 12, Size: 4},
		{Name: "color", Offset: 16, Size: 12},
		{Name: "intensity", Offset: 28, Size: 4},
		{Name: "direction", Offset: 32, Size: 12},
		{Name: "range", Offset: 44, Size: 4},
		{Name: "inner_cone", Offset: 48, Size: 4},
		{Name: "outer_cone", Offset: 52, Size: 4},
		{Name: "flags", Offset: 56, Size: 4},
		{Name: "combination", Offset: 60, Size: 4},
	},
}

var (
	fieldPosition    = Layout.MustField("position")
	fieldLightType   = Layout.MustField("light_type")
	fieldColor       = Layout.MustField("color")
	fieldIntensity   = Layout.MustField("intensity")
	fieldDirection   = Layout.MustField("direction")
	fieldRange       = Layout.MustField("range")
	fieldInnerCone   = Layout.MustField("inner_cone")
	fieldOuterCone   = Layout.MustField("outer_cone")
	fieldFlags       = Layout.MustField("flags")
	fieldCombination = Layout.MustField("combination")
)

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	putVec3(buf[0:12], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	putVec3(buf[16:28], g.Color)
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	putVec3(buf[32:44], g.Direction)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	binary.LittleEndian.PutUint32(buf[56:60], g.Flags)
	binary.LittleEndian.PutUint32(buf[60:64], g.Combination)
	return buf
}

// Serialize writes the record into the mirror slot bound to w.
//
// Parameters:
//   - w: the record writer
//
// Returns:
//   - error: an error if the writer rejects a field
func (g *GPULight) Serialize(w gpu_mirror.RecordWriter) error {
	for _, f := range []struct {
		field gpu_mirror.FieldDescriptor
		v     [3]float32
	}{
		{fieldPosition, g.Position},
		{fieldColor, g.Color},
		{fieldDirection, g.Direction},
	} {
		if err := w.Vec3(f.field, f.v); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		field gpu_mirror.FieldDescriptor
		v     float32
	}{
		{fieldIntensity, g.Intensity},
		{fieldRange, g.LightRange},
		{fieldInnerCone, g.InnerCone},
		{fieldOuterCone, g.OuterCone},
	} {
		if err := w.Float32(f.field, f.v); err != nil {
			return err
		}
	}
	if err := w.Uint32(fieldLightType, g.LightType); err != nil {
		return err
	}
	if err := w.Uint32(fieldFlags, g.Flags); err != nil {
		return err
	}
	return w.Uint32(fieldCombination, g.Combination)
}

func putVec3(buf []byte, v [3]float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

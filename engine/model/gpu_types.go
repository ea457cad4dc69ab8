package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// GPUModelDataSource is the WGSL definition of the ModelData struct. Matches GPUModelData and Layout exactly.
const GPUModelDataSource = `struct ModelData {
    model: mat4x4<f32>,
    normal: mat3x4<f32>,
    combination: u32,
    bounding_radius: f32,
    _pad: vec2<u32>,
};`

// GPUModelData is the GPU-aligned per-draw record.
// Size: 128 bytes (std430 aligned).
type GPUModelData struct {
	Model          [16]float32 // offset 0: 4x4 model-to-world matrix (64 bytes)
	Normal         [12]float32 // offset 64: inverse-transpose rotation/scale as three vec4 columns (48 bytes)
	Combination    uint32      // offset 112: CombinationID selecting the pipeline variant
	BoundingRadius float32     // offset 116: world-space bounding sphere radius
	_              [2]uint32   // offset 120: padding
}

// Layout is the mirror layout of GPUModelData.
var Layout = gpu_mirror.Layout{
	Name:   "ModelData",
	Stride: 128,
	Fields: []gpu_mirror.FieldDescriptor{
		{Name: "model", Offset: 0, Size: 64},
		{Name: "normal", Offset: 64, Size: 48},
		{Name: "combination", Offset: 112, Size: 4},
		{Name: "bounding_radius", Offset: 116, Size: 4},
	},
}

var (
	fieldModel          = Layout.MustField("model")
	fieldNormal         = Layout.MustField("normal")
	fieldCombination    = Layout.MustField("combination")
	fieldBoundingRadius = Layout.MustField("bounding_radius")
)

// Size returns the size of the GPUModelData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUModelData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload.
func (g *GPUModelData) Marshal() []byte {
	buf := make([]byte, 128)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	for i := 0; i < 12; i++ {
		binary.LittleEndian.PutUint32(buf[64+i*4:64+(i+1)*4], math.Float32bits(g.Normal[i]))
	}
	binary.LittleEndian.PutUint32(buf[112:116], g.Combination)
	binary.LittleEndian.PutUint32(buf[116:120], math.Float32bits(g.BoundingRadius))
	return buf
}

// ComputeBoundingRadius calculates the bounding sphere radius of a mesh from its vertex positions.
// The radius is the maximum distance from the origin across all positions.
//
// Parameters:
//   - positions: the model-space vertex positions
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(positions [][3]float32) float32 {
	var maxDistSq float32
	for _, p := range positions {
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

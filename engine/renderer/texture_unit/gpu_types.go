package texture_unit

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// GPUTextureUnitSource is the WGSL definition of the TextureUnit struct. Matches GPUTextureUnit and Layout.
const GPUTextureUnitSource = `struct TextureUnit {
    uv_transform: mat3x4<f32>,
    texcoord: u32,
    texture_index: u32,
    _pad: vec2<u32>,
};`

// GPUTextureUnit is the GPU-aligned texture unit record. The UV transform is a 3x3 matrix stored as three
// vec4 columns so it can be applied as (transform * vec3(uv, 1)).xy.
// Size: 64 bytes (std430 aligned).
type GPUTextureUnit struct {
	UVTransform  [12]float32 // offset 0: column-major 3x4 UV matrix (48 bytes)
	TexCoord     uint32      // offset 48: UV set sampled by the unit
	TextureIndex uint32      // offset 52: index into the bound texture array
	_            [2]uint32   // offset 56: padding
}

// Layout is the mirror layout of GPUTextureUnit.
var Layout = gpu_mirror.Layout{
	Name:   "TextureUnit",
	Stride: 64,
	Fields: []gpu_mirror.FieldDescriptor{
		{Name: "uv_transform", Offset: 0, Size: 48},
		{Name: "texcoord", Offset: 48, Size: 4},
		{Name: "texture_index", Offset: 52, Size: 4},
	},
}

var (
	fieldUVTransform  = Layout.MustField("uv_transform")
	fieldTexCoord     = Layout.MustField("texcoord")
	fieldTextureIndex = Layout.MustField("texture_index")
)

// Size returns the size of the GPUTextureUnit struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUTextureUnit) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUTextureUnit struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUTextureUnit) Marshal() []byte {
	buf := make([]byte, 64)
	for i, v := range g.UVTransform {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[48:52], g.TexCoord)
	binary.LittleEndian.PutUint32(buf[52:56], g.TextureIndex)
	return buf
}

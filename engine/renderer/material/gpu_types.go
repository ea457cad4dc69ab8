package material

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// GPUMaterialSource is the WGSL definition of the Material struct. Matches GPUMaterial and Layout exactly.
const GPUMaterialSource = `struct Material {
    base_color: vec4<f32>,
    emissive: vec3<f32>,
    metallic: f32,
    roughness: f32,
    normal_scale: f32,
    occlusion_strength: f32,
    alpha_cutoff: f32,
    texture_flags: u32,
    alpha_mode: u32,
    combination: u32,
    _pad: u32,
};`

// GPUMaterial is the GPU-aligned material record, one per material slot.
// Size: 64 bytes (std430 aligned).
type GPUMaterial struct {
	BaseColor         [4]float32 // offset 0: linear RGBA base color (16 bytes)
	Emissive          [3]float32 // offset 16: linear RGB emissive factor (12 bytes)
	Metallic          float32    // offset 28
	Roughness         float32    // offset 32
	NormalScale       float32    // offset 36
	OcclusionStrength float32    // offset 40
	AlphaCutoff       float32    // offset 44
	TextureFlags      uint32     // offset 48: TextureFlag bits of the bound maps
	AlphaMode         uint32     // offset 52
	Combination       uint32     // offset 56: CombinationID selecting the shader variant
	_                 uint32     // offset 60: padding
}

// Layout is the mirror layout of GPUMaterial.
var Layout = gpu_mirror.Layout{
	Name:   "Material",
	Stride: 64,
	Fields: []gpu_mirror.FieldDescriptor{
		{Name: "base_color", Offset: 0, Size: 16},
		{Name: "emissive", Offset: 16, Size: 12},
		{Name: "metallic", Offset: 28, Size: 4},
		{Name: "roughness", Offset: 32, Size: 4},
		{Name: "normal_scale", Offset: 36, Size: 4},
		{Name: "occlusion_strength", Offset: 40, Size: 4},
		{Name: "alpha_cutoff", Offset: 44, Size: 4},
		{Name: "texture_flags", Offset: 48, Size: 4},
		{Name: "alpha_mode", Offset: 52, Size: 4},
		{Name: "combination", Offset: 56, Size: 4},
	},
}

var (
	fieldBaseColor         = Layout.MustField("base_color")
	fieldEmissive          = Layout.MustField("emissive")
	fieldMetallic          = Layout.MustField("metallic")
	fieldRoughness         = Layout.MustField("roughness")
	fieldNormalScale       = Layout.MustField("normal_scale")
	fieldOcclusionStrength = Layout.MustField("occlusion_strength")
	fieldAlphaCutoff       = Layout.MustField("alpha_cutoff")
	fieldTextureFlags      = Layout.MustField("texture_flags")
	fieldAlphaMode         = Layout.MustField("alpha_mode")
	fieldCombination       = Layout.MustField("combination")
)

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, 64)
	for i, v := range g.BaseColor {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.Emissive {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.NormalScale))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.OcclusionStrength))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.AlphaCutoff))
	binary.LittleEndian.PutUint32(buf[48:52], g.TextureFlags)
	binary.LittleEndian.PutUint32(buf[52:56], g.AlphaMode)
	binary.LittleEndian.PutUint32(buf[56:60], g.Combination)
	return buf
}

// Serialize writes the record into the mirror slot bound to w.
//
// Parameters:
//   - w: the record writer
//
// Returns:
//   - error: an error if the writer rejects a field
func (g *GPUMaterial) Serialize(w gpu_mirror.RecordWriter) error {
	if err := w.Vec4(fieldBaseColor, g.BaseColor); err != nil {
		return err
	}
	if err := w.Vec3(fieldEmissive, g.Emissive); err != nil {
		return err
	}
	for _, f := range []struct {
		field gpu_mirror.FieldDescriptor
		v     float32
	}{
		{fieldMetallic, g.Metallic},
		{fieldRoughness, g.Roughness},
		{fieldNormalScale, g.NormalScale},
		{fieldOcclusionStrength, g.OcclusionStrength},
		{fieldAlphaCutoff, g.AlphaCutoff},
	} {
		if err := w.Float32(f.field, f.v); err != nil {
			return err
		}
	}
	if err := w.Uint32(fieldTextureFlags, g.TextureFlags); err != nil {
		return err
	}
	if err := w.Uint32(fieldAlphaMode, g.AlphaMode); err != nil {
		return err
	}
	return w.Uint32(fieldCombination, g.Combination)
}

package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// AlphaMode selects how the material's alpha channel is interpreted.
type AlphaMode uint32

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

// TextureFlag marks which texture maps a material binds.
type TextureFlag uint32

const (
	TextureBaseColor TextureFlag = 1 << iota
	TextureNormal
	TextureMetallicRoughness
	TextureOcclusion
	TextureEmissive
)

// Component names contributed by materials.
const (
	FeatureBaseColorMap         = "base_color_map"
	FeatureNormalMap            = "normal_map"
	FeatureMetallicRoughnessMap = "metallic_roughness_map"
	FeatureOcclusionMap         = "occlusion_map"
	FeatureEmissiveMap          = "emissive_map"
	FeatureAlphaMask            = "alpha_mask"
	FeatureAlphaBlend           = "alpha_blend"
	FeatureDoubleSided          = "double_sided"
)

// Features lists every component name a material can report.
var Features = []string{
	FeatureBaseColorMap,
	FeatureNormalMap,
	FeatureMetallicRoughnessMap,
	FeatureOcclusionMap,
	FeatureEmissiveMap,
	FeatureAlphaMask,
	FeatureAlphaBlend,
	FeatureDoubleSided,
}

var textureFeatures = []struct {
	flag    TextureFlag
	feature string
}{
	{TextureBaseColor, FeatureBaseColorMap},
	{TextureNormal, FeatureNormalMap},
	{TextureMetallicRoughness, FeatureMetallicRoughnessMap},
	{TextureOcclusion, FeatureOcclusionMap},
	{TextureEmissive, FeatureEmissiveMap},
}

// material is the implementation of the Material interface.
type material struct {
	common.SlotHandle
	mu *sync.Mutex

	name              string
	baseColor         [4]float32
	emissive          [3]float32
	metallic          float32
	roughness         float32
	normalScale       float32
	occlusionStrength float32
	alphaCutoff       float32
	alphaMode         AlphaMode
	doubleSided       bool
	textures          TextureFlag
	combination       common.CombinationID
}

// Material is a surface description stored in the materials table. Scalar factors are mutable at runtime and
// every setter queues the material for upload. Texture maps, alpha mode and sidedness select the shader
// variant and are fixed at construction.
type Material interface {
	registry.Record
	registry.Featured

	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the linear RGBA base color.
	//
	// Returns:
	//   - [4]float32: the base color
	BaseColor() [4]float32

	// Emissive retrieves the linear RGB emissive factor.
	//
	// Returns:
	//   - [3]float32: the emissive factor
	Emissive() [3]float32

	// Metallic retrieves the metallic factor (0 dielectric, 1 metal).
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor (0 smooth, 1 rough).
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// NormalScale retrieves the scale applied to sampled normals.
	//
	// Returns:
	//   - float32: the normal scale
	NormalScale() float32

	// AlphaMode retrieves how alpha is interpreted.
	//
	// Returns:
	//   - AlphaMode: the alpha mode
	AlphaMode() AlphaMode

	// Textures retrieves the bound texture maps.
	//
	// Returns:
	//   - TextureFlag: the texture flags
	Textures() TextureFlag

	// CombinationID retrieves the interned combination of the material's features.
	//
	// Returns:
	//   - common.CombinationID: the combination
	CombinationID() common.CombinationID

	// SetBaseColor sets the base color.
	//
	// Parameters:
	//   - color: the linear RGBA base color
	SetBaseColor(color [4]float32)

	// SetEmissive sets the emissive factor.
	//
	// Parameters:
	//   - emissive: the linear RGB emissive factor
	SetEmissive(emissive [3]float32)

	// SetMetallicRoughness sets the metallic and roughness factors together.
	//
	// Parameters:
	//   - metallic: the metallic factor
	//   - roughness: the roughness factor
	SetMetallicRoughness(metallic, roughness float32)

	// SetNormalScale sets the normal scale.
	//
	// Parameters:
	//   - scale: the normal scale
	SetNormalScale(scale float32)

	// SetAlphaCutoff sets the alpha cutoff used in AlphaModeMask.
	//
	// Parameters:
	//   - cutoff: the alpha cutoff
	SetAlphaCutoff(cutoff float32)

	// GPU returns a snapshot of the material's GPU record.
	//
	// Returns:
	//   - GPUMaterial: the record
	GPU() GPUMaterial
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:                &sync.Mutex{},
		baseColor:         [4]float32{1, 1, 1, 1},
		metallic:          0.0,
		roughness:         1.0,
		normalScale:       1.0,
		occlusionStrength: 1.0,
		alphaCutoff:       0.5,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseColor
}

func (m *material) Emissive() [3]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emissive
}

func (m *material) Metallic() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metallic
}

func (m *material) Roughness() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roughness
}

func (m *material) NormalScale() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.normalScale
}

func (m *material) AlphaMode() AlphaMode {
	return m.alphaMode
}

func (m *material) Textures() TextureFlag {
	return m.textures
}

func (m *material) CombinationID() common.CombinationID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.combination
}

func (m *material) Features() []string {
	var out []string
	for _, tf := range textureFeatures {
		if m.textures&tf.flag != 0 {
			out = append(out, tf.feature)
		}
	}
	switch m.alphaMode {
	case AlphaModeMask:
		out = append(out, FeatureAlphaMask)
	case AlphaModeBlend:
		out = append(out, FeatureAlphaBlend)
	}
	if m.doubleSided {
		out = append(out, FeatureDoubleSided)
	}
	return out
}

func (m *material) SetCombinationID(id common.CombinationID) {
	m.update(func() { m.combination = id })
}

func (m *material) SetBaseColor(color [4]float32) {
	m.update(func() { m.baseColor = color })
}

func (m *material) SetEmissive(emissive [3]float32) {
	m.update(func() { m.emissive = emissive })
}

func (m *material) SetMetallicRoughness(metallic, roughness float32) {
	m.update(func() {
		m.metallic = metallic
		m.roughness = roughness
	})
}

func (m *material) SetNormalScale(scale float32) {
	m.update(func() { m.normalScale = scale })
}

func (m *material) SetAlphaCutoff(cutoff float32) {
	m.update(func() { m.alphaCutoff = cutoff })
}

// update applies fn under the lock and then notifies the owning table.
func (m *material) update(fn func()) {
	m.mu.Lock()
	fn()
	m.mu.Unlock()
	m.Notify(m)
}

func (m *material) GPU() GPUMaterial {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GPUMaterial{
		BaseColor:         m.baseColor,
		Emissive:          m.emissive,
		Metallic:          m.metallic,
		Roughness:         m.roughness,
		NormalScale:       m.normalScale,
		OcclusionStrength: m.occlusionStrength,
		AlphaCutoff:       m.alphaCutoff,
		TextureFlags:      uint32(m.textures),
		AlphaMode:         uint32(m.alphaMode),
		Combination:       uint32(m.combination),
	}
}

func (m *material) Serialize(w gpu_mirror.RecordWriter) error {
	g := m.GPU()
	return g.Serialize(w)
}

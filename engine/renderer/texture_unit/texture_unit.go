// Package texture_unit implements the per-texture sampling record: which texture and UV set a material
// samples and the UV transform applied before sampling.
package texture_unit

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// Component names contributed by texture units.
const (
	FeatureTextureTransform = "texture_transform"
	FeatureTexCoord1        = "texcoord_1"
)

// Features lists every component name a texture unit can report.
var Features = []string{FeatureTextureTransform, FeatureTexCoord1}

// textureUnit is the implementation of the TextureUnit interface.
type textureUnit struct {
	common.SlotHandle
	mu *sync.Mutex

	textureIndex uint32
	texCoord     uint32
	offset       [2]float32
	scale        [2]float32
	rotation     float32
	transformed  bool
}

// TextureUnit is a texture binding with an optional UV transform. Whether the transform stage exists in the
// shader is decided at construction; the transform values themselves can be animated afterwards.
type TextureUnit interface {
	registry.Record

	// Features returns the component names of the unit.
	Features() []string

	// SetCombinationID is a no-op: texture units are sampled through their material's variant.
	SetCombinationID(id common.CombinationID)

	// TextureIndex retrieves the index of the sampled texture.
	//
	// Returns:
	//   - uint32: the texture index
	TextureIndex() uint32

	// TexCoord retrieves the UV set sampled by the unit.
	//
	// Returns:
	//   - uint32: the UV set
	TexCoord() uint32

	// Transform retrieves the UV offset, rotation (radians) and scale.
	//
	// Returns:
	//   - [2]float32: the offset
	//   - float32: the rotation
	//   - [2]float32: the scale
	Transform() ([2]float32, float32, [2]float32)

	// SetTransform updates the UV transform and queues the unit for upload.
	//
	// Parameters:
	//   - offset: the UV translation
	//   - rotation: the rotation in radians
	//   - scale: the UV scale
	SetTransform(offset [2]float32, rotation float32, scale [2]float32)

	// SetTextureIndex points the unit at another texture and queues it for upload.
	//
	// Parameters:
	//   - index: the texture index
	SetTextureIndex(index uint32)

	// GPU returns a snapshot of the unit's GPU record.
	//
	// Returns:
	//   - GPUTextureUnit: the record
	GPU() GPUTextureUnit
}

var _ TextureUnit = &textureUnit{}
var _ registry.Featured = &textureUnit{}

// NewTextureUnit creates a TextureUnit sampling UV set 0 with an identity transform.
//
// Parameters:
//   - options: functional options to configure the unit
//
// Returns:
//   - TextureUnit: the new unit
func NewTextureUnit(options ...TextureUnitBuilderOption) TextureUnit {
	u := &textureUnit{
		mu:    &sync.Mutex{},
		scale: [2]float32{1, 1},
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

func (u *textureUnit) Features() []string {
	var out []string
	if u.transformed {
		out = append(out, FeatureTextureTransform)
	}
	if u.texCoord == 1 {
		out = append(out, FeatureTexCoord1)
	}
	return out
}

func (u *textureUnit) SetCombinationID(common.CombinationID) {}

func (u *textureUnit) TextureIndex() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.textureIndex
}

func (u *textureUnit) TexCoord() uint32 {
	return u.texCoord
}

func (u *textureUnit) Transform() ([2]float32, float32, [2]float32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.offset, u.rotation, u.scale
}

func (u *textureUnit) SetTransform(offset [2]float32, rotation float32, scale [2]float32) {
	u.mu.Lock()
	u.offset, u.rotation, u.scale = offset, rotation, scale
	u.mu.Unlock()
	u.Notify(u)
}

func (u *textureUnit) SetTextureIndex(index uint32) {
	u.mu.Lock()
	u.textureIndex = index
	u.mu.Unlock()
	u.Notify(u)
}

func (u *textureUnit) GPU() GPUTextureUnit {
	u.mu.Lock()
	defer u.mu.Unlock()
	g := GPUTextureUnit{TexCoord: u.texCoord, TextureIndex: u.textureIndex}
	common.BuildUVTransform(g.UVTransform[:], u.offset, u.rotation, u.scale)
	return g
}

func (u *textureUnit) Serialize(w gpu_mirror.RecordWriter) error {
	g := u.GPU()
	if err := w.Mat3x4(fieldUVTransform, g.UVTransform); err != nil {
		return err
	}
	if err := w.Uint32(fieldTexCoord, g.TexCoord); err != nil {
		return err
	}
	return w.Uint32(fieldTextureIndex, g.TextureIndex)
}

// Package loader imports glTF 2.0 materials as registry records: one Material per glTF material and one
// TextureUnit per texture reference, with KHR_texture_transform mapped onto the unit's UV transform.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/texture_unit"
	"go.uber.org/zap"
)

// ImportedMaterial is one glTF material converted to records.
type ImportedMaterial struct {
	Material material.Material

	// Units holds the material's texture units in base color, normal, metallic-roughness, occlusion,
	// emissive order, skipping maps the material does not bind.
	Units []texture_unit.TextureUnit
}

// Records returns the material followed by its texture units.
func (m ImportedMaterial) Records() []registry.Record {
	out := make([]registry.Record, 0, 1+len(m.Units))
	out = append(out, m.Material)
	for _, u := range m.Units {
		out = append(out, u)
	}
	return out
}

// loader is the implementation of the Loader interface.
type loader struct {
	logger *zap.Logger

	materials    registry.ObjectTable
	textureUnits registry.ObjectTable
}

// Loader imports glTF materials. When tables are configured every imported record is added to them;
// an import that fails part way removes the records it already added.
type Loader interface {
	// Load imports the materials of a .gltf or .glb file.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - []ImportedMaterial: the imported materials in document order
	//   - error: an error if the file cannot be read, parsed or added
	Load(path string) ([]ImportedMaterial, error)

	// LoadReader imports the materials of a glTF JSON or GLB stream.
	//
	// Parameters:
	//   - name: a name used in logs and errors
	//   - r: the reader providing the document
	//
	// Returns:
	//   - []ImportedMaterial: the imported materials in document order
	//   - error: an error if the stream cannot be read, parsed or added
	LoadReader(name string, r io.Reader) ([]ImportedMaterial, error)
}

var _ Loader = &loader{}

// NewLoader creates a Loader.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{logger: zap.NewNop()}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loader) Load(path string) ([]ImportedMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	glb := strings.EqualFold(filepath.Ext(path), ".glb") || isGLB(data)
	return l.load(filepath.Base(path), data, glb)
}

func (l *loader) LoadReader(name string, r io.Reader) ([]ImportedMaterial, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return l.load(name, data, isGLB(data))
}

func (l *loader) load(name string, data []byte, glb bool) ([]ImportedMaterial, error) {
	doc, err := parseDocument(data, glb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out := make([]ImportedMaterial, 0, len(doc.Materials))
	for i := range doc.Materials {
		m, err := convertMaterial(doc, i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, m)
	}

	if err := l.addAll(out); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	l.logger.Info("glTF materials imported", zap.String("source", name), zap.Int("materials", len(out)))
	return out, nil
}

// addAll adds every record to the configured tables, removing what it added if one Add fails.
func (l *loader) addAll(imported []ImportedMaterial) error {
	type added struct {
		table registry.ObjectTable
		rec   registry.Record
	}
	var done []added

	add := func(t registry.ObjectTable, rec registry.Record) error {
		if t == nil {
			return nil
		}
		if _, err := t.Add(rec); err != nil {
			return err
		}
		done = append(done, added{t, rec})
		return nil
	}

	for _, m := range imported {
		err := add(l.materials, m.Material)
		for _, u := range m.Units {
			if err != nil {
				break
			}
			err = add(l.textureUnits, u)
		}
		if err != nil {
			var rollback []error
			for i := len(done) - 1; i >= 0; i-- {
				if rerr := done[i].table.Remove(done[i].rec); rerr != nil {
					rollback = append(rollback, rerr)
				}
			}
			return errors.Join(append([]error{fmt.Errorf("add material %q: %w", m.Material.Name(), err)}, rollback...)...)
		}
	}
	return nil
}

// textureSlot pairs a glTF texture reference with the material flag it sets.
type textureSlot struct {
	info *gltfTextureInfo
	flag material.TextureFlag
}

func convertMaterial(doc *gltfDocument, index int) (ImportedMaterial, error) {
	gm := &doc.Materials[index]
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("material_%d", index)
	}

	metallic, roughness := float32(1), float32(1)
	opts := []material.MaterialBuilderOption{material.WithName(name)}
	var baseColor, metallicRoughness, normal, occlusion *gltfTextureInfo

	if pbr := gm.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			opts = append(opts, material.WithBaseColor(*pbr.BaseColorFactor))
		}
		if pbr.MetallicFactor != nil {
			metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			roughness = *pbr.RoughnessFactor
		}
		baseColor, metallicRoughness = pbr.BaseColorTexture, pbr.MetallicRoughnessTexture
	}
	opts = append(opts, material.WithMetallic(metallic), material.WithRoughness(roughness))

	if nt := gm.NormalTexture; nt != nil {
		normal = &nt.gltfTextureInfo
		if nt.Scale != nil {
			opts = append(opts, material.WithNormalScale(*nt.Scale))
		}
	}
	if ot := gm.OcclusionTexture; ot != nil {
		occlusion = &ot.gltfTextureInfo
		if ot.Strength != nil {
			opts = append(opts, material.WithOcclusionStrength(*ot.Strength))
		}
	}
	slots := []textureSlot{
		{baseColor, material.TextureBaseColor},
		{normal, material.TextureNormal},
		{metallicRoughness, material.TextureMetallicRoughness},
		{occlusion, material.TextureOcclusion},
		{gm.EmissiveTexture, material.TextureEmissive},
	}
	if gm.EmissiveFactor != nil {
		opts = append(opts, material.WithEmissive(*gm.EmissiveFactor))
	}

	switch gm.AlphaMode {
	case "", gltfAlphaModeOpaque:
	case gltfAlphaModeMask:
		cutoff := float32(0.5)
		if gm.AlphaCutoff != nil {
			cutoff = *gm.AlphaCutoff
		}
		opts = append(opts, material.WithAlphaMode(material.AlphaModeMask, cutoff))
	case gltfAlphaModeBlend:
		opts = append(opts, material.WithAlphaMode(material.AlphaModeBlend, 0))
	default:
		return ImportedMaterial{}, fmt.Errorf("material %q: unknown alpha mode %q", name, gm.AlphaMode)
	}
	if gm.DoubleSided {
		opts = append(opts, material.WithDoubleSided())
	}

	var units []texture_unit.TextureUnit
	var flags material.TextureFlag
	for _, s := range slots {
		if s.info == nil {
			continue
		}
		u, err := convertTextureUnit(doc, s.info)
		if err != nil {
			return ImportedMaterial{}, fmt.Errorf("material %q: %w", name, err)
		}
		units = append(units, u)
		flags |= s.flag
	}
	opts = append(opts, material.WithTextures(flags))

	return ImportedMaterial{Material: material.NewMaterial(opts...), Units: units}, nil
}

// convertTextureUnit maps a texture reference onto a unit. The unit samples the texture's image index, or the
// texture index itself when the texture has no source image.
func convertTextureUnit(doc *gltfDocument, info *gltfTextureInfo) (texture_unit.TextureUnit, error) {
	if info.Index < 0 || info.Index >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", info.Index)
	}
	index := uint32(info.Index)
	if src := doc.Textures[info.Index].Source; src != nil {
		index = uint32(*src)
	}

	texCoord := info.TexCoord
	opts := []texture_unit.TextureUnitBuilderOption{texture_unit.WithTextureIndex(index)}

	if info.Extensions != nil && info.Extensions.TextureTransform != nil && doc.usesTextureTransform() {
		tt := info.Extensions.TextureTransform
		offset, scale := [2]float32{}, [2]float32{1, 1}
		if tt.Offset != nil {
			offset = *tt.Offset
		}
		if tt.Scale != nil {
			scale = *tt.Scale
		}
		if tt.TexCoord != nil {
			texCoord = *tt.TexCoord
		}
		opts = append(opts, texture_unit.WithTransform(offset, tt.Rotation, scale))
	}
	if texCoord < 0 || texCoord > 1 {
		return nil, fmt.Errorf("texture %d: unsupported UV set %d", info.Index, texCoord)
	}
	opts = append(opts, texture_unit.WithTexCoord(uint32(texCoord)))
	return texture_unit.NewTextureUnit(opts...), nil
}

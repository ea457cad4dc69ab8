package loader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/texture_unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `{
  "asset": {"version": "2.0", "generator": "test"},
  "extensionsUsed": ["KHR_texture_transform"],
  "materials": [
    {
      "name": "brick",
      "pbrMetallicRoughness": {
        "baseColorFactor": [0.5, 0.5, 0.5, 1],
        "metallicFactor": 0,
        "roughnessFactor": 0.8,
        "baseColorTexture": {
          "index": 0,
          "extensions": {"KHR_texture_transform": {"offset": [0.5, 0], "rotation": 0.1, "scale": [2, 2], "texCoord": 1}}
        }
      },
      "normalTexture": {"index": 1, "scale": 0.7},
      "alphaMode": "MASK",
      "doubleSided": true
    },
    {
      "emissiveFactor": [1, 0, 0],
      "alphaMode": "BLEND"
    }
  ],
  "textures": [{"source": 3}, {}],
  "meshes": [{"primitives": []}]
}`

func TestLoadReaderConvertsMaterials(t *testing.T) {
	imported, err := NewLoader().LoadReader("test.gltf", strings.NewReader(testDocument))
	require.NoError(t, err)
	require.Len(t, imported, 2)

	brick := imported[0].Material
	assert.Equal(t, "brick", brick.Name())
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 1}, brick.BaseColor())
	assert.Equal(t, float32(0), brick.Metallic())
	assert.Equal(t, float32(0.8), brick.Roughness())
	assert.Equal(t, float32(0.7), brick.NormalScale())
	assert.Equal(t, material.AlphaModeMask, brick.AlphaMode())
	assert.Equal(t, material.TextureBaseColor|material.TextureNormal, brick.Textures())
	assert.Contains(t, brick.Features(), material.FeatureDoubleSided)

	require.Len(t, imported[0].Units, 2)
	base := imported[0].Units[0]
	assert.Equal(t, uint32(3), base.TextureIndex())
	assert.Equal(t, uint32(1), base.TexCoord())
	offset, rotation, scale := base.Transform()
	assert.Equal(t, [2]float32{0.5, 0}, offset)
	assert.Equal(t, float32(0.1), rotation)
	assert.Equal(t, [2]float32{2, 2}, scale)
	assert.ElementsMatch(t, []string{texture_unit.FeatureTextureTransform, texture_unit.FeatureTexCoord1}, base.Features())

	normal := imported[0].Units[1]
	assert.Equal(t, uint32(1), normal.TextureIndex(), "textures without an image sample their own index")
	assert.Empty(t, normal.Features())

	plain := imported[1].Material
	assert.Equal(t, "material_1", plain.Name())
	assert.Equal(t, [3]float32{1, 0, 0}, plain.Emissive())
	assert.Equal(t, material.AlphaModeBlend, plain.AlphaMode())
	assert.Empty(t, imported[1].Units)
	assert.Len(t, imported[1].Records(), 1)
}

func TestLoadFileAndGLB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.gltf")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o644))

	imported, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Len(t, imported, 2)

	glbPath := filepath.Join(dir, "scene.glb")
	require.NoError(t, os.WriteFile(glbPath, buildGLB(t, testDocument), 0o644))
	imported, err = NewLoader().Load(glbPath)
	require.NoError(t, err)
	assert.Len(t, imported, 2)

	_, err = NewLoader().Load(filepath.Join(dir, "missing.gltf"))
	assert.Error(t, err)
}

func TestLoadAddsRecordsToTables(t *testing.T) {
	reg, materials, units := newTables(t, 8)

	imported, err := NewLoader(WithMaterialTable(materials), WithTextureUnitTable(units)).
		LoadReader("test.gltf", strings.NewReader(testDocument))
	require.NoError(t, err)
	assert.Equal(t, 2, materials.Len())
	assert.Equal(t, 2, units.Len())

	brick := imported[0].Material
	assert.NotEqual(t, common.UnassignedSlot, brick.SlotID())
	set, err := reg.Components().FlagsFor(brick.Features()...)
	require.NoError(t, err)
	id, ok := reg.Combinations().Lookup(set)
	require.True(t, ok)
	assert.Equal(t, id, brick.CombinationID())
}

func TestLoadRollsBackOnAddFailure(t *testing.T) {
	_, materials, units := newTables(t, 1)

	_, err := NewLoader(WithMaterialTable(materials), WithTextureUnitTable(units)).
		LoadReader("test.gltf", strings.NewReader(testDocument))
	assert.ErrorIs(t, err, common.ErrCapacityExceeded)
	assert.Equal(t, 0, materials.Len())
	assert.Equal(t, 0, units.Len())
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader()
	cases := map[string]struct {
		doc string
		err error
	}{
		"version":  {`{"asset": {"version": "1.0"}}`, ErrInvalidGLTFVersion},
		"required": {`{"asset": {"version": "2.0"}, "extensionsRequired": ["KHR_draco_mesh_compression"]}`, ErrUnsupportedRequired},
		"texture":  {`{"asset": {"version": "2.0"}, "materials": [{"emissiveTexture": {"index": 4}}]}`, nil},
		"alpha":    {`{"asset": {"version": "2.0"}, "materials": [{"alphaMode": "DITHER"}]}`, nil},
		"json":     {`{"asset":`, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.LoadReader(name, strings.NewReader(tc.doc))
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}

	glb := buildGLB(t, testDocument)
	binary.LittleEndian.PutUint32(glb[4:8], 1)
	_, err := l.LoadReader("old.glb", bytes.NewReader(glb))
	assert.ErrorIs(t, err, ErrInvalidGLBVersion)
}

func newTables(t *testing.T, unitCapacity int) (registry.Registry, registry.ObjectTable, registry.ObjectTable) {
	t.Helper()
	reg := registry.NewRegistry()
	t.Cleanup(reg.Release)
	for _, name := range append(append([]string(nil), material.Features...), texture_unit.Features...) {
		_, err := reg.Components().RegisterComponent(name, nil)
		require.NoError(t, err)
	}
	materials, err := reg.NewTable("materials", material.Layout, registry.WithCapacity(8))
	require.NoError(t, err)
	units, err := reg.NewTable("texture_units", texture_unit.Layout, registry.WithCapacity(unitCapacity))
	require.NoError(t, err)
	return reg, materials, units
}

// buildGLB wraps a JSON document in a GLB container with a trailing empty BIN chunk.
func buildGLB(t *testing.T, doc string) []byte {
	t.Helper()
	jsonChunk := []byte(doc)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	var buf bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON}))
	buf.Write(jsonChunk)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: 0, ChunkType: 0x004E4942}))
	return buf.Bytes()
}

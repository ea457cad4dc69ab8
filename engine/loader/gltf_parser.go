package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Errors returned by the parser.
var (
	ErrInvalidGLTFVersion  = errors.New("invalid glTF version: must be 2.0")
	ErrInvalidGLBMagic     = errors.New("invalid GLB magic number")
	ErrInvalidGLBVersion   = errors.New("invalid GLB version: must be 2")
	ErrMissingJSONChunk    = errors.New("GLB file missing JSON chunk")
	ErrUnsupportedRequired = errors.New("glTF requires an unsupported extension")
)

// isGLB reports whether data starts with the GLB magic number.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic
}

// parseDocument decodes a glTF JSON document or a GLB container.
//
// Parameters:
//   - data: the raw file contents
//   - glb: true if data is a GLB container
//
// Returns:
//   - *gltfDocument: the decoded document
//   - error: a decode, version or extension error
func parseDocument(data []byte, glb bool) (*gltfDocument, error) {
	if glb {
		var err error
		if data, err = glbJSONChunk(data); err != nil {
			return nil, err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, ErrInvalidGLTFVersion
	}
	for _, ext := range doc.ExtensionsRequired {
		if ext != gltfExtTextureTransform {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedRequired, ext)
		}
	}
	return &doc, nil
}

// glbJSONChunk returns the JSON chunk of a GLB container. The binary chunk is ignored.
func glbJSONChunk(data []byte) ([]byte, error) {
	if len(data) < 12 {
		return nil, errors.New("GLB file too small")
	}
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, ErrInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, ErrInvalidGLBVersion
	}

	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrMissingJSONChunk
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		if chunk.ChunkType != gltfGLBChunkJSON {
			if _, err := r.Seek(int64(chunk.ChunkLength), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to skip chunk: %w", err)
			}
			continue
		}
		out := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("failed to read chunk data: %w", err)
		}
		return out, nil
	}
}

// usesTextureTransform reports whether the document declares KHR_texture_transform.
func (d *gltfDocument) usesTextureTransform() bool {
	return slices.Contains(d.ExtensionsUsed, gltfExtTextureTransform)
}

package shader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// ErrLayoutMismatch is returned when a Go mirror layout disagrees with the WGSL struct it feeds.
var ErrLayoutMismatch = errors.New("mirror layout does not match WGSL struct")

// wgslTypeLayout holds the byte size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is a single field extracted from a WGSL struct.
type parsedField struct {
	name     string
	typeName string
}

// parsedStruct is a WGSL struct block extracted during parsing.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// StructLayout is the host-shareable layout of a WGSL struct.
type StructLayout struct {
	Name  string
	Size  uint64
	Align uint64
	// Offsets maps each field name to its byte offset.
	Offsets map[string]uint64
	// Sizes maps each field name to its byte size.
	Sizes map[string]uint64
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)
)

// wgslPrimitiveLayoutMap maps WGSL scalar, vector and matrix type names to their byte size and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4}, "f16": {2, 2},

	"vec2<f32>": {8, 8}, "vec2f": {8, 8},
	"vec3<f32>": {12, 16}, "vec3f": {12, 16},
	"vec4<f32>": {16, 16}, "vec4f": {16, 16},
	"vec2<i32>": {8, 8}, "vec2i": {8, 8},
	"vec3<i32>": {12, 16}, "vec3i": {12, 16},
	"vec4<i32>": {16, 16}, "vec4i": {16, 16},
	"vec2<u32>": {8, 8}, "vec2u": {8, 8},
	"vec3<u32>": {12, 16}, "vec3u": {12, 16},
	"vec4<u32>": {16, 16}, "vec4u": {16, 16},

	// matCxR<f32>: C columns of vecR<f32>
	"mat2x2<f32>": {16, 8},
	"mat2x3<f32>": {32, 16},
	"mat2x4<f32>": {32, 16},
	"mat3x2<f32>": {24, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x4<f32>": {48, 16},
	"mat4x2<f32>": {32, 8},
	"mat4x3<f32>": {64, 16},
	"mat4x4<f32>": {64, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// ParseStructLayouts computes the layout of every struct in a WGSL source whose fields all have a fixed size.
// Structs may reference structs declared elsewhere in the same source.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - map[string]StructLayout: the layouts keyed by struct name
func ParseStructLayouts(source string) map[string]StructLayout {
	structs := parseStructBlocks(stripComments(source))
	known := make(map[string]wgslTypeLayout, len(structs))
	out := make(map[string]StructLayout, len(structs))

	remaining := structs
	for len(remaining) > 0 {
		next := remaining[:0:0]
		for _, ps := range remaining {
			if sl, ok := computeStructLayout(ps, known); ok {
				known[ps.name] = wgslTypeLayout{sl.Size, sl.Align}
				out[ps.name] = sl
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return out
}

// ValidateLayout checks a mirror layout against the WGSL struct it is uploaded into: the stride must equal the
// struct size and every layout field must sit at the offset and size of the WGSL field of the same name.
//
// Parameters:
//   - source: WGSL source declaring the struct named layout.Name
//   - layout: the mirror layout
//
// Returns:
//   - error: ErrLayoutMismatch describing the first disagreement, or nil
func ValidateLayout(source string, layout gpu_mirror.Layout) error {
	sl, ok := ParseStructLayouts(source)[layout.Name]
	if !ok {
		return fmt.Errorf("%w: struct %s not found", ErrLayoutMismatch, layout.Name)
	}
	if uint64(layout.Stride) != sl.Size {
		return fmt.Errorf("%w: %s stride %d, WGSL size %d", ErrLayoutMismatch, layout.Name, layout.Stride, sl.Size)
	}
	for _, f := range layout.Fields {
		off, ok := sl.Offsets[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s has no field %s", ErrLayoutMismatch, layout.Name, f.Name)
		}
		if uint64(f.Offset) != off || uint64(f.Size) != sl.Sizes[f.Name] {
			return fmt.Errorf("%w: %s.%s at %d+%d, WGSL %d+%d", ErrLayoutMismatch, layout.Name, f.Name, f.Offset, f.Size, off, sl.Sizes[f.Name])
		}
	}
	return nil
}

// ValidateRegisteredLayouts validates the mirror layout of every struct the pre-processor can include.
//
// Returns:
//   - error: the mismatches joined, or nil
func ValidateRegisteredLayouts() error {
	var errs []error
	for key, entry := range structRegistry {
		if err := ValidateLayout(entry.Source, entry.Layout); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{name: match[1], fields: parseStructFields(match[2])})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if fm := fieldRegex.FindStringSubmatch(part); fm != nil {
			fields = append(fields, parsedField{name: fm[1], typeName: strings.TrimSpace(fm[2])})
		}
	}
	return fields
}

// resolveTypeLayout resolves a type through the primitives, the known structs and fixed-size arrays.
// Runtime-sized arrays are not resolvable.
func resolveTypeLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}
	if inner, ok := strings.CutPrefix(typeName, "array<"); ok && strings.HasSuffix(inner, ">") {
		elemType, countStr, fixed := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
		if !fixed {
			return wgslTypeLayout{}, false
		}
		elem, ok := resolveTypeLayout(strings.TrimSpace(elemType), known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
		if err != nil {
			return wgslTypeLayout{}, false
		}
		return wgslTypeLayout{count * common.AlignUp(elem.size, elem.align), elem.align}, true
	}
	return wgslTypeLayout{}, false
}

// computeStructLayout places each field at the next aligned offset and rounds the total size up to the
// struct's alignment, the largest alignment of its fields.
func computeStructLayout(ps parsedStruct, known map[string]wgslTypeLayout) (StructLayout, bool) {
	sl := StructLayout{
		Name:    ps.name,
		Align:   1,
		Offsets: make(map[string]uint64, len(ps.fields)),
		Sizes:   make(map[string]uint64, len(ps.fields)),
	}
	offset := uint64(0)
	for _, field := range ps.fields {
		fl, ok := resolveTypeLayout(field.typeName, known)
		if !ok {
			return StructLayout{}, false
		}
		offset = common.AlignUp(offset, fl.align)
		sl.Offsets[field.name] = offset
		sl.Sizes[field.name] = fl.size
		offset += fl.size
		sl.Align = max(sl.Align, fl.align)
	}
	sl.Size = common.AlignUp(offset, sl.Align)
	return sl, true
}

// stripComments removes line comments and nested block comments from WGSL source.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits s on commas that are not nested inside angle brackets.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

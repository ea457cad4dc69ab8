// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that inject registered record structs, declare mirror buffer bindings and
// gate blocks of source on the features of a combination.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered record struct at the annotation site.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include material
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and is recorded in the PreProcessor's declarations list so the renderer can match
	// the binding to the mirror buffer of the table holding that struct type.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 1 0 storage_read materials array<material>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// annotationTypeIf opens a block that is kept only when the feature is active.
	// A leading "!" negates the test. Blocks nest.
	//
	// Syntax: //@oxy:if <feature> | //@oxy:if !<feature>
	annotationTypeIf AnnotationType = "if"

	// annotationTypeElse flips the innermost open block.
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndIf closes the innermost open block.
	annotationTypeEndIf AnnotationType = "endif"

	// annotationTypeFragments injects the registered fragment source of every active
	// component that declares one, in feature order.
	//
	// Syntax: //@oxy:fragments
	annotationTypeFragments AnnotationType = "fragments"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key (e.g. "light")
	//   - group:   [0] = address space, [1] = var name, [2] = WGSL type key
	//   - if:      [0] = feature name
	Args []AnnotationArg

	// Negate is set for "if !feature".
	Negate bool

	// Line is the 1-based line number in the original WGSL source where this annotation was found.
	Line int

	// Group is the @group index for group annotations. Nil otherwise.
	Group *int

	// Binding is the @binding index for group annotations. Nil otherwise.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// Struct type arguments. Each maps to a record package whose GPU struct is mirrored by a registry table.
const (
	// AnnotationArgMaterial identifies the Material struct.
	AnnotationArgMaterial AnnotationArg = "material"

	// AnnotationArgTextureUnit identifies the TextureUnit struct.
	AnnotationArgTextureUnit AnnotationArg = "texture_unit"

	// AnnotationArgModelData identifies the ModelData struct holding per-draw model matrices.
	AnnotationArgModelData AnnotationArg = "model_data"

	// AnnotationArgLight identifies the Light struct.
	AnnotationArgLight AnnotationArg = "light"
)

// Address space arguments for @oxy:group annotations.
const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite maps to var<storage, read_write> in WGSL.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// validStructTypes lists every struct type accepted by include and group annotations.
var validStructTypes = []AnnotationArg{
	AnnotationArgMaterial,
	AnnotationArgTextureUnit,
	AnnotationArgModelData,
	AnnotationArgLight,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	case AnnotationTypeBindingGroup:
		return parseGroup(args, lineNum)
	case annotationTypeIf:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy if annotation requires exactly one feature", lineNum)
		}
		feature, negate := strings.CutPrefix(args[1], "!")
		if feature == "" {
			return nil, fmt.Errorf("line %d: empty feature in @oxy if annotation", lineNum)
		}
		return &Annotation{Type: annotationTypeIf, Args: []AnnotationArg{AnnotationArg(feature)}, Negate: negate, Line: lineNum}, nil
	case annotationTypeElse, annotationTypeEndIf, annotationTypeFragments:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation takes no arguments", lineNum, args[0])
		}
		return &Annotation{Type: AnnotationType(args[0]), Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation %q", lineNum, args[0])
	}
}

func parseGroup(args []string, lineNum int) (*Annotation, error) {
	if len(args) != 6 {
		return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group, binding, address space, var name, struct type)", lineNum)
	}
	groupInt, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation: %v", lineNum, args[1], err)
	}
	bindingInt, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation: %v", lineNum, args[2], err)
	}
	if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
		return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
	}
	typeArg := args[5]
	if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
		typeArg = strings.TrimSuffix(inner, ">")
	}
	if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
		return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, typeArg)
	}
	return &Annotation{
		Type:    AnnotationTypeBindingGroup,
		Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
		Line:    lineNum,
		Group:   &groupInt,
		Binding: &bindingInt,
	}, nil
}

// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, keeps or drops feature-gated blocks for one set of
// active features, replaces the remaining annotations with generated WGSL and collects
// the binding declarations the renderer uses to attach mirror buffers.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-registry/engine/light"
	"github.com/Carmen-Shannon/oxy-registry/engine/model"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/texture_unit"
)

// registryEntry pairs a WGSL struct source with its type name and the mirror layout of the Go record.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "Material", "Light").
	Type string

	// Layout is the mirror layout the Go serializer writes for this struct.
	Layout gpu_mirror.Layout
}

// structRegistry maps struct type argument keys to their WGSL source, type name and mirror layout.
var structRegistry = map[AnnotationArg]registryEntry{
	AnnotationArgMaterial:    {Source: material.GPUMaterialSource, Type: "Material", Layout: material.Layout},
	AnnotationArgTextureUnit: {Source: texture_unit.GPUTextureUnitSource, Type: "TextureUnit", Layout: texture_unit.Layout},
	AnnotationArgModelData:   {Source: model.GPUModelDataSource, Type: "ModelData", Layout: model.Layout},
	AnnotationArgLight:       {Source: light.GPULightSource, Type: "Light", Layout: light.Layout},
}

// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
var addressSpaceRegistry = map[AnnotationArg]string{
	annotationArgStorageTypeUniform:   "var<uniform>",
	annotationArgStorageTypeRead:      "var<storage, read>",
	annotationArgStorageTypeReadWrite: "var<storage, read_write>",
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// fragments maps a component's shader fragment key to the WGSL injected by @oxy:fragments.
	fragments map[string]string

	// declarations accumulates group annotations during a Process call. Reset at the start of each call.
	declarations []Annotation
}

// PreProcessor turns annotated WGSL into the source of one shader variant.
// A PreProcessor is not safe for concurrent use; build one per goroutine.
type PreProcessor interface {
	// Process pre-processes source for the given active features. Blocks guarded by @oxy:if are kept
	// when their feature is active (or inactive, for "!feature"), @oxy:include annotations are replaced
	// with struct sources, @oxy:group annotations with binding declarations, and @oxy:fragments with the
	// fragment sources of the active features.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//   - features: the names of the active features
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if any annotation is malformed or a block is left unbalanced
	Process(source string, features []string) (string, error)

	// Declarations returns the group annotations kept by the most recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor.
//
// Parameters:
//   - options: functional options to configure the pre-processor
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{fragments: make(map[string]string)}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// condFrame is one open @oxy:if block.
type condFrame struct {
	// parentActive is whether the enclosing block emits lines.
	parentActive bool
	// taken is whether this block's own branch condition held.
	taken  bool
	inElse bool
	line   int
}

func (f condFrame) active() bool {
	if f.inElse {
		return f.parentActive && !f.taken
	}
	return f.parentActive && f.taken
}

func (p *preProcessor) Process(source string, features []string) (string, error) {
	p.declarations = p.declarations[:0]

	active := make(map[string]bool, len(features))
	for _, f := range features {
		active[f] = true
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []condFrame
	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active()
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if emitting() {
				out = append(out, line)
			}
			continue
		}

		switch a.Type {
		case annotationTypeIf:
			stack = append(stack, condFrame{
				parentActive: emitting(),
				taken:        active[string(a.Args[0])] != a.Negate,
				line:         a.Line,
			})
			continue
		case annotationTypeElse:
			if len(stack) == 0 || stack[len(stack)-1].inElse {
				return "", fmt.Errorf("line %d: @oxy else without matching if", a.Line)
			}
			stack[len(stack)-1].inElse = true
			continue
		case annotationTypeEndIf:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy endif without matching if", a.Line)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if !emitting() {
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			out = append(out, structRegistry[a.Args[0]].Source)
		case AnnotationTypeBindingGroup:
			addrSpace := addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				wgslType = fmt.Sprintf("array<%s>", structRegistry[AnnotationArg(inner)].Type)
			} else {
				wgslType = structRegistry[a.Args[2]].Type
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case annotationTypeFragments:
			for _, f := range features {
				if src, ok := p.fragments[f]; ok {
					out = append(out, src)
				}
			}
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", a.Line, a.Type)
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: unterminated @oxy if block", stack[len(stack)-1].line)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/combination"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/component"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
	"go.uber.org/zap"
)

// Variant is the pre-processed shader source of one combination.
type Variant struct {
	Combination common.CombinationID
	// Features lists the active component names followed by the fragment keys they declare.
	Features     []string
	Source       string
	Declarations []Annotation
}

// variantCompiler is the implementation of the VariantCompiler interface.
type variantCompiler struct {
	logger *zap.Logger

	key       string
	source    string
	fragments map[string]string

	components component.ComponentTable
	cache      *combination.VariantCache[Variant]
}

// VariantCompiler builds one shader Variant per CombinationID from a single annotated source.
// Variants are built on first request and shared by every record carrying the same combination.
// All operations are safe for concurrent use.
type VariantCompiler interface {
	// Key returns the shader key the compiler was created with.
	Key() string

	// Variant returns the variant of id, building it on first use.
	//
	// Parameters:
	//   - id: the combination to build for
	//
	// Returns:
	//   - Variant: the cached or newly built variant
	//   - error: *common.UnknownCombinationError for foreign IDs, or a pre-processing error
	Variant(id common.CombinationID) (Variant, error)

	// Len returns the number of variants built so far.
	Len() int

	// Each calls fn for every built variant in CombinationID order until fn returns false.
	Each(fn func(v Variant) bool)
}

var _ VariantCompiler = &variantCompiler{}

// NewVariantCompiler creates a VariantCompiler for an annotated WGSL source.
//
// Parameters:
//   - key: a name for the shader, used in logs and errors
//   - source: the annotated WGSL source
//   - components: the component table that names the bits of each combination
//   - combinations: the combination registry the IDs belong to
//   - options: functional options to configure the compiler
//
// Returns:
//   - VariantCompiler: the new compiler
func NewVariantCompiler(key, source string, components component.ComponentTable, combinations combination.CombinationRegistry, options ...VariantCompilerBuilderOption) VariantCompiler {
	c := &variantCompiler{
		logger:     zap.NewNop(),
		key:        key,
		source:     source,
		fragments:  make(map[string]string),
		components: components,
		cache:      combination.NewVariantCache[Variant](combinations),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *variantCompiler) Key() string {
	return c.key
}

func (c *variantCompiler) Variant(id common.CombinationID) (Variant, error) {
	return c.cache.GetOrBuild(id, func(flags flag_set.FlagSet) (Variant, error) {
		features := c.features(flags)
		pp := NewPreProcessor(WithFragments(c.fragments))
		src, err := pp.Process(c.source, features)
		if err != nil {
			return Variant{}, fmt.Errorf("shader %s: %w", c.key, err)
		}
		c.logger.Debug("shader variant built",
			zap.String("shader", c.key),
			zap.Uint32("combination", uint32(id)),
			zap.Strings("features", features),
		)
		return Variant{Combination: id, Features: features, Source: src, Declarations: pp.Declarations()}, nil
	})
}

// features names the components set in flags, then appends each one's shader fragment key.
func (c *variantCompiler) features(flags flag_set.FlagSet) []string {
	names := c.components.Names(flags)
	out := append([]string(nil), names...)
	for _, name := range names {
		entry, ok := c.components.Lookup(name)
		if !ok {
			continue
		}
		if frag := entry.Plugin.ShaderFragment(); frag != "" && frag != name {
			out = append(out, frag)
		}
	}
	return out
}

func (c *variantCompiler) Len() int {
	return c.cache.Len()
}

func (c *variantCompiler) Each(fn func(v Variant) bool) {
	c.cache.Range(func(_ common.CombinationID, v Variant) bool {
		return fn(v)
	})
}

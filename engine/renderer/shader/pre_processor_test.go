package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litSource = `//@oxy:include material
//@oxy:group 1 0 storage_read materials array<material>
fn shade() -> vec4<f32> {
    var color = vec4<f32>(1.0);
    //@oxy:if normal_map
    color = apply_normal(color);
    //@oxy:if !alpha_mask
    color.a = 1.0;
    //@oxy:endif
    //@oxy:else
    color = flat(color);
    //@oxy:endif
    return color;
}
//@oxy:fragments`

func TestParseAnnotation(t *testing.T) {
	a, err := parseAnnotation("  //@oxy:group 2 3 storage_read lights array<light>", 7)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, AnnotationTypeBindingGroup, a.Type)
	assert.Equal(t, 2, *a.Group)
	assert.Equal(t, 3, *a.Binding)
	assert.Equal(t, AnnotationArg("lights"), a.Args[1])

	a, err = parseAnnotation("//@oxy:if !skinned", 1)
	require.NoError(t, err)
	assert.True(t, a.Negate)
	assert.Equal(t, AnnotationArg("skinned"), a.Args[0])

	a, err = parseAnnotation("let x = 1; // not an annotation", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)

	for _, bad := range []string{
		"//@oxy:",
		"//@oxy:include camera",
		"//@oxy:group 0 0 private x material",
		"//@oxy:group a 0 storage_read x material",
		"//@oxy:if",
		"//@oxy:if !",
		"//@oxy:endif extra",
		"//@oxy:unknown",
	} {
		_, err := parseAnnotation(bad, 1)
		assert.Error(t, err, bad)
	}
}

func TestProcessKeepsActiveBranches(t *testing.T) {
	pp := NewPreProcessor(WithFragment("normal_map", "fn apply_normal(c: vec4<f32>) -> vec4<f32> { return c; }"))

	out, err := pp.Process(litSource, []string{"normal_map"})
	require.NoError(t, err)
	assert.Contains(t, out, "struct Material {")
	assert.Contains(t, out, "@group(1) @binding(0) var<storage, read> materials: array<Material>;")
	assert.Contains(t, out, "color = apply_normal(color);")
	assert.Contains(t, out, "color.a = 1.0;")
	assert.NotContains(t, out, "flat(color)")
	assert.Contains(t, out, "fn apply_normal")
	assert.NotContains(t, out, "@oxy:")
	require.Len(t, pp.Declarations(), 1)

	out, err = pp.Process(litSource, []string{"normal_map", "alpha_mask"})
	require.NoError(t, err)
	assert.NotContains(t, out, "color.a = 1.0;")

	out, err = pp.Process(litSource, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "apply_normal")
	assert.NotContains(t, out, "color.a = 1.0;", "nested blocks follow their parent")
	assert.Contains(t, out, "color = flat(color);")
}

func TestProcessDropsDeclarationsInInactiveBlocks(t *testing.T) {
	src := "//@oxy:if light_spot\n//@oxy:group 2 0 storage_read lights array<light>\n//@oxy:endif"
	pp := NewPreProcessor()

	out, err := pp.Process(src, nil)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
	assert.Empty(t, pp.Declarations())

	_, err = pp.Process(src, []string{"light_spot"})
	require.NoError(t, err)
	assert.Len(t, pp.Declarations(), 1)
}

func TestProcessUnbalancedBlocks(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@oxy:if a\nx", nil)
	assert.ErrorContains(t, err, "unterminated")

	_, err = pp.Process("//@oxy:endif", nil)
	assert.ErrorContains(t, err, "endif without")

	_, err = pp.Process("//@oxy:if a\n//@oxy:else\n//@oxy:else\n//@oxy:endif", nil)
	assert.ErrorContains(t, err, "else without")
}

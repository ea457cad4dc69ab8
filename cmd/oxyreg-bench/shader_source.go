package main

// objectShader is the annotated shader the bench compiles one variant of per interned combination.
const objectShader = `//@oxy:include material
//@oxy:include texture_unit
//@oxy:include model_data
//@oxy:include light
//@oxy:group 0 0 storage_read materials array<material>
//@oxy:group 0 1 storage_read texture_units array<texture_unit>
//@oxy:group 0 2 storage_read models array<model_data>
//@oxy:group 0 3 storage_read lights array<light>

//@oxy:fragments

fn surface_color(m: Material, uv: vec2<f32>) -> vec4<f32> {
    var color = m.base_color;
    //@oxy:if base_color_map
    color = color * sample_base_color(uv);
    //@oxy:endif
    //@oxy:if alpha_mask
    if (color.a < m.alpha_cutoff) {
        discard;
    }
    //@oxy:endif
    return color;
}

fn world_position(d: ModelData, p: vec4<f32>) -> vec4<f32> {
    //@oxy:if skinned
    return d.model * skin(p);
    //@oxy:else
    return d.model * p;
    //@oxy:endif
}
`

// objectFragments are the helper functions injected for the features that need them.
var objectFragments = map[string]string{
	"base_color_map": "fn sample_base_color(uv: vec2<f32>) -> vec4<f32> { return vec4<f32>(uv, 0.0, 1.0); }",
	"skinned":        "fn skin(p: vec4<f32>) -> vec4<f32> { return p; }",
}

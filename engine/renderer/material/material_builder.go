package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithEmissive is an option builder that sets the emissive factor of the material.
//
// Parameters:
//   - emissive: the linear RGB emissive factor
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(emissive [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = emissive
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithNormalScale is an option builder that sets the scale applied to sampled normals.
//
// Parameters:
//   - scale: the normal scale
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal scale option to a material
func WithNormalScale(scale float32) MaterialBuilderOption {
	return func(m *material) {
		m.normalScale = scale
	}
}

// WithOcclusionStrength is an option builder that sets the ambient occlusion strength.
//
// Parameters:
//   - strength: the occlusion strength
//
// Returns:
//   - MaterialBuilderOption: a function that applies the occlusion strength option to a material
func WithOcclusionStrength(strength float32) MaterialBuilderOption {
	return func(m *material) {
		m.occlusionStrength = strength
	}
}

// WithAlphaMode is an option builder that sets how alpha is interpreted. AlphaModeMask uses cutoff.
//
// Parameters:
//   - mode: the alpha mode
//   - cutoff: the alpha cutoff, only meaningful for AlphaModeMask
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha mode option to a material
func WithAlphaMode(mode AlphaMode, cutoff float32) MaterialBuilderOption {
	return func(m *material) {
		m.alphaMode = mode
		m.alphaCutoff = cutoff
	}
}

// WithDoubleSided is an option builder that disables back-face culling for the material.
//
// Returns:
//   - MaterialBuilderOption: a function that marks the material double sided
func WithDoubleSided() MaterialBuilderOption {
	return func(m *material) {
		m.doubleSided = true
	}
}

// WithTextures is an option builder that declares which texture maps the material binds.
//
// Parameters:
//   - flags: the bound texture maps
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture flags to a material
func WithTextures(flags TextureFlag) MaterialBuilderOption {
	return func(m *material) {
		m.textures |= flags
	}
}

package texture_unit

// TextureUnitBuilderOption is a functional option used to configure a TextureUnit during construction.
type TextureUnitBuilderOption func(*textureUnit)

// WithTextureIndex sets the index of the sampled texture.
//
// Parameters:
//   - index: the texture index
//
// Returns:
//   - TextureUnitBuilderOption: a function that sets the texture index
func WithTextureIndex(index uint32) TextureUnitBuilderOption {
	return func(u *textureUnit) {
		u.textureIndex = index
	}
}

// WithTexCoord sets the UV set sampled by the unit. Only sets 0 and 1 exist.
//
// Parameters:
//   - set: the UV set
//
// Returns:
//   - TextureUnitBuilderOption: a function that sets the UV set
func WithTexCoord(set uint32) TextureUnitBuilderOption {
	return func(u *textureUnit) {
		if set <= 1 {
			u.texCoord = set
		}
	}
}

// WithTransform enables the UV transform stage and sets its initial value.
//
// Parameters:
//   - offset: the UV translation
//   - rotation: the rotation in radians
//   - scale: the UV scale
//
// Returns:
//   - TextureUnitBuilderOption: a function that sets the transform
func WithTransform(offset [2]float32, rotation float32, scale [2]float32) TextureUnitBuilderOption {
	return func(u *textureUnit) {
		u.offset, u.rotation, u.scale = offset, rotation, scale
		u.transformed = true
	}
}

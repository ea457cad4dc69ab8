package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSkinned is an option builder that sets whether the Model uses skeletal animation.
//
// Parameters:
//   - skinned: true if the model has bone data
//
// Returns:
//   - ModelBuilderOption: a function that applies the skinned option to a model
func WithSkinned(skinned bool) ModelBuilderOption {
	return func(m *model) {
		m.skinned = skinned
	}
}

// WithMorphTargets is an option builder that sets the number of morph targets of the mesh.
//
// Parameters:
//   - count: the morph target count
//
// Returns:
//   - ModelBuilderOption: a function that applies the morph target count to a model
func WithMorphTargets(count int) ModelBuilderOption {
	return func(m *model) {
		m.morphTargets = count
	}
}

// WithTopology is an option builder that sets the primitive topology of the mesh.
//
// Parameters:
//   - topology: the topology
//
// Returns:
//   - ModelBuilderOption: a function that applies the topology option to a model
func WithTopology(topology Topology) ModelBuilderOption {
	return func(m *model) {
		m.topology = topology
	}
}

// WithBoundingRadius is an option builder that sets the model-space bounding sphere radius.
//
// Parameters:
//   - radius: the radius, see ComputeBoundingRadius
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding radius option to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}

// WithTransform is an option builder that sets the initial position, Euler rotation and scale.
//
// Parameters:
//   - pos: the world position
//   - rot: the Euler rotation in radians
//   - scale: the scale
//
// Returns:
//   - ModelBuilderOption: a function that applies the transform to a model
func WithTransform(pos, rot, scale [3]float32) ModelBuilderOption {
	return func(m *model) {
		m.position, m.rotation, m.scale = pos, rot, scale
	}
}

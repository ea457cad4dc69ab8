package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// Topology is the primitive topology of the drawn mesh.
type Topology int

const (
	TopologyTriangles Topology = iota
	TopologyLines
)

// Component names contributed by models.
const (
	FeatureSkinned      = "skinned"
	FeatureMorphTargets = "morph_targets"
	FeatureLineTopology = "line_topology"
)

// Features lists every component name a model can report.
var Features = []string{FeatureSkinned, FeatureMorphTargets, FeatureLineTopology}

// model is the implementation of the Model interface.
type model struct {
	common.SlotHandle
	mu *sync.Mutex

	name           string
	skinned        bool
	morphTargets   int
	topology       Topology
	boundingRadius float32

	position    [3]float32
	rotation    [3]float32
	scale       [3]float32
	combination common.CombinationID
}

// Model is the per-draw record of a mesh instance: its world transform and the pipeline variant it is drawn
// with. Mesh capabilities (skinning, morph targets, topology) are fixed at construction; the transform is
// mutable and every change queues the record for upload.
type Model interface {
	registry.Record
	registry.Featured

	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skinned reports whether this model uses skeletal animation.
	//
	// Returns:
	//   - bool: true if the model has bone data
	Skinned() bool

	// Topology retrieves the primitive topology.
	//
	// Returns:
	//   - Topology: the topology
	Topology() Topology

	// CombinationID retrieves the interned combination of the model's features.
	//
	// Returns:
	//   - common.CombinationID: the combination
	CombinationID() common.CombinationID

	// Transform retrieves the position, Euler rotation (radians) and scale.
	//
	// Returns:
	//   - [3]float32: the position
	//   - [3]float32: the rotation
	//   - [3]float32: the scale
	Transform() (pos, rot, scale [3]float32)

	// SetTransform sets position, rotation and scale together.
	//
	// Parameters:
	//   - pos: the world position
	//   - rot: the Euler rotation in radians
	//   - scale: the scale
	SetTransform(pos, rot, scale [3]float32)

	// SetPosition moves the model.
	//
	// Parameters:
	//   - pos: the world position
	SetPosition(pos [3]float32)

	// SetRotation rotates the model.
	//
	// Parameters:
	//   - rot: the Euler rotation in radians
	SetRotation(rot [3]float32)

	// GPU returns a snapshot of the model's GPU record.
	//
	// Returns:
	//   - GPUModelData: the record
	GPU() GPUModelData
}

var _ Model = &model{}

// NewModel creates a new Model at the origin with unit scale.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: a new Model instance
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		mu:    &sync.Mutex{},
		scale: [3]float32{1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skinned() bool {
	return m.skinned
}

func (m *model) Topology() Topology {
	return m.topology
}

func (m *model) Features() []string {
	var out []string
	if m.skinned {
		out = append(out, FeatureSkinned)
	}
	if m.morphTargets > 0 {
		out = append(out, FeatureMorphTargets)
	}
	if m.topology == TopologyLines {
		out = append(out, FeatureLineTopology)
	}
	return out
}

func (m *model) CombinationID() common.CombinationID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.combination
}

func (m *model) SetCombinationID(id common.CombinationID) {
	m.mu.Lock()
	m.combination = id
	m.mu.Unlock()
	m.Notify(m)
}

func (m *model) Transform() (pos, rot, scale [3]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, m.rotation, m.scale
}

func (m *model) SetTransform(pos, rot, scale [3]float32) {
	m.mu.Lock()
	m.position, m.rotation, m.scale = pos, rot, scale
	m.mu.Unlock()
	m.Notify(m)
}

func (m *model) SetPosition(pos [3]float32) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
	m.Notify(m)
}

func (m *model) SetRotation(rot [3]float32) {
	m.mu.Lock()
	m.rotation = rot
	m.mu.Unlock()
	m.Notify(m)
}

func (m *model) GPU() GPUModelData {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := GPUModelData{Combination: uint32(m.combination)}
	common.BuildModelMatrix(g.Model[:], m.position, m.rotation, m.scale)

	var normal [16]float32
	common.BuildNormalMatrix(normal[:], m.rotation, m.scale)
	copy(g.Normal[:], normal[:12])

	maxScale := max(abs(m.scale[0]), abs(m.scale[1]), abs(m.scale[2]))
	g.BoundingRadius = m.boundingRadius * maxScale
	return g
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (m *model) Serialize(w gpu_mirror.RecordWriter) error {
	g := m.GPU()
	if err := w.Mat4(fieldModel, g.Model); err != nil {
		return err
	}
	if err := w.Mat3x4(fieldNormal, g.Normal); err != nil {
		return err
	}
	if err := w.Uint32(fieldCombination, g.Combination); err != nil {
		return err
	}
	return w.Float32(fieldBoundingRadius, g.BoundingRadius)
}

package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position
	// and attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction,
	// attenuating with both distance and angle from the cone axis.
	LightTypeSpot
)

// String returns the component name of the light type.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return FeatureDirectional
	case LightTypePoint:
		return FeaturePoint
	case LightTypeSpot:
		return FeatureSpot
	}
	return "unknown"
}

// Component names contributed by lights.
const (
	FeatureDirectional  = "light_directional"
	FeaturePoint        = "light_point"
	FeatureSpot         = "light_spot"
	FeatureShadowCaster = "shadow_caster"
)

// Features lists every component name a light can report.
var Features = []string{FeatureDirectional, FeaturePoint, FeatureSpot, FeatureShadowCaster}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	common.SlotHandle
	mu *sync.Mutex

	lightType    LightType
	position     [3]float32
	direction    [3]float32
	color        [3]float32
	intensity    float32
	lightRange   float32
	innerCone    float32 // stored as cos(angle in radians)
	outerCone    float32 // stored as cos(angle in radians)
	enabled      bool
	castsShadows bool
	combination  common.CombinationID
}

// Light defines a light source stored in the lights table.
//
// All light types share this interface; type-specific properties (e.g. cone angles for spot lights)
// are carried but ignored by the shader when not applicable. The type and shadow casting select the
// shading variant and are fixed at construction; every other setter queues the light for upload.
type Light interface {
	registry.Record
	registry.Featured

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of the light.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active. Disabled lights keep their slot and are skipped by the shader.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether this light is eligible for shadow map generation.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// CombinationID returns the interned combination of the light's features.
	//
	// Returns:
	//   - common.CombinationID: the combination
	CombinationID() common.CombinationID

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	// Angles are specified in degrees and stored internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)

	// GPU returns a snapshot of the light's GPU record.
	//
	// Returns:
	//   - GPULight: the record
	GPU() GPULight
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:         &sync.Mutex{},
		lightType:  lightType,
		direction:  [3]float32{0, -1, 0},
		color:      [3]float32{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		innerCone:  0.9063, // cos(25°)
		outerCone:  0.8192, // cos(35°)
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) CombinationID() common.CombinationID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.combination
}

func (l *lightImpl) Features() []string {
	out := []string{l.lightType.String()}
	if l.castsShadows {
		out = append(out, FeatureShadowCaster)
	}
	return out
}

func (l *lightImpl) SetCombinationID(id common.CombinationID) {
	l.update(func() { l.combination = id })
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.update(func() { l.position = [3]float32{x, y, z} })
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.update(func() { l.direction = normalize3(x, y, z) })
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.update(func() { l.color = [3]float32{r, g, b} })
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.update(func() { l.intensity = intensity })
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.update(func() { l.lightRange = lightRange })
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.update(func() {
		l.innerCone = cosDeg(innerDeg)
		l.outerCone = cosDeg(outerDeg)
	})
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.update(func() { l.enabled = enabled })
}

// update applies fn under the lock and then notifies the owning table.
func (l *lightImpl) update(fn func()) {
	l.mu.Lock()
	fn()
	l.mu.Unlock()
	l.Notify(l)
}

func (l *lightImpl) GPU() GPULight {
	l.mu.Lock()
	defer l.mu.Unlock()
	var flags uint32
	if l.enabled {
		flags |= gpuFlagEnabled
	}
	if l.castsShadows {
		flags |= gpuFlagCastsShadows
	}
	return GPULight{
		Position:    l.position,
		LightType:   uint32(l.lightType),
		Color:       l.color,
		Intensity:   l.intensity,
		Direction:   l.direction,
		LightRange:  l.lightRange,
		InnerCone:   l.innerCone,
		OuterCone:   l.outerCone,
		Flags:       flags,
		Combination: uint32(l.combination),
	}
}

func (l *lightImpl) Serialize(w gpu_mirror.RecordWriter) error {
	g := l.GPU()
	return g.Serialize(w)
}

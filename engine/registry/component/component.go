// Package component implements the ComponentTable: the registry of named, independently pluggable
// contributors to a FlagSet (e.g. "normal_map", "skinned", "line_topology").
package component

import (
	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
)

// noBit marks a component that does not own a FlagSet bit.
const noBit = -1

// Component is the capability a registered plugin exposes to the rest of the engine.
// Behavior that varies per registered type is expressed through this interface rather than through
// plugin pointers.
type Component interface {
	// ContributesFlag reports whether the component owns a bit in FlagSet values.
	//
	// Returns:
	//   - bool: true if a bit position should be allocated on registration
	ContributesFlag() bool

	// Fields returns the GPU record fields this component serializes, if any.
	//
	// Returns:
	//   - []gpu_mirror.FieldDescriptor: the declared fields
	Fields() []gpu_mirror.FieldDescriptor

	// ShaderFragment returns the key of the shader fragment this component declares, or "".
	//
	// Returns:
	//   - string: the shader fragment key
	ShaderFragment() string
}

// Basic is a plain value implementation of Component.
type Basic struct {
	Flag      bool
	FieldList []gpu_mirror.FieldDescriptor
	Fragment  string
}

var _ Component = Basic{}

func (b Basic) ContributesFlag() bool {
	return b.Flag
}

func (b Basic) Fields() []gpu_mirror.FieldDescriptor {
	return b.FieldList
}

func (b Basic) ShaderFragment() string {
	return b.Fragment
}

// Flag returns a Component that only contributes a FlagSet bit and declares the given shader fragment.
//
// Parameters:
//   - fragment: the shader fragment key, may be empty
//
// Returns:
//   - Component: the flag-only component
func Flag(fragment string) Component {
	return Basic{Flag: true, Fragment: fragment}
}

// ComponentEntry is a registered component as seen by consumers. Consumers hold the ID, never the entry itself:
// the table owns the component and entries are snapshots.
type ComponentEntry struct {
	ID     common.ComponentID
	Name   string
	Plugin Component

	bit int
}

// Bit returns the FlagSet bit owned by the component.
//
// Returns:
//   - uint8: the bit position (meaningless when ok is false)
//   - bool: true if the component contributes a flag
func (e ComponentEntry) Bit() (uint8, bool) {
	if e.bit == noBit {
		return 0, false
	}
	return uint8(e.bit), true
}

// Flag returns the single-bit FlagSet of the component, or the empty set if it contributes no flag.
func (e ComponentEntry) Flag() flag_set.FlagSet {
	if b, ok := e.Bit(); ok {
		return flag_set.New(b)
	}
	return flag_set.FlagSet{}
}

// Package combination interns FlagSet values into small stable CombinationIDs.
//
// The registry is a growing interning table: it never shrinks and never evicts, because shader and pipeline
// caches keyed by CombinationID rely on a FlagSet always mapping to the same ID for the registry's lifetime.
package combination

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
	"go.uber.org/zap"
)

// combinationRegistry is the implementation of the CombinationRegistry interface.
type combinationRegistry struct {
	mu     *sync.RWMutex
	logger *zap.Logger

	ids    map[flag_set.FlagSet]common.CombinationID
	values []flag_set.FlagSet
}

// CombinationRegistry maps FlagSet values to CombinationIDs and back. All operations are safe for concurrent use.
type CombinationRegistry interface {
	// Intern returns the CombinationID of set, assigning the next ID on first sight.
	// Interning an equal FlagSet again returns the same ID without growing the registry.
	//
	// Parameters:
	//   - set: the flag set to intern
	//
	// Returns:
	//   - common.CombinationID: the stable ID
	Intern(set flag_set.FlagSet) common.CombinationID

	// Resolve returns the FlagSet a CombinationID was interned from.
	//
	// Parameters:
	//   - id: an ID returned by Intern on this registry
	//
	// Returns:
	//   - flag_set.FlagSet: the interned value
	//   - error: *common.UnknownCombinationError if id was never produced by this registry
	Resolve(id common.CombinationID) (flag_set.FlagSet, error)

	// Lookup returns the ID of set without interning it.
	//
	// Parameters:
	//   - set: the flag set to look up
	//
	// Returns:
	//   - common.CombinationID: the ID if present
	//   - bool: true if set has been interned
	Lookup(set flag_set.FlagSet) (common.CombinationID, bool)

	// Len returns the number of interned combinations.
	//
	// Returns:
	//   - int: the count
	Len() int

	// Snapshot returns a copy of every interned FlagSet indexed by CombinationID.
	//
	// Returns:
	//   - []flag_set.FlagSet: the interned values
	Snapshot() []flag_set.FlagSet
}

var _ CombinationRegistry = &combinationRegistry{}

// NewCombinationRegistry creates an empty CombinationRegistry.
//
// Parameters:
//   - options: functional options to configure the registry
//
// Returns:
//   - CombinationRegistry: the new registry
func NewCombinationRegistry(options ...CombinationRegistryBuilderOption) CombinationRegistry {
	r := &combinationRegistry{
		mu:     &sync.RWMutex{},
		logger: zap.NewNop(),
		ids:    make(map[flag_set.FlagSet]common.CombinationID),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *combinationRegistry) Intern(set flag_set.FlagSet) common.CombinationID {
	r.mu.RLock()
	id, ok := r.ids[set]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have interned the same value between the two locks.
	if id, ok := r.ids[set]; ok {
		return id
	}
	id = common.CombinationID(len(r.values))
	r.values = append(r.values, set)
	r.ids[set] = id

	r.logger.Debug("combination interned", zap.Uint32("id", uint32(id)), zap.Stringer("flags", set))
	return id
}

func (r *combinationRegistry) Resolve(id common.CombinationID) (flag_set.FlagSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.values) {
		return flag_set.FlagSet{}, &common.UnknownCombinationError{ID: id, Len: len(r.values)}
	}
	return r.values[id], nil
}

func (r *combinationRegistry) Lookup(set flag_set.FlagSet) (common.CombinationID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[set]
	return id, ok
}

func (r *combinationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

func (r *combinationRegistry) Snapshot() []flag_set.FlagSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]flag_set.FlagSet, len(r.values))
	copy(out, r.values)
	return out
}

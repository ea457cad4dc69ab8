package combination

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
)

// VariantBuildFunc builds the variant (compiled shader, pipeline, bind group layout) for a resolved FlagSet.
type VariantBuildFunc[V any] func(flags flag_set.FlagSet) (V, error)

// VariantCache caches one built value per CombinationID. Equal CombinationIDs always share the cached value,
// and a value is built at most once per ID unless its build fails. Failed builds are not cached.
type VariantCache[V any] struct {
	mu       *sync.Mutex
	registry CombinationRegistry
	entries  map[common.CombinationID]*variantEntry[V]
}

type variantEntry[V any] struct {
	mu    sync.Mutex
	value V
	built bool
}

// NewVariantCache creates a VariantCache that resolves IDs through registry.
//
// Parameters:
//   - registry: the combination registry the IDs belong to
//
// Returns:
//   - *VariantCache[V]: the new cache
func NewVariantCache[V any](registry CombinationRegistry) *VariantCache[V] {
	return &VariantCache[V]{
		mu:       &sync.Mutex{},
		registry: registry,
		entries:  make(map[common.CombinationID]*variantEntry[V]),
	}
}

// GetOrBuild returns the cached value for id, building it from the resolved FlagSet on first use.
// Concurrent callers asking for the same id wait for a single build.
//
// Parameters:
//   - id: the combination to build for
//   - build: the builder invoked on a cache miss
//
// Returns:
//   - V: the cached or newly built value
//   - error: *common.UnknownCombinationError for foreign IDs, or the wrapped build error
func (c *VariantCache[V]) GetOrBuild(id common.CombinationID, build VariantBuildFunc[V]) (V, error) {
	var zero V
	flags, err := c.registry.Resolve(id)
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		e = &variantEntry[V]{}
		c.entries[id] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return e.value, nil
	}
	v, err := build(flags)
	if err != nil {
		return zero, fmt.Errorf("build variant for combination %d: %w", id, err)
	}
	e.value = v
	e.built = true
	return v, nil
}

// Get returns the cached value for id without building it.
//
// Parameters:
//   - id: the combination
//
// Returns:
//   - V: the cached value
//   - bool: true if a value has been built for id
func (c *VariantCache[V]) Get(id common.CombinationID) (V, bool) {
	var zero V
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return zero, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.built {
		return zero, false
	}
	return e.value, true
}

// Len returns the number of built variants.
func (c *VariantCache[V]) Len() int {
	n := 0
	c.Range(func(common.CombinationID, V) bool {
		n++
		return true
	})
	return n
}

// Range calls fn for every built variant in CombinationID order until fn returns false.
//
// Parameters:
//   - fn: the visitor
func (c *VariantCache[V]) Range(fn func(id common.CombinationID, v V) bool) {
	c.mu.Lock()
	ids := make([]common.CombinationID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		v, ok := c.Get(id)
		if !ok {
			continue
		}
		if !fn(id, v) {
			return
		}
	}
}

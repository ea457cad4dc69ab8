package component

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
	"go.uber.org/zap"
)

// DefaultMaxComponents is the number of ComponentIDs a table can hand out (the full uint16 range).
const DefaultMaxComponents = 1 << 16

// componentTable is the implementation of the ComponentTable interface.
type componentTable struct {
	mu     *sync.RWMutex
	logger *zap.Logger

	// entries is indexed by ComponentID; a nil entry is a free ID.
	entries []*ComponentEntry
	byName  map[string]common.ComponentID

	maxComponents int
	freeIDs       []common.ComponentID

	nextBit  int
	freeBits []int
}

// ComponentTable maps human-meaningful capability names to ComponentIDs and FlagSet bit positions.
//
// Registration policy: registering a name that is already registered fails with *common.DuplicateNameError;
// the existing ID is never returned. IDs released by UnregisterComponent are reused LIFO and bits lowest-first by
// later registrations. Unregistering never rewrites combinations interned earlier: a stale combination may resolve
// to a flag set whose bit now means another component, so engines unregister only at teardown.
//
// All operations are safe for concurrent use.
type ComponentTable interface {
	// RegisterComponent registers a named component. A nil plugin is treated as a flag-only component.
	//
	// Parameters:
	//   - name: the unique component name
	//   - plugin: the component capability, may be nil
	//
	// Returns:
	//   - common.ComponentID: the assigned ID
	//   - error: *common.DuplicateNameError if name is taken, *common.CapacityExceededError if IDs or bits ran out
	RegisterComponent(name string, plugin Component) (common.ComponentID, error)

	// UnregisterComponent removes a component, releasing its ID and bit for reuse.
	//
	// Parameters:
	//   - name: the registered name
	//
	// Returns:
	//   - error: *common.StaleHandleError if the name is not registered
	UnregisterComponent(name string) error

	// Lookup returns the entry registered under name.
	//
	// Parameters:
	//   - name: the component name
	//
	// Returns:
	//   - ComponentEntry: the entry snapshot
	//   - bool: true if the name is registered
	Lookup(name string) (ComponentEntry, bool)

	// Entry returns the entry registered under id.
	//
	// Parameters:
	//   - id: the component ID
	//
	// Returns:
	//   - ComponentEntry: the entry snapshot
	//   - error: *common.StaleHandleError if the ID is not live
	Entry(id common.ComponentID) (ComponentEntry, error)

	// Entries returns snapshots of every registered component ordered by ID.
	//
	// Returns:
	//   - []ComponentEntry: the registered components
	Entries() []ComponentEntry

	// Count returns the number of registered components.
	//
	// Returns:
	//   - int: the count
	Count() int

	// DerivedFlag returns the FlagSet containing only the component's bit, for hot-path
	// "does this combination include component X" tests without string lookups.
	//
	// Parameters:
	//   - id: the component ID
	//
	// Returns:
	//   - flag_set.FlagSet: the single-bit set, or the empty set for components without a flag
	//   - error: *common.StaleHandleError if the ID is not live
	DerivedFlag(id common.ComponentID) (flag_set.FlagSet, error)

	// FlagsFor returns the union of the derived flags of the named components.
	//
	// Parameters:
	//   - names: the component names
	//
	// Returns:
	//   - flag_set.FlagSet: the union
	//   - error: *common.StaleHandleError naming the first unknown component
	FlagsFor(names ...string) (flag_set.FlagSet, error)

	// Has reports whether set includes the component's bit. Unknown IDs and flagless components report false.
	//
	// Parameters:
	//   - set: the flag set to test
	//   - id: the component ID
	//
	// Returns:
	//   - bool: true if the bit is set
	Has(set flag_set.FlagSet, id common.ComponentID) bool

	// Names returns the names of the registered components whose bits are set in set, ordered by ID.
	//
	// Parameters:
	//   - set: the flag set to describe
	//
	// Returns:
	//   - []string: the component names
	Names(set flag_set.FlagSet) []string
}

var _ ComponentTable = &componentTable{}

// NewComponentTable creates an empty ComponentTable.
//
// Parameters:
//   - options: functional options to configure the table
//
// Returns:
//   - ComponentTable: the new table
func NewComponentTable(options ...ComponentTableBuilderOption) ComponentTable {
	t := &componentTable{
		mu:            &sync.RWMutex{},
		logger:        zap.NewNop(),
		byName:        make(map[string]common.ComponentID),
		maxComponents: DefaultMaxComponents,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *componentTable) RegisterComponent(name string, plugin Component) (common.ComponentID, error) {
	if plugin == nil {
		plugin = Flag("")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, taken := t.byName[name]; taken {
		return 0, &common.DuplicateNameError{Name: name}
	}

	// Reserve both resources before touching any state so a failure leaves the table unchanged.
	id, fromFreeID, ok := t.peekIDLocked()
	if !ok {
		t.logger.Warn("component table full", zap.String("component", name), zap.Int("max_components", t.maxComponents))
		return 0, &common.CapacityExceededError{Table: "component ids", Capacity: t.maxComponents}
	}
	bit, freeBitIdx := noBit, -1
	if plugin.ContributesFlag() {
		bit, freeBitIdx, ok = t.peekBitLocked()
		if !ok {
			t.logger.Warn("component flag bits exhausted", zap.String("component", name))
			return 0, &common.CapacityExceededError{Table: "component flag bits", Capacity: flag_set.MaxBits}
		}
	}

	if fromFreeID {
		t.freeIDs = t.freeIDs[:len(t.freeIDs)-1]
	} else {
		t.entries = append(t.entries, nil)
	}
	if bit != noBit {
		if freeBitIdx >= 0 {
			last := len(t.freeBits) - 1
			t.freeBits[freeBitIdx] = t.freeBits[last]
			t.freeBits = t.freeBits[:last]
		} else {
			t.nextBit++
		}
	}

	t.entries[id] = &ComponentEntry{ID: id, Name: name, Plugin: plugin, bit: bit}
	t.byName[name] = id

	t.logger.Debug("component registered", zap.String("component", name), zap.Uint16("id", uint16(id)), zap.Int("bit", bit))
	return id, nil
}

// peekIDLocked returns the ID the next registration would receive without consuming it.
func (t *componentTable) peekIDLocked() (common.ComponentID, bool, bool) {
	if n := len(t.freeIDs); n > 0 {
		return t.freeIDs[n-1], true, true
	}
	if len(t.entries) >= t.maxComponents {
		return 0, false, false
	}
	return common.ComponentID(len(t.entries)), false, true
}

// peekBitLocked returns the lowest bit the next flag-contributing registration would receive, and its index
// in the free list (-1 when it comes from the counter), without consuming it.
func (t *componentTable) peekBitLocked() (int, int, bool) {
	if len(t.freeBits) > 0 {
		idx := 0
		for i, b := range t.freeBits {
			if b < t.freeBits[idx] {
				idx = i
			}
		}
		return t.freeBits[idx], idx, true
	}
	if t.nextBit >= flag_set.MaxBits {
		return noBit, -1, false
	}
	return t.nextBit, -1, true
}

func (t *componentTable) UnregisterComponent(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.byName[name]
	if !ok {
		return &common.StaleHandleError{What: "component", Reason: fmt.Sprintf("%q is not registered", name)}
	}
	entry := t.entries[id]
	t.entries[id] = nil
	delete(t.byName, name)
	t.freeIDs = append(t.freeIDs, id)
	if entry.bit != noBit {
		t.freeBits = append(t.freeBits, entry.bit)
	}

	t.logger.Debug("component unregistered", zap.String("component", name), zap.Uint16("id", uint16(id)))
	return nil
}

func (t *componentTable) Lookup(name string) (ComponentEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	if !ok {
		return ComponentEntry{}, false
	}
	return *t.entries[id], true
}

func (t *componentTable) Entry(id common.ComponentID) (ComponentEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.entryLocked(id)
	if e == nil {
		return ComponentEntry{}, &common.StaleHandleError{What: "component", Reason: fmt.Sprintf("id %d is not registered", id)}
	}
	return *e, nil
}

func (t *componentTable) entryLocked(id common.ComponentID) *ComponentEntry {
	if int(id) >= len(t.entries) {
		return nil
	}
	return t.entries[id]
}

func (t *componentTable) Entries() []ComponentEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ComponentEntry, 0, len(t.byName))
	for _, e := range t.entries {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func (t *componentTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName)
}

func (t *componentTable) DerivedFlag(id common.ComponentID) (flag_set.FlagSet, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.entryLocked(id)
	if e == nil {
		return flag_set.FlagSet{}, &common.StaleHandleError{What: "component", Reason: fmt.Sprintf("id %d is not registered", id)}
	}
	return e.Flag(), nil
}

func (t *componentTable) FlagsFor(names ...string) (flag_set.FlagSet, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out flag_set.FlagSet
	for _, name := range names {
		id, ok := t.byName[name]
		if !ok {
			return flag_set.FlagSet{}, &common.StaleHandleError{What: "component", Reason: fmt.Sprintf("%q is not registered", name)}
		}
		out = out.Union(t.entries[id].Flag())
	}
	return out, nil
}

func (t *componentTable) Has(set flag_set.FlagSet, id common.ComponentID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.entryLocked(id)
	if e == nil {
		return false
	}
	b, ok := e.Bit()
	return ok && set.Has(b)
}

func (t *componentTable) Names(set flag_set.FlagSet) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, e := range t.entries {
		if e == nil {
			continue
		}
		if b, ok := e.Bit(); ok && set.Has(b) {
			out = append(out, e.Name)
		}
	}
	return out
}

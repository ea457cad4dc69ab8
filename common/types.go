// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain
// types that express the identities shared between the registry, its tables and the records stored in them.
package common

import (
	"sync"
	"sync/atomic"
)

// SlotID is the 1-based dense index of a live object's record inside a fixed-capacity GPU-mirrored table.
// The zero value means "unassigned", so zero-initialized objects are valid sentinels.
type SlotID uint32

// UnassignedSlot is the SlotID held by objects that are not stored in any table.
const UnassignedSlot SlotID = 0

// Index returns the 0-based record index addressed by the SlotID.
// Calling Index on UnassignedSlot is a programming error and panics.
//
// Returns:
//   - int: the 0-based record index
func (s SlotID) Index() int {
	if s == UnassignedSlot {
		panic("common: Index called on an unassigned SlotID")
	}
	return int(s) - 1
}

// ComponentID is a small stable integer identifying one registered pluggable capability.
type ComponentID uint16

// CombinationID is a small stable integer identifying one interned FlagSet value.
type CombinationID uint32

// Slotted is implemented by every object that can occupy a slot in a GPU-mirrored table.
type Slotted interface {
	// SlotID returns the object's current slot, or UnassignedSlot.
	//
	// Returns:
	//   - SlotID: the current slot
	SlotID() SlotID

	// SetSlotID updates the object's slot. Only the owning allocator calls this.
	//
	// Parameters:
	//   - id: the new slot, or UnassignedSlot when the object is freed
	SetSlotID(id SlotID)
}

// DirtyNotifier receives change notifications from objects whose GPU-visible fields were mutated.
// Objects call NotifyDirty from their mutators instead of holding live callback connections.
type DirtyNotifier interface {
	// NotifyDirty records that obj must be re-serialized before the next upload.
	//
	// Parameters:
	//   - obj: the mutated object
	NotifyDirty(obj Slotted)
}

// SlotHandle is an embeddable helper that implements Slotted and stores a DirtyNotifier.
// Records embed it to get slot bookkeeping and change notification without repeating the plumbing.
// The zero value is unassigned with no notifier. A SlotHandle must not be copied after first use.
type SlotHandle struct {
	slot atomic.Uint32

	mu       sync.RWMutex
	notifier DirtyNotifier
}

// SlotID returns the current slot.
func (h *SlotHandle) SlotID() SlotID {
	return SlotID(h.slot.Load())
}

// SetSlotID updates the current slot.
func (h *SlotHandle) SetSlotID(id SlotID) {
	h.slot.Store(uint32(id))
}

// SetNotifier sets the notifier that receives change notifications, or clears it when n is nil.
func (h *SlotHandle) SetNotifier(n DirtyNotifier) {
	h.mu.Lock()
	h.notifier = n
	h.mu.Unlock()
}

// Notify forwards a change notification for self to the current notifier, if any.
//
// Parameters:
//   - self: the embedding object (passed explicitly because an embedded struct cannot see its container)
func (h *SlotHandle) Notify(self Slotted) {
	h.mu.RLock()
	n := h.notifier
	h.mu.RUnlock()
	if n != nil {
		n.NotifyDirty(self)
	}
}

// Package slot_allocator assigns live GPU-mirrored objects dense 1-based SlotIDs in a fixed-capacity table.
package slot_allocator

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"go.uber.org/zap"
)

// RemovalPolicy selects how Free keeps the slot table gap-free.
type RemovalPolicy int

const (
	// RemovalShiftDown removes the freed record and decrements the SlotID of every later object by one.
	// Insertion order equals slot order at all times. Free is O(n) in the number of later objects.
	RemovalShiftDown RemovalPolicy = iota
	// RemovalSwapLast moves the last object into the freed slot. Free is O(1), but slot order no longer
	// follows insertion order, so nothing may rely on slot order meaning age.
	RemovalSwapLast
)

func (p RemovalPolicy) String() string {
	switch p {
	case RemovalShiftDown:
		return "shift_down"
	case RemovalSwapLast:
		return "swap_last"
	default:
		return fmt.Sprintf("RemovalPolicy(%d)", int(p))
	}
}

// RenumberListener is invoked for every live object whose SlotID changed because another object was freed.
// It runs after the allocator's lock is released, in slot order.
type RenumberListener[T common.Slotted] func(obj T, from, to common.SlotID)

// slotAllocator is the implementation of the SlotAllocator interface.
type slotAllocator[T common.Slotted] struct {
	mu     *sync.Mutex
	logger *zap.Logger

	label    string
	capacity int
	policy   RemovalPolicy
	listener RenumberListener[T]

	live []T
}

// SlotAllocator keeps the live objects of a table packed into SlotIDs 1..LiveCount.
// Allocate and Free are safe for concurrent use; a failed call leaves the table unchanged.
type SlotAllocator[T common.Slotted] interface {
	// Allocate appends obj to the live sequence and assigns it SlotID LiveCount.
	//
	// Parameters:
	//   - obj: the object to store; it must not already hold a slot
	//
	// Returns:
	//   - common.SlotID: the assigned slot
	//   - error: *common.CapacityExceededError when full, *common.StaleHandleError if obj already holds a slot
	Allocate(obj T) (common.SlotID, error)

	// Free removes obj from the live sequence, sets its SlotID to 0 and renumbers the objects that moved.
	//
	// Parameters:
	//   - obj: the object to remove
	//
	// Returns:
	//   - error: *common.StaleHandleError if obj holds no slot or its slot belongs to another object
	Free(obj T) error

	// Get returns the object stored at slot in O(1).
	//
	// Parameters:
	//   - slot: the 1-based slot
	//
	// Returns:
	//   - T: the object
	//   - error: *common.OutOfRangeError if slot is not live
	Get(slot common.SlotID) (T, error)

	// LiveCount returns the number of live objects.
	LiveCount() int

	// Capacity returns the fixed capacity.
	Capacity() int

	// Policy returns the removal policy.
	Policy() RemovalPolicy

	// Live returns a copy of the live objects in slot order.
	//
	// Returns:
	//   - []T: the live objects, index i holding SlotID i+1
	Live() []T
}

var _ SlotAllocator[common.Slotted] = &slotAllocator[common.Slotted]{}

// DefaultCapacity is used when no capacity option is given.
const DefaultCapacity = 1024

// NewSlotAllocator creates an empty SlotAllocator.
//
// Parameters:
//   - options: functional options to configure the allocator
//
// Returns:
//   - SlotAllocator[T]: the new allocator
func NewSlotAllocator[T common.Slotted](options ...SlotAllocatorBuilderOption[T]) SlotAllocator[T] {
	a := &slotAllocator[T]{
		mu:       &sync.Mutex{},
		logger:   zap.NewNop(),
		label:    "slots",
		capacity: DefaultCapacity,
		policy:   RemovalShiftDown,
	}
	for _, opt := range options {
		opt(a)
	}
	a.live = make([]T, 0, a.capacity)
	return a
}

func (a *slotAllocator[T]) Allocate(obj T) (common.SlotID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cur := obj.SlotID(); cur != common.UnassignedSlot {
		return common.UnassignedSlot, &common.StaleHandleError{
			What:   a.label,
			Reason: fmt.Sprintf("object already holds slot %d", cur),
		}
	}
	if len(a.live) >= a.capacity {
		a.logger.Warn("slot table full", zap.String("table", a.label), zap.Int("capacity", a.capacity))
		return common.UnassignedSlot, &common.CapacityExceededError{Table: a.label, Capacity: a.capacity}
	}

	a.live = append(a.live, obj)
	id := common.SlotID(len(a.live))
	obj.SetSlotID(id)
	return id, nil
}

type renumbered[T common.Slotted] struct {
	obj      T
	from, to common.SlotID
}

func (a *slotAllocator[T]) Free(obj T) error {
	moved, err := a.free(obj)
	if err != nil {
		return err
	}
	if a.listener != nil {
		for _, m := range moved {
			a.listener(m.obj, m.from, m.to)
		}
	}
	return nil
}

func (a *slotAllocator[T]) free(obj T) ([]renumbered[T], error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot := obj.SlotID()
	if slot == common.UnassignedSlot {
		return nil, &common.StaleHandleError{What: a.label, Reason: "object holds no slot"}
	}
	idx := slot.Index()
	if idx >= len(a.live) || any(a.live[idx]) != any(obj) {
		return nil, &common.StaleHandleError{
			What:   a.label,
			Reason: fmt.Sprintf("slot %d is not owned by the object", slot),
		}
	}

	var moved []renumbered[T]
	last := len(a.live) - 1
	switch a.policy {
	case RemovalSwapLast:
		if idx != last {
			a.live[idx] = a.live[last]
			a.live[idx].SetSlotID(slot)
			moved = append(moved, renumbered[T]{obj: a.live[idx], from: common.SlotID(last + 1), to: slot})
		}
	default:
		copy(a.live[idx:], a.live[idx+1:])
		for i := idx; i < last; i++ {
			to := common.SlotID(i + 1)
			a.live[i].SetSlotID(to)
			moved = append(moved, renumbered[T]{obj: a.live[i], from: to + 1, to: to})
		}
	}

	var zero T
	a.live[last] = zero
	a.live = a.live[:last]
	obj.SetSlotID(common.UnassignedSlot)
	return moved, nil
}

func (a *slotAllocator[T]) Get(slot common.SlotID) (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot == common.UnassignedSlot || int(slot) > len(a.live) {
		var zero T
		return zero, &common.OutOfRangeError{Buffer: a.label, Slot: slot, Limit: uint64(len(a.live))}
	}
	return a.live[slot.Index()], nil
}

func (a *slotAllocator[T]) LiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

func (a *slotAllocator[T]) Capacity() int {
	return a.capacity
}

func (a *slotAllocator[T]) Policy() RemovalPolicy {
	return a.policy
}

func (a *slotAllocator[T]) Live() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]T, len(a.live))
	copy(out, a.live)
	return out
}

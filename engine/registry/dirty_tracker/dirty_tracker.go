// Package dirty_tracker collects change notifications from GPU-mirrored objects and hands them out once per frame.
package dirty_tracker

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
)

// dirtyTracker is the implementation of the DirtyTracker interface.
type dirtyTracker[T common.Slotted] struct {
	mu      *sync.Mutex
	pending []T
	// hint is the capacity of the last drained batch, reused for the next pending slice.
	hint int
}

// DirtyTracker is a coalescing queue of "object changed" notifications.
//
// MarkDirty may be called from any goroutine. Drain runs on the frame-update goroutine only: it swaps the
// pending slice out under the lock, so objects marked while a drained batch is being serialized land in
// the next batch instead of being lost or processed twice.
type DirtyTracker[T common.Slotted] interface {
	common.DirtyNotifier

	// MarkDirty queues obj for re-serialization. Duplicate marks are not filtered here.
	//
	// Parameters:
	//   - obj: the changed object
	MarkDirty(obj T)

	// Drain returns every object marked since the previous Drain, sorted by SlotID with duplicates removed.
	// Objects that no longer hold a slot are dropped.
	//
	// Returns:
	//   - []T: the dirty objects, or nil when nothing was marked
	Drain() []T

	// Pending returns the number of marks queued since the last Drain, duplicates included.
	Pending() int
}

var _ DirtyTracker[common.Slotted] = &dirtyTracker[common.Slotted]{}

// NewDirtyTracker creates an empty DirtyTracker.
//
// Returns:
//   - DirtyTracker[T]: the new tracker
func NewDirtyTracker[T common.Slotted]() DirtyTracker[T] {
	return &dirtyTracker[T]{
		mu: &sync.Mutex{},
	}
}

func (d *dirtyTracker[T]) MarkDirty(obj T) {
	d.mu.Lock()
	d.pending = append(d.pending, obj)
	d.mu.Unlock()
}

// NotifyDirty adapts MarkDirty to common.DirtyNotifier. Objects of a different concrete type are ignored.
func (d *dirtyTracker[T]) NotifyDirty(obj common.Slotted) {
	if t, ok := obj.(T); ok {
		d.MarkDirty(t)
	}
}

func (d *dirtyTracker[T]) Drain() []T {
	d.mu.Lock()
	batch := d.pending
	d.pending = make([]T, 0, d.hint)
	d.hint = len(batch)
	d.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	// Each object is keyed once by identity, so a renumber on another goroutine between two reads of the
	// same object's slot cannot split it across two runs. Objects must be comparable (pointer records).
	type keyed struct {
		slot common.SlotID
		obj  T
	}
	seen := make(map[any]struct{}, len(batch))
	keys := make([]keyed, 0, len(batch))
	for _, obj := range batch {
		if _, dup := seen[obj]; dup {
			continue
		}
		seen[obj] = struct{}{}
		if s := obj.SlotID(); s != common.UnassignedSlot {
			keys = append(keys, keyed{slot: s, obj: obj})
		}
	}
	slices.SortFunc(keys, func(a, b keyed) int {
		return int(a.slot) - int(b.slot)
	})

	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = k.obj
	}
	return out
}

func (d *dirtyTracker[T]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

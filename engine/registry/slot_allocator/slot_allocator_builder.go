package slot_allocator

import (
	"github.com/Carmen-Shannon/oxy-registry/common"
	"go.uber.org/zap"
)

// SlotAllocatorBuilderOption is a functional option used to configure a SlotAllocator during construction.
type SlotAllocatorBuilderOption[T common.Slotted] func(*slotAllocator[T])

// WithCapacity sets the fixed number of slots. It mirrors a fixed-size GPU allocation and never grows.
//
// Parameters:
//   - capacity: the number of slots, ignored unless positive
//
// Returns:
//   - SlotAllocatorBuilderOption[T]: a function that sets the capacity
func WithCapacity[T common.Slotted](capacity int) SlotAllocatorBuilderOption[T] {
	return func(a *slotAllocator[T]) {
		if capacity > 0 {
			a.capacity = capacity
		}
	}
}

// WithRemovalPolicy sets how Free keeps the table gap-free. Defaults to RemovalShiftDown.
//
// Parameters:
//   - policy: the removal policy
//
// Returns:
//   - SlotAllocatorBuilderOption[T]: a function that sets the policy
func WithRemovalPolicy[T common.Slotted](policy RemovalPolicy) SlotAllocatorBuilderOption[T] {
	return func(a *slotAllocator[T]) {
		a.policy = policy
	}
}

// WithRenumberListener registers the callback invoked for objects moved by Free.
//
// Parameters:
//   - listener: the callback
//
// Returns:
//   - SlotAllocatorBuilderOption[T]: a function that sets the listener
func WithRenumberListener[T common.Slotted](listener RenumberListener[T]) SlotAllocatorBuilderOption[T] {
	return func(a *slotAllocator[T]) {
		a.listener = listener
	}
}

// WithLabel names the table in errors and log fields.
//
// Parameters:
//   - label: the table name
//
// Returns:
//   - SlotAllocatorBuilderOption[T]: a function that sets the label
func WithLabel[T common.Slotted](label string) SlotAllocatorBuilderOption[T] {
	return func(a *slotAllocator[T]) {
		a.label = common.Coalesce(label, a.label)
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - SlotAllocatorBuilderOption[T]: a function that sets the logger
func WithLogger[T common.Slotted](logger *zap.Logger) SlotAllocatorBuilderOption[T] {
	return func(a *slotAllocator[T]) {
		if logger != nil {
			a.logger = logger
		}
	}
}

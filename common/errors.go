package common

import (
	"errors"
	"fmt"
)

// The registry treats every error below as a contract violation: callers either fix the precondition or
// abandon the operation that triggered it. Tables never change state on a failed call.

var (
	// ErrDuplicateName matches any *DuplicateNameError via errors.Is.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrUnknownCombination matches any *UnknownCombinationError via errors.Is.
	ErrUnknownCombination = errors.New("unknown combination")
	// ErrCapacityExceeded matches any *CapacityExceededError via errors.Is.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrOutOfRange matches any *OutOfRangeError via errors.Is.
	ErrOutOfRange = errors.New("out of range")
	// ErrStaleHandle matches any *StaleHandleError via errors.Is.
	ErrStaleHandle = errors.New("stale handle")
)

// DuplicateNameError is returned when a component name is registered twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("component %q is already registered", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// UnknownCombinationError is returned when resolving a CombinationID that was never interned by the registry instance.
type UnknownCombinationError struct {
	ID CombinationID
	// Len is the number of combinations interned at the time of the failed lookup.
	Len int
}

func (e *UnknownCombinationError) Error() string {
	return fmt.Sprintf("combination %d was never interned (registry holds %d)", e.ID, e.Len)
}

func (e *UnknownCombinationError) Is(target error) bool {
	return target == ErrUnknownCombination
}

// CapacityExceededError is returned when a fixed-size table has no room left.
type CapacityExceededError struct {
	Table    string
	Capacity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%s: capacity of %d exceeded", e.Table, e.Capacity)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// OutOfRangeError is returned when a write or address computation falls outside a record or beyond buffer capacity.
// It indicates a layout mismatch between a serializer and its declared schema.
type OutOfRangeError struct {
	Buffer string
	Slot   SlotID
	Offset uint64
	Size   uint64
	Limit  uint64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: slot %d range [%d, %d) exceeds limit %d", e.Buffer, e.Slot, e.Offset, e.Offset+e.Size, e.Limit)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// StaleHandleError is returned when operating on an object or identifier that is no longer (or never was) live.
type StaleHandleError struct {
	What   string
	Reason string
}

func (e *StaleHandleError) Error() string {
	return fmt.Sprintf("stale %s: %s", e.What, e.Reason)
}

func (e *StaleHandleError) Is(target error) bool {
	return target == ErrStaleHandle
}

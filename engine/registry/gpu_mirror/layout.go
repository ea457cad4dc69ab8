package gpu_mirror

import (
	"errors"
	"fmt"
	"sort"
)

// fieldAlignment is the minimum alignment of every field inside a record (one 32-bit scalar).
const fieldAlignment = 4

var (
	errZeroStride      = errors.New("layout stride must be greater than zero")
	errUnalignedStride = errors.New("layout stride must be a multiple of 4 bytes")
)

// FieldDescriptor names one field inside a GPU record and locates it relative to the record start.
type FieldDescriptor struct {
	Name   string
	Offset uint32
	Size   uint32
}

// End returns the offset one past the last byte of the field.
func (f FieldDescriptor) End() uint32 {
	return f.Offset + f.Size
}

// Layout is the fixed per-record schema of a mirror buffer. Every record occupies exactly Stride bytes.
type Layout struct {
	Name   string
	Stride uint32
	Fields []FieldDescriptor
}

// Field looks up a field by name.
//
// Parameters:
//   - name: the field name
//
// Returns:
//   - FieldDescriptor: the field, or the zero value if not found
//   - bool: true if the field exists
func (l Layout) Field(name string) (FieldDescriptor, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// MustField looks up a field by name and panics if it does not exist.
// Intended for package-level layout variables where a missing field is a programming error.
func (l Layout) MustField(name string) FieldDescriptor {
	f, ok := l.Field(name)
	if !ok {
		panic(fmt.Sprintf("gpu_mirror: layout %q has no field %q", l.Name, name))
	}
	return f
}

// Validate checks that every field is 4-byte aligned, lies inside the stride and does not overlap another field.
//
// Returns:
//   - error: a descriptive error for the first violation found, or nil
func (l Layout) Validate() error {
	if l.Stride == 0 {
		return fmt.Errorf("layout %q: %w", l.Name, errZeroStride)
	}
	if l.Stride%fieldAlignment != 0 {
		return fmt.Errorf("layout %q: %w", l.Name, errUnalignedStride)
	}

	fields := make([]FieldDescriptor, len(l.Fields))
	copy(fields, l.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })

	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("layout %q: duplicate field %q", l.Name, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Size == 0 {
			return fmt.Errorf("layout %q: field %q has zero size", l.Name, f.Name)
		}
		if f.Offset%fieldAlignment != 0 {
			return fmt.Errorf("layout %q: field %q offset %d is not 4-byte aligned", l.Name, f.Name, f.Offset)
		}
		if f.End() > l.Stride {
			return fmt.Errorf("layout %q: field %q ends at %d past stride %d", l.Name, f.Name, f.End(), l.Stride)
		}
		if i > 0 && fields[i-1].End() > f.Offset {
			return fmt.Errorf("layout %q: field %q overlaps %q", l.Name, f.Name, fields[i-1].Name)
		}
	}
	return nil
}

// Range is a contiguous byte range [Offset, Offset+Size) inside a mirror buffer.
type Range struct {
	Offset uint64
	Size   uint64
}

// End returns the offset one past the last byte of the range.
func (r Range) End() uint64 {
	return r.Offset + r.Size
}

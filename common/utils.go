package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// AlignUp rounds v up to the next multiple of alignment. alignment must be a power of two; zero leaves v unchanged.
func AlignUp(v, alignment uint64) uint64 {
	if alignment == 0 {
		return v
	}
	return (v + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds v down to a multiple of alignment. alignment must be a power of two; zero leaves v unchanged.
func AlignDown(v, alignment uint64) uint64 {
	if alignment == 0 {
		return v
	}
	return v &^ (alignment - 1)
}

// Package flag_set provides FlagSet, the value type describing which optional rendering features apply to an object.
package flag_set

import (
	"math/bits"
	"strconv"
	"strings"
)

const (
	bitsPerWord = 64
	wordCount   = 4

	// MaxBits is the number of distinct feature toggles a FlagSet can hold.
	MaxBits = wordCount * bitsPerWord
)

// FlagSet is an immutable 256-bit set of feature toggles. Equality is structural, so a FlagSet is usable
// directly as a map key. The zero value is the empty set.
type FlagSet [wordCount]uint64

// New returns a FlagSet with the given bits set.
//
// Parameters:
//   - bitIndices: the bit positions to set
//
// Returns:
//   - FlagSet: the new set
func New(bitIndices ...uint8) FlagSet {
	var f FlagSet
	for _, b := range bitIndices {
		f = f.Set(b)
	}
	return f
}

// Set returns a copy of f with bit b set.
func (f FlagSet) Set(b uint8) FlagSet {
	f[b>>6] |= uint64(1) << (b & 63)
	return f
}

// Unset returns a copy of f with bit b cleared.
func (f FlagSet) Unset(b uint8) FlagSet {
	f[b>>6] &^= uint64(1) << (b & 63)
	return f
}

// Has reports whether bit b is set.
func (f FlagSet) Has(b uint8) bool {
	return f[b>>6]&(uint64(1)<<(b&63)) != 0
}

// Contains reports whether every bit set in sub is also set in f.
//
// Parameters:
//   - sub: the subset to test for
//
// Returns:
//   - bool: true if f is a superset of sub
func (f FlagSet) Contains(sub FlagSet) bool {
	return f[0]&sub[0] == sub[0] &&
		f[1]&sub[1] == sub[1] &&
		f[2]&sub[2] == sub[2] &&
		f[3]&sub[3] == sub[3]
}

// Union returns the bitwise OR of f and o.
func (f FlagSet) Union(o FlagSet) FlagSet {
	return FlagSet{f[0] | o[0], f[1] | o[1], f[2] | o[2], f[3] | o[3]}
}

// Intersect returns the bitwise AND of f and o.
func (f FlagSet) Intersect(o FlagSet) FlagSet {
	return FlagSet{f[0] & o[0], f[1] & o[1], f[2] & o[2], f[3] & o[3]}
}

// Difference returns the bits of f that are not set in o.
func (f FlagSet) Difference(o FlagSet) FlagSet {
	return FlagSet{f[0] &^ o[0], f[1] &^ o[1], f[2] &^ o[2], f[3] &^ o[3]}
}

// IsEmpty reports whether no bit is set.
func (f FlagSet) IsEmpty() bool {
	return f == FlagSet{}
}

// Count returns the number of set bits.
func (f FlagSet) Count() int {
	return bits.OnesCount64(f[0]) + bits.OnesCount64(f[1]) + bits.OnesCount64(f[2]) + bits.OnesCount64(f[3])
}

// Bits returns the set bit positions in ascending order.
//
// Returns:
//   - []uint8: the set bits, or nil for the empty set
func (f FlagSet) Bits() []uint8 {
	var out []uint8
	for w, word := range f {
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			out = append(out, uint8(w*bitsPerWord+tz))
			word &= word - 1
		}
	}
	return out
}

// String renders the set as "{b0,b1,...}".
func (f FlagSet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, b := range f.Bits() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	sb.WriteByte('}')
	return sb.String()
}

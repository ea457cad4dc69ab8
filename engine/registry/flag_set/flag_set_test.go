package flag_set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetUnsetHas(t *testing.T) {
	var f FlagSet
	assert.True(t, f.IsEmpty())

	f = f.Set(0).Set(63).Set(64).Set(255)
	for _, b := range []uint8{0, 63, 64, 255} {
		assert.True(t, f.Has(b), "bit %d", b)
	}
	assert.False(t, f.Has(1))
	assert.Equal(t, 4, f.Count())

	g := f.Unset(63)
	assert.False(t, g.Has(63))
	assert.True(t, f.Has(63), "Unset must not mutate the receiver's copy")
}

func TestStructuralEquality(t *testing.T) {
	a := New(3, 7, 130)
	b := New(130, 3).Set(7)
	assert.Equal(t, a, b)
	assert.True(t, a == b)

	m := map[FlagSet]int{a: 1}
	assert.Equal(t, 1, m[b])
}

func TestContainsUnionIntersect(t *testing.T) {
	ab := New(0, 1)
	a := New(0)
	c := New(200)

	assert.True(t, ab.Contains(a))
	assert.False(t, a.Contains(ab))
	assert.True(t, ab.Contains(FlagSet{}))

	u := ab.Union(c)
	assert.Equal(t, []uint8{0, 1, 200}, u.Bits())
	assert.Equal(t, a, u.Intersect(a))
	assert.Equal(t, New(1, 200), u.Difference(a))
}

func TestString(t *testing.T) {
	assert.Equal(t, "{}", FlagSet{}.String())
	assert.Equal(t, "{1,64,255}", New(255, 64, 1).String())
	assert.Nil(t, FlagSet{}.Bits())
}

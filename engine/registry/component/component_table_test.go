package component

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsIDsAndBits(t *testing.T) {
	table := NewComponentTable()

	a, err := table.RegisterComponent("A", nil)
	require.NoError(t, err)
	b, err := table.RegisterComponent("B", Flag("b_frag"))
	require.NoError(t, err)
	meta, err := table.RegisterComponent("meta", Basic{FieldList: []gpu_mirror.FieldDescriptor{{Name: "x", Size: 4}}})
	require.NoError(t, err)

	assert.Equal(t, common.ComponentID(0), a)
	assert.Equal(t, common.ComponentID(1), b)
	assert.Equal(t, common.ComponentID(2), meta)
	assert.Equal(t, 3, table.Count())

	flagA, err := table.DerivedFlag(a)
	require.NoError(t, err)
	assert.Equal(t, flag_set.New(0), flagA)

	flagB, err := table.DerivedFlag(b)
	require.NoError(t, err)
	assert.Equal(t, flag_set.New(1), flagB)

	flagMeta, err := table.DerivedFlag(meta)
	require.NoError(t, err)
	assert.True(t, flagMeta.IsEmpty(), "a flagless component owns no bit")

	entry, ok := table.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, "b_frag", entry.Plugin.ShaderFragment())
	bit, ok := entry.Bit()
	assert.True(t, ok)
	assert.Equal(t, uint8(1), bit)
}

func TestDuplicateName(t *testing.T) {
	table := NewComponentTable()
	_, err := table.RegisterComponent("skinned", nil)
	require.NoError(t, err)

	_, err = table.RegisterComponent("skinned", nil)
	var dup *common.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "skinned", dup.Name)
	assert.ErrorIs(t, err, common.ErrDuplicateName)
	assert.Equal(t, 1, table.Count())
}

func TestUnregisterRecyclesIDAndBit(t *testing.T) {
	table := NewComponentTable()
	for _, name := range []string{"A", "B", "C"} {
		_, err := table.RegisterComponent(name, nil)
		require.NoError(t, err)
	}

	require.NoError(t, table.UnregisterComponent("B"))
	_, ok := table.Lookup("B")
	assert.False(t, ok)
	_, err := table.Entry(1)
	assert.ErrorIs(t, err, common.ErrStaleHandle)

	d, err := table.RegisterComponent("D", nil)
	require.NoError(t, err)
	assert.Equal(t, common.ComponentID(1), d)
	flagD, err := table.DerivedFlag(d)
	require.NoError(t, err)
	assert.Equal(t, flag_set.New(1), flagD)

	assert.ErrorIs(t, table.UnregisterComponent("missing"), common.ErrStaleHandle)
}

func TestLowestFreeBitIsReused(t *testing.T) {
	table := NewComponentTable()
	for i := 0; i < 5; i++ {
		_, err := table.RegisterComponent(fmt.Sprintf("c%d", i), nil)
		require.NoError(t, err)
	}
	require.NoError(t, table.UnregisterComponent("c3"))
	require.NoError(t, table.UnregisterComponent("c1"))

	id, err := table.RegisterComponent("next", nil)
	require.NoError(t, err)
	assert.Equal(t, common.ComponentID(1), id, "ids come back LIFO")
	entry, err := table.Entry(id)
	require.NoError(t, err)
	bit, _ := entry.Bit()
	assert.Equal(t, uint8(1), bit)

	entry, ok := table.Lookup("c4")
	require.True(t, ok)
	bit, _ = entry.Bit()
	assert.Equal(t, uint8(4), bit)
}

func TestBitExhaustionLeavesTableUnchanged(t *testing.T) {
	table := NewComponentTable()
	for i := 0; i < flag_set.MaxBits; i++ {
		_, err := table.RegisterComponent(fmt.Sprintf("c%d", i), nil)
		require.NoError(t, err)
	}

	_, err := table.RegisterComponent("overflow", nil)
	var capErr *common.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, flag_set.MaxBits, capErr.Capacity)
	assert.Equal(t, flag_set.MaxBits, table.Count())
	_, ok := table.Lookup("overflow")
	assert.False(t, ok)

	// Flagless components still register once the bits are gone.
	id, err := table.RegisterComponent("plain", Basic{})
	require.NoError(t, err)
	assert.Equal(t, common.ComponentID(flag_set.MaxBits), id)
}

func TestMaxComponents(t *testing.T) {
	table := NewComponentTable(WithMaxComponents(2))
	_, err := table.RegisterComponent("A", nil)
	require.NoError(t, err)
	_, err = table.RegisterComponent("B", nil)
	require.NoError(t, err)
	_, err = table.RegisterComponent("C", nil)
	assert.ErrorIs(t, err, common.ErrCapacityExceeded)

	require.NoError(t, table.UnregisterComponent("A"))
	_, err = table.RegisterComponent("C", nil)
	assert.NoError(t, err)
}

func TestFlagsForHasAndNames(t *testing.T) {
	table := NewComponentTable()
	normal, _ := table.RegisterComponent("normal_map", nil)
	skinned, _ := table.RegisterComponent("skinned", nil)
	lines, _ := table.RegisterComponent("line_topology", nil)

	set, err := table.FlagsFor("normal_map", "line_topology")
	require.NoError(t, err)
	assert.True(t, table.Has(set, normal))
	assert.False(t, table.Has(set, skinned))
	assert.True(t, table.Has(set, lines))
	assert.False(t, table.Has(set, 99))
	assert.Equal(t, []string{"normal_map", "line_topology"}, table.Names(set))

	_, err = table.FlagsFor("normal_map", "nope")
	assert.ErrorIs(t, err, common.ErrStaleHandle)

	entries := table.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "skinned", entries[1].Name)
}

func TestConcurrentRegistration(t *testing.T) {
	table := NewComponentTable()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := table.RegisterComponent(fmt.Sprintf("c%d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 64, table.Count())
	seen := make(map[uint8]bool)
	for _, e := range table.Entries() {
		b, ok := e.Bit()
		require.True(t, ok)
		assert.False(t, seen[b], "bit %d handed out twice", b)
		seen[b] = true
	}
}

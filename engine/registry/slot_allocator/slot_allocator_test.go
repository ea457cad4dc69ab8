package slot_allocator

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	common.SlotHandle
	name string
}

func newObjects(names ...string) []*testObject {
	out := make([]*testObject, len(names))
	for i, n := range names {
		out[i] = &testObject{name: n}
	}
	return out
}

func assertDense(t *testing.T, a SlotAllocator[*testObject]) {
	t.Helper()
	for i, obj := range a.Live() {
		assert.Equal(t, common.SlotID(i+1), obj.SlotID(), "object %s", obj.name)
	}
}

func TestAllocateAndShiftDown(t *testing.T) {
	type move struct {
		name     string
		from, to common.SlotID
	}
	var moves []move
	a := NewSlotAllocator(
		WithCapacity[*testObject](8),
		WithRenumberListener(func(obj *testObject, from, to common.SlotID) {
			moves = append(moves, move{obj.name, from, to})
		}),
	)
	objs := newObjects("a", "b", "c")
	for i, o := range objs {
		id, err := a.Allocate(o)
		require.NoError(t, err)
		assert.Equal(t, common.SlotID(i+1), id)
	}

	require.NoError(t, a.Free(objs[1]))
	assert.Equal(t, common.SlotID(1), objs[0].SlotID())
	assert.Equal(t, common.UnassignedSlot, objs[1].SlotID())
	assert.Equal(t, common.SlotID(2), objs[2].SlotID())
	assert.Equal(t, []move{{"c", 3, 2}}, moves)
	assert.Equal(t, 2, a.LiveCount())

	got, err := a.Get(2)
	require.NoError(t, err)
	assert.Same(t, objs[2], got)

	_, err = a.Get(3)
	assert.ErrorIs(t, err, common.ErrOutOfRange)
	_, err = a.Get(0)
	assert.ErrorIs(t, err, common.ErrOutOfRange)
}

func TestFreeLastDoesNotRenumber(t *testing.T) {
	calls := 0
	a := NewSlotAllocator(WithRenumberListener(func(*testObject, common.SlotID, common.SlotID) { calls++ }))
	objs := newObjects("a", "b")
	for _, o := range objs {
		_, err := a.Allocate(o)
		require.NoError(t, err)
	}
	require.NoError(t, a.Free(objs[1]))
	assert.Zero(t, calls)
	assert.Equal(t, common.SlotID(1), objs[0].SlotID())
}

func TestSwapLast(t *testing.T) {
	var movedName string
	a := NewSlotAllocator(
		WithRemovalPolicy[*testObject](RemovalSwapLast),
		WithRenumberListener(func(obj *testObject, from, to common.SlotID) {
			movedName = obj.name
			assert.Equal(t, common.SlotID(4), from)
			assert.Equal(t, common.SlotID(2), to)
		}),
	)
	assert.Equal(t, RemovalSwapLast, a.Policy())
	objs := newObjects("a", "b", "c", "d")
	for _, o := range objs {
		_, err := a.Allocate(o)
		require.NoError(t, err)
	}

	require.NoError(t, a.Free(objs[1]))
	assert.Equal(t, "d", movedName)
	assert.Equal(t, common.SlotID(2), objs[3].SlotID())
	assert.Equal(t, common.SlotID(3), objs[2].SlotID())
	assertDense(t, a)
}

func TestCapacityExceeded(t *testing.T) {
	const n = 4
	a := NewSlotAllocator(WithCapacity[*testObject](n), WithLabel[*testObject]("materials"))
	assert.Equal(t, n, a.Capacity())

	objs := newObjects("a", "b", "c", "d", "e")
	for _, o := range objs[:n] {
		_, err := a.Allocate(o)
		require.NoError(t, err)
	}
	_, err := a.Allocate(objs[n])

	var capErr *common.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "materials", capErr.Table)
	assert.Equal(t, n, capErr.Capacity)
	assert.Equal(t, n, a.LiveCount())
	assert.Equal(t, common.UnassignedSlot, objs[n].SlotID())
}

func TestStaleHandles(t *testing.T) {
	a := NewSlotAllocator[*testObject]()
	objs := newObjects("a", "b")

	assert.ErrorIs(t, a.Free(objs[0]), common.ErrStaleHandle)

	_, err := a.Allocate(objs[0])
	require.NoError(t, err)
	_, err = a.Allocate(objs[0])
	assert.ErrorIs(t, err, common.ErrStaleHandle)

	// An object claiming a slot it does not own.
	objs[1].SetSlotID(1)
	assert.ErrorIs(t, a.Free(objs[1]), common.ErrStaleHandle)
	assert.Equal(t, 1, a.LiveCount())

	require.NoError(t, a.Free(objs[0]))
	assert.ErrorIs(t, a.Free(objs[0]), common.ErrStaleHandle)
}

func TestSlotDensityUnderRandomChurn(t *testing.T) {
	for _, policy := range []RemovalPolicy{RemovalShiftDown, RemovalSwapLast} {
		t.Run(policy.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			a := NewSlotAllocator(WithCapacity[*testObject](64), WithRemovalPolicy[*testObject](policy))
			var live []*testObject

			for step := 0; step < 2000; step++ {
				if len(live) == 0 || (len(live) < a.Capacity() && rng.Intn(3) != 0) {
					o := &testObject{}
					_, err := a.Allocate(o)
					require.NoError(t, err)
					live = append(live, o)
				} else {
					i := rng.Intn(len(live))
					require.NoError(t, a.Free(live[i]))
					live = append(live[:i], live[i+1:]...)
				}
				require.Equal(t, len(live), a.LiveCount())
			}
			assertDense(t, a)
		})
	}
}

func TestConcurrentAllocateFree(t *testing.T) {
	a := NewSlotAllocator(WithCapacity[*testObject](256))
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			objs := newObjects("x", "y", "z")
			for round := 0; round < 50; round++ {
				for _, o := range objs {
					_, err := a.Allocate(o)
					assert.NoError(t, err)
				}
				for _, o := range objs {
					assert.NoError(t, a.Free(o))
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, a.LiveCount())
}

package dirty_tracker

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	common.SlotHandle
}

func withSlot(s common.SlotID) *testObject {
	o := &testObject{}
	o.SetSlotID(s)
	return o
}

func TestDrainCoalescesAndSorts(t *testing.T) {
	d := NewDirtyTracker[*testObject]()
	a, b, c := withSlot(3), withSlot(1), withSlot(2)

	for i := 0; i < 5; i++ {
		d.MarkDirty(a)
	}
	d.MarkDirty(b)
	d.MarkDirty(c)
	d.MarkDirty(b)
	assert.Equal(t, 8, d.Pending())

	got := d.Drain()
	require.Len(t, got, 3)
	assert.Same(t, b, got[0])
	assert.Same(t, c, got[1])
	assert.Same(t, a, got[2])
	assert.Zero(t, d.Pending())
	assert.Nil(t, d.Drain())
}

func TestDrainDropsUnassigned(t *testing.T) {
	d := NewDirtyTracker[*testObject]()
	freed := withSlot(2)
	d.MarkDirty(withSlot(1))
	d.MarkDirty(freed)
	freed.SetSlotID(common.UnassignedSlot)

	got := d.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, common.SlotID(1), got[0].SlotID())
}

func TestMarkDuringDrainGoesToNextBatch(t *testing.T) {
	d := NewDirtyTracker[*testObject]()
	a, b := withSlot(1), withSlot(2)
	d.MarkDirty(a)

	first := d.Drain()
	require.Len(t, first, 1)
	// Serializing a re-marks it and marks b; neither may show up in the batch being processed.
	for range first {
		d.MarkDirty(a)
		d.MarkDirty(b)
	}
	assert.Len(t, first, 1)

	second := d.Drain()
	require.Len(t, second, 2)
	assert.Same(t, a, second[0])
	assert.Same(t, b, second[1])
}

func TestNotifyDirtyAdapter(t *testing.T) {
	d := NewDirtyTracker[*testObject]()
	o := withSlot(1)
	o.SetNotifier(d)
	o.Notify(o)
	o.Notify(o)

	got := d.Drain()
	require.Len(t, got, 1)
	assert.Same(t, o, got[0])
}

func TestConcurrentMarks(t *testing.T) {
	d := NewDirtyTracker[*testObject]()
	objs := make([]*testObject, 32)
	for i := range objs {
		objs[i] = withSlot(common.SlotID(i + 1))
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, o := range objs {
				d.MarkDirty(o)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*len(objs), d.Pending())
	got := d.Drain()
	require.Len(t, got, len(objs))
	for i, o := range got {
		assert.Equal(t, common.SlotID(i+1), o.SlotID())
	}
}

// shiftingObject reports a lower slot on every read, like an object renumbered by concurrent frees.
type shiftingObject struct {
	testObject
	reads int
}

func (o *shiftingObject) SlotID() common.SlotID {
	o.reads++
	return common.SlotID(10 - o.reads)
}

func TestDrainCoalescesObjectRenumberedMidDrain(t *testing.T) {
	d := NewDirtyTracker[common.Slotted]()
	moving := &shiftingObject{}
	other := withSlot(8)

	d.MarkDirty(moving)
	d.MarkDirty(other)
	d.MarkDirty(moving)
	d.MarkDirty(moving)

	got := d.Drain()
	require.Len(t, got, 2, "an object whose slot changes between reads is still drained once")
	assert.Equal(t, 1, moving.reads)
	assert.Contains(t, got, common.Slotted(moving))
	assert.Contains(t, got, common.Slotted(other))
}

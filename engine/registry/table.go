package registry

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/dirty_tracker"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/slot_allocator"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/upload"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"go.uber.org/zap"
)

// objectTable is the implementation of the ObjectTable interface.
type objectTable struct {
	// mu serializes structural changes (Add, Remove, Bind) with Sync; record mutations only touch the tracker.
	mu     *sync.Mutex
	name   string
	logger *zap.Logger

	// features interns a record's feature names; nil when the table is used on its own.
	features func(names ...string) (common.CombinationID, error)

	capacity  int
	policy    slot_allocator.RemovalPolicy
	mirrorOps []gpu_mirror.GPUMirrorBufferBuilderOption
	schedOps  []upload.SchedulerBuilderOption

	allocator slot_allocator.SlotAllocator[Record]
	tracker   dirty_tracker.DirtyTracker[Record]
	mirror    gpu_mirror.GPUMirrorBuffer
	scheduler upload.Scheduler

	provider bind_group_provider.BindGroupProvider
	binding  int
}

// ObjectTable stores one kind of GPU-mirrored record: a slot allocator, a dirty tracker, the host mirror of
// the device buffer and the upload scheduler that keeps them in sync.
//
// Add, Remove and record mutations are safe from any goroutine. Sync runs on the frame-update goroutine and
// holds the table for the whole frame, so slots do not move while records serialize.
type ObjectTable interface {
	// Name returns the table name.
	Name() string

	// Mirror returns the host mirror of the table's device buffer.
	Mirror() gpu_mirror.GPUMirrorBuffer

	// Add stores rec in the next slot, installs the table's notifier and queues the record for upload.
	// Featured records get their combination resolved first.
	//
	// Parameters:
	//   - rec: the record to add
	//
	// Returns:
	//   - common.SlotID: the assigned slot
	//   - error: a feature resolution error, *common.CapacityExceededError or *common.StaleHandleError
	Add(rec Record) (common.SlotID, error)

	// Remove frees rec's slot. The mirror records of moved records follow them to their new slots, the moved
	// records are queued for upload and the vacated tail record is zeroed.
	//
	// Parameters:
	//   - rec: the record to remove
	//
	// Returns:
	//   - error: *common.StaleHandleError if rec is not stored in this table
	Remove(rec Record) error

	// Get returns the record stored at slot.
	//
	// Parameters:
	//   - slot: the 1-based slot
	//
	// Returns:
	//   - Record: the record
	//   - error: *common.OutOfRangeError if slot is not live
	Get(slot common.SlotID) (Record, error)

	// Len returns the number of live records.
	Len() int

	// Capacity returns the fixed number of slots.
	Capacity() int

	// Live returns the live records in slot order.
	Live() []Record

	// Pending returns the number of change notifications queued since the last Sync.
	Pending() int

	// Sync drains the dirty records, serializes them into the mirror and plans the upload. When a record fails,
	// it and every record not yet serialized stay queued for the next Sync.
	//
	// Returns:
	//   - upload.UploadPlan: the copies and barriers for this frame
	//   - int: the number of records serialized
	//   - error: the first serialization or planning error
	Sync() (upload.UploadPlan, int, error)

	// Writes converts a plan returned by Sync into staged writes against the table's bound device buffer.
	// Tables without a bound provider return nil.
	//
	// Parameters:
	//   - plan: the plan to stage
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the staged writes
	//   - error: an error if the plan no longer fits the mirror
	Writes(plan upload.UploadPlan) ([]bind_group_provider.BufferWrite, error)

	// Bind attaches the device buffer the table uploads into.
	//
	// Parameters:
	//   - provider: the bind group provider owning the device buffer
	//   - binding: the binding index of the buffer on provider
	Bind(provider bind_group_provider.BindGroupProvider, binding int)
}

var _ ObjectTable = &objectTable{}

// NewObjectTable creates a standalone ObjectTable. Tables created this way do not resolve features; use
// Registry.NewTable for tables whose records are Featured.
//
// Parameters:
//   - name: the table name
//   - layout: the GPU record layout
//   - options: functional options to configure the table
//
// Returns:
//   - ObjectTable: the new table
//   - error: an error if the layout is invalid
func NewObjectTable(name string, layout gpu_mirror.Layout, options ...ObjectTableBuilderOption) (ObjectTable, error) {
	return newObjectTable(name, layout, nil, options...)
}

func newObjectTable(name string, layout gpu_mirror.Layout, features func(...string) (common.CombinationID, error), options ...ObjectTableBuilderOption) (*objectTable, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	t := &objectTable{
		mu:       &sync.Mutex{},
		name:     name,
		logger:   zap.NewNop(),
		features: features,
		capacity: slot_allocator.DefaultCapacity,
		policy:   slot_allocator.RemovalShiftDown,
	}
	for _, opt := range options {
		opt(t)
	}

	t.tracker = dirty_tracker.NewDirtyTracker[Record]()
	t.allocator = slot_allocator.NewSlotAllocator(
		slot_allocator.WithCapacity[Record](t.capacity),
		slot_allocator.WithRemovalPolicy[Record](t.policy),
		slot_allocator.WithLabel[Record](name),
		slot_allocator.WithLogger[Record](t.logger),
		slot_allocator.WithRenumberListener(func(rec Record, from, to common.SlotID) {
			if err := t.mirror.CopyRecord(to, from); err != nil {
				t.logger.Warn("compact mirror record", zap.String("table", t.name), zap.Error(err))
			}
			t.tracker.MarkDirty(rec)
		}),
	)
	t.mirror = gpu_mirror.NewGPUMirrorBuffer(layout, uint32(t.capacity),
		append([]gpu_mirror.GPUMirrorBufferBuilderOption{gpu_mirror.WithLabel(name)}, t.mirrorOps...)...)
	t.scheduler = upload.NewScheduler(append([]upload.SchedulerBuilderOption{upload.WithLogger(t.logger)}, t.schedOps...)...)
	return t, nil
}

func (t *objectTable) Name() string {
	return t.name
}

func (t *objectTable) Mirror() gpu_mirror.GPUMirrorBuffer {
	return t.mirror
}

func (t *objectTable) Add(rec Record) (common.SlotID, error) {
	f, featured := rec.(Featured)
	featured = featured && t.features != nil
	var combination common.CombinationID
	if featured {
		id, err := t.features(f.Features()...)
		if err != nil {
			return common.UnassignedSlot, fmt.Errorf("table %s: resolve features: %w", t.name, err)
		}
		combination = id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.allocator.Allocate(rec)
	if err != nil {
		return common.UnassignedSlot, err
	}
	// Set before the notifier is installed so the record's own notification does not reach the tracker twice.
	if featured {
		f.SetCombinationID(combination)
	}
	rec.SetNotifier(t.tracker)
	t.tracker.MarkDirty(rec)
	return slot, nil
}

func (t *objectTable) Remove(rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	tail := common.SlotID(t.allocator.LiveCount())
	if err := t.allocator.Free(rec); err != nil {
		return err
	}
	rec.SetNotifier(nil)
	if tail != common.UnassignedSlot {
		if err := t.mirror.ZeroRecord(tail); err != nil {
			return err
		}
	}
	return nil
}

func (t *objectTable) Get(slot common.SlotID) (Record, error) {
	return t.allocator.Get(slot)
}

func (t *objectTable) Len() int {
	return t.allocator.LiveCount()
}

func (t *objectTable) Capacity() int {
	return t.allocator.Capacity()
}

func (t *objectTable) Live() []Record {
	return t.allocator.Live()
}

func (t *objectTable) Pending() int {
	return t.tracker.Pending()
}

func (t *objectTable) Sync() (upload.UploadPlan, int, error) {
	// Holding mu keeps slots fixed from drain to plan; Remove on another goroutine waits for the frame.
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.syncLocked()
}

// frame syncs the table and stages the plan's writes under one lock, so a concurrent Remove cannot compact
// the mirror between planning and staging.
func (t *objectTable) frame() (upload.UploadPlan, int, []bind_group_provider.BufferWrite, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	plan, dirty, err := t.syncLocked()
	if err != nil {
		return plan, dirty, nil, err
	}
	if t.provider == nil {
		return plan, dirty, nil, nil
	}
	writes, err := plan.Writes(t.provider, t.binding, t.mirror)
	if err != nil {
		return plan, dirty, nil, fmt.Errorf("table %s: %w", t.name, err)
	}
	return plan, dirty, writes, nil
}

func (t *objectTable) syncLocked() (upload.UploadPlan, int, error) {
	dirty := t.tracker.Drain()
	serialized := make([]common.Slotted, 0, len(dirty))
	for i, rec := range dirty {
		slot := rec.SlotID()
		if slot == common.UnassignedSlot {
			continue
		}
		w, err := t.mirror.Record(slot)
		if err == nil {
			if err = rec.Serialize(w); err != nil {
				err = fmt.Errorf("table %s: serialize slot %d: %w", t.name, slot, err)
			}
		}
		if err != nil {
			t.requeue(dirty[i:])
			return upload.UploadPlan{}, 0, err
		}
		serialized = append(serialized, rec)
	}

	plan, err := t.scheduler.FlushDirty(t.mirror, serialized)
	if err != nil {
		t.requeue(dirty)
		return upload.UploadPlan{}, 0, fmt.Errorf("table %s: %w", t.name, err)
	}
	return plan, len(serialized), nil
}

// requeue marks records of a failed Sync dirty again so the next Sync retries them.
func (t *objectTable) requeue(recs []Record) {
	for _, rec := range recs {
		t.tracker.MarkDirty(rec)
	}
}

func (t *objectTable) Writes(plan upload.UploadPlan) ([]bind_group_provider.BufferWrite, error) {
	t.mu.Lock()
	provider, binding := t.provider, t.binding
	t.mu.Unlock()
	if provider == nil {
		return nil, nil
	}
	return plan.Writes(provider, binding, t.mirror)
}

func (t *objectTable) Bind(provider bind_group_provider.BindGroupProvider, binding int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.provider = provider
	t.binding = binding
}

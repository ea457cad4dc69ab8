// Package upload turns the dirty state of a GPU mirror buffer into the minimal set of copy regions and the
// barriers that must surround them.
package upload

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"go.uber.org/zap"
)

// CopyAlignment is the offset and size alignment WebGPU requires for buffer copies.
const CopyAlignment = 4

// CopyRegion is one host-to-device copy. Offsets are identical for the mirror and the device buffer
// because the mirror has the device buffer's exact layout.
type CopyRegion struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// UploadPlan is the complete synchronization of one mirror buffer for one frame. The command layer records
// PreBarrier, then every copy in order, then PostBarrier.
type UploadPlan struct {
	Buffer      string
	PreBarrier  Barrier
	Copies      []CopyRegion
	PostBarrier Barrier
}

// Empty reports whether the plan performs no copies.
func (p UploadPlan) Empty() bool {
	return len(p.Copies) == 0
}

// TotalBytes returns the number of bytes copied by the plan.
func (p UploadPlan) TotalBytes() uint64 {
	var n uint64
	for _, c := range p.Copies {
		n += c.Size
	}
	return n
}

// Writes converts the plan into staged buffer writes for the renderer, reading the bytes from mirror.
//
// Parameters:
//   - provider: the bind group provider holding the device buffer
//   - binding: the binding index of the device buffer on provider
//   - mirror: the mirror the plan was computed from
//
// Returns:
//   - []bind_group_provider.BufferWrite: one write per copy region
//   - error: an error if a region no longer fits the mirror
func (p UploadPlan) Writes(provider bind_group_provider.BindGroupProvider, binding int, mirror gpu_mirror.GPUMirrorBuffer) ([]bind_group_provider.BufferWrite, error) {
	if p.Empty() {
		return nil, nil
	}
	writes := make([]bind_group_provider.BufferWrite, 0, len(p.Copies))
	for _, c := range p.Copies {
		data, err := mirror.Snapshot(c.SrcOffset, c.Size)
		if err != nil {
			return nil, fmt.Errorf("stage %s copy at %d: %w", p.Buffer, c.SrcOffset, err)
		}
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: provider,
			Binding:  binding,
			Offset:   c.DstOffset,
			Data:     data,
		})
	}
	return writes, nil
}

// scheduler is the implementation of the Scheduler interface.
type scheduler struct {
	logger   *zap.Logger
	mergeGap uint64
}

// Scheduler computes upload plans. It holds no per-buffer state and may be shared by every table,
// but FlushDirty for a given mirror must only run on the frame-update goroutine.
type Scheduler interface {
	// FlushDirty collects the record ranges of the dirty objects and the ranges written into mirror since the
	// previous flush, and returns the plan that makes the device buffer match the mirror. The mirror is
	// clean afterwards. A clean mirror with no dirty objects yields an empty plan with no barriers.
	//
	// Parameters:
	//   - mirror: the mirror buffer
	//   - dirty: the drained dirty objects, ideally unique and sorted by SlotID
	//
	// Returns:
	//   - UploadPlan: the copies and barriers
	//   - error: *common.OutOfRangeError if a dirty object's slot lies outside the mirror
	FlushDirty(mirror gpu_mirror.GPUMirrorBuffer, dirty []common.Slotted) (UploadPlan, error)

	// MergeGap returns the largest gap in bytes bridged when merging copy regions.
	MergeGap() uint64
}

var _ Scheduler = &scheduler{}

// NewScheduler creates a Scheduler.
//
// Parameters:
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scheduler) MergeGap() uint64 {
	return s.mergeGap
}

func (s *scheduler) FlushDirty(mirror gpu_mirror.GPUMirrorBuffer, dirty []common.Slotted) (UploadPlan, error) {
	plan := UploadPlan{Buffer: mirror.Label()}

	ranges := make([]gpu_mirror.Range, 0, len(dirty))
	for _, obj := range dirty {
		slot := obj.SlotID()
		if slot == common.UnassignedSlot {
			continue
		}
		r, err := mirror.RecordRange(slot)
		if err != nil {
			return plan, err
		}
		ranges = append(ranges, r)
	}
	// Taken after validation so a failed flush leaves the mirror's ranges for the next attempt.
	ranges = append(ranges, mirror.TakeDirtyRanges()...)
	if len(ranges) == 0 {
		return plan, nil
	}

	plan.Copies = s.coalesce(ranges, mirror.Size())
	plan.PreBarrier, plan.PostBarrier = uploadBarriers(mirror.ConsumerStages(), mirror.Usage())

	s.logger.Debug("upload planned",
		zap.String("buffer", plan.Buffer),
		zap.Int("dirty_objects", len(dirty)),
		zap.Int("copies", len(plan.Copies)),
		zap.Uint64("bytes", plan.TotalBytes()),
	)
	return plan, nil
}

// coalesce aligns every range outward to CopyAlignment, sorts them and merges ranges that overlap, touch,
// or are separated by at most mergeGap bytes.
func (s *scheduler) coalesce(ranges []gpu_mirror.Range, limit uint64) []CopyRegion {
	for i := range ranges {
		start := common.AlignDown(ranges[i].Offset, CopyAlignment)
		end := min(common.AlignUp(ranges[i].End(), CopyAlignment), limit)
		ranges[i] = gpu_mirror.Range{Offset: start, Size: end - start}
	}
	slices.SortFunc(ranges, func(a, b gpu_mirror.Range) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})

	out := make([]CopyRegion, 0, len(ranges))
	cur := ranges[0]
	for _, r := range ranges[1:] {
		if r.Offset <= cur.End()+s.mergeGap {
			if r.End() > cur.End() {
				cur.Size = r.End() - cur.Offset
			}
			continue
		}
		out = append(out, CopyRegion{SrcOffset: cur.Offset, DstOffset: cur.Offset, Size: cur.Size})
		cur = r
	}
	return append(out, CopyRegion{SrcOffset: cur.Offset, DstOffset: cur.Offset, Size: cur.Size})
}

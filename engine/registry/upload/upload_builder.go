package upload

import (
	"github.com/Carmen-Shannon/oxy-registry/common"
	"go.uber.org/zap"
)

// SchedulerBuilderOption is a functional option used to configure a Scheduler during construction.
type SchedulerBuilderOption func(*scheduler)

// WithMergeGap lets two copy regions separated by at most gap bytes merge into one copy.
// The gap is rounded up to CopyAlignment.
//
// Parameters:
//   - gap: the largest gap to bridge in bytes
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the merge gap
func WithMergeGap(gap uint64) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.mergeGap = common.AlignUp(gap, CopyAlignment)
	}
}

// WithLogger sets the logger used for per-flush debug output. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) SchedulerBuilderOption {
	return func(s *scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

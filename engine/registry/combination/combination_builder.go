package combination

import (
	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/flag_set"
	"go.uber.org/zap"
)

// CombinationRegistryBuilderOption is a functional option used to configure a CombinationRegistry during construction.
type CombinationRegistryBuilderOption func(*combinationRegistry)

// WithLogger sets the logger used to report newly interned combinations. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - CombinationRegistryBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) CombinationRegistryBuilderOption {
	return func(r *combinationRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExpectedCombinations pre-sizes the registry's tables.
//
// Parameters:
//   - n: the expected number of distinct combinations
//
// Returns:
//   - CombinationRegistryBuilderOption: a function that sizes the tables
func WithExpectedCombinations(n int) CombinationRegistryBuilderOption {
	return func(r *combinationRegistry) {
		if n > 0 {
			r.ids = make(map[flag_set.FlagSet]common.CombinationID, n)
			r.values = make([]flag_set.FlagSet, 0, n)
		}
	}
}

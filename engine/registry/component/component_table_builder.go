package component

import "go.uber.org/zap"

// ComponentTableBuilderOption is a functional option used to configure a ComponentTable during construction.
type ComponentTableBuilderOption func(*componentTable)

// WithLogger sets the logger used for registration events. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - ComponentTableBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) ComponentTableBuilderOption {
	return func(t *componentTable) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMaxComponents caps the number of live ComponentIDs. Values outside (0, DefaultMaxComponents] are ignored.
//
// Parameters:
//   - n: the maximum number of live components
//
// Returns:
//   - ComponentTableBuilderOption: a function that sets the cap
func WithMaxComponents(n int) ComponentTableBuilderOption {
	return func(t *componentTable) {
		if n > 0 && n <= DefaultMaxComponents {
			t.maxComponents = n
		}
	}
}

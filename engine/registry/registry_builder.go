package registry

import (
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/combination"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/component"
	"go.uber.org/zap"
)

// RegistryBuilderOption is a functional option used to configure a Registry during construction.
type RegistryBuilderOption func(*registry)

// WithLogger sets the logger used by the registry. Tables and the default component and combination
// tables receive named children of it.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - RegistryBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) RegistryBuilderOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWorkers sets the number of pooled goroutines that synchronize tables during Update.
//
// Parameters:
//   - n: the worker count, ignored unless positive
//
// Returns:
//   - RegistryBuilderOption: a function that sets the worker count
func WithWorkers(n int) RegistryBuilderOption {
	return func(r *registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithComponentTable uses an existing component table, e.g. one populated from a manifest.
//
// Parameters:
//   - table: the component table
//
// Returns:
//   - RegistryBuilderOption: a function that sets the component table
func WithComponentTable(table component.ComponentTable) RegistryBuilderOption {
	return func(r *registry) {
		r.components = table
	}
}

// WithCombinationRegistry uses an existing combination registry.
//
// Parameters:
//   - combinations: the combination registry
//
// Returns:
//   - RegistryBuilderOption: a function that sets the combination registry
func WithCombinationRegistry(combinations combination.CombinationRegistry) RegistryBuilderOption {
	return func(r *registry) {
		r.combinations = combinations
	}
}

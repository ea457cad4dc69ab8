package loader

import (
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option used to configure a Loader during construction.
type LoaderBuilderOption func(*loader)

// WithLogger sets the logger used to report imports. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - LoaderBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMaterialTable adds every imported material to t.
//
// Parameters:
//   - t: a table using the material layout
//
// Returns:
//   - LoaderBuilderOption: a function that sets the material table
func WithMaterialTable(t registry.ObjectTable) LoaderBuilderOption {
	return func(l *loader) {
		l.materials = t
	}
}

// WithTextureUnitTable adds every imported texture unit to t.
//
// Parameters:
//   - t: a table using the texture unit layout
//
// Returns:
//   - LoaderBuilderOption: a function that sets the texture unit table
func WithTextureUnitTable(t registry.ObjectTable) LoaderBuilderOption {
	return func(l *loader) {
		l.textureUnits = t
	}
}

package shader

import "go.uber.org/zap"

// VariantCompilerBuilderOption is a functional option used to configure a VariantCompiler during construction.
type VariantCompilerBuilderOption func(*variantCompiler)

// WithLogger sets the logger used to report built variants. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - VariantCompilerBuilderOption: a function that sets the logger
func WithLogger(logger *zap.Logger) VariantCompilerBuilderOption {
	return func(c *variantCompiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVariantFragment registers the WGSL injected by @oxy:fragments into variants where key is active.
//
// Parameters:
//   - key: a component name or shader fragment key
//   - source: the WGSL fragment
//
// Returns:
//   - VariantCompilerBuilderOption: a function that registers the fragment
func WithVariantFragment(key, source string) VariantCompilerBuilderOption {
	return func(c *variantCompiler) {
		c.fragments[key] = source
	}
}

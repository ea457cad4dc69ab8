package shader

// PreProcessorBuilderOption is a functional option used to configure a PreProcessor during construction.
type PreProcessorBuilderOption func(*preProcessor)

// WithFragment registers the WGSL injected by @oxy:fragments when the feature key is active.
// Keys are component names or the shader fragment keys components declare.
//
// Parameters:
//   - key: the feature or fragment key
//   - source: the WGSL fragment
//
// Returns:
//   - PreProcessorBuilderOption: a function that registers the fragment
func WithFragment(key, source string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.fragments[key] = source
	}
}

// WithFragments registers several fragments at once.
//
// Parameters:
//   - fragments: fragment sources by key
//
// Returns:
//   - PreProcessorBuilderOption: a function that registers the fragments
func WithFragments(fragments map[string]string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		for k, v := range fragments {
			p.fragments[k] = v
		}
	}
}

package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-registry/engine/config"
	"github.com/Carmen-Shannon/oxy-registry/engine/profiler"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables periodic frame statistics.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickInterval(fps)
	}
}

// WithConfig applies the engine section of a loaded configuration and keeps the table sections for NewTable.
// A positive profile interval enables the profiler at that interval.
//
// Parameters:
//   - cfg: the loaded configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		if cfg == nil {
			return
		}
		e.cfg = cfg
		if cfg.Engine.TickRate > 0 {
			e.engineTickRate = cfg.Engine.TickRate
		}
		if cfg.Engine.Workers > 0 {
			e.workers = cfg.Engine.Workers
		}
		if cfg.Engine.ProfileInterval > 0 {
			e.profilingEnabled.Store(true)
			e.profilerOpts = append(e.profilerOpts, profiler.WithInterval(cfg.Engine.ProfileInterval))
		}
	}
}

// WithLogger sets the root logger. Subsystems log through named children of it.
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry supplies a pre-built registry instead of letting the engine create one.
func WithRegistry(r registry.Registry) EngineBuilderOption {
	return func(e *engine) {
		e.registry = r
	}
}

// WithRenderer sets the upload bridge. Without one the engine runs headless and staged writes are dropped.
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithWorkers sets the worker count of the registry the engine creates.
func WithWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithProfilerInterval sets how often the profiler logs.
func WithProfilerInterval(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilerOpts = append(e.profilerOpts, profiler.WithInterval(d))
	}
}

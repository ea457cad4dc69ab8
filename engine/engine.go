package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-registry/engine/config"
	"github.com/Carmen-Shannon/oxy-registry/engine/loader"
	"github.com/Carmen-Shannon/oxy-registry/engine/profiler"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/component"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/slot_allocator"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/texture_unit"
	"go.uber.org/zap"
)

// ErrEngineRunning is returned by Run when the engine loop is already running.
var ErrEngineRunning = errors.New("engine is already running")

// engine implements the Engine interface.
// Owns the registry for its lifetime and drives one registry update per tick.
type engine struct {
	// stepMu serializes Step so the registry is only updated from one goroutine at a time.
	stepMu *sync.Mutex
	logger *zap.Logger
	cfg    *config.Config

	registry registry.Registry
	renderer renderer.Renderer
	workers  int

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	engineTickRate  time.Duration
	tickCallback    func(deltaTime float32)
	frameCallback   func(result registry.FrameResult)

	running     atomic.Bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilerOpts     []profiler.ProfilerBuilderOption
	profilingEnabled atomic.Bool

	frames atomic.Uint64
}

// Engine is the main entry point. It owns one Registry (component table, combination registry and
// GPU-mirrored object tables), forwards each frame's staged uploads to the Renderer and runs the
// fixed-rate update loop.
type Engine interface {
	// Registry returns the registry owned by this engine.
	//
	// Returns:
	//   - registry.Registry: the registry
	Registry() registry.Registry

	// Renderer returns the upload bridge, or nil when the engine runs headless.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// RegisterFeatures registers every name that is not registered yet as a flag-only component.
	//
	// Parameters:
	//   - names: the component names
	//
	// Returns:
	//   - error: the first registration error
	RegisterFeatures(names ...string) error

	// LoadManifest registers the components declared in a YAML manifest file.
	//
	// Parameters:
	//   - path: the manifest path
	//
	// Returns:
	//   - error: a read, parse or registration error
	LoadManifest(path string) error

	// ImportMaterials imports the materials of a glTF file into the given tables, registering the material and
	// texture unit features first. Either table may be nil to skip its records.
	//
	// Parameters:
	//   - path: the .gltf or .glb path
	//   - materials: the table receiving materials
	//   - textureUnits: the table receiving texture units
	//
	// Returns:
	//   - []loader.ImportedMaterial: the imported materials
	//   - error: a registration, read, parse or add error
	ImportMaterials(path string, materials, textureUnits registry.ObjectTable) ([]loader.ImportedMaterial, error)

	// NewTable creates a registry table. The table's configured capacity, merge gap and removal policy are
	// applied first, so explicit options override the configuration.
	//
	// Parameters:
	//   - name: the unique table name
	//   - layout: the GPU record layout
	//   - options: functional options to configure the table
	//
	// Returns:
	//   - registry.ObjectTable: the new table
	//   - error: an error if the registry rejects the table
	NewTable(name string, layout gpu_mirror.Layout, options ...registry.ObjectTableBuilderOption) (registry.ObjectTable, error)

	// BindTable binds a table's mirror to a provider binding and, when a renderer is present, creates the
	// device buffer behind it.
	//
	// Parameters:
	//   - table: the table to bind
	//   - provider: the bind group provider
	//   - binding: the binding index
	//
	// Returns:
	//   - error: a buffer creation error
	BindTable(table registry.ObjectTable, provider bind_group_provider.BindGroupProvider, binding int) error

	// Step runs one frame: a registry update followed by the queue writes and a profiler tick.
	//
	// Returns:
	//   - registry.FrameResult: the frame's plans and writes
	//   - error: a registry or renderer error
	Step() (registry.FrameResult, error)

	// Frames returns the number of frames stepped successfully.
	Frames() uint64

	// EnableProfiler enables periodic frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables periodic frame statistics.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called before each frame's registry update.
	// Use it to mutate records; the changes are uploaded by the same frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called after each successful frame.
	//
	// Parameters:
	//   - callback: function receiving the frame result
	SetFrameCallback(callback func(result registry.FrameResult))

	// Run starts the fixed-rate loop and blocks until Quit is called or a frame fails.
	//
	// Returns:
	//   - error: the frame error that stopped the loop, ErrEngineRunning, or nil after Quit
	Run() error

	// Quit signals the loop to stop. Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Release stops the registry's worker pool. The engine must not be used afterwards.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options. When no registry is supplied one is
// created with the configured worker count.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		stepMu:          &sync.Mutex{},
		logger:          zap.NewNop(),
		cfg:             &config.Config{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		workers:         4,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.registry == nil {
		e.registry = registry.NewRegistry(
			registry.WithWorkers(e.workers),
			registry.WithLogger(e.logger.Named("registry")),
		)
	}
	e.profiler = profiler.NewProfiler(append([]profiler.ProfilerBuilderOption{
		profiler.WithLogger(e.logger.Named("profiler")),
	}, e.profilerOpts...)...)
	return e
}

func (e *engine) Registry() registry.Registry {
	return e.registry
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) RegisterFeatures(names ...string) error {
	components := e.registry.Components()
	for _, name := range names {
		if _, ok := components.Lookup(name); ok {
			continue
		}
		if _, err := components.RegisterComponent(name, nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := component.LoadManifest(data)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", path, err)
	}
	ids, err := component.RegisterManifest(e.registry.Components(), m)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", path, err)
	}
	e.logger.Info("component manifest loaded", zap.String("path", path), zap.Int("components", len(ids)))
	return nil
}

func (e *engine) ImportMaterials(path string, materials, textureUnits registry.ObjectTable) ([]loader.ImportedMaterial, error) {
	if err := e.RegisterFeatures(material.Features...); err != nil {
		return nil, err
	}
	if err := e.RegisterFeatures(texture_unit.Features...); err != nil {
		return nil, err
	}
	l := loader.NewLoader(
		loader.WithLogger(e.logger.Named("loader")),
		loader.WithMaterialTable(materials),
		loader.WithTextureUnitTable(textureUnits),
	)
	return l.Load(path)
}

func (e *engine) NewTable(name string, layout gpu_mirror.Layout, options ...registry.ObjectTableBuilderOption) (registry.ObjectTable, error) {
	tc := e.cfg.Table(name)
	policy := slot_allocator.RemovalShiftDown
	if tc.Removal == config.RemovalSwapLast {
		policy = slot_allocator.RemovalSwapLast
	}
	opts := []registry.ObjectTableBuilderOption{
		registry.WithCapacity(tc.Capacity),
		registry.WithRemovalPolicy(policy),
		registry.WithMergeGap(tc.MergeGap),
		registry.WithTableLogger(e.logger.Named("table." + name)),
	}
	return e.registry.NewTable(name, layout, append(opts, options...)...)
}

func (e *engine) BindTable(table registry.ObjectTable, provider bind_group_provider.BindGroupProvider, binding int) error {
	table.Bind(provider, binding)
	if e.renderer == nil {
		return nil
	}
	return e.renderer.CreateMirrorBuffer(provider, binding, table.Mirror())
}

func (e *engine) Step() (registry.FrameResult, error) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	result, err := e.registry.Update()
	if err != nil {
		return result, err
	}
	if e.renderer != nil {
		if err := e.renderer.WriteBuffers(result.Writes); err != nil {
			return result, fmt.Errorf("write buffers: %w", err)
		}
	}
	e.frames.Add(1)
	if e.profilingEnabled.Load() {
		e.profiler.Tick(profiler.FrameStats{
			Copies: result.Copies(),
			Bytes:  result.Bytes(),
			Dirty:  result.Dirty(),
		})
	}
	if e.frameCallback != nil {
		e.frameCallback(result)
	}
	return result, nil
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

// Run ticks the engine at the configured rate until Quit is called or a frame fails.
func (e *engine) Run() error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	defer e.running.Store(false)

	var runErr error
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		runErr = e.handleEngine()
	}()
	e.wg.Wait()
	return runErr
}

// handleEngine runs the fixed-rate tick loop, firing the tick callback and stepping one frame per tick.
// Listens for dynamic rate changes via tickRateChannel and exits when the quit channel is closed.
func (e *engine) handleEngine() error {
	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return nil
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
			if _, err := e.Step(); err != nil {
				e.logger.Error("frame failed", zap.Uint64("frame", e.frames.Load()), zap.Error(err))
				e.signalQuit()
				return err
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// Quit signals the engine loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Release() {
	e.signalQuit()
	e.registry.Release()
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)
	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send; a pending update is replaced by the newer one.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(result registry.FrameResult)) {
	e.frameCallback = callback
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

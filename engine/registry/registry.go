package registry

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/combination"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/component"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/gpu_mirror"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry/upload"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"go.uber.org/zap"
)

// TablePlan is the result of synchronizing one table in a frame.
type TablePlan struct {
	Table string
	Plan  upload.UploadPlan
	// Dirty is the number of records serialized.
	Dirty int
}

// FrameResult is everything one Update produced, ready to be handed to the renderer in a single submission.
type FrameResult struct {
	// Plans holds one entry per table, ordered by table name.
	Plans  []TablePlan
	Writes []bind_group_provider.BufferWrite
}

// Copies returns the number of copy regions across all tables.
func (f FrameResult) Copies() int {
	n := 0
	for _, p := range f.Plans {
		n += len(p.Plan.Copies)
	}
	return n
}

// Bytes returns the number of bytes uploaded across all tables.
func (f FrameResult) Bytes() uint64 {
	var n uint64
	for _, p := range f.Plans {
		n += p.Plan.TotalBytes()
	}
	return n
}

// Dirty returns the number of records serialized across all tables.
func (f FrameResult) Dirty() int {
	n := 0
	for _, p := range f.Plans {
		n += p.Dirty
	}
	return n
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu     *sync.RWMutex
	logger *zap.Logger

	components   component.ComponentTable
	combinations combination.CombinationRegistry

	tables map[string]*objectTable

	workers int
	pool    worker.DynamicWorkerPool
}

// Registry is the context object that replaces process-wide component and combination singletons.
// One Registry belongs to one engine instance and is passed to everything that needs it.
type Registry interface {
	// Components returns the component table.
	Components() component.ComponentTable

	// Combinations returns the combination registry.
	Combinations() combination.CombinationRegistry

	// InternFeatures interns the union of the derived flags of the named components.
	//
	// Parameters:
	//   - names: the component names
	//
	// Returns:
	//   - common.CombinationID: the combination of the features
	//   - error: *common.StaleHandleError naming the first unknown component
	InternFeatures(names ...string) (common.CombinationID, error)

	// NewTable creates and registers an ObjectTable whose Featured records resolve through this registry.
	//
	// Parameters:
	//   - name: the unique table name
	//   - layout: the GPU record layout
	//   - options: functional options to configure the table
	//
	// Returns:
	//   - ObjectTable: the new table
	//   - error: *common.DuplicateNameError if name is taken, or a layout error
	NewTable(name string, layout gpu_mirror.Layout, options ...ObjectTableBuilderOption) (ObjectTable, error)

	// Table returns the table registered under name.
	//
	// Parameters:
	//   - name: the table name
	//
	// Returns:
	//   - ObjectTable: the table
	//   - bool: true if the table exists
	Table(name string) (ObjectTable, bool)

	// Tables returns every table ordered by name.
	Tables() []ObjectTable

	// Update synchronizes every table once, in parallel on the registry's worker pool, and returns the plans
	// and staged writes. It returns only after every table finished, so no GPU submission can start early.
	// Update must be called from a single frame-update goroutine.
	//
	// Returns:
	//   - FrameResult: the plans and staged writes of every table
	//   - error: the errors of the tables that failed, joined
	Update() (FrameResult, error)

	// Release stops the worker pool.
	Release()
}

var _ Registry = &registry{}

// NewRegistry creates a Registry with an empty component table and combination registry.
//
// Parameters:
//   - options: functional options to configure the registry
//
// Returns:
//   - Registry: the new registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		mu:      &sync.RWMutex{},
		logger:  zap.NewNop(),
		tables:  make(map[string]*objectTable),
		workers: 4,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.components == nil {
		r.components = component.NewComponentTable(component.WithLogger(r.logger.Named("components")))
	}
	if r.combinations == nil {
		r.combinations = combination.NewCombinationRegistry(combination.WithLogger(r.logger.Named("combinations")))
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	return r
}

func (r *registry) Components() component.ComponentTable {
	return r.components
}

func (r *registry) Combinations() combination.CombinationRegistry {
	return r.combinations
}

func (r *registry) InternFeatures(names ...string) (common.CombinationID, error) {
	set, err := r.components.FlagsFor(names...)
	if err != nil {
		return 0, err
	}
	return r.combinations.Intern(set), nil
}

func (r *registry) NewTable(name string, layout gpu_mirror.Layout, options ...ObjectTableBuilderOption) (ObjectTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.tables[name]; taken {
		return nil, &common.DuplicateNameError{Name: name}
	}

	opts := append([]ObjectTableBuilderOption{WithTableLogger(r.logger.Named(name))}, options...)
	t, err := newObjectTable(name, layout, r.InternFeatures, opts...)
	if err != nil {
		return nil, err
	}
	r.tables[name] = t

	r.logger.Info("table created",
		zap.String("table", name),
		zap.String("layout", layout.Name),
		zap.Uint32("stride", layout.Stride),
		zap.Int("capacity", t.Capacity()),
	)
	return t, nil
}

func (r *registry) Table(name string) (ObjectTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	if !ok {
		return nil, false
	}
	return t, true
}

func (r *registry) Tables() []ObjectTable {
	tables := r.sortedTables()
	out := make([]ObjectTable, len(tables))
	for i, t := range tables {
		out[i] = t
	}
	return out
}

// sortedTables returns the tables ordered by name.
func (r *registry) sortedTables() []*objectTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*objectTable, len(names))
	for i, name := range names {
		out[i] = r.tables[name]
	}
	return out
}

func (r *registry) Update() (FrameResult, error) {
	tables := r.sortedTables()
	plans := make([]TablePlan, len(tables))
	writes := make([][]bind_group_provider.BufferWrite, len(tables))
	errs := make([]error, len(tables))

	// One task per table; the WaitGroup is the frame barrier since pool.Wait() blocks until workers
	// idle-exit.
	var wg sync.WaitGroup
	for i, t := range tables {
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				plan, dirty, w, err := t.frame()
				if err != nil {
					errs[i] = err
					return nil, err
				}
				plans[i] = TablePlan{Table: t.Name(), Plan: plan, Dirty: dirty}
				writes[i] = w
				return nil, nil
			},
		})
	}
	wg.Wait()

	var result FrameResult
	var failed []error
	for i := range tables {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		result.Plans = append(result.Plans, plans[i])
		result.Writes = append(result.Writes, writes[i]...)
	}
	if len(failed) > 0 {
		r.logger.Error("registry update failed", zap.Errors("errors", failed))
		return result, errors.Join(failed...)
	}

	r.logger.Debug("registry updated",
		zap.Int("tables", len(tables)),
		zap.Int("dirty", result.Dirty()),
		zap.Int("copies", result.Copies()),
		zap.Uint64("bytes", result.Bytes()),
	)
	return result, nil
}

func (r *registry) Release() {
	r.pool.Stop()
}

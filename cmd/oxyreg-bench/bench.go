package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-registry/common"
	"github.com/Carmen-Shannon/oxy-registry/engine"
	"github.com/Carmen-Shannon/oxy-registry/engine/config"
	"github.com/Carmen-Shannon/oxy-registry/engine/light"
	"github.com/Carmen-Shannon/oxy-registry/engine/model"
	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/texture_unit"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// churnPerFrame is how many records each table streams out and back in per frame.
const churnPerFrame = 4

// Report summarizes a bench run.
type Report struct {
	Frames       int
	Elapsed      time.Duration
	Copies       int
	Bytes        uint64
	Dirty        int
	Combinations int
	Variants     int
	Added        int
	Removed      int
}

// FPS returns the average frame rate of the run.
func (r Report) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// discardBackend stands in for a device and queue so the bench measures the registry rather than a driver.
type discardBackend struct{}

func (discardBackend) CreateBuffer(*wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	return &wgpu.Buffer{}, nil
}

func (discardBackend) WriteBuffer(*wgpu.Buffer, uint64, []byte) error {
	return nil
}

// benchTable pairs a registry table with a constructor for its records.
type benchTable struct {
	table registry.ObjectTable
	make  func(rng *rand.Rand) registry.Record

	mu   sync.Mutex
	live []registry.Record
}

func runBench(cfg *config.Config, log *zap.Logger) (Report, error) {
	if err := shader.ValidateRegisteredLayouts(); err != nil {
		return Report{}, err
	}

	eng := engine.NewEngine(
		engine.WithConfig(cfg),
		engine.WithLogger(log),
		engine.WithRenderer(renderer.NewRenderer(discardBackend{}, renderer.WithLogger(log.Named("renderer")))),
	)
	defer eng.Release()

	if cfg.Engine.Manifest != "" {
		if err := eng.LoadManifest(cfg.Engine.Manifest); err != nil {
			return Report{}, err
		}
	}
	for _, features := range [][]string{material.Features, texture_unit.Features, model.Features, light.Features} {
		if err := eng.RegisterFeatures(features...); err != nil {
			return Report{}, err
		}
	}

	tables, err := buildTables(eng)
	if err != nil {
		return Report{}, err
	}

	var report Report
	if cfg.Bench.Materials != "" {
		imported, err := eng.ImportMaterials(cfg.Bench.Materials, tables[0].table, tables[1].table)
		if err != nil {
			return report, err
		}
		for _, m := range imported {
			tables[0].track(m.Material)
			report.Added++
			for _, u := range m.Units {
				tables[1].track(u)
				report.Added++
			}
		}
	}

	rng := rand.New(rand.NewSource(1))
	for _, bt := range tables {
		n := min(cfg.Bench.ObjectsPerTable, bt.table.Capacity())
		for i := bt.table.Len(); i < n; i++ {
			if err := bt.add(bt.make(rng)); err != nil {
				return report, err
			}
			report.Added++
		}
	}

	mutators := max(cfg.Bench.Mutators, 1)
	start := time.Now()
	for frame := 0; frame < cfg.Bench.Frames; frame++ {
		mutate(tables, mutators, frame)

		added, removed, err := churn(tables, rng)
		report.Added += added
		report.Removed += removed
		if err != nil {
			return report, err
		}

		result, err := eng.Step()
		if err != nil {
			return report, fmt.Errorf("frame %d: %w", frame, err)
		}
		report.Frames++
		report.Copies += result.Copies()
		report.Bytes += result.Bytes()
		report.Dirty += result.Dirty()
	}
	report.Elapsed = time.Since(start)
	report.Combinations = eng.Registry().Combinations().Len()

	variants, err := compileVariants(eng.Registry(), log)
	if err != nil {
		return report, err
	}
	report.Variants = variants
	return report, nil
}

// compileVariants builds the object shader for every combination interned during the run.
func compileVariants(reg registry.Registry, log *zap.Logger) (int, error) {
	opts := []shader.VariantCompilerBuilderOption{shader.WithLogger(log.Named("shader"))}
	for key, src := range objectFragments {
		opts = append(opts, shader.WithVariantFragment(key, src))
	}
	compiler := shader.NewVariantCompiler("objects", objectShader, reg.Components(), reg.Combinations(), opts...)
	for id := range reg.Combinations().Len() {
		if _, err := compiler.Variant(common.CombinationID(id)); err != nil {
			return 0, err
		}
	}
	return compiler.Len(), nil
}

func buildTables(eng engine.Engine) ([]*benchTable, error) {
	provider := bind_group_provider.NewBindGroupProvider("objects")
	specs := []struct {
		name   string
		table  func() (registry.ObjectTable, error)
		record func(rng *rand.Rand) registry.Record
	}{
		{"materials", func() (registry.ObjectTable, error) { return eng.NewTable("materials", material.Layout) }, newMaterial},
		{"texture_units", func() (registry.ObjectTable, error) { return eng.NewTable("texture_units", texture_unit.Layout) }, newTextureUnit},
		{"models", func() (registry.ObjectTable, error) {
			return eng.NewTable("models", model.Layout, registry.WithConsumerStages(wgpu.ShaderStageVertex))
		}, newModel},
		{"lights", func() (registry.ObjectTable, error) { return eng.NewTable("lights", light.Layout) }, newLight},
	}

	tables := make([]*benchTable, 0, len(specs))
	for binding, s := range specs {
		t, err := s.table()
		if err != nil {
			return nil, err
		}
		if err := eng.BindTable(t, provider, binding); err != nil {
			return nil, err
		}
		tables = append(tables, &benchTable{table: t, make: s.record})
	}
	return tables, nil
}

func (bt *benchTable) add(rec registry.Record) error {
	if _, err := bt.table.Add(rec); err != nil {
		return err
	}
	bt.track(rec)
	return nil
}

// track records a record that is already in the table.
func (bt *benchTable) track(rec registry.Record) {
	bt.mu.Lock()
	bt.live = append(bt.live, rec)
	bt.mu.Unlock()
}

func (bt *benchTable) snapshot() []registry.Record {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	return append([]registry.Record(nil), bt.live...)
}

// mutate splits every table's records across n goroutines, each mutating its share.
func mutate(tables []*benchTable, n, frame int) {
	var wg sync.WaitGroup
	for _, bt := range tables {
		live := bt.snapshot()
		for g := 0; g < n; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := g; i < len(live); i += n {
					touch(live[i], frame)
				}
			}(g)
		}
	}
	wg.Wait()
}

// touch mutates a subset of records each frame so dirty sets stay sparse.
func touch(rec registry.Record, frame int) {
	if (int(rec.SlotID())+frame)%8 != 0 {
		return
	}
	t := float32(frame) * 0.01
	switch r := rec.(type) {
	case material.Material:
		r.SetMetallicRoughness(t-float32(int(t)), 0.5)
	case texture_unit.TextureUnit:
		r.SetTransform([2]float32{t, 0}, t, [2]float32{1, 1})
	case model.Model:
		r.SetPosition([3]float32{t, 0, float32(r.SlotID())})
	case light.Light:
		r.SetIntensity(1 + t)
	}
}

// churn removes a few random records per table and streams fresh ones in.
func churn(tables []*benchTable, rng *rand.Rand) (added, removed int, err error) {
	for _, bt := range tables {
		bt.mu.Lock()
		for i := 0; i < churnPerFrame && len(bt.live) > 0; i++ {
			idx := rng.Intn(len(bt.live))
			rec := bt.live[idx]
			bt.live[idx] = bt.live[len(bt.live)-1]
			bt.live = bt.live[:len(bt.live)-1]
			if err := bt.table.Remove(rec); err != nil {
				bt.mu.Unlock()
				return added, removed, err
			}
			removed++
		}
		bt.mu.Unlock()

		for i := 0; i < churnPerFrame && bt.table.Len() < bt.table.Capacity(); i++ {
			if err := bt.add(bt.make(rng)); err != nil {
				return added, removed, err
			}
			added++
		}
	}
	return added, removed, nil
}

func newMaterial(rng *rand.Rand) registry.Record {
	opts := []material.MaterialBuilderOption{
		material.WithBaseColor([4]float32{rng.Float32(), rng.Float32(), rng.Float32(), 1}),
		material.WithTextures(material.TextureFlag(rng.Intn(32))),
	}
	if rng.Intn(4) == 0 {
		opts = append(opts, material.WithAlphaMode(material.AlphaModeMask, 0.5))
	}
	return material.NewMaterial(opts...)
}

func newTextureUnit(rng *rand.Rand) registry.Record {
	return texture_unit.NewTextureUnit(
		texture_unit.WithTextureIndex(uint32(rng.Intn(64))),
		texture_unit.WithTexCoord(uint32(rng.Intn(2))),
	)
}

func newModel(rng *rand.Rand) registry.Record {
	return model.NewModel(
		model.WithSkinned(rng.Intn(3) == 0),
		model.WithBoundingRadius(1+rng.Float32()),
		model.WithTransform([3]float32{rng.Float32() * 100, 0, rng.Float32() * 100}, [3]float32{}, [3]float32{1, 1, 1}),
	)
}

func newLight(rng *rand.Rand) registry.Record {
	lt := light.LightType(rng.Intn(3))
	opts := []light.LightBuilderOption{
		light.WithPosition(rng.Float32()*100, 10, rng.Float32()*100),
		light.WithColor(rng.Float32(), rng.Float32(), rng.Float32()),
	}
	if lt == light.LightTypeDirectional {
		opts = append(opts, light.WithCastsShadows())
	}
	return light.NewLight(lt, opts...)
}

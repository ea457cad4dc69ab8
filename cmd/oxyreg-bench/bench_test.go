package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunBench(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[engine]
workers = 2

[bench]
frames = 12
objects_per_table = 16
mutators = 3

[tables.lights]
capacity = 8
removal = "swap_last"
`))
	require.NoError(t, err)

	report, err := runBench(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 12, report.Frames)
	assert.Positive(t, report.Copies)
	assert.Positive(t, report.Bytes)
	assert.Positive(t, report.Dirty)
	assert.Positive(t, report.Combinations)
	assert.Equal(t, report.Combinations, report.Variants)

	// Three tables seeded with 16 records and the lights table capped at 8; churn keeps every table full.
	assert.Equal(t, 3*16+8, report.Added-report.Removed)
}

func TestRunBenchImportsMaterials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materials.gltf")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset": {"version": "2.0"}, "materials": [
		{"name": "a", "normalTexture": {"index": 0}},
		{"name": "b", "alphaMode": "BLEND"}], "textures": [{}]}`), 0o644))

	cfg, err := config.Parse([]byte("[bench]\nframes = 2\nobjects_per_table = 4\n"))
	require.NoError(t, err)
	cfg.Bench.Materials = path

	report, err := runBench(cfg, zap.NewNop())
	require.NoError(t, err)
	// The imported records count towards the seed, so every table still holds objects_per_table records.
	assert.Equal(t, 4*4, report.Added-report.Removed)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Bench.Frames)
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bench.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"error\"\n\n[bench]\nobjects_per_table = 2\nmutators = 1\n"), 0o644))

	assert.Equal(t, 0, run([]string{"-config", cfgPath, "-frames", "2"}))
	assert.Equal(t, 1, run([]string{"-config", filepath.Join(dir, "missing.toml")}))
	assert.Equal(t, 2, run([]string{"-config", cfgPath, "-profile", "gpu"}))
	assert.Equal(t, 2, run([]string{"-unknown"}))

	cfgMaterials := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(cfgMaterials, []byte("[logging]\nlevel = \"error\"\n\n[bench]\nframes = 1\nmaterials = \""+filepath.ToSlash(filepath.Join(dir, "none.gltf"))+"\"\n"), 0o644))
	assert.Equal(t, 1, run([]string{"-config", cfgMaterials}), "a failed bench still returns through the deferred flushes")
}

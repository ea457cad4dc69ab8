// Command oxyreg-bench streams records in and out of the four standard registry tables while mutating
// them from several goroutines, steps the engine for a number of frames and reports the upload volume.
//
// Profiling:
//
//	go build ./cmd/oxyreg-bench
//	./oxyreg-bench -profile cpu
//	go tool pprof -http=":8000" ./oxyreg-bench cpu.pprof
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-registry/engine/config"
	"github.com/Carmen-Shannon/oxy-registry/engine/logger"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the bench and returns the process exit code. Deferred profile and logger flushes run before
// the caller exits.
func run(args []string) int {
	flags := flag.NewFlagSet("oxyreg-bench", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a TOML config file (defaults are used when empty)")
	frames := flags.Int("frames", 0, "number of frames to step (overrides bench.frames)")
	profileMode := flags.String("profile", "", "write a profile: cpu or mem")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *frames > 0 {
		cfg.Bench.Frames = *frames
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		log.Error("unknown profile mode", zap.String("profile", *profileMode))
		return 2
	}

	report, err := runBench(cfg, log)
	if err != nil {
		log.Error("bench failed", zap.Error(err))
		return 1
	}
	log.Info("bench finished",
		zap.Int("frames", report.Frames),
		zap.Duration("elapsed", report.Elapsed),
		zap.Float64("fps", report.FPS()),
		zap.Int("copies", report.Copies),
		zap.Uint64("upload_bytes", report.Bytes),
		zap.Int("dirty", report.Dirty),
		zap.Int("combinations", report.Combinations),
		zap.Int("variants", report.Variants),
		zap.Int("added", report.Added),
		zap.Int("removed", report.Removed),
	)
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

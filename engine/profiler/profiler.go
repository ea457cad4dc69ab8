package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// FrameStats is the upload work done by one frame.
type FrameStats struct {
	Copies int
	Bytes  uint64
	Dirty  int
}

// Totals accumulates FrameStats over the profiler's lifetime.
type Totals struct {
	Frames int
	Copies int
	Bytes  uint64
	Dirty  int
}

// Profiler tracks frame rate, upload volume and memory statistics.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	logger         *zap.Logger
	now            func() time.Time
	updateInterval time.Duration

	frameCount int
	window     FrameStats
	totals     Totals
	lastTime   time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         zap.NewNop(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the frame's upload statistics.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - stats: the upload work of the frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats FrameStats) bool {
	p.frameCount++
	p.window.Copies += stats.Copies
	p.window.Bytes += stats.Bytes
	p.window.Dirty += stats.Dirty
	p.totals.Frames++
	p.totals.Copies += stats.Copies
	p.totals.Bytes += stats.Bytes
	p.totals.Dirty += stats.Dirty

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", fps),
		zap.Int("copies", p.window.Copies),
		zap.Uint64("upload_bytes", p.window.Bytes),
		zap.Int("dirty", p.window.Dirty),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Uint64("gc_max_pause_us", maxPauseUs),
	)

	p.frameCount = 0
	p.window = FrameStats{}
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Totals returns the statistics accumulated since the profiler was created.
func (p *Profiler) Totals() Totals {
	return p.totals
}

package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickLogsAtInterval(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	clock := time.Unix(0, 0)
	p := NewProfiler(
		WithLogger(zap.New(core)),
		WithInterval(time.Second),
		WithClock(func() time.Time { return clock }),
	)

	clock = clock.Add(400 * time.Millisecond)
	assert.False(t, p.Tick(FrameStats{Copies: 2, Bytes: 128, Dirty: 3}))
	clock = clock.Add(700 * time.Millisecond)
	assert.True(t, p.Tick(FrameStats{Copies: 1, Bytes: 64, Dirty: 1}))

	entries := logs.FilterMessage("frame stats").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(3), fields["copies"])
		assert.Equal(t, uint64(192), fields["upload_bytes"])
		assert.Equal(t, int64(4), fields["dirty"])
	}

	clock = clock.Add(10 * time.Millisecond)
	assert.False(t, p.Tick(FrameStats{}))
	assert.Equal(t, Totals{Frames: 3, Copies: 3, Bytes: 192, Dirty: 4}, p.Totals())
}

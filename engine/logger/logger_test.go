package logger

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestBuildConfig(t *testing.T) {
	c := buildConfig(config.LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, zapcore.DebugLevel, c.Level.Level())
	assert.Equal(t, "json", c.Encoding)

	c = buildConfig(config.LoggingConfig{Level: "loud", Format: "console"})
	assert.Equal(t, zapcore.InfoLevel, c.Level.Level())
	assert.Equal(t, "console", c.Encoding)
	assert.True(t, c.DisableCaller)
}

func TestNew(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

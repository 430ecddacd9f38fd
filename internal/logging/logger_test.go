package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestWebLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"log":   zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"trace": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, WebLevel(in), in)
	}
}

func TestRingKeepsMostRecent(t *testing.T) {
	ring := NewRing(3)
	logger := zap.New(ring.Core(zapcore.DebugLevel))

	for i := 0; i < 5; i++ {
		logger.Info(fmt.Sprintf("msg %d", i))
	}

	entries := ring.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "msg 2", entries[0].Message)
	assert.Equal(t, "msg 4", entries[2].Message)
}

func TestRingRecordsFieldsAndLevel(t *testing.T) {
	ring := NewRing(0)
	logger := zap.New(ring.Core(zapcore.InfoLevel)).Named("web").With(zap.String("source", "renderer"))

	logger.Debug("dropped")
	logger.Warn("kept", zap.Int("count", 2))

	entries := ring.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "web", entries[0].Logger)
	assert.Equal(t, "renderer", entries[0].Fields["source"])
	assert.EqualValues(t, 2, entries[0].Fields["count"])
}

func TestNewWithRing(t *testing.T) {
	ring := NewRing(10)
	cfg := DefaultConfig()
	cfg.OutputPaths = []string{"stdout"}

	logger, err := New(cfg, ring)
	require.NoError(t, err)
	logger.Info("hello")

	require.Len(t, ring.Entries(), 1)
	assert.Equal(t, "hello", ring.Entries()[0].Message)
}

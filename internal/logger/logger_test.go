package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestWithLevel verifies the option overrides the level of the wrapped core.
func TestWithLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	quiet := zap.New(core, WithLevel(zapcore.WarnLevel)).Sugar()
	quiet.Info("cycle finished")
	quiet.Warn("intrusion detected")

	require.Equal(t, 1, logs.Len())
	require.Equal(t, "intrusion detected", logs.All()[0].Message)

	verbose := quiet.With("zone", 1)
	verbose.Error("storage failed")

	require.Equal(t, 2, logs.Len())
	require.Equal(t, int64(1), logs.All()[1].ContextMap()["zone"])
}

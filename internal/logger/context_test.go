package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal verifies the global logger is used for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithKV_AttachesFields ensures scoped fields and names reach the log entry.
func TestWithKV_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "security")
	ctx = WithKV(ctx, "zone_id", 3)
	ctx = WithFields(ctx, map[string]any{"mode": "Away"})

	InfoKV(ctx, "Zone armed", "sensors", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "security", entries[0].LoggerName)
	require.Equal(t, "Zone armed", entries[0].Message)

	fields := entries[0].ContextMap()
	require.EqualValues(t, 3, fields["zone_id"])
	require.Equal(t, "Away", fields["mode"])
	require.EqualValues(t, 2, fields["sensors"])
}

package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/safehome/internal/geometry"
)

// TestArena_InsertRemove covers handle allocation, duplicates and stale handles.
func TestArena_InsertRemove(t *testing.T) {
	t.Parallel()

	arena := NewArena()

	first, err := arena.Insert(NewEntrySensor(1, 0, 0))
	require.NoError(t, err)

	second, err := arena.Insert(NewMotionDetector(1, geometry.Coord{}, geometry.Coord{X: 5}))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = arena.Insert(NewEntrySensor(1, 9, 9))
	require.ErrorIs(t, err, ErrSensorAlreadyExists)

	h, ok := arena.Lookup(SensorRef{Kind: KindMotion, ID: 1})
	require.True(t, ok)
	require.Equal(t, second, h)

	_, err = arena.Remove(first)
	require.NoError(t, err)

	_, ok = arena.Get(first)
	require.False(t, ok)

	_, err = arena.Remove(first)
	require.ErrorIs(t, err, ErrSensorNotFound)

	third, err := arena.Insert(NewEntrySensor(1, 0, 0))
	require.NoError(t, err)
	require.NotEqual(t, first, third)

	require.Equal(t, []Handle{second, third}, arena.Handles())
	require.Equal(t, []Handle{third}, arena.ByKind(KindEntry))
	require.Equal(t, 2, arena.Len())
}

// TestArena_NextID verifies per-kind id sequences follow inserted sensors.
func TestArena_NextID(t *testing.T) {
	t.Parallel()

	arena := NewArena()

	require.Equal(t, 1, arena.NextID(KindEntry))

	_, err := arena.Insert(NewEntrySensor(7, 0, 0))
	require.NoError(t, err)

	require.Equal(t, 8, arena.NextID(KindEntry))
	require.Equal(t, 1, arena.NextID(KindMotion))
}

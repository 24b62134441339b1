package security

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
)

// openRepositories returns a seeded memory repository and a fresh SQLite repository.
func openRepositories(t *testing.T) map[string]Repository {
	t.Helper()

	sqlite, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "db", "safehome.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = sqlite.Close()
	})

	return map[string]Repository{
		"memory": NewSeededMemoryRepository(),
		"sqlite": sqlite,
	}
}

// TestRepository_Seed verifies both implementations start from the default floor plan.
func TestRepository_Seed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, repo := range openRepositories(t) {
		sensors, err := repo.Sensors(ctx)
		require.NoError(t, err, name)
		require.Len(t, sensors, 10, name)

		seed := domain.DefaultSensors()
		for i, rec := range sensors {
			require.Equal(t, domain.RefOf(seed[i]), domain.RefOf(rec.Sensor), name)
			require.Equal(t, seed[i].Area(), rec.Sensor.Area(), name)
			require.True(t, rec.On, name)
			require.Nil(t, rec.Arm, name)
		}

		modes, err := repo.SecurityModes(ctx)
		require.NoError(t, err, name)
		require.Equal(t, domain.DefaultModes(seed), modes, name)

		active, err := repo.ActiveSecurityMode(ctx)
		require.NoError(t, err, name)
		require.Nil(t, active, name)

		zones, err := repo.SecurityZones(ctx)
		require.NoError(t, err, name)
		require.Empty(t, zones, name)
	}
}

// TestRepository_Sensors covers add, power, override and removal of sensors.
func TestRepository_Sensors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	extra := domain.NewMotionDetector(3, geometry.Coord{X: 1, Y: 2}, geometry.Coord{X: 3, Y: 4})
	ref := domain.RefOf(extra)

	for name, repo := range openRepositories(t) {
		require.NoError(t, repo.AddSensor(ctx, SensorRecord{Sensor: extra, On: false, Arm: BoolPtr(true)}), name)
		require.Error(t, repo.AddSensor(ctx, SensorRecord{Sensor: extra}), name)

		require.NoError(t, repo.TurnOnOffSensor(ctx, ref, true), name)
		require.NoError(t, repo.UpdateSensor(ctx, ref, true, BoolPtr(false)), name)

		sensors, err := repo.Sensors(ctx)
		require.NoError(t, err, name)
		require.Len(t, sensors, 11, name)

		last := sensors[10]
		require.Equal(t, ref, domain.RefOf(last.Sensor), name)
		require.Equal(t, extra.Area(), last.Sensor.Area(), name)
		require.True(t, last.On, name)
		require.NotNil(t, last.Arm, name)
		require.False(t, *last.Arm, name)

		// Removing a seed sensor also drops it from the modes referencing it.
		first := domain.RefOf(sensors[0].Sensor)
		require.NoError(t, repo.RemoveSensor(ctx, first), name)
		require.ErrorIs(t, repo.RemoveSensor(ctx, first), ErrNotFound, name)
		require.ErrorIs(t, repo.TurnOnOffSensor(ctx, first, true), ErrNotFound, name)
		require.ErrorIs(t, repo.UpdateSensor(ctx, first, true, nil), ErrNotFound, name)

		modes, err := repo.SecurityModes(ctx)
		require.NoError(t, err, name)
		require.NotContains(t, modes[1].Sensors, first, name)
		require.Len(t, modes[1].Sensors, 2, name)
	}
}

// TestRepository_Zones covers zone persistence keyed by the manager-assigned id.
func TestRepository_Zones(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, repo := range openRepositories(t) {
		zone := domain.ZoneRecord{ID: 2, Area: geometry.NewRect(90, 70, 10, 30), Enabled: true}

		require.NoError(t, repo.AddSecurityZone(ctx, zone), name)

		zone.Enabled = false
		zone.Area = geometry.NewRect(10, 0, 0, 10)
		require.NoError(t, repo.UpdateSecurityZone(ctx, 2, zone), name)
		require.ErrorIs(t, repo.UpdateSecurityZone(ctx, 9, zone), ErrNotFound, name)

		zones, err := repo.SecurityZones(ctx)
		require.NoError(t, err, name)
		require.Equal(t, []domain.ZoneRecord{zone}, zones, name)

		require.NoError(t, repo.RemoveSecurityZone(ctx, 2), name)
		require.ErrorIs(t, repo.RemoveSecurityZone(ctx, 2), ErrNotFound, name)
	}
}

// TestRepository_Modes covers mode CRUD and the active index.
func TestRepository_Modes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	refs := []domain.SensorRef{{Kind: domain.KindEntry, ID: 8}, {Kind: domain.KindMotion, ID: 2}}

	for name, repo := range openRepositories(t) {
		require.NoError(t, repo.AddSecurityMode(ctx, domain.ModeRecord{Name: "Vacation"}), name)
		require.Error(t, repo.AddSecurityMode(ctx, domain.ModeRecord{Name: "Vacation"}), name)

		require.NoError(t, repo.UpdateSecurityMode(ctx, "Vacation", domain.ModeRecord{Name: "Vacation", Sensors: refs}), name)
		require.ErrorIs(t, repo.UpdateSecurityMode(ctx, "Missing", domain.ModeRecord{Name: "Missing"}), ErrNotFound, name)

		modes, err := repo.SecurityModes(ctx)
		require.NoError(t, err, name)
		require.Len(t, modes, 5, name)
		require.Equal(t, domain.ModeRecord{Name: "Vacation", Sensors: refs}, modes[4], name)

		require.NoError(t, repo.SetActiveSecurityMode(ctx, IntPtr(4)), name)

		active, err := repo.ActiveSecurityMode(ctx)
		require.NoError(t, err, name)
		require.Equal(t, 4, *active, name)

		require.NoError(t, repo.SetActiveSecurityMode(ctx, nil), name)

		active, err = repo.ActiveSecurityMode(ctx)
		require.NoError(t, err, name)
		require.Nil(t, active, name)

		require.NoError(t, repo.RemoveSecurityMode(ctx, "Home"), name)
		require.ErrorIs(t, repo.RemoveSecurityMode(ctx, "Home"), ErrNotFound, name)

		modes, err = repo.SecurityModes(ctx)
		require.NoError(t, err, name)
		require.Equal(t, "Away", modes[0].Name, name)
	}
}

// TestRepository_Logs verifies ids are assigned on save and entries round trip.
func TestRepository_Logs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stamp := time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("KST", 9*60*60))

	for name, repo := range openRepositories(t) {
		first := &domain.LogEntry{Timestamp: stamp, Description: "[1]"}
		second := &domain.LogEntry{Timestamp: stamp.Add(time.Second), Description: "[1, 2]"}

		require.NoError(t, repo.SaveLog(ctx, first), name)
		require.NoError(t, repo.SaveLog(ctx, second), name)
		require.Positive(t, first.ID, name)
		require.Greater(t, second.ID, first.ID, name)

		entries, err := repo.Logs(ctx)
		require.NoError(t, err, name)
		require.Len(t, entries, 2, name)
		require.Equal(t, "[1, 2]", entries[1].Description, name)
		require.True(t, stamp.Equal(entries[0].Timestamp), name)
	}
}

// TestSQLiteRepository_Reopen verifies state survives closing the database.
func TestSQLiteRepository_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "safehome.db")

	repo, err := NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	require.Equal(t, path, repo.Path())

	require.NoError(t, repo.SetActiveSecurityMode(ctx, IntPtr(1)))
	require.NoError(t, repo.AddSecurityZone(ctx, domain.ZoneRecord{ID: 1, Area: domain.DefaultZoneArea(), Enabled: true}))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(ctx, path)
	require.NoError(t, err)

	defer func() {
		_ = repo.Close()
	}()

	sensors, err := repo.Sensors(ctx)
	require.NoError(t, err)
	require.Len(t, sensors, 10)

	active, err := repo.ActiveSecurityMode(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, *active)

	zones, err := repo.SecurityZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
}

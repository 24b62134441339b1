package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	settings := new(Config)

	err := Validate(settings)
	require.Error(t, err)

	// Bad socket.
	settings = &Config{
		ServerAddress: "bad:address",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Unknown storage.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		Storage:       "postgres",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errUnknownStorage)

	// Unknown log level.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		LogLevel:      "loud",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errUnknownLogLevel)

	// Unknown poll log level.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		PollLogLevel:  "chatty",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errUnknownLogLevel)

	// Defaults are filled in.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		Storage:       StorageSQLite,
	}

	err = Validate(settings)
	require.NoError(t, err)
	require.Equal(t, DefaultDatabaseFilename, settings.DatabaseFile)
	require.Equal(t, DefaultPollInterval, settings.PollInterval)
	require.Equal(t, DefaultTimeout, settings.Timeout)

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := Default()
	settings.Storage = StorageSQLite
	settings.DatabaseFile = filepath.Join(dir, "safehome.db")
	settings.PollInterval = 500 * time.Millisecond
	settings.ResetDetected = true
	settings.MQTTBroker = "tcp://127.0.0.1:1883"
	settings.MQTTTopic = "home/alarm"

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_Durations reads human-readable durations.
func TestLoad_Durations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	contents := "server_addr: 127.0.0.1:50051\npoll_interval: 1s\ntimeout: 250ms\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, time.Second, loaded.PollInterval)
	require.Equal(t, 250*time.Millisecond, loaded.Timeout)
	require.Equal(t, StorageMemory, loaded.Storage)
}

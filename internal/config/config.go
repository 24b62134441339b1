package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/safehome/internal/logger"
)

// Config holds the settings shared by the SafeHome binaries.
type Config struct {
	// ServerAddress is the gRPC control panel address.
	ServerAddress string `yaml:"server_addr"`
	// HTTPAddress serves health, status and metrics; empty disables it.
	HTTPAddress string `yaml:"http_addr,omitempty"`
	// Storage selects the repository backend: memory or sqlite.
	Storage string `yaml:"storage"`
	// DatabaseFile is the SQLite database path used with the sqlite backend.
	DatabaseFile string `yaml:"database_file,omitempty"`
	// PollInterval is the period between two arming resolution cycles.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ResetDetected releases tripped sensors after every cycle that saw them.
	ResetDetected bool `yaml:"reset_detected"`
	// LogLevel is the zap level name, e.g. info or debug.
	LogLevel string `yaml:"log_level,omitempty"`
	// PollLogLevel is the level of the polling loop logger; LogLevel when empty.
	PollLogLevel string `yaml:"poll_log_level,omitempty"`
	// MQTTBroker is the broker alarm events are published to; empty disables it.
	MQTTBroker string `yaml:"mqtt_broker,omitempty"`
	// MQTTTopic is the topic alarm events are published to.
	MQTTTopic string `yaml:"mqtt_topic,omitempty"`
	// Timeout is the duration for RPC calls made by the panel.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "safehome-settings.yaml"

	// DefaultDatabaseFilename is the default SQLite database path.
	DefaultDatabaseFilename = "safehome.db"

	// DefaultPollInterval matches the control panel refresh rate.
	DefaultPollInterval = 200 * time.Millisecond

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

const (
	// StorageMemory keeps the configuration in process memory.
	StorageMemory = "memory"
	// StorageSQLite keeps the configuration in an SQLite database.
	StorageSQLite = "sqlite"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownStorage is returned for an unsupported storage backend.
	errUnknownStorage = errors.New("unknown storage backend")
	// errUnknownLogLevel is returned for a log level zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns a configuration listening on localhost with in-memory storage.
func Default() *Config {
	return &Config{
		ServerAddress: "127.0.0.1:50051",
		HTTPAddress:   "127.0.0.1:8080",
		Storage:       StorageMemory,
		PollInterval:  DefaultPollInterval,
		LogLevel:      "info",
		Timeout:       DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http socket: %w", err)
		}
	}

	switch settings.Storage {
	case "":
		settings.Storage = StorageMemory
	case StorageMemory:
	case StorageSQLite:
		if settings.DatabaseFile == "" {
			settings.DatabaseFile = DefaultDatabaseFilename
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStorage, settings.Storage)
	}

	for _, level := range []string{settings.LogLevel, settings.PollLogLevel} {
		if level == "" {
			continue
		}

		if _, ok := logger.ParseLogLevel(level); !ok {
			return fmt.Errorf("%w: %q", errUnknownLogLevel, level)
		}
	}

	if settings.MQTTBroker != "" {
		if _, err := url.Parse(settings.MQTTBroker); err != nil {
			return fmt.Errorf("invalid mqtt broker: %w", err)
		}
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	return nil
}

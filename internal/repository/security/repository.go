package security

import (
	"context"
	"errors"

	domain "github.com/oshokin/safehome/internal/domain/security"
)

// SensorRecord is a stored sensor with its power flag and manual arm override.
type SensorRecord struct {
	// Sensor is the device itself.
	Sensor domain.Sensor
	// On reports whether the sensor is powered and read every cycle.
	On bool
	// Arm is the manual override: nil means no opinion.
	Arm *bool
}

// SensorRepository persists sensors and their policy inputs.
type SensorRepository interface {
	Sensors(ctx context.Context) ([]SensorRecord, error)
	AddSensor(ctx context.Context, record SensorRecord) error
	TurnOnOffSensor(ctx context.Context, ref domain.SensorRef, on bool) error
	RemoveSensor(ctx context.Context, ref domain.SensorRef) error
	UpdateSensor(ctx context.Context, ref domain.SensorRef, on bool, arm *bool) error
}

// ZoneRepository persists security zones.
type ZoneRepository interface {
	SecurityZones(ctx context.Context) ([]domain.ZoneRecord, error)
	AddSecurityZone(ctx context.Context, zone domain.ZoneRecord) error
	UpdateSecurityZone(ctx context.Context, id int, zone domain.ZoneRecord) error
	RemoveSecurityZone(ctx context.Context, id int) error
}

// ModeRepository persists security modes and the active mode index.
type ModeRepository interface {
	SecurityModes(ctx context.Context) ([]domain.ModeRecord, error)
	ActiveSecurityMode(ctx context.Context) (*int, error)
	SetActiveSecurityMode(ctx context.Context, index *int) error
	AddSecurityMode(ctx context.Context, mode domain.ModeRecord) error
	RemoveSecurityMode(ctx context.Context, name string) error
	UpdateSecurityMode(ctx context.Context, name string, mode domain.ModeRecord) error
}

// LogRepository persists intrusion log entries.
type LogRepository interface {
	// SaveLog stores entry and assigns its ID.
	SaveLog(ctx context.Context, entry *domain.LogEntry) error
	Logs(ctx context.Context) ([]domain.LogEntry, error)
}

// Repository bundles every store the security core needs.
type Repository interface {
	SensorRepository
	ZoneRepository
	ModeRepository
	LogRepository

	Close() error
}

// ErrNotFound is returned when a stored record does not exist.
var ErrNotFound = errors.New("record not found")

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

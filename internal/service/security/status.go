package security

import (
	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
)

// SensorStatus is a point-in-time view of one sensor.
type SensorStatus struct {
	Handle   domain.Handle
	Ref      domain.SensorRef
	Area     geometry.Area
	On       bool
	Arm      *bool
	Armed    bool
	Tripped  bool
	Bypassed bool
}

// ZoneStatus is a point-in-time view of one security zone.
type ZoneStatus struct {
	ID      int
	Area    geometry.Rect
	Enabled bool
	Sensors []domain.Handle
}

// ModeStatus is a point-in-time view of one security mode.
type ModeStatus struct {
	Name    string
	Sensors []domain.Handle
	Active  bool
}

// Status is a snapshot of the whole security core.
type Status struct {
	// ActiveMode is the active mode name, empty when none.
	ActiveMode string
	// AlarmPending reports a triggered alarm that has not been read yet.
	AlarmPending bool
	Sensors      []SensorStatus
	Zones        []ZoneStatus
	Modes        []ModeStatus
}

// CycleReport summarizes one Update call for observers.
type CycleReport struct {
	// Armed is the number of sensors armed after resolution.
	Armed int
	// Tripped is the number of armed, powered sensors that tripped.
	Tripped int
	// Bypassed is the number of tripped sensors ignored because of bypass.
	Bypassed int
	// Alarmed reports whether the siren was triggered this cycle.
	Alarmed bool
}

// Observer receives a report after every Update.
type Observer interface {
	ObserveCycle(report CycleReport)
}

func zoneStatus(z *domain.Zone) ZoneStatus {
	return ZoneStatus{
		ID:      z.ID(),
		Area:    z.Area(),
		Enabled: z.Enabled(),
		Sensors: z.Sensors(),
	}
}

package security

import (
	"fmt"

	"github.com/oshokin/safehome/internal/geometry"
)

// SensorKind distinguishes the sensor variants.
type SensorKind uint8

const (
	// KindEntry is a window or door contact placed at a point.
	KindEntry SensorKind = iota + 1
	// KindMotion is a motion detector sweeping a segment.
	KindMotion
)

// String returns the storage name of the kind.
func (k SensorKind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindMotion:
		return "motion"
	default:
		return "unknown"
	}
}

// ParseSensorKind converts a storage name back to a SensorKind.
func ParseSensorKind(s string) (SensorKind, error) {
	switch s {
	case "entry":
		return KindEntry, nil
	case "motion":
		return KindMotion, nil
	default:
		return 0, fmt.Errorf("unknown sensor kind %q", s)
	}
}

// Sensor is a device that can be armed and tripped.
type Sensor interface {
	// ID is the per-kind identifier assigned at construction.
	ID() int
	// Kind returns the sensor variant.
	Kind() SensorKind
	// Area is the footprint on the floor plan; the zero Area means unplaced.
	Area() geometry.Area
	// Read returns the tripped flag while armed and false otherwise.
	Read() bool
	// Tripped returns the raw tripped flag regardless of arming.
	Tripped() bool
	Arm()
	Disarm()
	// Armed reports the current arming flag.
	Armed() bool
	// Intrude trips the sensor.
	Intrude()
	// Release clears the tripped flag.
	Release() error
}

// SensorRef identifies a sensor across process restarts.
type SensorRef struct {
	Kind SensorKind
	ID   int
}

// RefOf returns the storage reference of s.
func RefOf(s Sensor) SensorRef {
	return SensorRef{Kind: s.Kind(), ID: s.ID()}
}

// String formats the reference as kind#id.
func (r SensorRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// switchState is the arming and tripped state shared by both variants.
type switchState struct {
	id      int
	armed   bool
	tripped bool
}

func (s *switchState) ID() int { return s.id }

func (s *switchState) Read() bool {
	if !s.armed {
		return false
	}

	return s.tripped
}

func (s *switchState) Tripped() bool { return s.tripped }

func (s *switchState) Arm() { s.armed = true }

func (s *switchState) Disarm() { s.armed = false }

func (s *switchState) Armed() bool { return s.armed }

func (s *switchState) Intrude() { s.tripped = true }

func (s *switchState) Release() error {
	s.tripped = false

	return nil
}

// EntrySensor is a window/door contact. Tripped means opened.
type EntrySensor struct {
	switchState

	position geometry.Area
}

// NewEntrySensor returns a disarmed, closed entry sensor at (x, y).
func NewEntrySensor(id int, x, y float64) *EntrySensor {
	return &EntrySensor{
		switchState: switchState{id: id},
		position:    geometry.NewPoint(x, y),
	}
}

// Kind returns KindEntry.
func (*EntrySensor) Kind() SensorKind { return KindEntry }

// Area returns the point the sensor is mounted at.
func (e *EntrySensor) Area() geometry.Area { return e.position }

// MotionDetector covers a segment of the floor plan. Tripped means detected.
type MotionDetector struct {
	switchState

	sweep geometry.Area
}

// NewMotionDetector returns a disarmed motion detector sweeping start-end.
func NewMotionDetector(id int, start, end geometry.Coord) *MotionDetector {
	return &MotionDetector{
		switchState: switchState{id: id},
		sweep:       geometry.NewLine(start, end),
	}
}

// Kind returns KindMotion.
func (*MotionDetector) Kind() SensorKind { return KindMotion }

// Area returns the swept segment.
func (m *MotionDetector) Area() geometry.Area { return m.sweep }

// BuildSensor reconstructs a sensor of the referenced kind at area.
// Entry sensors need a point area and motion detectors a line area.
func BuildSensor(ref SensorRef, area geometry.Area) (Sensor, error) {
	switch ref.Kind {
	case KindEntry:
		if p, ok := area.Point(); ok {
			return NewEntrySensor(ref.ID, p.X, p.Y), nil
		}
	case KindMotion:
		if start, end, ok := area.Line(); ok {
			return NewMotionDetector(ref.ID, start, end), nil
		}
	default:
		return nil, fmt.Errorf("build sensor %s: unknown kind", ref)
	}

	return nil, fmt.Errorf("build sensor %s: unexpected area %s", ref, area)
}

package security

import (
	domain "github.com/oshokin/safehome/internal/domain/security"
)

// Reading is the per-cycle result of reading one sensor.
type Reading int8

const (
	// ReadingUnpowered means the sensor is turned off and was not read.
	ReadingUnpowered Reading = iota
	// ReadingClear means the sensor was read and reported nothing.
	ReadingClear
	// ReadingTripped means the sensor was read and reported an intrusion.
	ReadingTripped
)

// String returns the reading name used in status output.
func (r Reading) String() string {
	switch r {
	case ReadingClear:
		return "clear"
	case ReadingTripped:
		return "tripped"
	default:
		return "off"
	}
}

// Readings maps every known sensor to its reading for one cycle.
type Readings map[domain.Handle]Reading

// SensorPolicy holds the stored policy inputs of one sensor.
type SensorPolicy struct {
	// On reports whether the sensor is powered.
	On bool
	// Arm is the manual override; nil leaves mode and zone arming untouched.
	Arm *bool
}

// Controller reads powered sensors and classifies armed intrusions.
type Controller struct {
	// arena resolves handles to sensors.
	arena *domain.Arena
	// policies is shared with the manager and supplies the power flag.
	policies map[domain.Handle]*SensorPolicy
}

// NewController returns a controller over the given sensors and their policies.
func NewController(arena *domain.Arena, policies map[domain.Handle]*SensorPolicy) *Controller {
	return &Controller{
		arena:    arena,
		policies: policies,
	}
}

// Read returns a reading for every sensor and the handles, in arena order,
// of the powered sensors that are both armed and tripped.
func (c *Controller) Read() (Readings, []domain.Handle) {
	var (
		handles  = c.arena.Handles()
		readings = make(Readings, len(handles))
		tripped  []domain.Handle
	)

	for _, h := range handles {
		readings[h] = ReadingUnpowered

		policy, ok := c.policies[h]
		if !ok || !policy.On {
			continue
		}

		sensor, _ := c.arena.Get(h)

		if !sensor.Read() {
			readings[h] = ReadingClear

			continue
		}

		readings[h] = ReadingTripped

		if sensor.Armed() {
			tripped = append(tripped, h)
		}
	}

	return readings, tripped
}

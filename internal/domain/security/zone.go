package security

import "github.com/oshokin/safehome/internal/geometry"

// Zone is a rectangle on the floor plan that arms every sensor it overlaps while enabled.
type Zone struct {
	id      int
	area    geometry.Rect
	enabled bool
	// sensors caches the overlapping sensors; rebuilt by Update.
	sensors []Handle
}

// ZoneRecord is the storable form of a zone.
type ZoneRecord struct {
	ID      int
	Area    geometry.Rect
	Enabled bool
}

// NewZone creates an enabled zone and computes its membership over arena.
func NewZone(id int, area geometry.Rect, arena *Arena) *Zone {
	z := &Zone{
		id:      id,
		enabled: true,
	}

	z.Update(area, arena)

	return z
}

// ID returns the zone id.
func (z *Zone) ID() int { return z.id }

// Area returns the zone rectangle.
func (z *Zone) Area() geometry.Rect { return z.area }

// Enabled reports whether the zone arms its sensors.
func (z *Zone) Enabled() bool { return z.enabled }

// Enable makes the zone arm its sensors on the next update.
func (z *Zone) Enable() { z.enabled = true }

// Disable stops the zone from arming its sensors.
func (z *Zone) Disable() { z.enabled = false }

// SetEnabled sets the enabled flag.
func (z *Zone) SetEnabled(enabled bool) { z.enabled = enabled }

// Sensors returns a copy of the member handles.
func (z *Zone) Sensors() []Handle {
	return append([]Handle(nil), z.sensors...)
}

// Contains reports whether h is a member of the zone.
func (z *Zone) Contains(h Handle) bool {
	for _, member := range z.sensors {
		if member == h {
			return true
		}
	}

	return false
}

// Update replaces the rectangle and recomputes membership from scratch.
// A sensor is a member iff it is placed and its area overlaps the rectangle.
func (z *Zone) Update(area geometry.Rect, arena *Arena) {
	z.area = area
	z.sensors = z.sensors[:0]

	zoneArea := area.Area()

	for _, h := range arena.Handles() {
		s, _ := arena.Get(h)

		sensorArea := s.Area()
		if sensorArea.IsZero() {
			continue
		}

		if sensorArea.Overlaps(zoneArea) {
			z.sensors = append(z.sensors, h)
		}
	}
}

// Record returns the storable form of the zone.
func (z *Zone) Record() ZoneRecord {
	return ZoneRecord{
		ID:      z.id,
		Area:    z.area,
		Enabled: z.enabled,
	}
}

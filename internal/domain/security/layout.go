package security

import "github.com/oshokin/safehome/internal/geometry"

// DefaultZoneArea is the rectangle a newly added zone starts with.
func DefaultZoneArea() geometry.Rect {
	return geometry.NewRect(150, 200, 210, 240)
}

// DefaultSensors returns the ten-sensor floor plan seed: eight entry sensors
// followed by two motion detectors, numbered per kind from 1.
func DefaultSensors() []Sensor {
	return []Sensor{
		NewEntrySensor(1, 20, 80),
		NewEntrySensor(2, 70, 20),
		NewEntrySensor(3, 20, 200),
		NewEntrySensor(4, 400, 20),
		NewEntrySensor(5, 470, 80),
		NewEntrySensor(6, 475, 210),
		NewEntrySensor(7, 250, 20),
		NewEntrySensor(8, 80, 280),
		NewMotionDetector(1, geometry.Coord{X: 30, Y: 80}, geometry.Coord{X: 465, Y: 80}),
		NewMotionDetector(2, geometry.Coord{X: 145, Y: 170}, geometry.Coord{X: 25, Y: 248}),
	}
}

// DefaultModes returns the Home, Away, Overnight and Extended modes over seed,
// which is expected to be the DefaultSensors layout.
func DefaultModes(seed []Sensor) []ModeRecord {
	pick := func(indices ...int) []SensorRef {
		refs := make([]SensorRef, 0, len(indices))

		for _, i := range indices {
			if i < len(seed) {
				refs = append(refs, RefOf(seed[i]))
			}
		}

		return refs
	}

	return []ModeRecord{
		{Name: "Home", Sensors: pick(3, 4, 5)},
		{Name: "Away", Sensors: pick(0, 1, 2)},
		{Name: "Overnight", Sensors: pick(6, 7)},
		{Name: "Extended", Sensors: pick(0, 1, 2)},
	}
}

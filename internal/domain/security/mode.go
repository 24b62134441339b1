package security

// Mode is a named, statically assigned set of sensors armed while the mode is active.
type Mode struct {
	// Name identifies the mode.
	Name string
	// Sensors lists the handles armed by the mode.
	Sensors []Handle
}

// ModeRecord is the storable form of a mode.
type ModeRecord struct {
	Name    string
	Sensors []SensorRef
}

// Clone returns a copy of the mode that does not share the sensor slice.
func (m *Mode) Clone() *Mode {
	if m == nil {
		return nil
	}

	return &Mode{
		Name:    m.Name,
		Sensors: append([]Handle(nil), m.Sensors...),
	}
}

package security

// Actor identifies who performed a change through a remote control panel.
type Actor struct {
	// Hostname is the machine name of the panel.
	Hostname string
	// Username is the system user operating the panel.
	Username string
}

// Clone returns a copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String formats the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

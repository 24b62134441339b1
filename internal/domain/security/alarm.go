package security

// Alarm is a one-shot siren latch.
// Once triggered it stays pending until read by Get, which clears it.
type Alarm struct {
	triggered bool
}

// Siren triggers the alarm. Repeated calls are no-ops until Get.
func (a *Alarm) Siren() {
	a.triggered = true
}

// Get returns whether the alarm was triggered and resets it.
func (a *Alarm) Get() bool {
	triggered := a.triggered
	a.triggered = false

	return triggered
}

// Peek returns the pending state without resetting it.
func (a *Alarm) Peek() bool {
	return a.triggered
}

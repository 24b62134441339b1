package notify

import (
	"context"
	"time"
)

// Event describes one triggered alarm.
type Event struct {
	// Time is when the poll loop observed the alarm.
	Time time.Time `json:"time"`
	// Mode is the active security mode, empty when none.
	Mode string `json:"mode,omitempty"`
	// Sensors lists the tripped sensors as kind#id.
	Sensors []string `json:"sensors"`
	// Description is the intrusion log description, e.g. "[1, 8]".
	Description string `json:"description"`
}

// Notifier delivers alarm events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close()
}

// Nop is a Notifier that drops every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

// Close implements Notifier.
func (Nop) Close() {}

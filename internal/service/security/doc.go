// Package security implements the arming resolver of the SafeHome core.
//
// Manager owns the sensors, zones and modes, re-resolves every sensor's armed
// state from scratch on each Update (mode, then enabled zones, then manual
// overrides, last writer wins), drives the alarm latch and writes intrusion log
// entries. Every mutation validates its target, persists through the injected
// repositories and only then changes memory, so a failed repository call
// leaves the in-memory state untouched. All methods are serialized by a
// single mutex; callers may invoke them from any goroutine.
package security

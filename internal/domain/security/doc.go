// Package security contains the domain model of the SafeHome security core.
//
// It defines the sensor variants and the arena that owns them, security zones
// with their geometric membership, statically assigned security modes, the
// read-once alarm latch, intrusion log entries and the sentinel errors shared
// by the service and repository layers. Everything that crosses a storage
// boundary is described by a plain record (SensorRef, ZoneRecord, ModeRecord)
// so that arena handles never leak into persistence.
package security

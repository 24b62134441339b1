// Package notify publishes alarm events to an MQTT broker.
//
// The publisher connects with exponential backoff and sends every event
// through a circuit breaker, so an unreachable broker costs the polling
// loop one fast failure instead of a timeout per cycle.
package notify

// Package rest serves the read-only HTTP surface of the SafeHome server:
// health, status snapshot, intrusion log, zones and Prometheus metrics.
package rest

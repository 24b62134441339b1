// Package metrics exposes Prometheus collectors for the security core.
//
// Metrics is an Observer of the security manager: every update cycle is
// counted, and intrusions, alarms and the number of armed sensors are
// recorded on a caller-supplied registry.
package metrics

// Package config defines the settings used by the SafeHome binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the control panel gRPC address, the optional HTTP
// status address, the storage backend and the polling cadence of the
// security manager.
package config

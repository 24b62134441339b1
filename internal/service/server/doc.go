// Package server runs the safehome-server process: the gRPC control panel,
// the HTTP status surface and the poll loop driving the security manager.
package server

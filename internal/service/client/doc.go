// Package client implements the safehome-panel actions.
//
// Every action connects to the SafeHome server, sends one control panel
// request on behalf of the local user and prints the JSON response.
package client

// Package hotplug adapts an external stream of USB connect/disconnect
// notifications onto the device registry: disconnects matching a bound
// port transition that device to Disconnected, and connects on a bound
// port call Connect on that device unless it is already Connected. The
// device's auto-reconnect setting is not consulted.
//
// The external event source itself (the OS-level USB poller) is out of
// scope; this package only consumes a <-chan Event. A Poller is provided
// for tests and demos that need to synthesize that channel from periodic
// snapshots via a set-based diff.
package hotplug

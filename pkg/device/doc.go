// Package device defines the capability contract every transport driver
// implements, along with the device-layer error taxonomy, status state
// machine, and identity/config types shared by the registry and
// dispatcher.
//
// # Contract
//
// A Driver owns exactly one live transport for its device id. Connect,
// Disconnect, Send, Receive, Heartbeat, Configure, and TestConnection
// form the closed capability set; Custom(name) is a declared,
// driver-specific escape hatch rather than an open-ended second method.
//
// # Status
//
// Status follows a closed four-state machine: Disconnected (initial),
// Connecting, Connected, Error(reason). StatusHolder gives drivers a
// snapshot slot behind its own RWMutex so a status read never blocks
// behind a long-running I/O operation holding the device's exclusive
// handle.
//
// # Errors
//
// The error taxonomy is a closed sentinel set; ErrorCode maps any error
// in (or wrapping) the taxonomy to the stable wire-level code the
// dispatcher reports, via a single exhaustive type switch.
package device

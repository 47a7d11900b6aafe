package device

import (
	"sync"
	"time"
)

// ID is an opaque device identifier, unique within a single registry.
type ID string

// Kind is the closed set of device kinds. It drives which transport
// driver implementation is bound to a given ID.
type Kind uint8

const (
	KindPulseSerial Kind = iota
	KindStreamingTCP
	KindRestController
	KindSampleBus
	KindMock
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPulseSerial:
		return "PulseSerial"
	case KindStreamingTCP:
		return "StreamingTcp"
	case KindRestController:
		return "RestController"
	case KindSampleBus:
		return "SampleBus"
	case KindMock:
		return "Mock"
	default:
		return "Unknown"
	}
}

// StatusState is the device status state machine per the data model:
// {Disconnected (initial), Connecting, Connected, Error(reason)}.
type StatusState uint8

const (
	StatusDisconnected StatusState = iota
	StatusConnecting
	StatusConnected
	StatusError
)

// String returns a human-readable status state name.
func (s StatusState) String() string {
	switch s {
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Status is an observable snapshot of a device's connection state.
// Transitions are produced only by the owning driver; readers only ever
// see a copy, never a live reference into driver-internal state.
type Status struct {
	State       StatusState
	ErrorReason string
	UpdatedAt   time.Time
}

// Config is the recognized device configuration record. KindSpecific is
// an opaque blob validated and decoded per-kind by the owning driver.
type Config struct {
	AutoReconnect       bool
	ReconnectIntervalMS uint32
	IOTimeoutMS         uint32
	KindSpecific        []byte
}

// DefaultIOTimeoutMS is used when a Config does not specify one.
const DefaultIOTimeoutMS = 5000

// Info is the immutable-per-lifetime identity of a device plus a mutable
// status snapshot and an opaque kind-specific metadata object (e.g. port
// path, remote endpoint, firmware id).
type Info struct {
	ID       ID
	Kind     Kind
	Name     string
	Metadata map[string]string
	Status   Status
}

// StatusHolder is a status snapshot slot guarded by its own RWMutex,
// separate from the device's exclusive handle, so the registry's O(1)
// status query never waits on a long-running I/O operation holding that
// handle.
type StatusHolder struct {
	mu     sync.RWMutex
	status Status
}

// NewStatusHolder creates a holder initialized to StatusDisconnected.
func NewStatusHolder() *StatusHolder {
	return &StatusHolder{status: Status{State: StatusDisconnected, UpdatedAt: time.Now()}}
}

// Get returns the current status snapshot.
func (h *StatusHolder) Get() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Set updates the status snapshot to the given state, clearing the error
// reason unless state is StatusError.
func (h *StatusHolder) Set(state StatusState, errorReason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state != StatusError {
		errorReason = ""
	}
	h.status = Status{State: state, ErrorReason: errorReason, UpdatedAt: time.Now()}
}

// CustomAction names a driver-specific action reachable via the
// command envelope's Custom(name) action. Drivers declare the set of
// names they accept so the dispatcher can fail unknown ones fast with
// ErrUnsupportedAction rather than forwarding them blind.
type CustomAction string

package device

import "context"

// Driver is the single capability set every transport driver implements
// per the device contract. A Driver owns exactly one live transport for
// its device id; the registry ensures only one Driver instance exists per
// id.
type Driver interface {
	// Connect establishes the transport. Returns ConnectionFailed on
	// failure. Calling Connect while already Connected is a no-op success;
	// calling it mid-Connecting from another goroutine is serialized by
	// the caller's exclusive handle, not by the driver itself.
	Connect(ctx context.Context) error

	// Disconnect releases the transport. Idempotent in all states.
	Disconnect(ctx context.Context) error

	// Send pushes an opaque payload; the driver applies its own framing.
	// Fails with ErrNotConnected if not Connected, ErrCommunicationError
	// on transport failure, ErrInvalidData if the payload shape is
	// rejected.
	Send(ctx context.Context, payload []byte) error

	// Receive pulls the next buffered payload using the driver's own
	// internal timeout. Returns a nil slice (not an error) on timeout.
	Receive(ctx context.Context) ([]byte, error)

	// Heartbeat is a liveness probe; the default contract is success iff
	// Connected.
	Heartbeat(ctx context.Context) error

	// Info returns the device's immutable identity plus a status
	// snapshot. Cheap, safe to call from any goroutine.
	Info() Info

	// Status returns just the mutable status snapshot; this is the O(1)
	// read path that must never block on a concurrent I/O operation.
	Status() Status

	// Configure applies reconfiguration. Fields not documented as
	// reconfigurable-while-disconnected are rejected with
	// ErrConfigurationError while the device is Connected, unless the
	// driver explicitly advertises support for that field.
	Configure(ctx context.Context, cfg Config) error

	// TestConnection performs a one-shot connect/disconnect that reports
	// reachability without leaving the device Connected.
	TestConnection(ctx context.Context) error

	// CustomActions lists the Custom(name) action names this driver
	// accepts. The dispatcher rejects any name not in this set with
	// ErrUnsupportedAction before calling Custom.
	CustomActions() []CustomAction

	// Custom invokes a driver-specific action declared in CustomActions.
	Custom(ctx context.Context, action CustomAction, payload []byte) ([]byte, error)
}

// SampleProducer is implemented by drivers that emit an asynchronous
// stream of Sample events alongside the pull-style Receive path: a typed
// side-channel for device-specific structured events. The registry wires
// a driver's producer side to its broadcaster through this interface
// without the driver holding a reference back to the registry.
type SampleProducer interface {
	// OnSample registers the callback invoked for every emitted sample.
	// Replaces any previously registered callback.
	OnSample(fn func(Sample))
}

// Sample is one timestamped datum emitted by a streaming or bus driver.
type Sample struct {
	DeviceID        ID
	MonotonicTimeNs int64
	Payload         []byte
	KindTag         string
}

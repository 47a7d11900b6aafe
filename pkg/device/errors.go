package device

import "errors"

// Sentinel errors forming the device-layer error taxonomy. Wrapping
// constructors below attach a cause to a sentinel through a small error
// type whose Unwrap returns the sentinel, so errors.Is/errors.As work
// across the dispatcher boundary while the dispatcher's wire-level
// `code` mapping stays a single exhaustive type switch.
var (
	// ErrConnectionFailed indicates a transport could not be established.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConnected indicates an operation requires Connected state.
	ErrNotConnected = errors.New("not connected")

	// ErrCommunicationError indicates a transient transport-level failure.
	ErrCommunicationError = errors.New("communication error")

	// ErrConfigurationError indicates invalid or unsupported configuration.
	ErrConfigurationError = errors.New("configuration error")

	// ErrTimeout indicates the effective deadline elapsed.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidData indicates a payload was rejected by the driver or peer.
	ErrInvalidData = errors.New("invalid data")

	// ErrTransport wraps an underlying OS or library error.
	ErrTransport = errors.New("transport error")

	// ErrUnsupportedAction indicates a Custom(name) action the driver did
	// not declare support for.
	ErrUnsupportedAction = errors.New("unsupported action")
)

// causedError pairs a taxonomy sentinel with a human-readable cause so
// callers can both errors.Is against the sentinel and print the cause.
type causedError struct {
	sentinel error
	cause    string
}

func (e *causedError) Error() string {
	if e.cause == "" {
		return e.sentinel.Error()
	}
	return e.sentinel.Error() + ": " + e.cause
}

func (e *causedError) Unwrap() error {
	return e.sentinel
}

// ConnectionFailed wraps ErrConnectionFailed with a human cause.
func ConnectionFailed(cause string) error {
	return &causedError{sentinel: ErrConnectionFailed, cause: cause}
}

// CommunicationError wraps ErrCommunicationError with a human cause.
func CommunicationError(cause string) error {
	return &causedError{sentinel: ErrCommunicationError, cause: cause}
}

// ConfigurationError wraps ErrConfigurationError with a human cause.
func ConfigurationError(cause string) error {
	return &causedError{sentinel: ErrConfigurationError, cause: cause}
}

// InvalidData wraps ErrInvalidData with a human cause.
func InvalidData(cause string) error {
	return &causedError{sentinel: ErrInvalidData, cause: cause}
}

// Transport wraps ErrTransport with a human cause.
func Transport(cause string) error {
	return &causedError{sentinel: ErrTransport, cause: cause}
}

// ErrorCode maps a device-layer error to its stable wire-level code
// (a snake_case variant name), for the dispatcher's error response.
// Returns "internal_error" for errors outside the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrConnectionFailed):
		return "connection_failed"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrCommunicationError):
		return "communication_error"
	case errors.Is(err, ErrConfigurationError):
		return "configuration_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrUnsupportedAction):
		return "unsupported_action"
	default:
		return "internal_error"
	}
}

package device

import (
	"errors"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"connection failed", ConnectionFailed("refused"), "connection_failed"},
		{"not connected", ErrNotConnected, "not_connected"},
		{"communication error", CommunicationError("short write"), "communication_error"},
		{"configuration error", ConfigurationError("bad baud rate"), "configuration_error"},
		{"timeout", ErrTimeout, "timeout"},
		{"invalid data", InvalidData("odd byte count"), "invalid_data"},
		{"transport", Transport("ENODEV"), "transport"},
		{"unsupported action", ErrUnsupportedAction, "unsupported_action"},
		{"unknown error", errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestCausedErrorUnwraps(t *testing.T) {
	err := ConnectionFailed("host unreachable")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Error("ConnectionFailed should wrap ErrConnectionFailed")
	}
	if got, want := err.Error(), "connection failed: host unreachable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCausedErrorEmptyCause(t *testing.T) {
	err := &causedError{sentinel: ErrTimeout}
	if got, want := err.Error(), ErrTimeout.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

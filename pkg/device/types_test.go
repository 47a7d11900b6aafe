package device

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPulseSerial, "PulseSerial"},
		{KindStreamingTCP, "StreamingTcp"},
		{KindRestController, "RestController"},
		{KindSampleBus, "SampleBus"},
		{KindMock, "Mock"},
		{Kind(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestStatusStateString(t *testing.T) {
	tests := []struct {
		state StatusState
		want  string
	}{
		{StatusDisconnected, "DISCONNECTED"},
		{StatusConnecting, "CONNECTING"},
		{StatusConnected, "CONNECTED"},
		{StatusError, "ERROR"},
		{StatusState(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("StatusState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStatusHolderInitialState(t *testing.T) {
	h := NewStatusHolder()
	status := h.Get()
	if status.State != StatusDisconnected {
		t.Errorf("initial State = %v, want StatusDisconnected", status.State)
	}
	if status.ErrorReason != "" {
		t.Errorf("initial ErrorReason = %q, want empty", status.ErrorReason)
	}
}

func TestStatusHolderSetClearsErrorReasonOnNonError(t *testing.T) {
	h := NewStatusHolder()
	h.Set(StatusError, "reconnect budget exhausted")

	status := h.Get()
	if status.State != StatusError || status.ErrorReason != "reconnect budget exhausted" {
		t.Fatalf("got %+v, want Error with reason set", status)
	}

	h.Set(StatusConnecting, "")
	status = h.Get()
	if status.State != StatusConnecting {
		t.Errorf("State = %v, want StatusConnecting", status.State)
	}
	if status.ErrorReason != "" {
		t.Errorf("ErrorReason = %q, want cleared on non-error transition", status.ErrorReason)
	}
}

func TestStatusHolderSetErrorIgnoresPassedReasonWhenNotError(t *testing.T) {
	h := NewStatusHolder()
	h.Set(StatusConnected, "should be discarded")

	status := h.Get()
	if status.ErrorReason != "" {
		t.Errorf("ErrorReason = %q, want empty for non-Error state", status.ErrorReason)
	}
}

package mock_test

import (
	"context"
	"testing"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/driver/mock"
)

func TestDriverConnectDisconnect(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	ctx := context.Background()

	if got := drv.Status().State; got != device.StatusDisconnected {
		t.Errorf("initial status = %v, want Disconnected", got)
	}

	if err := drv.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if got := drv.Status().State; got != device.StatusConnected {
		t.Errorf("status after Connect = %v, want Connected", got)
	}

	if err := drv.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if got := drv.Status().State; got != device.StatusDisconnected {
		t.Errorf("status after Disconnect = %v, want Disconnected", got)
	}
}

func TestDriverSendRequiresConnected(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	if err := drv.Send(context.Background(), []byte("hi")); err != device.ErrNotConnected {
		t.Errorf("Send while disconnected: got %v, want ErrNotConnected", err)
	}
}

func TestDriverEchoPayload(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	ctx := context.Background()
	drv.Connect(ctx)

	if err := drv.Send(ctx, []byte("ECHO")); err != nil {
		t.Fatalf("Send(ECHO) failed: %v", err)
	}

	got, err := drv.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if string(got) != "ECHO" {
		t.Errorf("Receive() = %q, want echoed ECHO", got)
	}

	// Echo only fires once.
	got, err = drv.Receive(ctx)
	if err != nil {
		t.Fatalf("second Receive failed: %v", err)
	}
	if got != nil {
		t.Errorf("second Receive() = %q, want nil (echo consumed)", got)
	}
}

func TestDriverInjectReceive(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	ctx := context.Background()
	drv.Connect(ctx)

	drv.InjectReceive([]byte("one"))
	drv.InjectReceive([]byte("two"))

	got, _ := drv.Receive(ctx)
	if string(got) != "one" {
		t.Errorf("first Receive = %q, want one", got)
	}
	got, _ = drv.Receive(ctx)
	if string(got) != "two" {
		t.Errorf("second Receive = %q, want two", got)
	}
	got, _ = drv.Receive(ctx)
	if got != nil {
		t.Errorf("third Receive = %q, want nil (queue empty)", got)
	}
}

func TestDriverErrorRate(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	drv.ErrorRate = 1.0
	ctx := context.Background()
	drv.Connect(ctx)

	if err := drv.Send(ctx, []byte("x")); !errorsIsCommunicationError(err) {
		t.Errorf("Send with ErrorRate=1: got %v, want CommunicationError", err)
	}
	if _, err := drv.Receive(ctx); !errorsIsCommunicationError(err) {
		t.Errorf("Receive with ErrorRate=1: got %v, want CommunicationError", err)
	}
}

func errorsIsCommunicationError(err error) bool {
	return err != nil && device.ErrorCode(err) == "communication_error"
}

func TestDriverSampleCallback(t *testing.T) {
	drv := mock.New("dev-1", "mock device")

	var got device.Sample
	drv.OnSample(func(s device.Sample) { got = s })
	drv.EmitSample([]byte{1, 2, 3}, "raw")

	if got.DeviceID != "dev-1" {
		t.Errorf("Sample.DeviceID = %q, want dev-1", got.DeviceID)
	}
	if string(got.Payload) != "\x01\x02\x03" {
		t.Errorf("Sample.Payload = %v, want [1 2 3]", got.Payload)
	}
}

func TestDriverSentMessages(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	ctx := context.Background()
	drv.Connect(ctx)

	drv.Send(ctx, []byte("a"))
	drv.Send(ctx, []byte("b"))

	sent := drv.SentMessages()
	if len(sent) != 2 {
		t.Fatalf("SentMessages() = %d entries, want 2", len(sent))
	}
	if string(sent[0].Payload) != "a" || string(sent[1].Payload) != "b" {
		t.Errorf("unexpected sent payloads: %+v", sent)
	}
}

func TestDriverTestConnectionLeavesDisconnected(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	if err := drv.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if got := drv.Status().State; got != device.StatusDisconnected {
		t.Errorf("status after TestConnection = %v, want Disconnected", got)
	}
}

func TestDriverCustomActionsUnsupported(t *testing.T) {
	drv := mock.New("dev-1", "mock device")
	if len(drv.CustomActions()) != 0 {
		t.Error("mock driver should declare no custom actions")
	}
	if _, err := drv.Custom(context.Background(), "anything", nil); err != device.ErrUnsupportedAction {
		t.Errorf("Custom: got %v, want ErrUnsupportedAction", err)
	}
}

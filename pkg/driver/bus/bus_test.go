package bus

import (
	"testing"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	pub := New("publisher", "pub bus", nil)
	pub.Connect(t.Context())
	defer pub.Disconnect(t.Context())

	addr, err := pub.Publish(PublishSpec{Name: "fnirs", Channels: 1, SampleRateHz: 100, Format: FormatF32})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	sub := New("subscriber", "sub bus", nil)
	sub.Connect(t.Context())
	defer sub.Disconnect(t.Context())

	received := make(chan device.Sample, 1)
	sub.OnSample(func(s device.Sample) { received <- s })

	if err := sub.SubscribeStream(t.Context(), "fnirs", addr, FormatF32); err != nil {
		t.Fatalf("SubscribeStream failed: %v", err)
	}

	// give the publisher's accept loop a moment to register the peer.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		pub.mu.Lock()
		o := pub.outlets["fnirs"]
		pub.mu.Unlock()
		o.mu.Lock()
		peers := len(o.peers)
		o.mu.Unlock()
		if peers > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := pub.PublishSample("fnirs", []float64{1.25}, ""); err != nil {
		t.Fatalf("PublishSample failed: %v", err)
	}

	select {
	case s := <-received:
		values, _, err := DecodeSample(FormatF32, s.Payload)
		if err != nil {
			t.Fatalf("DecodeSample failed: %v", err)
		}
		if len(values) != 1 || values[0] != 1.25 {
			t.Errorf("values = %v, want [1.25]", values)
		}
		if s.KindTag != "bus:fnirs" {
			t.Errorf("KindTag = %q, want bus:fnirs", s.KindTag)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received a sample")
	}
}

func TestPublishDuplicateNameRejected(t *testing.T) {
	pub := New("publisher", "pub bus", nil)
	pub.Connect(t.Context())
	defer pub.Disconnect(t.Context())

	if _, err := pub.Publish(PublishSpec{Name: "fnirs", Format: FormatF32}); err != nil {
		t.Fatalf("first Publish failed: %v", err)
	}
	if _, err := pub.Publish(PublishSpec{Name: "fnirs", Format: FormatF32}); device.ErrorCode(err) != "configuration_error" {
		t.Errorf("duplicate Publish: got %v, want configuration_error", err)
	}
}

func TestTimeCorrectionRoundTrip(t *testing.T) {
	pub := New("publisher", "pub bus", nil)
	pub.Connect(t.Context())
	defer pub.Disconnect(t.Context())

	addr, _ := pub.Publish(PublishSpec{Name: "fnirs", Format: FormatF32})

	sub := New("subscriber", "sub bus", nil)
	sub.Connect(t.Context())
	defer sub.Disconnect(t.Context())
	sub.SubscribeStream(t.Context(), "fnirs", addr, FormatF32)

	if err := sub.SetTimeCorrection("fnirs", 5*time.Millisecond); err != nil {
		t.Fatalf("SetTimeCorrection failed: %v", err)
	}
	got, err := sub.TimeCorrection("fnirs")
	if err != nil {
		t.Fatalf("TimeCorrection failed: %v", err)
	}
	if got != 5*time.Millisecond {
		t.Errorf("offset = %v, want 5ms", got)
	}
}

func TestSendUnsupported(t *testing.T) {
	drv := New("d1", "bus", nil)
	if err := drv.Send(t.Context(), []byte("x")); err != device.ErrUnsupportedAction {
		t.Errorf("Send: got %v, want ErrUnsupportedAction", err)
	}
}

var _ device.Driver = (*Driver)(nil)

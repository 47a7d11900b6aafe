package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
)

// listenLoopback starts a TCP listener on an ephemeral local port and
// returns its address plus the accepted-connection channel.
func listenLoopback(t *testing.T) (net.Listener, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	return ln, ln.Addr().String()
}

func loopbackDialer(addr string) Dialer {
	return func(ctx context.Context, _ string, timeout time.Duration) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		return d.DialContext(ctx, "tcp", addr)
	}
}

func TestDriverConnectReadsSamples(t *testing.T) {
	ln, addr := listenLoopback(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	cfg := DefaultConfig()
	drv := New("dev-1", "streaming device", cfg, loopbackDialer(addr))
	defer drv.Close()

	var samples [][]byte
	done := make(chan struct{}, 1)
	drv.OnSample(func(s device.Sample) {
		samples = append(samples, s.Payload)
		select {
		case done <- struct{}{}:
		default:
		}
	})

	if err := drv.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
	}
	defer conn.Close()

	conn.Write([]byte("hello"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver never emitted a sample for the written bytes")
	}

	if len(samples) != 1 || string(samples[0]) != "hello" {
		t.Errorf("samples = %v, want [hello]", samples)
	}

	if got := drv.Status().State; got != device.StatusConnected {
		t.Errorf("Status = %v, want Connected", got)
	}
}

func TestDriverSendRequiresLiveSocket(t *testing.T) {
	cfg := DefaultConfig()
	drv := New("dev-1", "streaming device", cfg, func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
		return nil, device.ConnectionFailed("refused")
	})
	defer drv.Close()

	if err := drv.Send(context.Background(), []byte("x")); err != device.ErrNotConnected {
		t.Errorf("Send before connect: got %v, want ErrNotConnected", err)
	}
}

func TestDriverDisconnectIsIdempotent(t *testing.T) {
	ln, addr := listenLoopback(t)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	cfg := DefaultConfig()
	drv := New("dev-1", "streaming device", cfg, loopbackDialer(addr))
	defer drv.Close()

	drv.Connect(context.Background())
	time.Sleep(50 * time.Millisecond)

	if err := drv.Disconnect(context.Background()); err != nil {
		t.Fatalf("first Disconnect failed: %v", err)
	}
	if err := drv.Disconnect(context.Background()); err != nil {
		t.Errorf("second Disconnect failed: %v, want idempotent nil", err)
	}
}

func TestDriverExhaustsReconnectBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReconnectMaxAttempts = 2
	cfg.ReconnectInitial = 5 * time.Millisecond
	cfg.ReconnectMax = 10 * time.Millisecond

	alwaysFails := func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
		return nil, device.ConnectionFailed("refused")
	}

	drv := New("dev-1", "streaming device", cfg, alwaysFails)
	defer drv.Close()

	drv.Connect(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		if drv.Status().State == device.StatusError {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("status never reached Error; last = %v", drv.Status().State)
		case <-time.After(10 * time.Millisecond):
		}
	}

	status := drv.Status()
	if status.ErrorReason == "" {
		t.Error("ErrorReason should be set once the reconnect budget is exhausted")
	}
}

func TestDriverConfigureRejectedWhileConnected(t *testing.T) {
	ln, addr := listenLoopback(t)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			buf := make([]byte, 16)
			for {
				if _, err := conn.Read(buf); err != nil {
					return
				}
			}
		}
	}()

	cfg := DefaultConfig()
	drv := New("dev-1", "streaming device", cfg, loopbackDialer(addr))
	defer drv.Close()

	drv.Connect(context.Background())
	time.Sleep(50 * time.Millisecond)

	if err := drv.Configure(context.Background(), device.Config{}); device.ErrorCode(err) != "configuration_error" {
		t.Errorf("Configure while connected: got %v, want configuration_error", err)
	}
}

func TestDriverConfigureAppliesFieldsWhileDisconnected(t *testing.T) {
	drv := New("dev-1", "streaming device", DefaultConfig(), nil)
	defer drv.Close()

	cfg := device.Config{
		AutoReconnect: true,
		IOTimeoutMS:   250,
		KindSpecific:  []byte(`{"host":"10.0.0.5","port":9000}`),
	}
	if err := drv.Configure(context.Background(), cfg); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	info := drv.Info()
	if got := info.Metadata["host"]; got != "10.0.0.5" {
		t.Errorf("host metadata = %q, want 10.0.0.5", got)
	}
	if got := info.Metadata["port"]; got != "9000" {
		t.Errorf("port metadata = %q, want 9000", got)
	}
	if drv.cfg.ConnectTimeout != 250*time.Millisecond {
		t.Errorf("ConnectTimeout = %v, want 250ms", drv.cfg.ConnectTimeout)
	}
}

func TestDriverCustomActionsUnsupported(t *testing.T) {
	drv := New("dev-1", "streaming device", DefaultConfig(), nil)
	defer drv.Close()

	if len(drv.CustomActions()) != 0 {
		t.Error("streaming TCP driver should declare no custom actions")
	}
	if _, err := drv.Custom(context.Background(), "anything", nil); err != device.ErrUnsupportedAction {
		t.Errorf("Custom: got %v, want ErrUnsupportedAction", err)
	}
}

var _ device.Driver = (*Driver)(nil)

package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bridged-io/bridged/pkg/connection"
	"github.com/bridged-io/bridged/pkg/device"
)

// Defaults for an unconfigured streaming TCP device.
const (
	DefaultHost           = "192.168.1.100"
	DefaultPort           = 6767
	DefaultReadBufferSize = 8192
	DefaultConnectTimeout = 5 * time.Second
	DefaultReconnectBase  = 1 * time.Second
	DefaultReconnectMax   = 30 * time.Second
	DefaultMaxAttempts    = 3
)

// Config configures a streaming TCP driver instance.
type Config struct {
	Host           string
	Port           int
	ReadBufferSize int
	ConnectTimeout time.Duration

	ReconnectMaxAttempts int
	ReconnectInitial     time.Duration
	ReconnectMax         time.Duration
	ReconnectFactor      float64
}

// DefaultConfig returns the documented defaults for a streaming TCP device.
func DefaultConfig() Config {
	return Config{
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		ReadBufferSize:       DefaultReadBufferSize,
		ConnectTimeout:       DefaultConnectTimeout,
		ReconnectMaxAttempts: DefaultMaxAttempts,
		ReconnectInitial:     DefaultReconnectBase,
		ReconnectMax:         DefaultReconnectMax,
		ReconnectFactor:      2.0,
	}
}

// Dialer abstracts connection establishment so tests can substitute an
// in-process listener for a real socket.
type Dialer func(ctx context.Context, address string, timeout time.Duration) (net.Conn, error)

func defaultDialer(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", address)
}

// Driver is the streaming TCP device.Driver.
type Driver struct {
	id   device.ID
	name string
	cfg  Config

	dial Dialer

	mgr    *connection.Manager
	status *device.StatusHolder

	connMu sync.Mutex
	conn   net.Conn

	sampleMu sync.Mutex
	onSample func(device.Sample)

	errMu   sync.Mutex
	onError func(reason string)

	readWg sync.WaitGroup
}

// New creates a streaming TCP driver. If dial is nil, real TCP sockets
// are used.
func New(id device.ID, name string, cfg Config, dial Dialer) *Driver {
	if dial == nil {
		dial = defaultDialer
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	d := &Driver{
		id:     id,
		name:   name,
		cfg:    cfg,
		dial:   dial,
		status: device.NewStatusHolder(),
	}

	policy := connection.Policy{
		MaxAttempts: cfg.ReconnectMaxAttempts,
		Backoff: connection.BackoffConfig{
			Initial:    cfg.ReconnectInitial,
			Max:        cfg.ReconnectMax,
			Multiplier: cfg.ReconnectFactor,
			Jitter:     0.1,
		},
	}
	d.mgr = connection.NewManagerWithPolicy(d.dialAndReadLoop, policy)
	d.mgr.OnStateChange(func(old, new connection.State) {
		d.status.Set(mapState(new), d.mgr.ErrorReason())
	})
	d.mgr.OnExhausted(func(reason string) {
		d.errMu.Lock()
		fn := d.onError
		d.errMu.Unlock()
		if fn != nil {
			fn(reason)
		}
	})
	d.mgr.StartReconnectLoop()

	return d
}

func mapState(s connection.State) device.StatusState {
	switch s {
	case connection.StateDisconnected:
		return device.StatusDisconnected
	case connection.StateConnecting:
		return device.StatusConnecting
	case connection.StateConnected:
		return device.StatusConnected
	case connection.StateError:
		return device.StatusError
	default:
		return device.StatusDisconnected
	}
}

func (d *Driver) address() string {
	port := d.cfg.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(d.cfg.Host, strconv.Itoa(port))
}

// dialAndReadLoop is the connection.ConnectFunc: it dials, stores the
// connection, and spawns the read loop that emits Sample events until the
// connection fails.
func (d *Driver) dialAndReadLoop(ctx context.Context) error {
	conn, err := d.dial(ctx, d.address(), d.cfg.ConnectTimeout)
	if err != nil {
		return device.ConnectionFailed(err.Error())
	}

	d.connMu.Lock()
	d.conn = conn
	d.connMu.Unlock()

	d.readWg.Add(1)
	go d.readLoop(conn)

	return nil
}

// readLoop reads chunks from the connection, emitting each as a Sample
// event. On any read error it closes the socket and notifies the
// connection manager so reconnection (if budget remains) can begin.
func (d *Driver) readLoop(conn net.Conn) {
	defer d.readWg.Done()

	r := bufio.NewReaderSize(conn, d.cfg.ReadBufferSize)
	buf := make([]byte, d.cfg.ReadBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			d.emitSample(chunk)
		}
		if err != nil {
			conn.Close()
			d.connMu.Lock()
			if d.conn == conn {
				d.conn = nil
			}
			d.connMu.Unlock()
			d.mgr.NotifyConnectionLost()
			return
		}
	}
}

func (d *Driver) emitSample(payload []byte) {
	d.sampleMu.Lock()
	fn := d.onSample
	d.sampleMu.Unlock()
	if fn != nil {
		fn(device.Sample{DeviceID: d.id, MonotonicTimeNs: time.Now().UnixNano(), Payload: payload, KindTag: "stream"})
	}
}

// Connect establishes the TCP connection.
func (d *Driver) Connect(ctx context.Context) error {
	err := d.mgr.Connect(ctx)
	if err == connection.ErrAlreadyConnected {
		return nil
	}
	return err
}

// Disconnect closes the connection. Idempotent.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mgr.Disconnect()
	d.connMu.Lock()
	conn := d.conn
	d.conn = nil
	d.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
	return nil
}

// Send writes payload to the live socket. Fails with ErrNotConnected if
// the read loop is not currently holding a connection.
func (d *Driver) Send(ctx context.Context, payload []byte) error {
	d.connMu.Lock()
	conn := d.conn
	d.connMu.Unlock()

	if conn == nil {
		return device.ErrNotConnected
	}
	if _, err := conn.Write(payload); err != nil {
		return device.CommunicationError(err.Error())
	}
	return nil
}

// Receive is not the primary consumption path for this driver (samples
// are pushed via OnSample); it always returns nil, nil since the read
// loop already drains the socket into Sample events.
func (d *Driver) Receive(ctx context.Context) ([]byte, error) {
	return nil, nil
}

// Heartbeat reports success iff Connected.
func (d *Driver) Heartbeat(ctx context.Context) error {
	if d.status.Get().State != device.StatusConnected {
		return device.ErrNotConnected
	}
	return nil
}

// Info returns the device's identity and status, with host:port recorded
// as metadata.
func (d *Driver) Info() device.Info {
	return device.Info{
		ID:     d.id,
		Kind:   device.KindStreamingTCP,
		Name:   d.name,
		Status: d.status.Get(),
		Metadata: map[string]string{
			"host": d.cfg.Host,
			"port": strconv.Itoa(d.cfg.Port),
		},
	}
}

// Status returns the current status snapshot.
func (d *Driver) Status() device.Status {
	return d.status.Get()
}

// configureWire is the on-wire shape of a streaming TCP device's
// configure payload, matching the device-config shape buildDriver
// decodes at startup (see cmd/bridged's tcpSpec).
type configureWire struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Configure rejects any change while Connected: every recognized field
// (host/port, the reconnect policy, the I/O timeout) only has sound
// semantics applied before the next connect attempt.
func (d *Driver) Configure(ctx context.Context, cfg device.Config) error {
	if d.status.Get().State == device.StatusConnected {
		return device.ConfigurationError("not reconfigurable while connected")
	}

	d.mgr.SetAutoReconnect(cfg.AutoReconnect)
	if cfg.IOTimeoutMS > 0 {
		d.connMu.Lock()
		d.cfg.ConnectTimeout = time.Duration(cfg.IOTimeoutMS) * time.Millisecond
		d.connMu.Unlock()
	}

	if len(cfg.KindSpecific) == 0 {
		return nil
	}

	var w configureWire
	if err := json.Unmarshal(cfg.KindSpecific, &w); err != nil {
		return device.ConfigurationError(err.Error())
	}

	d.connMu.Lock()
	if w.Host != "" {
		d.cfg.Host = w.Host
	}
	if w.Port > 0 {
		d.cfg.Port = w.Port
	}
	d.connMu.Unlock()
	return nil
}

// TestConnection dials, then disconnects without leaving the driver
// Connected.
func (d *Driver) TestConnection(ctx context.Context) error {
	conn, err := d.dial(ctx, d.address(), d.cfg.ConnectTimeout)
	if err != nil {
		return device.ConnectionFailed(err.Error())
	}
	return conn.Close()
}

// CustomActions reports no custom actions for this driver.
func (d *Driver) CustomActions() []device.CustomAction {
	return nil
}

// Custom always fails: the streaming TCP driver declares no custom actions.
func (d *Driver) Custom(ctx context.Context, action device.CustomAction, payload []byte) ([]byte, error) {
	return nil, device.ErrUnsupportedAction
}

// OnSample registers the callback invoked for every chunk read off the
// socket.
func (d *Driver) OnSample(fn func(device.Sample)) {
	d.sampleMu.Lock()
	defer d.sampleMu.Unlock()
	d.onSample = fn
}

// OnDeviceError registers the callback invoked once the reconnect manager
// exhausts its retry budget and gives up reconnecting on its own.
func (d *Driver) OnDeviceError(fn func(reason string)) {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	d.onError = fn
}

// Close stops the background reconnect loop, closes the live connection
// (if any) and waits for its read loop to exit. Call once the driver is
// permanently removed from the registry.
func (d *Driver) Close() {
	d.mgr.Close()
	d.connMu.Lock()
	conn := d.conn
	d.conn = nil
	d.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
	d.readWg.Wait()
}

var (
	_ device.Driver         = (*Driver)(nil)
	_ device.SampleProducer = (*Driver)(nil)
)

package serial

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/log"
)

// Reference pulse generator USB identity.
const (
	VendorID  = "239A"
	ProductID = "80F1"
)

// Defaults for the pulse-generator serial link.
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultPulseWidth  = 10 * time.Millisecond
	LatencyWarnBudget  = 500 * time.Microsecond
	LatencyHardBudget  = 1 * time.Millisecond
	pulseCommand       = "PULSE"
	pulseWireSequence  = "PULSE\n"
)

// Config configures a serial pulse-generator driver instance.
type Config struct {
	PortName    string
	Baud        int
	ReadTimeout time.Duration
	PulseWidth  time.Duration
}

// DefaultConfig returns the documented defaults, with PortName left blank
// for the caller (or ListPorts/hotplug auto-bind) to fill in.
func DefaultConfig() Config {
	return Config{Baud: DefaultBaud, ReadTimeout: DefaultReadTimeout, PulseWidth: DefaultPulseWidth}
}

// OpenFunc abstracts port opening so tests can substitute a fake
// serial.Port instead of a real OS handle.
type OpenFunc func(portName string, mode *serial.Mode) (serial.Port, error)

func defaultOpen(portName string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(portName, mode)
}

// Driver is the serial pulse-generator device.Driver.
type Driver struct {
	id     device.ID
	name   string
	cfg    Config
	open   OpenFunc
	logger log.Logger

	mu     sync.Mutex
	port   serial.Port
	status *device.StatusHolder

	perf func(latency time.Duration, bytesWritten int)
}

// New creates a serial pulse-generator driver. If open is nil, real OS
// serial ports are used via go.bug.st/serial.
func New(id device.ID, name string, cfg Config, open OpenFunc, logger log.Logger) *Driver {
	if open == nil {
		open = defaultOpen
	}
	if logger == nil {
		logger = log.NoopLogger{}
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.PulseWidth <= 0 {
		cfg.PulseWidth = DefaultPulseWidth
	}
	return &Driver{
		id:     id,
		name:   name,
		cfg:    cfg,
		open:   open,
		logger: logger,
		status: device.NewStatusHolder(),
	}
}

// OnPerformanceSample registers a callback invoked after every write+flush
// with the measured latency and byte count, for wiring into perfacct.
func (d *Driver) OnPerformanceSample(fn func(latency time.Duration, bytesWritten int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.perf = fn
}

// Connect opens the serial port at the configured baud, 8N1, with the
// configured read timeout.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: d.cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := d.open(d.cfg.PortName, mode)
	if err != nil {
		d.status.Set(device.StatusError, err.Error())
		return device.ConnectionFailed(err.Error())
	}
	if err := port.SetReadTimeout(d.cfg.ReadTimeout); err != nil {
		port.Close()
		d.status.Set(device.StatusError, err.Error())
		return device.ConnectionFailed(err.Error())
	}

	d.port = port
	d.status.Set(device.StatusConnected, "")
	return nil
}

// Disconnect closes the port handle. Idempotent.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		d.port.Close()
		d.port = nil
	}
	d.status.Set(device.StatusDisconnected, "")
	return nil
}

// Send writes payload and flushes. A payload of exactly "PULSE" takes the
// fixed-sequence pulse path (command bytes + newline, then a configured
// sleep); any other payload is written as-is under the same latency
// accounting. Disconnection discovered via a failed write/flush closes the
// port and transitions status to Disconnected.
func (d *Driver) Send(ctx context.Context, payload []byte) error {
	d.mu.Lock()
	port := d.port
	d.mu.Unlock()

	if port == nil {
		return device.ErrNotConnected
	}

	wire := payload
	isPulse := string(payload) == pulseCommand
	if isPulse {
		wire = []byte(pulseWireSequence)
	}

	start := time.Now()
	_, werr := port.Write(wire)
	if werr == nil {
		werr = port.Drain()
	}
	elapsed := time.Since(start)

	d.mu.Lock()
	perf := d.perf
	d.mu.Unlock()
	if perf != nil {
		perf(elapsed, len(wire))
	}
	if elapsed > LatencyWarnBudget {
		d.logger.Log(log.Event{
			Layer:    log.LayerTransport,
			Category: log.CategoryError,
			Message:  "serial write+flush exceeded latency budget",
		})
	}

	if werr != nil {
		d.handleWriteFailure(werr)
		return device.CommunicationError(werr.Error())
	}

	if isPulse {
		time.Sleep(d.cfg.PulseWidth)
	}
	return nil
}

func (d *Driver) handleWriteFailure(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port != nil {
		d.port.Close()
		d.port = nil
	}
	d.status.Set(device.StatusDisconnected, "")
}

// Receive is not meaningful for the pulse generator, which is write-only
// from the bridge's perspective; it always returns nil, nil.
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

// Info returns the device's identity and status, with the port name
// recorded as metadata.
func (d *Driver) Info() device.Info {
	return device.Info{
		ID:   d.id,
		Kind: device.KindPulseSerial,
		Name: d.name,
		Metadata: map[string]string{
			"port_name":  d.cfg.PortName,
			"vendor_id":  VendorID,
			"product_id": ProductID,
		},
		Status: d.status.Get(),
	}
}

// Status returns the current status snapshot.
func (d *Driver) Status() device.Status {
	return d.status.Get()
}

// configureWire is the on-wire shape of a serial device's configure
// payload, matching the device-config shape buildDriver decodes at
// startup (see cmd/bridged's serialSpec).
type configureWire struct {
	PortName     string `json:"port_name,omitempty"`
	BaudRate     int    `json:"baud_rate,omitempty"`
	PulseWidthMS int    `json:"pulse_width_ms,omitempty"`
}

// Configure rejects every change while Connected (the port is open),
// whichever fields the config carries; while Disconnected
// it applies the decoded fields onto the driver's own config, so a
// subsequent Connect and Info() call picks them up.
func (d *Driver) Configure(ctx context.Context, cfg device.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return device.ConfigurationError("baud/port are not reconfigurable while connected")
	}
	if cfg.IOTimeoutMS > 0 {
		d.cfg.ReadTimeout = time.Duration(cfg.IOTimeoutMS) * time.Millisecond
	}
	if len(cfg.KindSpecific) == 0 {
		return nil
	}

	var w configureWire
	if err := json.Unmarshal(cfg.KindSpecific, &w); err != nil {
		return device.ConfigurationError(err.Error())
	}
	if w.PortName != "" {
		d.cfg.PortName = w.PortName
	}
	if w.BaudRate > 0 {
		d.cfg.Baud = w.BaudRate
	}
	if w.PulseWidthMS > 0 {
		d.cfg.PulseWidth = time.Duration(w.PulseWidthMS) * time.Millisecond
	}
	return nil
}

// TestConnection opens then immediately closes the port without leaving
// the driver Connected.
func (d *Driver) TestConnection(ctx context.Context) error {
	mode := &serial.Mode{BaudRate: d.cfg.Baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := d.open(d.cfg.PortName, mode)
	if err != nil {
		return device.ConnectionFailed(err.Error())
	}
	return port.Close()
}

// CustomActions reports no custom actions for this driver.
func (d *Driver) CustomActions() []device.CustomAction {
	return nil
}

// Custom always fails: the serial driver declares no custom actions.
func (d *Driver) Custom(ctx context.Context, action device.CustomAction, payload []byte) ([]byte, error) {
	return nil, device.ErrUnsupportedAction
}

// ListPorts enumerates USB serial ports, for the hotplug adapter's
// auto-bind path to resolve a port_name back to a device handle. On
// macOS, /dev/tty.* duplicates of /dev/cu.* are filtered out.
func ListPorts() ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	filtered := ports[:0]
	for _, p := range ports {
		if isMacTTYDuplicate(p.Name) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func isMacTTYDuplicate(name string) bool {
	return len(name) > 9 && name[:9] == "/dev/tty."
}

var _ device.Driver = (*Driver)(nil)

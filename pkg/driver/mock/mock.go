// Package mock provides an in-process device.Driver implementation used
// for tests and for exercising the dispatcher/registry without real
// hardware.
package mock

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
)

// echoPayload is the special send() payload that arms the next Receive
// to return the same bytes back.
const echoPayload = "ECHO"

// Message records one Send or injected Receive for inspection in tests.
type Message struct {
	Direction string // "sent" or "received"
	Payload   []byte
	At        time.Time
}

// Driver is an in-process mock device.Driver.
type Driver struct {
	mu sync.Mutex

	id   device.ID
	name string

	status *device.StatusHolder

	// Latency is injected into every Connect/Send/Receive call.
	Latency time.Duration

	// ErrorRate is the probability (0-1) that Send/Receive/Heartbeat
	// synthesizes a CommunicationError instead of succeeding.
	ErrorRate float64
	rng       *rand.Rand

	sent         []Message
	receiveQueue [][]byte
	echoArmed    bool
	onSample     func(device.Sample)
}

// New creates a mock driver with the given id and name, initial status
// Disconnected.
func New(id device.ID, name string) *Driver {
	return &Driver{
		id:     id,
		name:   name,
		status: device.NewStatusHolder(),
		rng:    rand.New(rand.NewSource(1)),
	}
}

// SeedRNG replaces the driver's error-rate random source, for
// deterministic tests.
func (d *Driver) SeedRNG(seed int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rng = rand.New(rand.NewSource(seed))
}

func (d *Driver) maybeFail() error {
	if d.ErrorRate <= 0 {
		return nil
	}
	if d.rng.Float64() < d.ErrorRate {
		return device.CommunicationError("synthetic mock failure")
	}
	return nil
}

func (d *Driver) sleepLatency() {
	if d.Latency > 0 {
		time.Sleep(d.Latency)
	}
}

// Connect transitions the mock to Connected.
func (d *Driver) Connect(ctx context.Context) error {
	d.sleepLatency()
	d.status.Set(device.StatusConnected, "")
	return nil
}

// Disconnect transitions the mock to Disconnected. Idempotent.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.status.Set(device.StatusDisconnected, "")
	return nil
}

// Send records the payload and, if it equals "ECHO", arms the next
// Receive to return it back.
func (d *Driver) Send(ctx context.Context, payload []byte) error {
	if d.status.Get().State != device.StatusConnected {
		return device.ErrNotConnected
	}
	d.sleepLatency()
	if err := d.maybeFail(); err != nil {
		return err
	}

	d.mu.Lock()
	d.sent = append(d.sent, Message{Direction: "sent", Payload: payload, At: time.Now()})
	if string(payload) == echoPayload {
		d.echoArmed = true
	}
	d.mu.Unlock()
	return nil
}

// Receive returns the next injected payload, the echoed payload if
// armed, or nil (no error) if nothing is queued.
func (d *Driver) Receive(ctx context.Context) ([]byte, error) {
	if d.status.Get().State != device.StatusConnected {
		return nil, device.ErrNotConnected
	}
	d.sleepLatency()
	if err := d.maybeFail(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.echoArmed {
		d.echoArmed = false
		last := d.sent[len(d.sent)-1].Payload
		return last, nil
	}

	if len(d.receiveQueue) == 0 {
		return nil, nil
	}
	payload := d.receiveQueue[0]
	d.receiveQueue = d.receiveQueue[1:]
	return payload, nil
}

// Heartbeat succeeds iff Connected.
func (d *Driver) Heartbeat(ctx context.Context) error {
	if d.status.Get().State != device.StatusConnected {
		return device.ErrNotConnected
	}
	return d.maybeFail()
}

// Info returns the mock's identity and status.
func (d *Driver) Info() device.Info {
	return device.Info{ID: d.id, Kind: device.KindMock, Name: d.name, Status: d.status.Get()}
}

// Status returns the current status snapshot.
func (d *Driver) Status() device.Status {
	return d.status.Get()
}

// Configure accepts any configuration; the mock has no kind-specific
// validation to perform.
func (d *Driver) Configure(ctx context.Context, cfg device.Config) error {
	return nil
}

// TestConnection connects then immediately disconnects.
func (d *Driver) TestConnection(ctx context.Context) error {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	return d.Disconnect(ctx)
}

// CustomActions reports no custom actions.
func (d *Driver) CustomActions() []device.CustomAction {
	return nil
}

// Custom always fails: the mock declares no custom actions.
func (d *Driver) Custom(ctx context.Context, action device.CustomAction, payload []byte) ([]byte, error) {
	return nil, device.ErrUnsupportedAction
}

// OnSample registers the sample callback (see device.SampleProducer).
func (d *Driver) OnSample(fn func(device.Sample)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSample = fn
}

// EmitSample synthesizes a sample through the registered callback, for
// tests that exercise the fan-out path against a mock device.
func (d *Driver) EmitSample(payload []byte, kindTag string) {
	d.mu.Lock()
	fn := d.onSample
	d.mu.Unlock()
	if fn != nil {
		fn(device.Sample{DeviceID: d.id, MonotonicTimeNs: time.Now().UnixNano(), Payload: payload, KindTag: kindTag})
	}
}

// InjectReceive queues a payload to be returned by a future Receive call.
func (d *Driver) InjectReceive(payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receiveQueue = append(d.receiveQueue, payload)
}

// SentMessages returns a copy of every payload recorded by Send.
func (d *Driver) SentMessages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

var (
	_ device.Driver         = (*Driver)(nil)
	_ device.SampleProducer = (*Driver)(nil)
)

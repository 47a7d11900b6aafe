package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/transport"
)

// Discoverer resolves a DiscoveryFilter to matching remote streams. The
// production implementation wraps pkg/discovery's Browser; tests inject a
// fake so no real mDNS traffic is needed.
type Discoverer interface {
	Browse(ctx context.Context, filter DiscoveryFilter) ([]StreamDescriptor, error)
}

type outlet struct {
	mu       sync.Mutex
	name     string
	format   Format
	channels uint8
	ln       net.Listener
	peers    []*transport.Framer
}

type subscription struct {
	mu       sync.Mutex
	streamID string
	format   Format
	conn     net.Conn
	framer   *transport.Framer
	offset   time.Duration
	cancel   context.CancelFunc
}

// Driver is the sample-bus device.Driver: publishes named outlets that
// peers connect to, and subscribes to remote outlets discovered elsewhere
// on the network.
type Driver struct {
	id         device.ID
	name       string
	discoverer Discoverer
	listen     func(network, address string) (net.Listener, error)
	dial       func(ctx context.Context, network, address string) (net.Conn, error)

	status *device.StatusHolder

	mu       sync.Mutex
	outlets  map[string]*outlet
	subs     map[string]*subscription
	onSample func(device.Sample)
}

// New creates a sample-bus driver. discoverer may be nil if remote stream
// discovery isn't wired; subscribe_stream then requires an explicit
// address.
func New(id device.ID, name string, discoverer Discoverer) *Driver {
	return &Driver{
		id:         id,
		name:       name,
		discoverer: discoverer,
		listen:     net.Listen,
		dial:       (&net.Dialer{}).DialContext,
		status:     device.NewStatusHolder(),
		outlets:    make(map[string]*outlet),
		subs:       make(map[string]*subscription),
	}
}

// Connect marks the driver ready to publish/subscribe; the sample bus has
// no single persistent connection of its own.
func (d *Driver) Connect(ctx context.Context) error {
	d.status.Set(device.StatusConnected, "")
	return nil
}

// Disconnect tears down every outlet and subscription. Idempotent.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	outlets := d.outlets
	subs := d.subs
	d.outlets = make(map[string]*outlet)
	d.subs = make(map[string]*subscription)
	d.mu.Unlock()

	for _, o := range outlets {
		o.ln.Close()
	}
	for _, s := range subs {
		s.cancel()
		s.conn.Close()
	}
	d.status.Set(device.StatusDisconnected, "")
	return nil
}

func (d *Driver) requireConnected() error {
	if d.status.Get().State != device.StatusConnected {
		return device.ErrNotConnected
	}
	return nil
}

// Send is not the bus driver's operating surface; publish/subscribe go
// through Custom actions instead.
func (d *Driver) Send(ctx context.Context, payload []byte) error {
	return device.ErrUnsupportedAction
}

// Receive is not meaningful for the bus driver; samples arrive via the
// push-style OnSample callback.
func (d *Driver) Receive(ctx context.Context) ([]byte, error) {
	return nil, nil
}

// Heartbeat reports success iff Connected.
func (d *Driver) Heartbeat(ctx context.Context) error {
	return d.requireConnected()
}

// Info returns the device's identity, status, and the count of active
// outlets/subscriptions as metadata.
func (d *Driver) Info() device.Info {
	d.mu.Lock()
	outletCount := len(d.outlets)
	subCount := len(d.subs)
	d.mu.Unlock()

	return device.Info{
		ID:   d.id,
		Kind: device.KindSampleBus,
		Name: d.name,
		Metadata: map[string]string{
			"outlets":       fmt.Sprintf("%d", outletCount),
			"subscriptions": fmt.Sprintf("%d", subCount),
		},
		Status: d.status.Get(),
	}
}

// Status returns the current status snapshot.
func (d *Driver) Status() device.Status {
	return d.status.Get()
}

// Configure is a no-op: the bus driver has no reconfigurable fields beyond
// the per-call publish/subscribe parameters.
func (d *Driver) Configure(ctx context.Context, cfg device.Config) error {
	return nil
}

// TestConnection is always reachable: the bus driver holds no persistent
// upstream connection to probe.
func (d *Driver) TestConnection(ctx context.Context) error {
	return nil
}

// CustomActions lists the publish/subscribe operations this driver accepts.
func (d *Driver) CustomActions() []device.CustomAction {
	return []device.CustomAction{
		"publish", "unpublish", "subscribe_stream", "unsubscribe_stream",
		"set_time_correction", "get_time_correction",
	}
}

// Custom dispatches one of CustomActions, parsing payload as the action's
// JSON argument record.
func (d *Driver) Custom(ctx context.Context, action device.CustomAction, payload []byte) ([]byte, error) {
	switch action {
	case "publish":
		var spec PublishSpec
		if err := json.Unmarshal(payload, &spec); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		addr, err := d.Publish(spec)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{"name": spec.Name, "address": addr})

	case "unpublish":
		var args struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		return nil, d.Unpublish(args.Name)

	case "subscribe_stream":
		var args struct {
			StreamID string `json:"stream_id"`
			Address  string `json:"address"`
			Format   Format `json:"format"`
		}
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		return nil, d.SubscribeStream(ctx, args.StreamID, args.Address, args.Format)

	case "unsubscribe_stream":
		var args struct {
			StreamID string `json:"stream_id"`
		}
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		return nil, d.UnsubscribeStream(args.StreamID)

	case "set_time_correction":
		var args struct {
			StreamID string        `json:"stream_id"`
			OffsetNs time.Duration `json:"offset_ns"`
		}
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		return nil, d.SetTimeCorrection(args.StreamID, args.OffsetNs)

	case "get_time_correction":
		var args struct {
			StreamID string `json:"stream_id"`
		}
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		offset, err := d.TimeCorrection(args.StreamID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]int64{"offset_ns": int64(offset)})

	default:
		return nil, device.ErrUnsupportedAction
	}
}

// Publish opens a TCP listener for a named outlet and returns its address.
// Peers connect and are sent every sample passed to PublishSample for that
// outlet, length-prefix framed.
func (d *Driver) Publish(spec PublishSpec) (string, error) {
	if err := d.requireConnected(); err != nil {
		return "", err
	}

	ln, err := d.listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", device.ConnectionFailed(err.Error())
	}

	o := &outlet{name: spec.Name, format: spec.Format, channels: spec.Channels, ln: ln}

	d.mu.Lock()
	if _, exists := d.outlets[spec.Name]; exists {
		d.mu.Unlock()
		ln.Close()
		return "", device.ConfigurationError("outlet already published: " + spec.Name)
	}
	d.outlets[spec.Name] = o
	d.mu.Unlock()

	go d.acceptLoop(o)

	return ln.Addr().String(), nil
}

func (d *Driver) acceptLoop(o *outlet) {
	for {
		conn, err := o.ln.Accept()
		if err != nil {
			return
		}
		o.mu.Lock()
		o.peers = append(o.peers, transport.NewFramer(conn))
		o.mu.Unlock()
	}
}

// PublishSample encodes values (or text, for FormatString) per the
// outlet's declared format and fans the framed payload out to every
// connected peer.
func (d *Driver) PublishSample(name string, values []float64, text string) error {
	d.mu.Lock()
	o, ok := d.outlets[name]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("bus: no published outlet named %q", name)
	}

	encoded, err := EncodeSample(o.format, values, text)
	if err != nil {
		return device.InvalidData(err.Error())
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	live := o.peers[:0]
	for _, peer := range o.peers {
		if err := peer.WriteFrame(encoded); err == nil {
			live = append(live, peer)
		}
	}
	o.peers = live
	return nil
}

// Unpublish stops accepting new peers and closes the outlet's listener.
func (d *Driver) Unpublish(name string) error {
	d.mu.Lock()
	o, ok := d.outlets[name]
	if ok {
		delete(d.outlets, name)
	}
	d.mu.Unlock()
	if !ok {
		return nil
	}
	return o.ln.Close()
}

// SubscribeStream dials a remote outlet's address directly and begins
// decoding its framed sample stream into Sample events. If address is
// empty, the driver's Discoverer is asked to resolve streamID first.
func (d *Driver) SubscribeStream(ctx context.Context, streamID, address string, format Format) error {
	if err := d.requireConnected(); err != nil {
		return err
	}

	if address == "" {
		if d.discoverer == nil {
			return device.ConfigurationError("no discoverer configured and no explicit address given")
		}
		matches, err := d.discoverer.Browse(ctx, DiscoveryFilter{NameRegex: streamID})
		if err != nil {
			return device.ConnectionFailed(err.Error())
		}
		if len(matches) == 0 {
			return device.ConnectionFailed("no matching stream found: " + streamID)
		}
		address = matches[0].Hostname
		if port := matches[0].Metadata["port"]; port != "" {
			address = net.JoinHostPort(matches[0].Hostname, port)
		}
		format = matches[0].Format
	}

	conn, err := d.dial(ctx, "tcp", address)
	if err != nil {
		return device.ConnectionFailed(err.Error())
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		streamID: streamID,
		format:   format,
		conn:     conn,
		framer:   transport.NewFramer(conn),
		cancel:   cancel,
	}

	d.mu.Lock()
	d.subs[streamID] = sub
	d.mu.Unlock()

	go d.readLoop(subCtx, sub)
	return nil
}

func (d *Driver) readLoop(ctx context.Context, sub *subscription) {
	for {
		if ctx.Err() != nil {
			return
		}
		raw, err := sub.framer.ReadFrame()
		if err != nil {
			return
		}

		d.mu.Lock()
		fn := d.onSample
		d.mu.Unlock()
		if fn != nil {
			fn(device.Sample{
				DeviceID:        d.id,
				MonotonicTimeNs: time.Now().UnixNano(),
				Payload:         raw,
				KindTag:         "bus:" + sub.streamID,
			})
		}
	}
}

// UnsubscribeStream stops reading a remote outlet and closes its connection.
func (d *Driver) UnsubscribeStream(streamID string) error {
	d.mu.Lock()
	sub, ok := d.subs[streamID]
	if ok {
		delete(d.subs, streamID)
	}
	d.mu.Unlock()
	if !ok {
		return nil
	}
	sub.cancel()
	return sub.conn.Close()
}

// SetTimeCorrection records the per-remote-stream clock offset the core
// passes through on samples without interpreting it.
func (d *Driver) SetTimeCorrection(streamID string, offset time.Duration) error {
	d.mu.Lock()
	sub, ok := d.subs[streamID]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("bus: no subscription for stream %q", streamID)
	}
	sub.mu.Lock()
	sub.offset = offset
	sub.mu.Unlock()
	return nil
}

// TimeCorrection returns the current offset for a subscribed stream.
func (d *Driver) TimeCorrection(streamID string) (time.Duration, error) {
	d.mu.Lock()
	sub, ok := d.subs[streamID]
	d.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("bus: no subscription for stream %q", streamID)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.offset, nil
}

// OnSample registers the callback invoked for every decoded sample from
// any active subscription.
func (d *Driver) OnSample(fn func(device.Sample)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSample = fn
}

var (
	_ device.Driver         = (*Driver)(nil)
	_ device.SampleProducer = (*Driver)(nil)
)

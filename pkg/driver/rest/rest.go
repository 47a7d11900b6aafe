package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
)

// Defaults for an unconfigured REST-controlled device.
const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 8080
	DefaultTimeout = 5 * time.Second
)

// Config configures a REST controller driver instance.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// DefaultConfig returns the documented defaults for a REST device.
func DefaultConfig() Config {
	return Config{Host: DefaultHost, Port: DefaultPort, Timeout: DefaultTimeout}
}

// commandEnvelope is the JSON alternative wire surface accepted by Send,
// routed to the same command set the HTTP routes expose.
type commandEnvelope struct {
	Command     string `json:"command"`
	Name        string `json:"name,omitempty"`
	TimestampNs *int64 `json:"timestamp_ns,omitempty"`
}

// Driver is the REST-controlled recording device.Driver.
type Driver struct {
	id   device.ID
	name string
	cfg  Config

	client *http.Client
	status *device.StatusHolder

	mu           sync.Mutex
	cachedStatus map[string]any
}

// New creates a REST controller driver against cfg.Host:cfg.Port.
func New(id device.ID, name string, cfg Config) *Driver {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Driver{
		id:     id,
		name:   name,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		status: device.NewStatusHolder(),
	}
}

func (d *Driver) baseURL() string {
	return fmt.Sprintf("http://%s:%d", d.cfg.Host, d.cfg.Port)
}

func (d *Driver) probeStatus(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL()+"/api/status", nil)
	if err != nil {
		return nil, device.Transport(err.Error())
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, device.ConnectionFailed(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, device.CommunicationError(err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, device.ConnectionFailed(fmt.Sprintf("status probe returned %d", resp.StatusCode))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, device.InvalidData(err.Error())
	}
	return parsed, nil
}

// Connect verifies reachability with a GET status probe and caches the
// response for cheap subsequent reads.
func (d *Driver) Connect(ctx context.Context) error {
	status, err := d.probeStatus(ctx)
	if err != nil {
		d.status.Set(device.StatusError, err.Error())
		return err
	}
	d.mu.Lock()
	d.cachedStatus = status
	d.mu.Unlock()
	d.status.Set(device.StatusConnected, "")
	return nil
}

// Disconnect is idempotent: the REST driver holds no persistent socket, so
// this simply marks the device Disconnected and drops the status cache.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	d.cachedStatus = nil
	d.mu.Unlock()
	d.status.Set(device.StatusDisconnected, "")
	return nil
}

func (d *Driver) requireConnected() error {
	if d.status.Get().State != device.StatusConnected {
		return device.ErrNotConnected
	}
	return nil
}

// Send accepts a JSON command envelope and routes it to the matching HTTP
// route. Recognized commands: start_recording (alias recording_start),
// stop_recording (alias recording_stop), send_event, status.
func (d *Driver) Send(ctx context.Context, payload []byte) error {
	if err := d.requireConnected(); err != nil {
		return err
	}

	var env commandEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return device.InvalidData(err.Error())
	}

	_, err := d.dispatch(ctx, env)
	return err
}

// dispatch executes a parsed command envelope against the HTTP peer and
// returns any typed reply payload (e.g. a recording id) for the caller to
// surface as a data response.
func (d *Driver) dispatch(ctx context.Context, env commandEnvelope) (map[string]any, error) {
	switch env.Command {
	case "start_recording", "recording_start":
		return d.postJSON(ctx, "/api/recording/start", nil)
	case "stop_recording", "recording_stop":
		return d.postJSON(ctx, "/api/recording/stop", nil)
	case "send_event":
		body := map[string]any{"name": env.Name}
		if env.TimestampNs != nil {
			body["timestamp"] = *env.TimestampNs
		}
		return d.postJSON(ctx, "/api/event", body)
	case "status":
		status, err := d.probeStatus(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.cachedStatus = status
		d.mu.Unlock()
		return status, nil
	default:
		return nil, device.InvalidData("unrecognized command: " + env.Command)
	}
}

func (d *Driver) postJSON(ctx context.Context, path string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, device.InvalidData(err.Error())
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL()+path, reader)
	if err != nil {
		return nil, device.Transport(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, device.CommunicationError(err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, device.CommunicationError(err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, device.CommunicationError(fmt.Sprintf("%s returned %d", path, resp.StatusCode))
	}

	if len(respBody) == 0 {
		return nil, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, device.InvalidData(err.Error())
	}
	return parsed, nil
}

// Receive is not meaningful for a request/response HTTP peer; the REST
// driver has no buffered inbound queue.
func (d *Driver) Receive(ctx context.Context) ([]byte, error) {
	return nil, nil
}

// Heartbeat reports success iff Connected.
func (d *Driver) Heartbeat(ctx context.Context) error {
	return d.requireConnected()
}

// Info returns the device's identity and status, with host:port recorded
// as metadata.
func (d *Driver) Info() device.Info {
	return device.Info{
		ID:   d.id,
		Kind: device.KindRestController,
		Name: d.name,
		Metadata: map[string]string{
			"host": d.cfg.Host,
			"port": strconv.Itoa(d.cfg.Port),
		},
		Status: d.status.Get(),
	}
}

// Status returns the current status snapshot.
func (d *Driver) Status() device.Status {
	return d.status.Get()
}

// configureWire is the on-wire shape of a REST device's configure
// payload, matching the device-config shape buildDriver decodes at
// startup (see cmd/bridged's restSpec).
type configureWire struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Configure rejects any change while Connected: host/port select the
// peer a cached status was probed from, so they (and the request
// timeout) only apply cleanly before the next Connect.
func (d *Driver) Configure(ctx context.Context, cfg device.Config) error {
	if d.status.Get().State == device.StatusConnected {
		return device.ConfigurationError("not reconfigurable while connected")
	}

	if cfg.IOTimeoutMS > 0 {
		d.mu.Lock()
		d.cfg.Timeout = time.Duration(cfg.IOTimeoutMS) * time.Millisecond
		d.client.Timeout = d.cfg.Timeout
		d.mu.Unlock()
	}

	if len(cfg.KindSpecific) == 0 {
		return nil
	}

	var w configureWire
	if err := json.Unmarshal(cfg.KindSpecific, &w); err != nil {
		return device.ConfigurationError(err.Error())
	}

	d.mu.Lock()
	if w.Host != "" {
		d.cfg.Host = w.Host
	}
	if w.Port > 0 {
		d.cfg.Port = w.Port
	}
	d.mu.Unlock()
	return nil
}

// TestConnection probes status without leaving the driver Connected.
func (d *Driver) TestConnection(ctx context.Context) error {
	_, err := d.probeStatus(ctx)
	return err
}

// CustomActions lists the command names this driver accepts via Custom.
func (d *Driver) CustomActions() []device.CustomAction {
	return []device.CustomAction{"start_recording", "stop_recording", "send_event", "status"}
}

// Custom invokes one of CustomActions, forwarding payload as the command
// envelope's arguments and returning any typed reply as JSON.
func (d *Driver) Custom(ctx context.Context, action device.CustomAction, payload []byte) ([]byte, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}

	env := commandEnvelope{Command: string(action)}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, device.InvalidData(err.Error())
		}
		env.Command = string(action)
	}

	result, err := d.dispatch(ctx, env)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return json.Marshal(result)
}

var _ device.Driver = (*Driver)(nil)

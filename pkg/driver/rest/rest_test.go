package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
)

func newTestDriver(t *testing.T, srv *httptest.Server) *Driver {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	return New("pupil", "eye tracker", Config{Host: u.Hostname(), Port: port})
}

func TestDriverConnectCachesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"battery_level": 0.8, "sensors": []string{"eye"}})
	}))
	defer srv.Close()

	drv := newTestDriver(t, srv)
	if err := drv.Connect(t.Context()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if drv.Status().State != device.StatusConnected {
		t.Errorf("Status = %v, want Connected", drv.Status().State)
	}
}

func TestDriverRecordingLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			json.NewEncoder(w).Encode(map[string]any{})
		case "/api/recording/start":
			json.NewEncoder(w).Encode(map[string]any{"recording_id": "r-1"})
		case "/api/recording/stop":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	drv := newTestDriver(t, srv)
	if err := drv.Connect(t.Context()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	result, err := drv.Custom(t.Context(), "start_recording", nil)
	if err != nil {
		t.Fatalf("Custom(start_recording) failed: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(result, &parsed); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if parsed["recording_id"] != "r-1" {
		t.Errorf("recording_id = %v, want r-1", parsed["recording_id"])
	}

	if _, err := drv.Custom(t.Context(), "stop_recording", nil); err != nil {
		t.Fatalf("Custom(stop_recording) failed: %v", err)
	}
}

func TestDriverSendEnvelope(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			json.NewEncoder(w).Encode(map[string]any{})
		case "/api/event":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			gotName, _ = body["name"].(string)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	drv := newTestDriver(t, srv)
	drv.Connect(t.Context())

	payload, _ := json.Marshal(map[string]any{"command": "send_event", "name": "trial_start", "timestamp_ns": int64(123)})
	if err := drv.Send(t.Context(), payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotName != "trial_start" {
		t.Errorf("event name = %q, want trial_start", gotName)
	}
}

func TestDriverSendRequiresConnected(t *testing.T) {
	drv := New("pupil", "eye tracker", DefaultConfig())
	payload, _ := json.Marshal(map[string]any{"command": "status"})
	if err := drv.Send(t.Context(), payload); err != device.ErrNotConnected {
		t.Errorf("Send before connect: got %v, want ErrNotConnected", err)
	}
}

func TestDriverUnrecognizedCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	drv := newTestDriver(t, srv)
	drv.Connect(t.Context())

	payload, _ := json.Marshal(map[string]any{"command": "reticulate_splines"})
	err := drv.Send(t.Context(), payload)
	if device.ErrorCode(err) != "invalid_data" {
		t.Errorf("got %v, want invalid_data", err)
	}
}

func TestDriverConfigureRejectedWhileConnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	drv := newTestDriver(t, srv)
	drv.Connect(t.Context())

	if err := drv.Configure(t.Context(), device.Config{}); device.ErrorCode(err) != "configuration_error" {
		t.Errorf("Configure while connected: got %v, want configuration_error", err)
	}
}

func TestDriverConfigureAppliesFieldsWhileDisconnected(t *testing.T) {
	drv := New("pupil", "eye tracker", DefaultConfig())

	cfg := device.Config{
		IOTimeoutMS:  250,
		KindSpecific: []byte(`{"host":"10.0.0.7","port":9443}`),
	}
	if err := drv.Configure(t.Context(), cfg); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	info := drv.Info()
	if got := info.Metadata["host"]; got != "10.0.0.7" {
		t.Errorf("host metadata = %q, want 10.0.0.7", got)
	}
	if got := info.Metadata["port"]; got != "9443" {
		t.Errorf("port metadata = %q, want 9443", got)
	}
	if drv.cfg.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", drv.cfg.Timeout)
	}
	if drv.client.Timeout != 250*time.Millisecond {
		t.Errorf("client.Timeout = %v, want 250ms", drv.client.Timeout)
	}
}

var _ device.Driver = (*Driver)(nil)

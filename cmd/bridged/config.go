package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// DeviceSpec is the on-disk description of one device to register at
// startup. KindSpecific carries kind-dependent fields as a raw JSON
// object, decoded by buildDriver once the kind is known.
type DeviceSpec struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Name         string          `json:"name"`
	KindSpecific json.RawMessage `json:"config,omitempty"`
}

// BridgeConfig is the top-level shape of the config file passed to
// -config. It stands in for the out-of-core configuration loader named
// in the external interfaces: bridged itself only ever consumes the
// already-parsed []DeviceSpec and ListenPort this produces.
type BridgeConfig struct {
	ListenPort      int          `json:"listen_port"`
	Devices         []DeviceSpec `json:"devices"`
	HotplugVidPid   []string     `json:"hotplug_vid_pid,omitempty"`
	ProtocolLogFile string       `json:"protocol_log_file,omitempty"`
}

// DefaultListenPort is used when a config omits listen_port.
const DefaultListenPort = 8420

func loadConfig(path string) (BridgeConfig, error) {
	if path == "" {
		return BridgeConfig{ListenPort: DefaultListenPort}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return BridgeConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg BridgeConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return BridgeConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ListenPort <= 0 {
		cfg.ListenPort = DefaultListenPort
	}
	return cfg, nil
}

// serialSpec, tcpSpec, restSpec are the kind-specific config shapes
// embedded in DeviceSpec.KindSpecific for their respective kinds.
type serialSpec struct {
	PortName   string `json:"port_name"`
	BaudRate   int    `json:"baud_rate"`
	PulseWidth int    `json:"pulse_width_ms"`
}

type tcpSpec struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type restSpec struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

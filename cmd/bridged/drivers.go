package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/driver/bus"
	"github.com/bridged-io/bridged/pkg/driver/mock"
	"github.com/bridged-io/bridged/pkg/driver/rest"
	"github.com/bridged-io/bridged/pkg/driver/serial"
	"github.com/bridged-io/bridged/pkg/driver/tcp"
	"github.com/bridged-io/bridged/pkg/envelope"
	"github.com/bridged-io/bridged/pkg/fanout"
	"github.com/bridged-io/bridged/pkg/log"
	"github.com/bridged-io/bridged/pkg/perfacct"
)

// buildDriver constructs the device.Driver named by spec.Kind. The
// sample-bus kind shares one Discoverer across every bus device, since
// stream discovery is a process-wide concern, not a per-device one.
func buildDriver(spec DeviceSpec, logger log.Logger, busDiscoverer bus.Discoverer) (device.Driver, error) {
	switch spec.Kind {
	case "serial":
		var ks serialSpec
		if err := decodeKindSpecific(spec.KindSpecific, &ks); err != nil {
			return nil, err
		}
		cfg := serial.DefaultConfig()
		cfg.PortName = ks.PortName
		if ks.BaudRate > 0 {
			cfg.Baud = ks.BaudRate
		}
		if ks.PulseWidth > 0 {
			cfg.PulseWidth = time.Duration(ks.PulseWidth) * time.Millisecond
		}
		return serial.New(device.ID(spec.ID), spec.Name, cfg, nil, logger), nil

	case "tcp":
		var ks tcpSpec
		if err := decodeKindSpecific(spec.KindSpecific, &ks); err != nil {
			return nil, err
		}
		cfg := tcp.DefaultConfig()
		if ks.Host != "" {
			cfg.Host = ks.Host
		}
		if ks.Port > 0 {
			cfg.Port = ks.Port
		}
		return tcp.New(device.ID(spec.ID), spec.Name, cfg, nil), nil

	case "rest":
		var ks restSpec
		if err := decodeKindSpecific(spec.KindSpecific, &ks); err != nil {
			return nil, err
		}
		cfg := rest.DefaultConfig()
		if ks.Host != "" {
			cfg.Host = ks.Host
		}
		if ks.Port > 0 {
			cfg.Port = ks.Port
		}
		return rest.New(device.ID(spec.ID), spec.Name, cfg), nil

	case "bus":
		return bus.New(device.ID(spec.ID), spec.Name, busDiscoverer), nil

	case "mock":
		return mock.New(device.ID(spec.ID), spec.Name), nil

	default:
		return nil, fmt.Errorf("unrecognized device kind %q for device %q", spec.Kind, spec.ID)
	}
}

func decodeKindSpecific(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode device config: %w", err)
	}
	return nil
}

// wireDriverEvents registers drv's optional async hooks (sample delivery,
// reconnect-exhaustion, per-write performance sampling) against the
// shared fan-out manager and accountant, if drv implements them. The
// sample-bus, streaming TCP and mock drivers implement
// device.SampleProducer, the streaming TCP driver also reports reconnect
// exhaustion, and the serial driver reports write performance; the REST
// driver implements none of these.
func wireDriverEvents(id string, drv device.Driver, fanoutMgr *fanout.Manager, perf *perfacct.Accountant) {
	if sp, ok := drv.(device.SampleProducer); ok {
		sp.OnSample(func(s device.Sample) {
			fanoutMgr.Publish(fanout.Event{
				DeviceID: string(s.DeviceID),
				Kind:     "sample",
				Payload: map[string]any{
					"payload":           s.Payload,
					"kind_tag":          s.KindTag,
					"monotonic_time_ns": s.MonotonicTimeNs,
				},
				Timestamp: time.Unix(0, s.MonotonicTimeNs),
			})
		})
	}

	if ep, ok := drv.(interface{ OnDeviceError(func(string)) }); ok {
		ep.OnDeviceError(func(reason string) {
			fanoutMgr.Publish(fanout.Event{
				DeviceID:  id,
				Kind:      envelope.EventDeviceError,
				Payload:   map[string]string{"reason": reason},
				Timestamp: time.Now(),
			})
		})
	}

	if ps, ok := drv.(interface {
		OnPerformanceSample(func(time.Duration, int))
	}); ok {
		ps.OnPerformanceSample(func(latency time.Duration, bytesWritten int) {
			perf.Record(perfacct.Operation{
				DeviceID:    id,
				BytesSent:   bytesWritten,
				Latency:     latency,
				CompletedAt: time.Now(),
			})
		})
	}
}

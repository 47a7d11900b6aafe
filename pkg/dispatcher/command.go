package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/envelope"
	"github.com/bridged-io/bridged/pkg/perfacct"
	"github.com/bridged-io/bridged/pkg/registry"
)

// configWire is the on-wire shape of a configure command's payload.
type configWire struct {
	AutoReconnect       bool            `json:"auto_reconnect"`
	ReconnectIntervalMS uint32          `json:"reconnect_interval_ms"`
	IOTimeoutMS         uint32          `json:"io_timeout_ms"`
	KindSpecific        json.RawMessage `json:"kind_specific,omitempty"`
}

// handleCommand resolves cmd.Device, performs the requested action under
// the device's exclusive handle with an outer timeout, and emits the
// data/ack/error responses the action produced.
func (s *session) handleCommand(cmd *envelope.Command) {
	start := time.Now()

	ioTimeout := time.Duration(device.DefaultIOTimeoutMS) * time.Millisecond
	ctx, cancel := context.WithTimeout(s.ctx, ioTimeout)
	defer cancel()

	var reply any
	err := s.server.reg.Do(ctx, device.ID(cmd.Device), func(ctx context.Context, drv device.Driver) error {
		var opErr error
		reply, opErr = s.invoke(ctx, drv, cmd)
		return opErr
	})

	s.server.perf.Record(perfacct.Operation{
		DeviceID:    cmd.Device,
		Latency:     time.Since(start),
		Err:         err,
		CompletedAt: time.Now(),
	})

	if errors.Is(err, registry.ErrNotFound) {
		s.emit(envelope.ErrorResponse{
			Device:  cmd.Device,
			Message: "unknown device",
			Code:    envelope.CodeUnknownDevice,
			TsMs:    nowMs(),
		})
		if cmd.ID != "" {
			s.emit(envelope.AckResponse{ID: cmd.ID, Success: false, Message: "unknown device", TsMs: nowMs()})
		}
		return
	}

	if err == nil && reply != nil {
		s.emit(envelope.DataResponse{Device: cmd.Device, Payload: reply, TsMs: nowMs()})
	}

	switch {
	case cmd.ID != "":
		ack := envelope.AckResponse{ID: cmd.ID, Success: err == nil, TsMs: nowMs()}
		if err != nil {
			ack.Message = err.Error()
		}
		s.emit(ack)
	case err != nil:
		s.emit(envelope.ErrorResponse{
			Device:  cmd.Device,
			Message: err.Error(),
			Code:    device.ErrorCode(err),
			TsMs:    nowMs(),
		})
	}

	if err != nil {
		s.logError(device.ErrorCode(err), err.Error(), string(cmd.Action))
	}
}

// invoke performs the action named by cmd against drv, returning a typed
// reply for actions that produce one (status, custom).
func (s *session) invoke(ctx context.Context, drv device.Driver, cmd *envelope.Command) (any, error) {
	switch cmd.Action {
	case envelope.ActionConnect:
		return nil, drv.Connect(ctx)
	case envelope.ActionDisconnect:
		return nil, drv.Disconnect(ctx)
	case envelope.ActionSend:
		return nil, drv.Send(ctx, cmd.Payload)
	case envelope.ActionConfigure:
		cfg, err := decodeConfig(cmd.Payload)
		if err != nil {
			return nil, device.ConfigurationError(err.Error())
		}
		return nil, drv.Configure(ctx, cfg)
	case envelope.ActionStatus:
		return drv.Status(), nil
	case envelope.ActionHeartbeat:
		return nil, drv.Heartbeat(ctx)
	case envelope.ActionCustom:
		return s.invokeCustom(ctx, drv, cmd)
	default:
		return nil, device.ConfigurationError("unrecognized action: " + string(cmd.Action))
	}
}

func (s *session) invokeCustom(ctx context.Context, drv device.Driver, cmd *envelope.Command) (any, error) {
	action := device.CustomAction(cmd.Custom)
	supported := false
	for _, a := range drv.CustomActions() {
		if a == action {
			supported = true
			break
		}
	}
	if !supported {
		return nil, device.ErrUnsupportedAction
	}

	reply, err := drv.Custom(ctx, action, cmd.Payload)
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, nil
	}
	return json.RawMessage(reply), nil
}

func decodeConfig(payload json.RawMessage) (device.Config, error) {
	if len(payload) == 0 {
		return device.Config{}, nil
	}
	var w configWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return device.Config{}, err
	}
	return device.Config{
		AutoReconnect:       w.AutoReconnect,
		ReconnectIntervalMS: w.ReconnectIntervalMS,
		IOTimeoutMS:         w.IOTimeoutMS,
		KindSpecific:        w.KindSpecific,
	}, nil
}

package dispatcher

import (
	"errors"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/envelope"
	"github.com/bridged-io/bridged/pkg/registry"
)

// handleQuery answers a read-only query. It never acquires a device's
// exclusive handle: device/status reads go through the registry's O(1)
// snapshot path, and metrics reads go through the accountant directly.
func (s *session) handleQuery(q *envelope.Query) {
	data, err := s.resolveQuery(q)
	if err != nil {
		code := envelope.CodeUnsupportedQuery
		if errors.Is(err, registry.ErrNotFound) {
			code = envelope.CodeUnknownDevice
		}
		s.emit(envelope.ErrorResponse{Device: q.Device, Message: err.Error(), Code: code, TsMs: nowMs()})
		return
	}
	s.emit(envelope.QueryResultResponse{ID: q.ID, Data: data, TsMs: nowMs()})
}

func (s *session) resolveQuery(q *envelope.Query) (any, error) {
	switch q.Target {
	case envelope.TargetDevices:
		return s.server.reg.List(), nil

	case envelope.TargetDevice:
		return s.server.reg.Info(device.ID(q.Device))

	case envelope.TargetStatus:
		if q.Device != "" {
			return s.server.reg.Status(device.ID(q.Device))
		}
		infos := s.server.reg.List()
		out := make(map[string]device.Status, len(infos))
		for _, info := range infos {
			out[string(info.ID)] = info.Status
		}
		return out, nil

	case envelope.TargetMetrics:
		if q.Device != "" {
			return s.server.perf.Snapshot(q.Device), nil
		}
		infos := s.server.reg.List()
		out := make(map[string]any, len(infos))
		for _, info := range infos {
			out[string(info.ID)] = s.server.perf.Snapshot(string(info.ID))
		}
		return out, nil

	case envelope.TargetConnections:
		return map[string]int{"subscriptions": s.server.fanout.SubscriberCount()}, nil

	default:
		return nil, errors.New("unrecognized query target: " + string(q.Target))
	}
}

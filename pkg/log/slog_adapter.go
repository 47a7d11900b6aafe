package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level, or Error level
// when the event carries an Error payload (and no Frame, Command,
// StateChange or Sample payload).
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.Direction != DirectionNone {
		attrs = append(attrs, slog.String("direction", event.Direction.String()))
	}
	if event.Message != "" {
		attrs = append(attrs, slog.String("message", event.Message))
	}

	level := slog.LevelDebug

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
		if event.Frame.LatencyNs > 0 {
			attrs = append(attrs, slog.Int64("latency_ns", event.Frame.LatencyNs))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("action", event.Command.Action),
			slog.Bool("success", event.Command.Success),
		)
		if event.Command.RequestID != "" {
			attrs = append(attrs, slog.String("request_id", event.Command.RequestID))
		}
		if event.Command.ProcessingTimeNs > 0 {
			attrs = append(attrs, slog.Int64("processing_time_ns", event.Command.ProcessingTimeNs))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Sample != nil:
		attrs = append(attrs,
			slog.Int("delivered", event.Sample.Delivered),
			slog.Int("dropped", event.Sample.Dropped),
		)
		if event.Sample.SubscriberID != "" {
			attrs = append(attrs, slog.String("subscriber_id", event.Sample.SubscriberID))
		}
	case event.Error != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Code != "" {
			attrs = append(attrs, slog.String("error_code", event.Error.Code))
		}
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "bridge_event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)

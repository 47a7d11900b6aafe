// Package log provides structured protocol logging for the bridge.
//
// This package defines the Logger interface and Event types for capturing
// bridge-level events at multiple layers (transport, device, dispatcher,
// fanout). It is separate from the external telemetry sink collaborator:
// protocol capture here is the bridge's own diagnostic trail, never
// persisted by the core beyond an optional local file.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For an offline protocol trace: write to a binary file
//	fileLogger, _ := log.NewFileLogger("/var/log/bridged/session.blog")
//
//	// Both at once: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw frame bytes (FrameEvent)
//   - Dispatcher: dispatched commands and acks (CommandEvent)
//   - Device/Fanout: state changes and sample delivery (StateChangeEvent, SampleEvent)
//
// Errors have a dedicated event type at any layer.
package log

// Package connection provides connection lifecycle management for
// reconnecting transport drivers, notably the TCP streaming device.
//
// This package handles:
//   - Exponential backoff for reconnection attempts
//   - Jitter to prevent thundering herd against a single device
//   - Connection state tracking (Disconnected, Connecting, Connected, Error)
//   - Automatic reconnection on connection loss, bounded by a retry budget
//
// # Reconnection strategy
//
// When a connection is lost and auto-reconnect is enabled, the manager
// retries with exponential backoff:
//
//  1. Initial delay: 1 second (configurable)
//  2. Exponential increase by a configurable multiplier, default 2x
//  3. Capped at a configurable maximum delay, default 60 seconds
//  4. Reset to the initial delay on successful reconnection
//
// # Jitter
//
// To avoid synchronized reconnect storms when several devices drop at once:
//
//	actual_delay = base_delay + random(0, base_delay * jitter_factor)
//
// # Exhaustion
//
// If a MaxAttempts budget is configured and exceeded, the manager stops
// retrying and transitions to StateError with ErrReconnectExhausted as the
// recorded reason. A caller must invoke Connect again to leave that state;
// the manager does not retry on its own once exhausted.
package connection

// Package fanout broadcasts per-device events to subscribed clients.
//
// A client subscribes with a device ID (or none, for every device) and a
// set of event kinds (or none, for every kind on that device). The
// manager indexes subscriptions by device ID so a publish only walks the
// subscribers that could plausibly want the event.
//
// # Delivery
//
// Each subscriber owns a bounded channel (DefaultCapacity items). A
// publish never blocks the producer: when a subscriber's channel is full
// the oldest pending event is dropped to make room for the new one.
// Per-subscriber ordering of delivered events is preserved; across
// subscribers and across devices no ordering is promised.
//
// # Drop accounting
//
// A subscriber that loses events has its drop counter incremented, and
// receives a synthetic KindSamplesDropped event carrying the running
// count, throttled to at most once per DropNoticeInterval so a
// persistently slow consumer isn't itself flooded.
//
// # Lifecycle
//
// Subscriptions do not survive client disconnection; callers are
// expected to call UnsubscribeClient when a session ends. Unsubscribing
// an unknown or already-removed subscription is a no-op.
package fanout

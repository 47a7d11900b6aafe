// Package discovery implements mDNS/DNS-SD discovery for sample bus streams.
//
// The sample bus driver advertises each stream it publishes under a single
// service type so other bridge instances on the local network can find and
// subscribe to it without static configuration.
//
// # Stream discovery (_bridgestream._udp)
//
// Instance name format: stream-<stream-id>
// TXT records: SID (stream ID), DI (originating device ID), SR (sample rate
// in Hz), CH (channel count), and optionally FM (sample encoding, e.g.
// "f32le").
//
// Browsing aggregates service entries by instance name, merging addresses
// seen on multiple interfaces into a single StreamService and emitting a
// removal only once every address for an instance has disappeared.
package discovery

// Package bus implements the sample-bus device.Driver: a multicast-style
// stream of samples published as named outlets (discoverable over mDNS via
// pkg/discovery) and consumed by subscribing to a matching remote outlet
// and decoding its framed sample stream (pkg/transport's length-prefixed
// framing) into Sample events.
package bus

package main

import (
	"context"

	"github.com/bridged-io/bridged/pkg/driver/bus"
)

// noopDiscoverer is the fallback bus.Discoverer used when mDNS discovery
// could not be initialized (e.g. no multicast-capable interface): bus
// devices still register and accept direct SubscribeStream/Publish calls,
// they just can't resolve a stream by discovery query.
type noopDiscoverer struct{}

func (noopDiscoverer) Browse(context.Context, bus.DiscoveryFilter) ([]bus.StreamDescriptor, error) {
	return nil, nil
}

package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3/api"
)

// Advertiser provides mDNS advertising capabilities for sample bus streams.
type Advertiser interface {
	// AdvertiseStream starts advertising a sample bus stream.
	AdvertiseStream(ctx context.Context, info *StreamInfo) error

	// UpdateStream updates TXT records for an advertised stream.
	UpdateStream(streamID string, info *StreamInfo) error

	// StopStream stops advertising a stream.
	StopStream(streamID string) error

	// StopAll stops all advertisements.
	StopAll()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration

	// Quiet suppresses all mDNS network operations. When true, the
	// advertiser methods return nil without sending any multicast
	// traffic, while the DiscoveryManager still tracks state correctly.
	// Use this in test mode where the test harness connects directly by
	// address.
	Quiet bool

	// ConnectionFactory creates multicast connections.
	// If nil, uses the default zeroconf connection factory.
	// Set this in tests to inject mock connections.
	ConnectionFactory api.ConnectionFactory

	// InterfaceProvider lists network interfaces.
	// If nil, uses the default zeroconf interface provider.
	// Set this in tests to inject mock interface lists.
	InterfaceProvider api.InterfaceProvider
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       120 * time.Second,
	}
}

// DiscoveryManager tracks which sample bus streams are currently advertised
// and drives the underlying Advertiser.
type DiscoveryManager struct {
	mu sync.RWMutex

	advertiser Advertiser

	streams map[string]*StreamInfo

	onStreamAdded   func(*StreamInfo)
	onStreamRemoved func(streamID string)
}

// NewDiscoveryManager creates a new discovery manager.
func NewDiscoveryManager(advertiser Advertiser) *DiscoveryManager {
	return &DiscoveryManager{
		advertiser: advertiser,
		streams:    make(map[string]*StreamInfo),
	}
}

// OnStreamAdded sets a callback invoked when a stream starts being advertised.
func (m *DiscoveryManager) OnStreamAdded(fn func(*StreamInfo)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStreamAdded = fn
}

// OnStreamRemoved sets a callback invoked when a stream stops being advertised.
func (m *DiscoveryManager) OnStreamRemoved(fn func(streamID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStreamRemoved = fn
}

// AddStream starts advertising a sample bus stream.
func (m *DiscoveryManager) AddStream(ctx context.Context, info *StreamInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.streams[info.StreamID]; exists {
		m.mu.Unlock()
		return ErrAlreadyExists
	}
	m.mu.Unlock()

	if err := m.advertiser.AdvertiseStream(ctx, info); err != nil {
		return err
	}

	m.mu.Lock()
	m.streams[info.StreamID] = info
	cb := m.onStreamAdded
	m.mu.Unlock()

	if cb != nil {
		cb(info)
	}
	return nil
}

// UpdateStream updates an advertised stream's TXT records.
func (m *DiscoveryManager) UpdateStream(info *StreamInfo) error {
	m.mu.Lock()
	if _, exists := m.streams[info.StreamID]; !exists {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.mu.Unlock()

	if err := m.advertiser.UpdateStream(info.StreamID, info); err != nil {
		return err
	}

	m.mu.Lock()
	m.streams[info.StreamID] = info
	m.mu.Unlock()
	return nil
}

// RemoveStream stops advertising a stream.
func (m *DiscoveryManager) RemoveStream(streamID string) error {
	m.mu.Lock()
	if _, exists := m.streams[streamID]; !exists {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.mu.Unlock()

	if err := m.advertiser.StopStream(streamID); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.streams, streamID)
	cb := m.onStreamRemoved
	m.mu.Unlock()

	if cb != nil {
		cb(streamID)
	}
	return nil
}

// StreamCount returns the number of actively advertised streams.
func (m *DiscoveryManager) StreamCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streams)
}

// Stop stops all advertising and clears tracked state.
func (m *DiscoveryManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.advertiser.StopAll()
	m.streams = make(map[string]*StreamInfo)
}

package discovery

import (
	"context"
	"time"

	"github.com/enbility/zeroconf/v3/api"
)

// Browser provides mDNS service browsing capabilities for sample bus streams.
type Browser interface {
	// BrowseStreams searches for sample bus streams advertised on the network.
	// Returns two channels: added (new streams) and removed (streams that
	// disappeared). Both channels are closed when the context is cancelled.
	BrowseStreams(ctx context.Context) (added, removed <-chan *StreamService, err error)

	// FindByStreamID searches for a specific stream by ID.
	// Returns when found or when context is cancelled/timeout.
	FindByStreamID(ctx context.Context, streamID string) (*StreamService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// ConnectionFactory creates multicast connections.
	// If nil, uses the default zeroconf connection factory.
	// Set this in tests to inject mock connections.
	ConnectionFactory api.ConnectionFactory

	// InterfaceProvider lists network interfaces.
	// If nil, uses the default zeroconf interface provider.
	// Set this in tests to inject mock interface lists.
	InterfaceProvider api.InterfaceProvider
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// FilterFunc filters discovered stream services.
type FilterFunc func(*StreamService) bool

// FilterByDeviceID returns a filter that matches streams from a given device.
func FilterByDeviceID(deviceID string) FilterFunc {
	return func(svc *StreamService) bool {
		return svc.DeviceID == deviceID
	}
}

// FilterByFormat returns a filter that matches streams with a given sample
// encoding.
func FilterByFormat(format string) FilterFunc {
	return func(svc *StreamService) bool {
		return svc.Format == format
	}
}

// FilterBrowseResults filters a channel of stream services.
func FilterBrowseResults(in <-chan *StreamService, filter FilterFunc) <-chan *StreamService {
	out := make(chan *StreamService)
	go func() {
		defer close(out)
		for svc := range in {
			if filter(svc) {
				out <- svc
			}
		}
	}()
	return out
}

// ServiceEntry carries the raw fields of a discovered mDNS service entry,
// independent of the underlying mDNS library.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToStreamService converts a ServiceEntry to a StreamService.
func (e *ServiceEntry) ToStreamService() (*StreamService, error) {
	txt := StringsToTXTRecords(e.Text)
	info, err := DecodeStreamTXT(txt)
	if err != nil {
		return nil, err
	}

	return &StreamService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         e.Port,
		Addresses:    e.Addrs,
		StreamID:     info.StreamID,
		DeviceID:     info.DeviceID,
		SampleRateHz: info.SampleRateHz,
		Channels:     info.Channels,
		Format:       info.Format,
	}, nil
}

package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu sync.Mutex

	servers map[string]*zeroconf.Server // keyed by streamID
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	return &MDNSAdvertiser{
		config:  config,
		servers: make(map[string]*zeroconf.Server),
	}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// serverOptions returns zeroconf server options based on config.
func (a *MDNSAdvertiser) serverOptions() []zeroconf.ServerOption {
	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}
	if a.config.ConnectionFactory != nil {
		opts = append(opts, zeroconf.WithServerConnFactory(a.config.ConnectionFactory))
	}
	if a.config.InterfaceProvider != nil {
		opts = append(opts, zeroconf.WithServerInterfaceProvider(a.config.InterfaceProvider))
	}
	return opts
}

// AdvertiseStream starts advertising a sample bus stream.
func (a *MDNSAdvertiser) AdvertiseStream(ctx context.Context, info *StreamInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if server, exists := a.servers[info.StreamID]; exists {
		server.Shutdown()
		delete(a.servers, info.StreamID)
	}

	if a.config.Quiet {
		return nil
	}

	instanceName := InstanceName(info.StreamID)

	txtRecords := EncodeStreamTXT(info)
	txtStrings := TXTRecordsToStrings(txtRecords)

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	ifaces := a.getInterfaces()
	opts := a.serverOptions()

	server, err := zeroconf.Register(
		instanceName,
		ServiceTypeStream,
		Domain,
		port,
		txtStrings,
		ifaces,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("register stream %s: %w", info.StreamID, err)
	}

	a.servers[info.StreamID] = server
	return nil
}

// UpdateStream updates TXT records for an advertised stream.
func (a *MDNSAdvertiser) UpdateStream(streamID string, info *StreamInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Quiet {
		return nil
	}

	server, exists := a.servers[streamID]
	if !exists {
		return ErrNotFound
	}

	txtRecords := EncodeStreamTXT(info)
	txtStrings := TXTRecordsToStrings(txtRecords)
	server.SetText(txtStrings)

	return nil
}

// StopStream stops advertising a stream.
func (a *MDNSAdvertiser) StopStream(streamID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Quiet {
		return nil
	}

	server, exists := a.servers[streamID]
	if !exists {
		return ErrNotFound
	}

	server.Shutdown()
	delete(a.servers, streamID)
	return nil
}

// StopAll stops all active advertisements.
func (a *MDNSAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, server := range a.servers {
		server.Shutdown()
		delete(a.servers, id)
	}
}

// Ensure MDNSAdvertiser implements Advertiser interface.
var _ Advertiser = (*MDNSAdvertiser)(nil)

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) (*MDNSBrowser, error) {
	return &MDNSBrowser{
		config: config,
	}, nil
}

// BrowseStreams searches for sample bus streams.
// Services are aggregated by instance name - addresses from multiple
// interfaces are combined into a single entry. Both returned channels are
// closed when the context is cancelled.
func (b *MDNSBrowser) BrowseStreams(ctx context.Context) (added, removed <-chan *StreamService, err error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	prev := b.cancel
	b.cancel = func() {
		if prev != nil {
			prev()
		}
		cancel()
	}
	b.mu.Unlock()

	addedCh := make(chan *StreamService)
	removedCh := make(chan *StreamService)

	entries := make(chan *zeroconf.ServiceEntry)
	removedEntries := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		defer close(addedCh)
		defer close(removedCh)

		services := make(map[string]*StreamService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := b.entryToStream(entry)
				if svc == nil {
					continue
				}

				existing, found := services[svc.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				} else {
					services[svc.InstanceName] = svc
					select {
					case addedCh <- svc:
					case <-ctx.Done():
						return
					}
				}

			case entry, ok := <-removedEntries:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
						select {
						case removedCh <- existing:
						case <-ctx.Done():
							return
						}
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeStream, Domain, entries, removedEntries, opts...)
	}()

	return addedCh, removedCh, nil
}

// FindByStreamID searches for a specific stream by ID.
func (b *MDNSBrowser) FindByStreamID(ctx context.Context, streamID string) (*StreamService, error) {
	added, _, err := b.BrowseStreams(ctx)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case svc, ok := <-added:
			if !ok {
				return nil, ErrNotFound
			}
			if svc.StreamID == streamID {
				return svc, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	if b.cancel != nil {
		b.cancel()
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	if b.config.ConnectionFactory != nil {
		opts = append(opts, zeroconf.WithClientConnFactory(b.config.ConnectionFactory))
	}

	if b.config.InterfaceProvider != nil {
		opts = append(opts, zeroconf.WithClientInterfaceProvider(b.config.InterfaceProvider))
	}

	return opts
}

// entryToStream converts a zeroconf entry to a StreamService.
func (b *MDNSBrowser) entryToStream(entry *zeroconf.ServiceEntry) *StreamService {
	txt := StringsToTXTRecords(entry.Text)
	info, err := DecodeStreamTXT(txt)
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &StreamService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		StreamID:     info.StreamID,
		DeviceID:     info.DeviceID,
		SampleRateHz: info.SampleRateHz,
		Channels:     info.Channels,
		Format:       info.Format,
	}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, newAddrs []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range newAddrs {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes addresses from a zeroconf entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

package main

import (
	"context"
	"strconv"

	"github.com/bridged-io/bridged/pkg/discovery"
	"github.com/bridged-io/bridged/pkg/driver/bus"
)

// mdnsDiscoverer adapts discovery.Browser's channel-based BrowseStreams to
// bus.Discoverer's one-shot Browse call: it collects whatever streams
// arrive on the added channel for the filter's timeout (or
// discovery.BrowseTimeout if unset) and returns them as a batch.
type mdnsDiscoverer struct {
	browser discovery.Browser
}

func newMDNSDiscoverer() (bus.Discoverer, error) {
	b, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		return nil, err
	}
	return &mdnsDiscoverer{browser: b}, nil
}

func (d *mdnsDiscoverer) Browse(ctx context.Context, filter bus.DiscoveryFilter) ([]bus.StreamDescriptor, error) {
	timeout := filter.Timeout
	if timeout <= 0 {
		timeout = discovery.BrowseTimeout
	}
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	added, _, err := d.browser.BrowseStreams(browseCtx)
	if err != nil {
		return nil, err
	}

	var out []bus.StreamDescriptor
	for {
		select {
		case svc, ok := <-added:
			if !ok {
				return out, nil
			}
			if filter.NameRegex != "" && svc.StreamID != filter.NameRegex {
				continue
			}
			out = append(out, bus.StreamDescriptor{
				Name:         svc.StreamID,
				SourceID:     svc.DeviceID,
				Channels:     svc.Channels,
				SampleRateHz: svc.SampleRateHz,
				Format:       bus.Format(svc.Format),
				Hostname:     svc.Host,
				Metadata:     map[string]string{"port": strconv.Itoa(int(svc.Port))},
			})
		case <-browseCtx.Done():
			return out, nil
		}
	}
}

package hotplug

import (
	"context"
	"time"
)

// DefaultPollInterval matches the 1s cadence named for hotplug detection.
const DefaultPollInterval = 1 * time.Second

// Source returns the current snapshot of attached USB-CDC devices. Used
// only by the demo/test Poller; production wiring supplies its own
// <-chan Event directly to Adapter.Consume.
type Source func() ([]AttachedDevice, error)

// Poller periodically snapshots Source and emits Connected/Disconnected
// events for the set difference against the previous snapshot, keyed by
// {port name, serial number}.
type Poller struct {
	source   Source
	interval time.Duration
}

// NewPoller creates a poller. interval <= 0 uses DefaultPollInterval.
func NewPoller(source Source, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{source: source, interval: interval}
}

// Run polls until ctx is cancelled, sending diffed Events to out. Run
// closes out before returning.
func (p *Poller) Run(ctx context.Context, out chan<- Event) {
	defer close(out)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	prev := make(map[string]AttachedDevice)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := p.source()
			if err != nil {
				continue
			}
			curSet := make(map[string]AttachedDevice, len(cur))
			for _, d := range cur {
				curSet[key(d)] = d
			}

			for k, d := range curSet {
				if _, existed := prev[k]; !existed {
					if !sendEvent(ctx, out, Event{Kind: EventConnected, VendorID: d.VendorID, ProductID: d.ProductID, SerialNumber: d.SerialNumber, PortName: d.PortName}) {
						return
					}
				}
			}
			for k, d := range prev {
				if _, stillPresent := curSet[k]; !stillPresent {
					if !sendEvent(ctx, out, Event{Kind: EventDisconnected, VendorID: d.VendorID, ProductID: d.ProductID, SerialNumber: d.SerialNumber, PortName: d.PortName}) {
						return
					}
				}
			}
			prev = curSet
		}
	}
}

func sendEvent(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

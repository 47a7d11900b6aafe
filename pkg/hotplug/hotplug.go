package hotplug

import (
	"context"
	"sync"

	"github.com/bridged-io/bridged/pkg/device"
	"github.com/bridged-io/bridged/pkg/registry"
)

// EventKind distinguishes a USB attach from a detach.
type EventKind uint8

const (
	EventConnected EventKind = iota
	EventDisconnected
)

// Event is the boundary type the external hotplug poller feeds in.
type Event struct {
	Kind         EventKind
	VendorID     string
	ProductID    string
	SerialNumber string
	PortName     string
}

// Adapter consumes a stream of hotplug Events and drives registry state
// transitions for the serial devices bound to USB ports.
type Adapter struct {
	reg *registry.Registry

	acceptVidPid map[string]struct{} // "vid:pid" pairs the adapter reacts to; empty set means accept all

	mu       sync.Mutex
	bindings map[string]device.ID // port name -> bound device id
}

// NewAdapter creates a hotplug adapter wired to reg. acceptedVidPid
// restricts which vendor/product pairs are handled (as "vid:pid" strings);
// pass nil to accept every pair.
func NewAdapter(reg *registry.Registry, acceptedVidPid []string) *Adapter {
	accept := make(map[string]struct{}, len(acceptedVidPid))
	for _, vp := range acceptedVidPid {
		accept[vp] = struct{}{}
	}
	return &Adapter{
		reg:          reg,
		acceptVidPid: accept,
		bindings:     make(map[string]device.ID),
	}
}

// Bind registers that deviceID currently owns portName, so a matching
// disconnect/connect event is routed to it.
func (a *Adapter) Bind(portName string, deviceID device.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bindings[portName] = deviceID
}

// Unbind removes a port-to-device association, e.g. once a device is
// removed from the registry entirely.
func (a *Adapter) Unbind(portName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bindings, portName)
}

func (a *Adapter) accepts(vid, pid string) bool {
	if len(a.acceptVidPid) == 0 {
		return true
	}
	_, ok := a.acceptVidPid[vid+":"+pid]
	return ok
}

// Consume processes events from ch until it closes or ctx is cancelled.
// This is the production wiring: the external poller owns ch.
func (a *Adapter) Consume(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			a.handle(ctx, ev)
		}
	}
}

func (a *Adapter) handle(ctx context.Context, ev Event) {
	if !a.accepts(ev.VendorID, ev.ProductID) {
		return
	}

	a.mu.Lock()
	id, bound := a.bindings[ev.PortName]
	a.mu.Unlock()
	if !bound {
		return
	}

	switch ev.Kind {
	case EventDisconnected:
		// Disconnect is idempotent and releases the transport; errors here
		// (e.g. device already removed from the registry) are not actionable.
		a.reg.Do(ctx, id, func(ctx context.Context, drv device.Driver) error {
			return drv.Disconnect(ctx)
		})
	case EventConnected:
		a.reg.Do(ctx, id, func(ctx context.Context, drv device.Driver) error {
			if drv.Status().State == device.StatusConnected {
				return nil
			}
			return drv.Connect(ctx)
		})
	}
}

// AttachedDevice is one USB-CDC device visible in a point-in-time snapshot,
// as returned by a Source for the demo/test Poller.
type AttachedDevice struct {
	VendorID     string
	ProductID    string
	SerialNumber string
	PortName     string
}

func key(d AttachedDevice) string {
	return d.PortName + "|" + d.SerialNumber
}

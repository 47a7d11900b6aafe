package registry

import (
	"context"

	"github.com/bridged-io/bridged/pkg/device"
)

// Handle grants exclusive access to a device's driver for the duration of
// one mutating operation. Commands against distinct devices never
// contend because each device has its own Handle; commands against the
// same device serialize on it.
type Handle struct {
	slot *slot
}

// Driver returns the underlying driver. Valid only until Release.
func (h *Handle) Driver() device.Driver {
	return h.slot.driver
}

// ID returns the device id this handle was acquired for.
func (h *Handle) ID() device.ID {
	return h.slot.id
}

// Release unlocks the handle, allowing the next queued operation against
// this device to proceed.
func (h *Handle) Release() {
	h.slot.mu.Unlock()
}

// Do is a convenience wrapper that acquires id's handle, invokes fn with
// its driver, and releases the handle before returning. Registry callers
// that only need to perform a single operation should prefer this over
// pairing Acquire/Release by hand.
func (r *Registry) Do(ctx context.Context, id device.ID, fn func(context.Context, device.Driver) error) error {
	h, err := r.Acquire(id)
	if err != nil {
		return err
	}
	defer h.Release()

	return fn(ctx, h.Driver())
}

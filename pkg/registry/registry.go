package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/bridged-io/bridged/pkg/device"
)

// Registry errors.
var (
	ErrAlreadyExists = errors.New("device already registered")
	ErrNotFound      = errors.New("device not found")
)

// slot owns exclusive access to one device's driver. The structural
// RWMutex protects only the map entry pointing to a slot; the slot's own
// mutex protects the driver itself, so commands against distinct devices
// never contend.
type slot struct {
	mu     sync.Mutex
	id     device.ID
	driver device.Driver
}

// Registry is the concurrent device registry.
type Registry struct {
	structMu sync.RWMutex
	slots    map[device.ID]*slot
	order    []device.ID // insertion order, for List()
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		slots: make(map[device.ID]*slot),
	}
}

// Add registers drv under id. Returns ErrAlreadyExists if id is already
// registered. The id->device mapping is strictly additive: once removed,
// an id is never silently re-keyed to a different slot identity by Add
// racing a concurrent Remove — callers that want re-registration must
// Remove first.
func (r *Registry) Add(id device.ID, drv device.Driver) error {
	r.structMu.Lock()
	defer r.structMu.Unlock()

	if _, exists := r.slots[id]; exists {
		return ErrAlreadyExists
	}

	r.slots[id] = &slot{id: id, driver: drv}
	r.order = append(r.order, id)
	return nil
}

// Remove disconnects and removes id from the registry. Removal implies a
// prior (possibly failing) disconnect attempt: the driver's Disconnect is
// invoked before the entry is dropped, and its error (if any) is
// returned, but the entry is removed either way.
func (r *Registry) Remove(ctx context.Context, id device.ID) error {
	r.structMu.Lock()
	s, exists := r.slots[id]
	if !exists {
		r.structMu.Unlock()
		return ErrNotFound
	}
	delete(r.slots, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.structMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Disconnect(ctx)
}

// Acquire locks id's exclusive handle for a mutating I/O operation and
// returns a Handle the caller must Release. Acquire itself only takes the
// registry's structural read lock to find the slot; it does not hold that
// lock while blocking on the slot's own mutex, so other devices' lookups
// are never blocked behind a slow in-flight operation.
func (r *Registry) Acquire(id device.ID) (*Handle, error) {
	r.structMu.RLock()
	s, exists := r.slots[id]
	r.structMu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	return &Handle{slot: s}, nil
}

// Status returns a device's status snapshot without acquiring its
// exclusive handle. This is the O(1) read path that must never block on
// a concurrent I/O operation.
func (r *Registry) Status(id device.ID) (device.Status, error) {
	r.structMu.RLock()
	s, exists := r.slots[id]
	r.structMu.RUnlock()

	if !exists {
		return device.Status{}, ErrNotFound
	}
	return s.driver.Status(), nil
}

// Info returns a device's identity and status snapshot.
func (r *Registry) Info(id device.ID) (device.Info, error) {
	r.structMu.RLock()
	s, exists := r.slots[id]
	r.structMu.RUnlock()

	if !exists {
		return device.Info{}, ErrNotFound
	}
	return s.driver.Info(), nil
}

// List returns a snapshot of every registered device's Info, in
// insertion order.
func (r *Registry) List() []device.Info {
	r.structMu.RLock()
	defer r.structMu.RUnlock()

	out := make([]device.Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.slots[id].driver.Info())
	}
	return out
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.structMu.RLock()
	defer r.structMu.RUnlock()
	return len(r.slots)
}

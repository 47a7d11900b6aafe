// Package registry implements the concurrent device.ID -> driver mapping:
// a sharded-by-slot map where each slot owns its own exclusive-access
// mutex, guarded structurally by a single RWMutex over the map itself.
//
// Add/Remove take the structural write lock only long enough to mutate
// the map (O(1)); Acquire/Info/Status take the structural read lock, also
// O(1), and List holds it for one pass over the entries. No path ever
// holds the structural lock across a device I/O
// operation — callers acquire a slot's own mutex via Acquire for that.
package registry

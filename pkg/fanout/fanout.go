// Package fanout broadcasts per-device events to subscribed WebSocket
// clients with a bounded, drop-oldest delivery policy so a slow consumer
// never stalls a device's producer.
package fanout

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Fan-out errors.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// DefaultCapacity is the default number of pending events buffered per
// subscriber before the drop-oldest policy engages.
const DefaultCapacity = 1024

// DropNoticeInterval bounds how often a samples_dropped event is
// synthesized for a given subscriber while it is losing events.
const DropNoticeInterval = 1 * time.Second

// KindSamplesDropped is the synthetic event kind emitted when a
// subscriber's queue has been overwritten by drop-oldest.
const KindSamplesDropped = "samples_dropped"

// Event is a single item delivered to a subscriber.
type Event struct {
	// DeviceID identifies the device that produced the event.
	DeviceID string

	// Kind is the event kind (e.g. "sample", "state_change", "samples_dropped").
	Kind string

	// Payload carries the event-specific data.
	Payload any

	// Timestamp is when the event was produced.
	Timestamp time.Time
}

// Subscription describes what a subscriber wants to receive.
//
// DeviceID == "" matches every device. An empty Kinds set means every
// event kind for the matched device(s).
type Subscription struct {
	ID       string
	ClientID string
	DeviceID string
	Kinds    map[string]struct{}
}

// matches reports whether the subscription wants the given event.
func (s *Subscription) matches(deviceID, kind string) bool {
	if s.DeviceID != "" && s.DeviceID != deviceID {
		return false
	}
	if len(s.Kinds) == 0 {
		return true
	}
	_, ok := s.Kinds[kind]
	return ok
}

// subscriber owns the bounded channel a client's write pump drains.
type subscriber struct {
	sub      *Subscription
	ch       chan Event
	dropped  atomic.Uint64
	dropMu   sync.Mutex
	lastDrop time.Time
}

// newSubscriber allocates a subscriber with the given channel capacity.
func newSubscriber(sub *Subscription, capacity int) *subscriber {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &subscriber{
		sub: sub,
		ch:  make(chan Event, capacity),
	}
}

// deliver enqueues ev, dropping the oldest pending event if the channel
// is full. The producer never blocks.
func (s *subscriber) deliver(ev Event) {
	select {
	case s.ch <- ev:
		return
	default:
	}

	// Full: drop the oldest pending event to make room.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
		// Raced with a concurrent drain; give up silently.
	}

	n := s.dropped.Add(1)
	s.maybeNotifyDrop(n)
}

// maybeNotifyDrop emits a samples_dropped event at most once per
// DropNoticeInterval for this subscriber.
func (s *subscriber) maybeNotifyDrop(count uint64) {
	s.dropMu.Lock()
	due := time.Since(s.lastDrop) >= DropNoticeInterval
	if due {
		s.lastDrop = time.Now()
	}
	s.dropMu.Unlock()

	if !due {
		return
	}

	notice := Event{
		DeviceID:  s.sub.DeviceID,
		Kind:      KindSamplesDropped,
		Payload:   map[string]uint64{"count": count},
		Timestamp: time.Now(),
	}

	select {
	case s.ch <- notice:
	default:
		// Channel still full; the next drop will retry the notice.
	}
}

// Dropped returns the number of events this subscriber has lost to the
// drop-oldest policy since it subscribed.
func (s *subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

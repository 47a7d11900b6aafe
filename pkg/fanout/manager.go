package fanout

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Manager fans device events out to subscribed clients.
//
// It indexes subscriptions by exact device ID for O(1) dispatch to
// device-scoped subscribers, and keeps wildcard (device: none)
// subscriptions in a separate list consulted on every publish.
type Manager struct {
	mu sync.RWMutex

	capacity int

	subs     map[string]*subscriber   // by subscription ID
	byDevice map[string][]*subscriber // exact device ID match
	wildcard []*subscriber            // device == "" (all devices)
}

// NewManager creates a fan-out manager using DefaultCapacity per subscriber.
func NewManager() *Manager {
	return NewManagerWithCapacity(DefaultCapacity)
}

// NewManagerWithCapacity creates a fan-out manager with a custom
// per-subscriber channel capacity.
func NewManagerWithCapacity(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		capacity: capacity,
		subs:     make(map[string]*subscriber),
		byDevice: make(map[string][]*subscriber),
	}
}

// idGenerator generates unique subscription IDs.
var idGenerator atomic.Uint64

func nextSubscriptionID() string {
	n := idGenerator.Add(1)
	return "sub-" + strconv.FormatUint(n, 10)
}

// Subscribe registers a new subscription for clientID and returns the
// subscription's ID along with the channel its WebSocket write pump
// should drain.
//
// deviceID == "" subscribes to every device. kinds == nil or empty
// subscribes to every event kind for the matched device(s).
func (m *Manager) Subscribe(clientID, deviceID string, kinds []string) (string, <-chan Event) {
	sub := &Subscription{
		ID:       nextSubscriptionID(),
		ClientID: clientID,
		DeviceID: deviceID,
	}
	if len(kinds) > 0 {
		sub.Kinds = make(map[string]struct{}, len(kinds))
		for _, k := range kinds {
			sub.Kinds[k] = struct{}{}
		}
	}

	s := newSubscriber(sub, m.capacity)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[sub.ID] = s
	if deviceID == "" {
		m.wildcard = append(m.wildcard, s)
	} else {
		m.byDevice[deviceID] = append(m.byDevice[deviceID], s)
	}

	return sub.ID, s.ch
}

// Unsubscribe removes a subscription. It is idempotent: unsubscribing an
// unknown or already-removed ID returns nil.
func (m *Manager) Unsubscribe(subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subs[subscriptionID]
	if !ok {
		return nil
	}
	delete(m.subs, subscriptionID)

	if s.sub.DeviceID == "" {
		m.wildcard = removeSubscriber(m.wildcard, s)
	} else {
		list := removeSubscriber(m.byDevice[s.sub.DeviceID], s)
		if len(list) == 0 {
			delete(m.byDevice, s.sub.DeviceID)
		} else {
			m.byDevice[s.sub.DeviceID] = list
		}
	}
	return nil
}

// UnsubscribeClient removes every subscription owned by clientID, for use
// on client disconnection.
func (m *Manager) UnsubscribeClient(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.subs {
		if s.sub.ClientID != clientID {
			continue
		}
		delete(m.subs, id)
		if s.sub.DeviceID == "" {
			m.wildcard = removeSubscriber(m.wildcard, s)
		} else {
			list := removeSubscriber(m.byDevice[s.sub.DeviceID], s)
			if len(list) == 0 {
				delete(m.byDevice, s.sub.DeviceID)
			} else {
				m.byDevice[s.sub.DeviceID] = list
			}
		}
	}
}

// Publish delivers an event to every subscription matching deviceID and
// kind. The call never blocks: subscribers that can't keep up lose their
// oldest pending event per the drop-oldest policy.
func (m *Manager) Publish(ev Event) {
	m.mu.RLock()
	candidates := make([]*subscriber, 0, len(m.wildcard)+len(m.byDevice[ev.DeviceID]))
	candidates = append(candidates, m.wildcard...)
	candidates = append(candidates, m.byDevice[ev.DeviceID]...)
	m.mu.RUnlock()

	for _, s := range candidates {
		if s.sub.matches(ev.DeviceID, ev.Kind) {
			s.deliver(ev)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// DroppedCount returns how many events a subscription has lost to the
// drop-oldest policy. Returns (0, ErrSubscriptionNotFound) for an unknown ID.
func (m *Manager) DroppedCount(subscriptionID string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subs[subscriptionID]
	if !ok {
		return 0, ErrSubscriptionNotFound
	}
	return s.Dropped(), nil
}

func removeSubscriber(list []*subscriber, target *subscriber) []*subscriber {
	for i, s := range list {
		if s == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

package dispatcher

import (
	"github.com/bridged-io/bridged/pkg/envelope"
	"github.com/bridged-io/bridged/pkg/fanout"
)

// subscription tracks the bookkeeping a session needs to tear one
// fan-out subscription down again: which device it was scoped to, and
// the stop signal for its forwarder goroutine.
type subscription struct {
	device string
	stop   chan struct{}
}

// handleSubscribe mutates the session's subscription table and, for a
// new subscription, starts the forwarder goroutine that turns fan-out
// events into outbound event frames.
//
// Unsubscription has no subscription-id field on the wire (see
// envelope.Subscribe), so it matches by device: every subscription this
// session owns scoped to the given device (or every wildcard
// subscription, if device is empty) is dropped.
func (s *session) handleSubscribe(sub *envelope.Subscribe, unsubscribe bool) {
	if unsubscribe {
		s.unsubscribeDevice(sub.Device)
		if sub.ID != "" {
			s.emit(envelope.AckResponse{ID: sub.ID, Success: true, TsMs: nowMs()})
		}
		return
	}

	subID, ch := s.server.fanout.Subscribe(s.id, sub.Device, sub.Events)
	stop := make(chan struct{})

	s.subsMu.Lock()
	s.subs[subID] = &subscription{device: sub.Device, stop: stop}
	s.subsMu.Unlock()

	go s.forward(ch, stop)

	if sub.ID != "" {
		s.emit(envelope.AckResponse{ID: sub.ID, Success: true, TsMs: nowMs()})
	}
}

// forward drains a subscriber channel into outbound event frames until
// the subscription is stopped or the session ends.
func (s *session) forward(ch <-chan fanout.Event, stop <-chan struct{}) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.emit(envelope.EventResponse{
				Device:  ev.DeviceID,
				Event:   ev.Kind,
				Payload: ev.Payload,
				TsMs:    ev.Timestamp.UnixMilli(),
			})
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// unsubscribeDevice removes every subscription this session owns whose
// device matches (an empty device matches only wildcard subscriptions).
func (s *session) unsubscribeDevice(deviceID string) {
	s.subsMu.Lock()
	var toRemove []string
	for subID, sub := range s.subs {
		if sub.device == deviceID {
			toRemove = append(toRemove, subID)
		}
	}
	for _, subID := range toRemove {
		close(s.subs[subID].stop)
		delete(s.subs, subID)
	}
	s.subsMu.Unlock()

	for _, subID := range toRemove {
		s.server.fanout.Unsubscribe(subID)
	}
}

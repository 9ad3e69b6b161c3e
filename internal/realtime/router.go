package realtime

import (
	"sync"
	"time"

	"carpool/internal/domain"
)

// Envelope is the JSON message pushed to clients.
type Envelope struct {
	Type      string    `json:"type"`
	TripID    string    `json:"trip_id,omitempty"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber is a live connection the router can push to.
type Subscriber interface {
	Send(env Envelope) error
}

// EventRouter maps domain events to rooms and delivers them to every
// connection in those rooms. Delivery is best-effort: send errors and
// missing targets are dropped, never surfaced to the caller — the
// authoritative state is already committed by the time an event reaches
// the router.
type EventRouter struct {
	presence *Presence

	mu   sync.RWMutex
	subs map[string]Subscriber // connection id -> subscriber
}

// NewEventRouter creates a router over the given presence registry.
func NewEventRouter(presence *Presence) *EventRouter {
	return &EventRouter{
		presence: presence,
		subs:     make(map[string]Subscriber),
	}
}

// Register attaches a connection's subscriber so it can receive pushes.
func (r *EventRouter) Register(connID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[connID] = sub
}

// Unregister detaches a connection and purges its room memberships.
func (r *EventRouter) Unregister(connID string) {
	r.mu.Lock()
	delete(r.subs, connID)
	r.mu.Unlock()

	r.presence.Drop(connID)
}

// Publish delivers an event to every connection in its target rooms.
// Callers invoke Publish after commit and, for one trip, in commit order;
// delivery to each connection is synchronous, so every subscriber observes
// a single trip's events in that same order.
func (r *EventRouter) Publish(event *domain.Event) {
	if event == nil {
		return
	}

	env := Envelope{
		Type:      string(event.Type),
		TripID:    event.TripID,
		Payload:   event.Payload,
		Timestamp: event.Timestamp,
	}

	// At most once per connection, even when it sits in several target rooms.
	delivered := make(map[string]struct{})
	for _, room := range roomsFor(event) {
		for _, connID := range r.presence.Resolve(room) {
			if _, done := delivered[connID]; done {
				continue
			}
			delivered[connID] = struct{}{}

			r.mu.RLock()
			sub, ok := r.subs[connID]
			r.mu.RUnlock()
			if !ok {
				continue
			}
			_ = sub.Send(env) // best effort
		}
	}
}

// roomsFor is the static routing table: which rooms each event type reaches.
func roomsFor(event *domain.Event) []string {
	switch event.Type {
	case domain.EventRiderJoined:
		return []string{UserRoom(event.DriverID), TripRoom(event.TripID)}

	case domain.EventRiderAccepted:
		return []string{UserRoom(event.RiderID), TripUserRoom(event.TripID, event.RiderID)}

	case domain.EventRiderRejected:
		return []string{UserRoom(event.RiderID)}

	case domain.EventRiderCancelled:
		return []string{UserRoom(event.DriverID)}

	case domain.EventTripCompleted:
		rooms := []string{TripRoom(event.TripID)}
		for _, riderID := range event.RiderIDs {
			rooms = append(rooms, UserRoom(riderID))
		}
		return rooms

	case domain.EventNewMessage:
		return []string{TripUserRoom(event.TripID, event.RiderID), UserRoom(event.RiderID)}

	case domain.EventLocationUpdate:
		return []string{TripRoom(event.TripID)}

	default:
		return nil
	}
}

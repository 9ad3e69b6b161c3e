package domain

import "time"

// EventType identifies a domain event produced by a trip state transition
// or a realtime client message.
type EventType string

const (
	EventRiderJoined    EventType = "rider-joined"
	EventRiderAccepted  EventType = "ride-accepted"
	EventRiderRejected  EventType = "ride-rejected"
	EventRiderCancelled EventType = "rider-cancelled"
	EventTripCompleted  EventType = "trip-completed"
	EventNewMessage     EventType = "new-message"
	EventLocationUpdate EventType = "location-update"
)

// Event is the value handed from a state transition to the event router.
// DriverID, RiderID, and RiderIDs carry the ids the router needs to resolve
// delivery targets; Payload is the JSON-serializable body pushed to clients.
type Event struct {
	Type      EventType
	TripID    string
	DriverID  string
	RiderID   string
	RiderIDs  []string
	Payload   any
	Timestamp time.Time
}

func newRiderJoinedEvent(t *Trip, riderID string, fare float64) *Event {
	return &Event{
		Type:     EventRiderJoined,
		TripID:   t.ID,
		DriverID: t.DriverID,
		RiderID:  riderID,
		Payload: map[string]any{
			"trip_id":   t.ID,
			"trip_code": t.TripCode,
			"rider_id":  riderID,
			"fare":      fare,
		},
		Timestamp: time.Now(),
	}
}

func newRiderRespondedEvent(t *Trip, riderID string, action RiderAction) *Event {
	typ := EventRiderAccepted
	if action == ActionReject {
		typ = EventRiderRejected
	}
	return &Event{
		Type:     typ,
		TripID:   t.ID,
		DriverID: t.DriverID,
		RiderID:  riderID,
		Payload: map[string]any{
			"trip_id":   t.ID,
			"driver_id": t.DriverID,
			"rider_id":  riderID,
			"action":    string(action),
		},
		Timestamp: time.Now(),
	}
}

func newRiderCancelledEvent(t *Trip, riderID string) *Event {
	return &Event{
		Type:     EventRiderCancelled,
		TripID:   t.ID,
		DriverID: t.DriverID,
		RiderID:  riderID,
		Payload: map[string]any{
			"trip_id":  t.ID,
			"rider_id": riderID,
		},
		Timestamp: time.Now(),
	}
}

func newTripCompletedEvent(t *Trip) *Event {
	return &Event{
		Type:     EventTripCompleted,
		TripID:   t.ID,
		DriverID: t.DriverID,
		RiderIDs: t.RiderIDs(),
		Payload: map[string]any{
			"trip_id": t.ID,
			"status":  string(TripStatusCompleted),
		},
		Timestamp: time.Now(),
	}
}

// NewMessageEvent is produced when a chat message is persisted.
func NewMessageEvent(m *Message) *Event {
	return &Event{
		Type:    EventNewMessage,
		TripID:  m.TripID,
		RiderID: m.RecipientID,
		Payload: map[string]any{
			"message_id":   m.ID,
			"trip_id":      m.TripID,
			"sender_id":    m.SenderID,
			"recipient_id": m.RecipientID,
			"message_text": m.MessageText,
			"message_type": string(m.MessageType),
		},
		Timestamp: time.Now(),
	}
}

// NewLocationUpdateEvent is produced when a participant reports a position
// over the push channel.
func NewLocationUpdateEvent(tripID, userID string, c Coordinate) *Event {
	return &Event{
		Type:   EventLocationUpdate,
		TripID: tripID,
		Payload: map[string]any{
			"trip_id":     tripID,
			"user_id":     userID,
			"coordinates": c,
		},
		Timestamp: time.Now(),
	}
}

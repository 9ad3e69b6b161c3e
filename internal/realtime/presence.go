// Package realtime delivers domain events to connected clients. The presence
// registry tracks which rooms each connection belongs to; the event router
// maps events to rooms and pushes envelopes to every live connection, at most
// once per connection per event.
package realtime

import (
	"fmt"
	"sync"
)

// Room key constructors. A connection always sits in its user's personal
// room and may join any number of trip and trip+user rooms on top.

// UserRoom is a user's personal notification room.
func UserRoom(userID string) string {
	return fmt.Sprintf("user_%s", userID)
}

// TripRoom is the shared room of everyone following a trip.
func TripRoom(tripID string) string {
	return fmt.Sprintf("trip_%s", tripID)
}

// TripUserRoom targets one user within one trip.
func TripUserRoom(tripID, userID string) string {
	return fmt.Sprintf("trip_%s_user_%s", tripID, userID)
}

// Presence is the registry of live connections and their room memberships.
// A connection's memberships are a scoped resource: acquired after
// authentication, fully purged on disconnect.
type Presence struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room key -> connection ids
	conns map[string]map[string]struct{} // connection id -> room keys
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds a connection to a room.
func (p *Presence) Join(connID, room string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rooms[room] == nil {
		p.rooms[room] = make(map[string]struct{})
	}
	p.rooms[room][connID] = struct{}{}

	if p.conns[connID] == nil {
		p.conns[connID] = make(map[string]struct{})
	}
	p.conns[connID][room] = struct{}{}
}

// Leave removes a connection from a room.
func (p *Presence) Leave(connID, room string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removeLocked(connID, room)
}

// Resolve returns the ids of all connections in a room.
func (p *Presence) Resolve(room string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	members := p.rooms[room]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Drop removes a connection from every room it joined.
func (p *Presence) Drop(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for room := range p.conns[connID] {
		p.removeLocked(connID, room)
	}
}

// Rooms returns the rooms a connection currently belongs to.
func (p *Presence) Rooms(connID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rooms := make([]string, 0, len(p.conns[connID]))
	for room := range p.conns[connID] {
		rooms = append(rooms, room)
	}
	return rooms
}

func (p *Presence) removeLocked(connID, room string) {
	if members, ok := p.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(p.rooms, room)
		}
	}
	if rooms, ok := p.conns[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(p.conns, connID)
		}
	}
}

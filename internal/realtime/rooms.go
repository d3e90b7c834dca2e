package realtime

import "sync"

// Rooms tracks which connections are subscribed to which conversation
// channels. It exclusively owns room membership; authorization against
// conversation membership happens before Join is ever called.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // conversationID -> set of connIDs
	conns map[string]map[string]struct{} // connID -> set of conversationIDs
}

// NewRooms creates an empty room membership router.
func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds a connection to a conversation room. Joining twice is an
// idempotent union.
func (r *Rooms) Join(connID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[conversationID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[conversationID] = room
	}
	room[connID] = struct{}{}

	joined, ok := r.conns[connID]
	if !ok {
		joined = make(map[string]struct{})
		r.conns[connID] = joined
	}
	joined[conversationID] = struct{}{}
}

// Leave removes a connection from a room; no-op if absent.
func (r *Rooms) Leave(connID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(connID, conversationID)
}

func (r *Rooms) leaveLocked(connID, conversationID string) {
	if room, ok := r.rooms[conversationID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, conversationID)
		}
	}
	if joined, ok := r.conns[connID]; ok {
		delete(joined, conversationID)
		if len(joined) == 0 {
			delete(r.conns, connID)
		}
	}
}

// LeaveAll removes a connection from every room it belongs to and returns
// the conversations it left. Invoked when the owning connection terminates
// so no stale membership survives a disconnect.
func (r *Rooms) LeaveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.conns[connID]
	left := make([]string, 0, len(joined))
	for conversationID := range joined {
		left = append(left, conversationID)
	}
	for _, conversationID := range left {
		r.leaveLocked(connID, conversationID)
	}
	return left
}

// MembersOf returns the connections currently joined to a conversation's
// room. The dispatcher uses this for fan-out; the snapshot reflects
// membership at call time only.
func (r *Rooms) MembersOf(conversationID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[conversationID]
	members := make([]string, 0, len(room))
	for connID := range room {
		members = append(members, connID)
	}
	return members
}

// Contains reports whether a connection is joined to a room.
func (r *Rooms) Contains(connID, conversationID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[conversationID][connID]
	return ok
}

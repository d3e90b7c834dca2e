package realtime

import (
	"log/slog"
	"sync"
)

// Registry maps a logical user identity to the set of concurrently live
// transport connections. A user with several tabs or devices holds several
// entries; they are "online" iff at least one connection remains.
//
// The Registry exclusively owns the connection-to-user mapping. Operations
// on unknown connection identifiers are benign no-ops: a connection may
// already have been cleaned up by a racing disconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string              // connID -> userID ("" until announced)
	users map[string]map[string]struct{} // userID -> set of connIDs
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]string),
		users: make(map[string]map[string]struct{}),
	}
}

// Track records a freshly accepted connection that has not yet announced a
// user identity.
func (r *Registry) Track(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; !exists {
		r.conns[connID] = ""
	}
}

// Announce binds a connection to a user identity. Re-announcing the same
// identity is idempotent. Returns first=true when this is the user's first
// live connection, i.e. the user just came online.
func (r *Registry) Announce(connID, userID string) (first bool) {
	if userID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, known := r.conns[connID]
	if !known {
		// Connection already cleaned up by a racing disconnect.
		slog.Debug("Announce on unknown connection", "connID", connID, "userID", userID)
		return false
	}
	if current == userID {
		return false
	}

	// A rebind to a different identity releases the old one first.
	if current != "" {
		r.detachLocked(connID, current)
	}

	r.conns[connID] = userID
	set, ok := r.users[userID]
	if !ok {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	set[connID] = struct{}{}

	return len(set) == 1
}

// Remove unbinds a connection. Returns the owning user (empty if the
// connection never announced) and last=true when this was the user's final
// connection, i.e. the user just went offline.
func (r *Registry) Remove(connID string) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, known := r.conns[connID]
	if !known {
		return "", false
	}
	delete(r.conns, connID)

	if userID == "" {
		return "", false
	}

	last = r.detachLocked(connID, userID)
	return userID, last
}

// detachLocked removes connID from userID's set, reporting whether the set
// emptied. Caller must hold the write lock.
func (r *Registry) detachLocked(connID, userID string) bool {
	set, ok := r.users[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users[userID]) > 0
}

// UserOf returns the identity a connection announced, if any.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, known := r.conns[connID]
	if !known || userID == "" {
		return "", false
	}
	return userID, true
}

// Connections returns the identifiers of a user's live connections.
func (r *Registry) Connections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	conns := make([]string, 0, len(set))
	for connID := range set {
		conns = append(conns, connID)
	}
	return conns
}

// OnlineUsers returns the identities of all users with live connections.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.users))
	for userID := range r.users {
		users = append(users, userID)
	}
	return users
}

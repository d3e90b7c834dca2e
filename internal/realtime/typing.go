package realtime

import (
	"sync"
	"time"
)

// DefaultTypingTimeout is how long a typing indicator survives without a
// refresh before the tracker emits a stop on the client's behalf. This
// covers clients that vanish without a clean shutdown (closed tab, lost
// network) and would otherwise leave a ghost "X is typing" indicator.
const DefaultTypingTimeout = 5 * time.Second

type typingKey struct {
	conversationID string
	userID         string
}

type typingEntry struct {
	// gen guards against a stale timer firing after a refresh: each
	// refresh bumps it, and an expiry only takes effect if its captured
	// generation still matches.
	gen   uint64
	timer *time.Timer
}

// TypingTracker maintains the per-conversation set of users currently
// typing, with automatic expiry. State machine per (conversation, user)
// pair: idle -> typing -> idle.
type TypingTracker struct {
	mu       sync.Mutex
	entries  map[typingKey]*typingEntry
	timeout  time.Duration
	onExpire func(conversationID, userID string)
	closed   bool
}

// NewTypingTracker creates a tracker. onExpire fires exactly once when an
// entry transitions to idle because its timeout elapsed; it is invoked
// outside the tracker's lock and may be nil.
func NewTypingTracker(timeout time.Duration, onExpire func(conversationID, userID string)) *TypingTracker {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingTracker{
		entries:  make(map[typingKey]*typingEntry),
		timeout:  timeout,
		onExpire: onExpire,
	}
}

// Start transitions a pair to typing and (re)arms its expiry timer.
// Returns true only on the idle -> typing transition, so callers emit a
// single typing:start per session rather than one per keystroke.
func (t *TypingTracker) Start(conversationID, userID string) bool {
	key := typingKey{conversationID, userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}

	if entry, ok := t.entries[key]; ok {
		// Already typing: only the timer resets, no duplicate event.
		entry.timer.Stop()
		entry.gen++
		entry.timer = t.armLocked(key, entry.gen)
		return false
	}

	entry := &typingEntry{gen: 1}
	entry.timer = t.armLocked(key, entry.gen)
	t.entries[key] = entry
	return true
}

// Stop is the explicit client-initiated transition to idle. Returns true
// if the pair was typing; a stale stop for an already-idle pair is a no-op.
func (t *TypingTracker) Stop(conversationID, userID string) bool {
	key := typingKey{conversationID, userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(t.entries, key)
	return true
}

// ClearUser transitions all of a user's active typing entries to idle
// immediately and returns the affected conversations. Invoked when the
// user's last connection disconnects, so no ghost indicator outlives them.
func (t *TypingTracker) ClearUser(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cleared []string
	for key, entry := range t.entries {
		if key.userID == userID {
			entry.timer.Stop()
			delete(t.entries, key)
			cleared = append(cleared, key.conversationID)
		}
	}
	return cleared
}

// TypingIn returns the users currently typing in a conversation.
func (t *TypingTracker) TypingIn(conversationID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var users []string
	for key := range t.entries {
		if key.conversationID == conversationID {
			users = append(users, key.userID)
		}
	}
	return users
}

// Close stops all timers. No expiry callbacks fire after Close returns.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for key, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, key)
	}
}

// armLocked schedules an expiry for the given generation. Caller must hold
// the lock.
func (t *TypingTracker) armLocked(key typingKey, gen uint64) *time.Timer {
	return time.AfterFunc(t.timeout, func() {
		t.expire(key, gen)
	})
}

// expire fires when a timer elapses. The generation check makes a stale
// timer (one outrun by a refresh or an explicit stop) a silent no-op, so
// the stop event for a typing session is emitted at most once.
func (t *TypingTracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok || entry.gen != gen || t.closed {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	t.mu.Unlock()

	if t.onExpire != nil {
		t.onExpire(key.conversationID, key.userID)
	}
}

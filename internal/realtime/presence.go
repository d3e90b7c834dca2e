package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/pubsub"
)

// Presence derives online/away/offline from registry occupancy and
// broadcasts transitions globally: any user's chat list may show any other
// user's status, so presence updates are never room-scoped.
//
// An explicit "away" override persists until the user reconnects or goes
// fully offline; connection churn on its own never overwrites it.
type Presence struct {
	mu        sync.Mutex
	overrides map[string]domain.PresenceStatus // userID -> explicit status
	lastSeen  map[string]time.Time

	publisher pubsub.Publisher
	users     domain.UserRepository // durable shadow of status; may be nil
	logger    *slog.Logger
}

// NewPresence creates a presence publisher. users may be nil when no
// durable status shadow is wanted (tests).
func NewPresence(publisher pubsub.Publisher, users domain.UserRepository) *Presence {
	return &Presence{
		overrides: make(map[string]domain.PresenceStatus),
		lastSeen:  make(map[string]time.Time),
		publisher: publisher,
		users:     users,
		logger:    slog.Default().With("component", "presence"),
	}
}

// HandleOnline reacts to a user's first connection. A reconnect clears any
// explicit away override.
func (p *Presence) HandleOnline(userID string) {
	p.mu.Lock()
	delete(p.overrides, userID)
	now := time.Now().UTC()
	p.lastSeen[userID] = now
	p.mu.Unlock()

	p.publish(userID, domain.StatusOnline, now)
}

// HandleOffline reacts to a user's last connection closing.
func (p *Presence) HandleOffline(userID string) {
	p.mu.Lock()
	delete(p.overrides, userID)
	now := time.Now().UTC()
	p.lastSeen[userID] = now
	p.mu.Unlock()

	p.publish(userID, domain.StatusOffline, now)
}

// SetStatus applies an explicit status override from the user. Setting
// "online" clears a previous override; setting "away" records one.
// Offline cannot be requested explicitly and is ignored.
func (p *Presence) SetStatus(userID string, status domain.PresenceStatus) {
	switch status {
	case domain.StatusAway:
		p.mu.Lock()
		p.overrides[userID] = status
		now := p.lastSeen[userID]
		p.mu.Unlock()
		p.publish(userID, status, now)
	case domain.StatusOnline:
		p.mu.Lock()
		delete(p.overrides, userID)
		now := time.Now().UTC()
		p.lastSeen[userID] = now
		p.mu.Unlock()
		p.publish(userID, status, now)
	default:
		p.logger.Debug("Ignoring explicit status override", "userID", userID, "status", status)
	}
}

// StatusOf resolves a user's effective status given whether the registry
// reports them online.
func (p *Presence) StatusOf(userID string, online bool) domain.PresenceStatus {
	if !online {
		return domain.StatusOffline
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if override, ok := p.overrides[userID]; ok {
		return override
	}
	return domain.StatusOnline
}

// LastSeen returns the time of the user's most recent presence transition.
func (p *Presence) LastSeen(userID string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ts, ok := p.lastSeen[userID]
	return ts, ok
}

func (p *Presence) publish(userID string, status domain.PresenceStatus, lastSeen time.Time) {
	update := PresenceUpdate{UserID: userID, Status: status, LastSeen: lastSeen}

	ctx := context.Background()
	if err := pubsub.Publish(ctx, p.publisher, presenceEvent, update); err != nil {
		p.logger.Error("Failed to publish presence update", "userID", userID, "error", err)
	}

	if p.users != nil {
		if err := p.users.UpdateStatus(ctx, userID, status, lastSeen); err != nil {
			p.logger.Error("Failed to persist presence status", "userID", userID, "error", err)
		}
	}
}

// presenceEvent is the typed bus event for presence transitions.
var presenceEvent = pubsub.NewEvent[PresenceUpdate](TopicPresenceStatus)

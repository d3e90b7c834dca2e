package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ripplechat/ripple/internal/domain"
)

// backfillLimit is how many recent messages a joining connection receives.
const backfillLimit = 50

// HistoryPayload is sent to a single connection right after it joins a
// room, backfilling the conversation from the durable store.
type HistoryPayload struct {
	ConversationID string            `json:"conversationId"`
	Messages       []*domain.Message `json:"messages"`
}

// Gateway is the coordinating component of the real-time core. It owns the
// connection registry, room router, typing tracker, presence publisher,
// and broadcast dispatcher, and sequences the operations that have to
// touch several of them at once, most importantly the disconnect
// transaction, which must clean registry, rooms, typing, and presence
// without leaving a window where fan-out targets a dead connection.
type Gateway struct {
	// mu serializes multi-component transactions. The individual
	// components carry their own locks for direct reads.
	mu sync.Mutex

	registry   *Registry
	rooms      *Rooms
	typing     *TypingTracker
	presence   *Presence
	dispatcher *Dispatcher

	authorizer domain.RoomAuthorizer
	messages   domain.MessageRepository

	// offlineDebounce delays the offline transition after a user's last
	// connection closes, so a page reload doesn't flap presence. Zero
	// means immediate.
	offlineDebounce time.Duration
	offlinePending  map[string]*time.Timer

	logger *slog.Logger
}

// GatewayConfig carries the gateway's collaborators.
type GatewayConfig struct {
	Sender          Sender
	Presence        *Presence
	Authorizer      domain.RoomAuthorizer
	Messages        domain.MessageRepository
	TypingTimeout   time.Duration
	OfflineDebounce time.Duration
}

// NewGateway wires up the real-time core.
func NewGateway(cfg GatewayConfig) *Gateway {
	g := &Gateway{
		registry:        NewRegistry(),
		rooms:           NewRooms(),
		presence:        cfg.Presence,
		authorizer:      cfg.Authorizer,
		messages:        cfg.Messages,
		offlineDebounce: cfg.OfflineDebounce,
		offlinePending:  make(map[string]*time.Timer),
		logger:          slog.Default().With("component", "gateway"),
	}

	g.typing = NewTypingTracker(cfg.TypingTimeout, g.handleTypingExpired)
	g.dispatcher = NewDispatcher(g.rooms, cfg.Sender, func(connID string) {
		// Treat a failed delivery like a disconnect. Run it off the
		// dispatch path so one slow teardown never stalls a fan-out.
		go g.Disconnect(connID)
	})

	return g
}

// Connect records a freshly accepted, not-yet-announced connection.
func (g *Gateway) Connect(connID string) {
	g.registry.Track(connID)
}

// Announce binds a connection to a user identity. The user's first live
// connection triggers the online presence transition.
func (g *Gateway) Announce(connID, userID string) {
	g.mu.Lock()
	first := g.registry.Announce(connID, userID)
	if first {
		// A reconnect inside the offline grace window cancels the
		// pending offline transition.
		if timer, ok := g.offlinePending[userID]; ok {
			timer.Stop()
			delete(g.offlinePending, userID)
		}
	}
	g.mu.Unlock()

	if first {
		g.logger.Info("User came online", "userID", userID, "connID", connID)
		g.presence.HandleOnline(userID)
	}
}

// SetStatus applies an explicit presence override from an announced
// connection. Unannounced connections are ignored.
func (g *Gateway) SetStatus(connID string, status domain.PresenceStatus) {
	userID, ok := g.registry.UserOf(connID)
	if !ok {
		g.logger.Debug("Status override from unannounced connection", "connID", connID)
		return
	}
	g.presence.SetStatus(userID, status)
}

// Join subscribes a connection to a conversation room after validating the
// user's conversation membership, then backfills recent history to that
// connection only.
func (g *Gateway) Join(ctx context.Context, connID, conversationID string) error {
	userID, ok := g.registry.UserOf(connID)
	if !ok {
		// Connection unknown or never announced; benign no-op.
		return nil
	}

	allowed, err := g.authorizer.AuthorizeRoomJoin(ctx, userID, conversationID)
	if err != nil {
		return fmt.Errorf("authorize join: %w", err)
	}
	if !allowed {
		g.logger.Warn("Unauthorized room join rejected",
			"userID", userID, "conversationID", conversationID)
		return domain.ErrNotMember
	}

	g.rooms.Join(connID, conversationID)
	g.logger.Debug("Connection joined room", "connID", connID, "conversationID", conversationID)

	g.backfill(ctx, connID, conversationID)
	return nil
}

// Leave unsubscribes a connection from a room; no-op if absent.
func (g *Gateway) Leave(connID, conversationID string) {
	g.rooms.Leave(connID, conversationID)
}

// TypingStart marks the connection's user as typing in a conversation and,
// on the idle -> typing transition, relays a start event to the other room
// members. Repeated starts only refresh the expiry timer.
func (g *Gateway) TypingStart(connID, conversationID string) {
	userID, ok := g.registry.UserOf(connID)
	if !ok || !g.rooms.Contains(connID, conversationID) {
		return
	}

	if g.typing.Start(conversationID, userID) {
		g.dispatcher.BroadcastTyping(conversationID, userID, true, connID)
	}
}

// TypingStop is the explicit idle transition. A stop for a user already
// idle (e.g. after an expiry beat them to it) is a no-op.
func (g *Gateway) TypingStop(connID, conversationID string) {
	userID, ok := g.registry.UserOf(connID)
	if !ok {
		return
	}

	if g.typing.Stop(conversationID, userID) {
		g.dispatcher.BroadcastTyping(conversationID, userID, false, connID)
	}
}

// Disconnect tears down a connection: registry removal, leaving every
// room, and, when it was the user's last connection, clearing their
// typing entries and flipping presence to offline. The three state
// mutations happen under one lock so no fan-out observes a half-removed
// connection.
func (g *Gateway) Disconnect(connID string) {
	g.mu.Lock()
	userID, last := g.registry.Remove(connID)
	g.rooms.LeaveAll(connID)

	var clearedRooms []string
	if last {
		clearedRooms = g.typing.ClearUser(userID)
	}
	g.mu.Unlock()

	for _, conversationID := range clearedRooms {
		g.dispatcher.BroadcastTyping(conversationID, userID, false, "")
	}

	if last {
		g.logger.Info("User went offline", "userID", userID, "connID", connID)
		g.scheduleOffline(userID)
	}
}

// scheduleOffline either flips the user offline immediately or arms the
// debounce timer. The timer re-checks the registry when it fires so a
// reconnect that raced the timer wins.
func (g *Gateway) scheduleOffline(userID string) {
	if g.offlineDebounce <= 0 {
		g.presence.HandleOffline(userID)
		return
	}

	g.mu.Lock()
	if timer, ok := g.offlinePending[userID]; ok {
		timer.Stop()
	}
	g.offlinePending[userID] = time.AfterFunc(g.offlineDebounce, func() {
		g.mu.Lock()
		delete(g.offlinePending, userID)
		online := g.registry.IsOnline(userID)
		g.mu.Unlock()

		if !online {
			g.presence.HandleOffline(userID)
		}
	})
	g.mu.Unlock()
}

// Dispatch fans a message-lifecycle event out to its conversation room.
func (g *Gateway) Dispatch(event MessageEvent) {
	g.dispatcher.Dispatch(event)
}

// IsOnline reports whether a user has at least one live connection.
func (g *Gateway) IsOnline(userID string) bool {
	return g.registry.IsOnline(userID)
}

// StatusOf resolves a user's effective presence status.
func (g *Gateway) StatusOf(userID string) domain.PresenceStatus {
	return g.presence.StatusOf(userID, g.registry.IsOnline(userID))
}

// Close releases the typing tracker's timers and any pending offline
// transitions.
func (g *Gateway) Close() {
	g.typing.Close()

	g.mu.Lock()
	for userID, timer := range g.offlinePending {
		timer.Stop()
		delete(g.offlinePending, userID)
	}
	g.mu.Unlock()
}

// handleTypingExpired fires when a typing entry times out without a
// refresh or explicit stop: the stop is relayed to the whole room, with no
// originating connection to exclude.
func (g *Gateway) handleTypingExpired(conversationID, userID string) {
	g.dispatcher.BroadcastTyping(conversationID, userID, false, "")
}

// backfill sends recent conversation history to a single connection.
// Failures degrade to an empty join rather than aborting it: history is a
// convenience, membership is the contract.
func (g *Gateway) backfill(ctx context.Context, connID, conversationID string) {
	if g.messages == nil {
		return
	}

	history, err := g.messages.ListRecent(ctx, conversationID, time.Time{}, backfillLimit)
	if err != nil {
		g.logger.Error("Failed to load history for join backfill",
			"conversationID", conversationID, "error", err)
		return
	}

	payload, err := NewFrame(EventHistory, HistoryPayload{
		ConversationID: conversationID,
		Messages:       history,
	})
	if err != nil {
		g.logger.Error("Failed to encode history payload", "error", err)
		return
	}

	g.dispatcher.SendTo(connID, payload)
}

package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/middleware"
	"github.com/ripplechat/ripple/internal/pubsub"
	"github.com/ripplechat/ripple/internal/realtime"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second
	// sendBufferSize is the per-connection outbound queue depth.
	sendBufferSize = 256
)

// lifecyclePayload is published on the ws.client.* topics.
type lifecyclePayload struct {
	UserID       string `json:"userID"`
	ConnectionID string `json:"connectionID"`
	Reason       string `json:"reason,omitempty"`
}

// Bridge owns the WebSocket side of the real-time layer: it accepts
// upgrades, runs the per-connection read and write pumps, validates
// inbound signals against a whitelist, and translates them into gateway
// calls. Outbound, it implements realtime.Sender so the dispatcher can
// enqueue onto a connection's ordered send channel.
type Bridge struct {
	publisher pubsub.Publisher
	gateway   *realtime.Gateway
	whitelist *signalWhitelist

	mu      sync.RWMutex
	clients map[string]*Client // connID -> client

	logger *slog.Logger
}

// NewBridge creates a bridge. Attach must be called with the gateway
// before the first connection is accepted.
func NewBridge(pub pubsub.Publisher) *Bridge {
	return &Bridge{
		publisher: pub,
		whitelist: DefaultSignalWhitelist(),
		clients:   make(map[string]*Client),
		logger:    slog.Default().With("component", "ws_bridge"),
	}
}

// Attach wires the gateway in. The bridge and gateway reference each other
// (bridge as the gateway's Sender), so one side has to be attached after
// construction.
func (b *Bridge) Attach(gateway *realtime.Gateway) {
	b.gateway = gateway
}

// Handler returns the echo handler that upgrades an authenticated request
// to a WebSocket connection.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(middleware.UserContextKey).(*domain.User)
		if !ok || user == nil {
			b.logger.Error("WebSocket upgrade without authenticated user")
			return c.String(http.StatusUnauthorized, "User not authenticated")
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			b.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		connID := uuid.NewString()
		client := newClient(connID, user.ID, conn)

		b.mu.Lock()
		b.clients[connID] = client
		b.mu.Unlock()

		b.gateway.Connect(connID)
		b.logger.Info("Client connected", "userID", user.ID, "connID", connID)

		go b.writePump(client)
		go b.readPump(client)

		b.publishLifecycle(TopicClientReady.Name(), client, "")
		return nil
	}
}

// Send implements realtime.Sender. A failed enqueue closes the client so
// its pumps wind down; the caller handles registry cleanup.
func (b *Bridge) Send(connID string, payload []byte) error {
	b.mu.RLock()
	client, ok := b.clients[connID]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown connection %s", connID)
	}

	if err := client.SendMessage(payload); err != nil {
		b.logger.Warn("Dropping jammed connection", "connID", connID, "error", err)
		client.Close()
		return err
	}
	return nil
}

// BroadcastAll enqueues a payload for every live connection. Used for
// presence updates, which are global rather than room-scoped.
func (b *Bridge) BroadcastAll(payload []byte) {
	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		if err := client.SendMessage(payload); err != nil {
			b.logger.Warn("Broadcast delivery failed", "connID", client.ConnID, "error", err)
			client.Close()
		}
	}
}

// Start subscribes the bridge to the presence topic so transitions fan
// out to every connection.
func (b *Bridge) Start(ctx context.Context, bus pubsub.Subscriber) error {
	return bus.Subscribe(ctx, realtime.TopicPresenceStatus.Name(), func(ctx context.Context, msg pubsub.Message) error {
		frame, err := json.Marshal(realtime.Frame{
			Event: realtime.EventUserStatus,
			Data:  msg.Payload,
		})
		if err != nil {
			return err
		}
		b.BroadcastAll(frame)
		return nil
	})
}

// readPump reads signals until the connection dies, then tears the client
// down.
func (b *Bridge) readPump(client *Client) {
	reason := "client_closed"
	defer func() {
		b.remove(client, reason)
		client.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, raw, err := client.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				b.logger.Info("WebSocket closed normally by client", "connID", client.ConnID)
			} else if err != io.EOF {
				b.logger.Error("WebSocket read error", "connID", client.ConnID, "error", err)
				reason = "read_error"
			}
			break
		}

		b.handleSignal(client, raw)
	}
}

// writePump drains the client's send channel into the connection, in
// order, until the channel closes or a write fails.
func (b *Bridge) writePump(client *Client) {
	defer client.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	for {
		payload, ok := <-client.send
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := client.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			b.logger.Error("WebSocket write error", "connID", client.ConnID, "error", err)
			return
		}
	}
}

// handleSignal validates one inbound frame and routes it to the gateway.
// Malformed or non-whitelisted signals are logged and dropped; they never
// terminate the connection.
func (b *Bridge) handleSignal(client *Client, raw []byte) {
	sig, err := decodeSignal(raw)
	if err != nil {
		b.logger.Warn("Dropping malformed signal", "connID", client.ConnID, "error", err)
		return
	}

	if !b.whitelist.IsAllowed(sig.Event) {
		b.logger.Warn("Dropping non-whitelisted signal", "connID", client.ConnID, "event", sig.Event)
		return
	}

	switch sig.Event {
	case realtime.EventUserConnect:
		payload, err := decodePayload[ConnectPayload](sig)
		if err != nil {
			b.logger.Warn("Dropping malformed connect", "connID", client.ConnID, "error", err)
			return
		}
		// The session, not the payload, is the source of identity. A
		// mismatch is suspicious but the announce proceeds with the
		// authenticated user.
		if payload.UserID != client.UserID {
			b.logger.Warn("Connect payload identity mismatch",
				"connID", client.ConnID, "claimed", payload.UserID, "session", client.UserID)
		}
		b.gateway.Announce(client.ConnID, client.UserID)

	case realtime.EventUserStatus:
		payload, err := decodePayload[StatusPayload](sig)
		if err != nil {
			b.logger.Warn("Dropping malformed status", "connID", client.ConnID, "error", err)
			return
		}
		b.gateway.SetStatus(client.ConnID, payload.Status)

	case realtime.EventConversationJoin:
		payload, err := decodePayload[RoomPayload](sig)
		if err != nil {
			b.logger.Warn("Dropping malformed join", "connID", client.ConnID, "error", err)
			return
		}
		if err := b.gateway.Join(context.Background(), client.ConnID, payload.ConversationID); err != nil {
			b.logger.Warn("Room join failed",
				"connID", client.ConnID, "conversationID", payload.ConversationID, "error", err)
		}

	case realtime.EventConversationLeave:
		payload, err := decodePayload[RoomPayload](sig)
		if err != nil {
			b.logger.Warn("Dropping malformed leave", "connID", client.ConnID, "error", err)
			return
		}
		b.gateway.Leave(client.ConnID, payload.ConversationID)

	case realtime.EventTypingStart:
		payload, err := decodePayload[TypingPayload](sig)
		if err != nil {
			b.logger.Warn("Dropping malformed typing start", "connID", client.ConnID, "error", err)
			return
		}
		b.gateway.TypingStart(client.ConnID, payload.ConversationID)

	case realtime.EventTypingStop:
		payload, err := decodePayload[TypingPayload](sig)
		if err != nil {
			b.logger.Warn("Dropping malformed typing stop", "connID", client.ConnID, "error", err)
			return
		}
		b.gateway.TypingStop(client.ConnID, payload.ConversationID)
	}
}

// remove finishes a connection: transport bookkeeping first, then the
// gateway's disconnect transaction, then the lifecycle event.
func (b *Bridge) remove(client *Client, reason string) {
	b.mu.Lock()
	_, present := b.clients[client.ConnID]
	delete(b.clients, client.ConnID)
	b.mu.Unlock()

	if !present {
		return
	}

	client.Close()
	b.gateway.Disconnect(client.ConnID)
	b.logger.Info("Client disconnected", "userID", client.UserID, "connID", client.ConnID, "reason", reason)

	b.publishLifecycle(TopicClientDisconnected.Name(), client, reason)
}

func (b *Bridge) publishLifecycle(topic string, client *Client, reason string) {
	payload, err := json.Marshal(lifecyclePayload{
		UserID:       client.UserID,
		ConnectionID: client.ConnID,
		Reason:       reason,
	})
	if err != nil {
		return
	}

	msg := pubsub.Message{
		Topic:   topic,
		UserID:  client.UserID,
		Payload: payload,
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := b.publisher.Publish(context.Background(), msg); err != nil {
		b.logger.Error("Failed to publish lifecycle event", "topic", topic, "error", err)
	}
}

package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/handlers"
	appmiddleware "github.com/ripplechat/ripple/internal/middleware"
	"github.com/ripplechat/ripple/internal/pubsub"
	"github.com/ripplechat/ripple/internal/realtime"
	"github.com/ripplechat/ripple/internal/testutils"
	"github.com/ripplechat/ripple/internal/websocket"
)

// testHarness is a fully wired application over in-memory stores: real
// routes, real session auth, real bus, real websocket bridge. Only the
// database is replaced.
type testHarness struct {
	server        *httptest.Server
	users         *testutils.MemUserRepo
	conversations *testutils.MemConversationRepo
	messages      *testutils.MemMessageRepo
	gateway       *realtime.Gateway
	bus           *pubsub.WatermillBridge
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	users := testutils.NewMemUserRepo()
	conversations := testutils.NewMemConversationRepo()
	messages := testutils.NewMemMessageRepo()

	bus := pubsub.NewWatermillBridge()
	presence := realtime.NewPresence(bus, users)
	bridge := websocket.NewBridge(bus)
	gateway := realtime.NewGateway(realtime.GatewayConfig{
		Sender:          bridge,
		Presence:        presence,
		Authorizer:      conversations,
		Messages:        messages,
		TypingTimeout:   200 * time.Millisecond,
		OfflineDebounce: 0,
	})
	bridge.Attach(gateway)

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("integration-test-secret"))))

	authHandler := handlers.NewAuthHandler(users)
	messageHandler := handlers.NewMessageHandler(messages, conversations, bus)
	conversationHandler := handlers.NewConversationHandler(conversations)

	e.POST("/api/auth/login", authHandler.Login)
	authed := e.Group("", appmiddleware.Auth(users))
	authed.POST("/api/conversations", conversationHandler.Create)
	authed.POST("/api/messages", messageHandler.Send)
	authed.GET("/ws", bridge.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	subscriber := realtime.NewSubscriber(gateway, bus)
	require.NoError(t, subscriber.Start(ctx))
	require.NoError(t, bridge.Start(ctx, bus))

	ts := httptest.NewServer(e)
	t.Cleanup(func() {
		cancel()
		gateway.Close()
		_ = bus.Close()
		ts.Close()
	})

	return &testHarness{
		server:        ts,
		users:         users,
		conversations: conversations,
		messages:      messages,
		gateway:       gateway,
		bus:           bus,
	}
}

// loginAs signs a user in over the real login endpoint and returns the
// session cookies and created user.
func (h *testHarness) loginAs(t *testing.T, email, displayName string) ([]*http.Cookie, *domain.User) {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"displayName":%q}`, email, displayName)
	resp, err := http.Post(h.server.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var userResp handlers.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&userResp))

	user, err := h.users.FindByID(context.Background(), userResp.ID)
	require.NoError(t, err)
	return resp.Cookies(), user
}

// apiPost performs an authenticated JSON POST and decodes the response into out.
func (h *testHarness) apiPost(t *testing.T, cookies []*http.Cookie, path, body string, out any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "POST %s failed with %d", path, resp.StatusCode)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

// socketSession is a live websocket connection with frame helpers.
type socketSession struct {
	conn *gorillaws.Conn
}

// dialSocket connects to /ws with the given session cookies and announces
// the user.
func (h *testHarness) dialSocket(t *testing.T, cookies []*http.Cookie, userID string) *socketSession {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"
	header := http.Header{}
	for _, cookie := range cookies {
		header.Add("Cookie", cookie.String())
	}

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	s := &socketSession{conn: conn}
	s.send(t, realtime.EventUserConnect, map[string]string{"userId": userID})
	return s
}

func (s *socketSession) send(t *testing.T, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, s.conn.WriteJSON(realtime.Frame{Event: event, Data: raw}))
}

// expect reads frames until one with the given event arrives, skipping
// anything else. Fails the test after the deadline.
func (s *socketSession) expect(t *testing.T, event string) realtime.Frame {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, s.conn.SetReadDeadline(deadline))
		var frame realtime.Frame
		err := s.conn.ReadJSON(&frame)
		require.NoError(t, err, "waiting for %q frame", event)
		if frame.Event == event {
			return frame
		}
	}
}

// expectSilence asserts that no frame with the given event arrives within
// the window.
func (s *socketSession) expectSilence(t *testing.T, event string, window time.Duration) {
	t.Helper()

	require.NoError(t, s.conn.SetReadDeadline(time.Now().Add(window)))
	for {
		var frame realtime.Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return
		}
		require.NotEqual(t, event, frame.Event, "unexpected %q frame", event)
	}
}

package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/application/pubsub"
	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/auth"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/cache"
	knowledgebase "github.com/tdex-network/barter-daemon/internal/infrastructure/knowledge-base"
	eventbus "github.com/tdex-network/barter-daemon/internal/infrastructure/pubsub"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/barter-daemon/internal/interfaces/ws"
)

const readTimeout = 2 * time.Second

type event struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

type testEnv struct {
	hub       *ws.Hub
	pubsubSvc *pubsub.Service
	userSvc   *user.Service
	url       string
}

func newTestEnv(t *testing.T) *testEnv {
	valuationSvc, err := valuation.NewService(
		cache.NewInmemoryCache(), time.Minute,
		[]ports.PriceSource{knowledgebase.NewSource()},
	)
	require.NoError(t, err)
	tokenManager, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	userSvc, err := user.NewService(inmemory.NewRepoManager(), valuationSvc, tokenManager)
	require.NoError(t, err)
	pubsubSvc, err := pubsub.NewService(eventbus.NewLocalEventBus())
	require.NoError(t, err)

	hub, err := ws.NewHub(pubsubSvc, userSvc, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return &testEnv{
		hub:       hub,
		pubsubSvc: pubsubSvc,
		userSvc:   userSvc,
		url:       "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (e *testEnv) register(t *testing.T, username string) (*domain.User, string) {
	u, token, err := e.userSvc.Register(
		context.Background(), username, username+"@barter.test", "password",
	)
	require.NoError(t, err)
	return u, token
}

// dial opens a connection and waits for the hub to count it.
func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	clients := e.hub.ConnectedClients()

	url := e.url
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return e.hub.ConnectedClients() == clients+1
	}, readTimeout, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var ev event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func presenceOf(t *testing.T, ev event) (string, bool) {
	require.Equal(t, pubsub.EventUserPresence, ev.Type)

	var payload struct {
		UserID string `json:"userId"`
		Online bool   `json:"online"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	return payload.UserID, payload.Online
}

func TestFeedDelivery(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	conn := env.dial(t, "")

	err := env.pubsubSvc.PublishUserPresence(context.Background(), "bob", true)
	require.NoError(t, err)

	ev := readEvent(t, conn)
	require.Equal(t, pubsub.FeedTopic, ev.Topic)
	userID, online := presenceOf(t, ev)
	require.Equal(t, "bob", userID)
	require.True(t, online)
}

func TestAuthenticatedClient(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice, token := env.register(t, "alice")
	conn := env.dial(t, token)

	userID, online := presenceOf(t, readEvent(t, conn))
	require.Equal(t, alice.ID, userID)
	require.True(t, online)

	require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.MessageSubscribe, ExchangeID: "ex1"}))
	require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.MessageTyping, ExchangeID: "ex1"}))

	ev := readEvent(t, conn)
	require.Equal(t, pubsub.EventTypingIndicator, ev.Type)
	require.Equal(t, pubsub.ExchangeTopic("ex1"), ev.Topic)

	err := env.pubsubSvc.PublishExchangeCreated(context.Background(), domain.Exchange{
		ID: "ex2", InitiatorID: alice.ID,
	})
	require.NoError(t, err)

	topics := []string{readEvent(t, conn).Topic, readEvent(t, conn).Topic}
	require.ElementsMatch(t, []string{pubsub.FeedTopic, pubsub.UserTopic(alice.ID)}, topics)

	// The presence reply confirms that the unsubscription has been processed.
	require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.MessageUnsubscribe, ExchangeID: "ex1"}))
	require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.MessagePresence}))
	userID, _ = presenceOf(t, readEvent(t, conn))
	require.Equal(t, alice.ID, userID)

	err = env.pubsubSvc.PublishTyping(context.Background(), "ex1", "bob")
	require.NoError(t, err)
	err = env.pubsubSvc.PublishUserPresence(context.Background(), "bob", true)
	require.NoError(t, err)

	userID, _ = presenceOf(t, readEvent(t, conn))
	require.Equal(t, "bob", userID)
}

func TestFailingClientMessages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	conn := env.dial(t, "")

	tests := []struct {
		name    string
		message interface{}
	}{
		{"typing_unauthenticated", ws.Message{Type: ws.MessageTyping, ExchangeID: "ex1"}},
		{"presence_unauthenticated", ws.Message{Type: ws.MessagePresence}},
		{"subscribe_without_exchange", ws.Message{Type: ws.MessageSubscribe}},
		{"unknown_type", ws.Message{Type: "dance"}},
		{"not_a_message", []int{1, 2, 3}},
	}

	for _, tt := range tests {
		require.NoError(t, conn.WriteJSON(tt.message), tt.name)

		ev := readEvent(t, conn)
		require.Equal(t, ws.MessageError, ev.Type, tt.name)
		require.NotEmpty(t, ev.Error, tt.name)
	}
}

func TestInvalidToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.url+"?token=invalid", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, env.hub.ConnectedClients())
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice, token := env.register(t, "alice")
	observer := env.dial(t, "")
	conn := env.dial(t, token)

	userID, online := presenceOf(t, readEvent(t, observer))
	require.Equal(t, alice.ID, userID)
	require.True(t, online)

	require.NoError(t, conn.Close())

	userID, online = presenceOf(t, readEvent(t, observer))
	require.Equal(t, alice.ID, userID)
	require.False(t, online)
	require.Eventually(t, func() bool {
		return env.hub.ConnectedClients() == 1
	}, readTimeout, 10*time.Millisecond)

	stored, err := env.userSvc.GetUser(context.Background(), alice.ID)
	require.NoError(t, err)
	require.NotZero(t, stored.LastSeen)
}

func TestDisconnectWithOtherConnectionsOpen(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice, token := env.register(t, "alice")
	observer := env.dial(t, "")
	first := env.dial(t, token)
	second := env.dial(t, token)

	for i := 0; i < 2; i++ {
		userID, online := presenceOf(t, readEvent(t, observer))
		require.Equal(t, alice.ID, userID)
		require.True(t, online)
	}

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool {
		return env.hub.ConnectedClients() == 2
	}, readTimeout, 10*time.Millisecond)

	err := env.pubsubSvc.PublishUserPresence(context.Background(), "bob", true)
	require.NoError(t, err)

	userID, online := presenceOf(t, readEvent(t, observer))
	require.Equal(t, "bob", userID)
	require.True(t, online)

	require.NoError(t, second.Close())

	userID, online = presenceOf(t, readEvent(t, observer))
	require.Equal(t, alice.ID, userID)
	require.False(t, online)
}

func TestClose(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	conn := env.dial(t, "")

	require.NoError(t, env.hub.Close())
	require.Zero(t, env.hub.ConnectedClients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	_, _, err = websocket.DefaultDialer.Dial(env.url, nil)
	require.Error(t, err)
}

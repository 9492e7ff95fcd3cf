package httpinterface_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/application/pubsub"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	httpinterface "github.com/tdex-network/barter-daemon/internal/interfaces/http"
	"github.com/tdex-network/barter-daemon/internal/interfaces/ws"
)

type wsEvent struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func readWSEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestRealtimeThroughRouter(t *testing.T) {
	t.Parallel()

	svcs := newTestServices(t)
	hub, err := ws.NewHub(svcs.pubsubSvc, svcs.userSvc, nil)
	require.NoError(t, err)

	router := newRouter(t, svcs, httpinterface.RouterOpts{
		WSHandler:    hub,
		APIRateLimit: httpinterface.RateLimit{Requests: 100, Window: time.Minute},
		CORSOrigins:  []string{"*"},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	alice := register(t, router, "alice")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + alice.Token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })

	ev := readWSEvent(t, conn)
	require.Equal(t, pubsub.EventUserPresence, ev.Type)
	require.Equal(t, pubsub.FeedTopic, ev.Topic)

	var created exchangeResponse
	status := do(t, router, http.MethodPost, "/api/exchanges", alice.Token, map[string]interface{}{
		"offer":   map[string]interface{}{"item": "bitcoin", "amount": 1},
		"request": map[string]interface{}{"item": "pizza", "amount": 4333.33},
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	ev = readWSEvent(t, conn)
	require.Equal(t, pubsub.EventExchangeCreated, ev.Type)

	var exchange domain.Exchange
	require.NoError(t, json.Unmarshal(ev.Payload, &exchange))
	require.Equal(t, created.Exchange.ID, exchange.ID)

	// Drain the copy delivered on the user topic.
	ev = readWSEvent(t, conn)
	require.Equal(t, pubsub.EventExchangeCreated, ev.Type)

	err = conn.WriteJSON(ws.Message{
		Type: ws.MessageSubscribe, ExchangeID: created.Exchange.ID,
	})
	require.NoError(t, err)
	err = conn.WriteJSON(ws.Message{
		Type: ws.MessageTyping, ExchangeID: created.Exchange.ID,
	})
	require.NoError(t, err)

	ev = readWSEvent(t, conn)
	require.Equal(t, pubsub.EventTypingIndicator, ev.Type)
	require.Equal(t, pubsub.ExchangeTopic(created.Exchange.ID), ev.Topic)
}

func TestRealtimeRejectsInvalidTokenThroughRouter(t *testing.T) {
	t.Parallel()

	svcs := newTestServices(t)
	hub, err := ws.NewHub(svcs.pubsubSvc, svcs.userSvc, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(t, svcs, httpinterface.RouterOpts{
		WSHandler: hub,
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=invalid"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Package ws serves the realtime fan-out of exchange events over websocket
// connections.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"

	"github.com/tdex-network/barter-daemon/internal/core/application/pubsub"
	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	httpinterface "github.com/tdex-network/barter-daemon/internal/interfaces/http"
	"github.com/tdex-network/barter-daemon/pkg/stats"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
	maxMsgSize = 4 * 1024
	sendBuffer = 256
)

// Hub keeps track of the open connections and of the topics they joined.
// It is subscribed to every topic of the event bus and forwards each event
// to the connections that joined the event's topic.
type Hub struct {
	pubsubSvc *pubsub.Service
	userSvc   *user.Service
	upgrader  websocket.Upgrader

	lock           *sync.RWMutex
	clients        map[string]*client
	clientsByTopic map[string]map[string]*client
	connsByUser    map[string]int
	unsubscribe    func()
	closed         bool
}

// NewHub returns a Hub attached to the event bus of the given pubsub
// service. An empty list of origins, or one containing "*", accepts
// connections from any origin.
func NewHub(
	pubsubSvc *pubsub.Service, userSvc *user.Service, origins []string,
) (*Hub, error) {
	if pubsubSvc == nil {
		return nil, fmt.Errorf("missing pubsub service")
	}
	if userSvc == nil {
		return nil, fmt.Errorf("missing user service")
	}

	h := &Hub{
		pubsubSvc: pubsubSvc,
		userSvc:   userSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(origins),
		},
		lock:           &sync.RWMutex{},
		clients:        make(map[string]*client),
		clientsByTopic: make(map[string]map[string]*client),
		connsByUser:    make(map[string]int),
	}

	unsubscribe, err := pubsubSvc.EventBus().Subscribe(ports.AnyTopic, h.dispatch)
	if err != nil {
		return nil, err
	}
	h.unsubscribe = unsubscribe
	return h, nil
}

// ServeHTTP upgrades the request to a websocket connection. The connection
// joins the feed topic and, if the request carries a valid token, the topic
// of the authenticated user.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "hub is closed", http.StatusServiceUnavailable)
		return
	}

	var userID string
	if token := httpinterface.BearerToken(r); token != "" {
		u, err := h.userSvc.Authenticate(r.Context(), token)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		userID = u.ID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &client{
		id:     randstr.Hex(16),
		userID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	if err := h.register(c); err != nil {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()

	if c.isAuthenticated() {
		h.announcePresence(c.userID, true)
	}
}

// ConnectedClients returns the number of open connections.
func (h *Hub) ConnectedClients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// Close detaches the hub from the event bus and closes every connection.
func (h *Hub) Close() error {
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.lock.Unlock()

	h.unsubscribe()
	for _, c := range clients {
		c.close()
	}
	return nil
}

func (h *Hub) isClosed() bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.closed
}

func (h *Hub) register(c *client) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.closed {
		return fmt.Errorf("hub is closed")
	}

	h.clients[c.id] = c
	h.joinLocked(c, pubsub.FeedTopic)
	if c.isAuthenticated() {
		h.joinLocked(c, pubsub.UserTopic(c.userID))
		h.connsByUser[c.userID]++
	}
	stats.ConnectedClients.Inc()
	log.Debugf("client %s connected", c.id)
	return nil
}

func (h *Hub) unregister(c *client) {
	h.lock.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.lock.Unlock()
		return
	}
	delete(h.clients, c.id)
	for topic, clients := range h.clientsByTopic {
		delete(clients, c.id)
		if len(clients) <= 0 {
			delete(h.clientsByTopic, topic)
		}
	}
	// A user goes offline only when the last of its connections closes.
	wentOffline := false
	if c.isAuthenticated() {
		h.connsByUser[c.userID]--
		if h.connsByUser[c.userID] <= 0 {
			delete(h.connsByUser, c.userID)
			wentOffline = true
		}
	}
	closed := h.closed
	h.lock.Unlock()

	stats.ConnectedClients.Dec()
	log.Debugf("client %s disconnected", c.id)

	if wentOffline && !closed {
		h.announcePresence(c.userID, false)
	}
}

func (h *Hub) join(c *client, topic string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	h.joinLocked(c, topic)
}

func (h *Hub) joinLocked(c *client, topic string) {
	if _, ok := h.clientsByTopic[topic]; !ok {
		h.clientsByTopic[topic] = make(map[string]*client)
	}
	h.clientsByTopic[topic][c.id] = c
}

func (h *Hub) leave(c *client, topic string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	clients, ok := h.clientsByTopic[topic]
	if !ok {
		return
	}
	delete(clients, c.id)
	if len(clients) <= 0 {
		delete(h.clientsByTopic, topic)
	}
}

// dispatch is the bus handler. It never blocks: events for clients with a
// full send buffer are dropped.
func (h *Hub) dispatch(event ports.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Warn("failed to serialize event")
		return
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	for _, c := range h.clientsByTopic[event.Topic] {
		select {
		case c.send <- msg:
		default:
			stats.EventsDropped.Inc()
			log.Debugf("send buffer of client %s full, dropping %s", c.id, event.Type)
		}
	}
}

func (h *Hub) announcePresence(userID string, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	if err := h.userSvc.Touch(ctx, userID); err != nil {
		log.WithError(err).Debugf("failed to touch user %s", userID)
	}
	if err := h.pubsubSvc.PublishUserPresence(ctx, userID, online); err != nil {
		log.WithError(err).Warn("failed to publish presence")
	}
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool)
	for _, origin := range origins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = true
	}
	if len(allowed) <= 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

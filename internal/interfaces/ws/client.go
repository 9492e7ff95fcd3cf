package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/barter-daemon/internal/core/application/pubsub"
)

const (
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
	MessageTyping      = "typing"
	MessagePresence    = "presence"

	// MessageError is the type of the messages sent to a client whose
	// request could not be served.
	MessageError = "ERROR"
)

// Message is a request sent by a client.
type Message struct {
	Type       string `json:"type"`
	ExchangeID string `json:"exchangeId,omitempty"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) isAuthenticated() bool {
	return c.userID != ""
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.hub.unregister(c)
		c.conn.Close()
	})
}

// writePump is the only goroutine writing to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.WithError(err).Debugf("write to client %s failed", c.id)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump is the only goroutine reading from the connection.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
			) {
				log.WithError(err).Debugf("client %s read failed", c.id)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handle(msg)
	}
}

func (c *client) handle(msg Message) {
	switch msg.Type {
	case MessageSubscribe:
		if msg.ExchangeID == "" {
			c.sendError("missing exchange id")
			return
		}
		c.hub.join(c, pubsub.ExchangeTopic(msg.ExchangeID))
	case MessageUnsubscribe:
		if msg.ExchangeID == "" {
			c.sendError("missing exchange id")
			return
		}
		c.hub.leave(c, pubsub.ExchangeTopic(msg.ExchangeID))
	case MessageTyping:
		if !c.isAuthenticated() {
			c.sendError("authentication required")
			return
		}
		if msg.ExchangeID == "" {
			c.sendError("missing exchange id")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := c.hub.pubsubSvc.PublishTyping(ctx, msg.ExchangeID, c.userID); err != nil {
			log.WithError(err).Warn("failed to publish typing indicator")
		}
	case MessagePresence:
		if !c.isAuthenticated() {
			c.sendError("authentication required")
			return
		}
		c.hub.announcePresence(c.userID, true)
	default:
		c.sendError("unknown message type")
	}
}

func (c *client) sendError(reason string) {
	buf, _ := json.Marshal(errorMessage{MessageError, reason})
	select {
	case c.send <- buf:
	default:
	}
}

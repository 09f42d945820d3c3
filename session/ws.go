package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSHub upgrades incoming HTTP requests to websocket connections and
// registers each one into a Registry as its own Session, since unlike
// SSE, gorilla/websocket gives the caller one connection at a time rather
// than a pre-multiplexed broadcast channel.
type WSHub struct {
	upgrader websocket.Upgrader
	nextID   int64
}

// NewWSHub constructs a hub that accepts connections from any origin,
// suitable for a controller reachable only on a trusted local network.
func NewWSHub() *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Accept upgrades r and registers the resulting connection into reg. The
// returned client is removed from reg automatically once the connection
// drops.
func (h *WSHub) Accept(w http.ResponseWriter, r *http.Request, reg *Registry) (*WSClient, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	id := atomic.AddInt64(&h.nextID, 1)
	c := &WSClient{
		id:   fmt.Sprintf("ws:%d", id),
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}

	reg.Add(c)
	go c.writePump()
	go c.readPump(func() { reg.Remove(c) })

	return c, nil
}

// WSClient is a single websocket connection's Session.
type WSClient struct {
	id   string
	conn *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *WSClient) ID() string { return c.id }

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Send queues event/payload for delivery on the write pump. It never
// blocks: a full send buffer drops the message rather than stall the
// controller that's broadcasting to every session.
func (c *WSClient) Send(event string, payload []byte) error {
	env, err := json.Marshal(wsEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case c.send <- env:
		return nil
	case <-c.done:
		return errors.New("websocket session closed")
	default:
		return errors.New("websocket send buffer full")
	}
}

// Close closes the underlying connection. Safe to call more than once.
func (c *WSClient) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump drains and discards inbound frames -- this connection only
// exists to push controller events out -- until the connection closes,
// then calls onClose so the hub can drop it from the registry.
func (c *WSClient) readPump(onClose func()) {
	defer onClose()
	defer c.Close()

	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

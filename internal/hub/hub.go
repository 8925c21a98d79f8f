// Package hub fans controller messages out to connected WebSocket clients.
package hub

import (
	"errors"
	"sync"
	"time"

	"environment_controller/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	// sendBuffer must hold a full unbatched snapshot plus some headroom.
	sendBuffer = 512
)

var (
	ErrClientGone = errors.New("client disconnected")
	ErrSlowClient = errors.New("client send buffer full")
)

// Handler receives client lifecycle and message callbacks. Callbacks run on
// the client's read goroutine.
type Handler interface {
	OnConnect(c *Client)
	OnDisconnect(c *Client)
	OnMessage(c *Client, payload []byte)
}

// Client is one connected peer.
type Client struct {
	id        string
	remote    string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Client) ID() string { return c.id }

// RemoteAddr is the peer address reported at upgrade time.
func (c *Client) RemoteAddr() string { return c.remote }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue never blocks. A client that cannot keep up is closed.
func (c *Client) enqueue(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientGone
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.close()
		return ErrSlowClient
	}
}

// Hub tracks connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
	serving sync.WaitGroup
	log     *logger.Logger
}

func New(log *logger.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), log: log}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues payload for every connected client and returns how many
// accepted it. Per-client order matches call order.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if err := c.enqueue(payload); err != nil {
			if h.log != nil {
				h.log.Warnw("ws_broadcast_dropped", "client", c.id, "err", err)
			}
			continue
		}
		n++
	}
	return n
}

// SendTo queues payload for a single client.
func (h *Hub) SendTo(c *Client, payload []byte) error {
	return c.enqueue(payload)
}

// Close disconnects every client and returns once each client's
// OnDisconnect has finished. Connections served after Close are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, c := range h.clients {
		c.close()
	}
	h.mu.Unlock()
	h.serving.Wait()
}

// register adds c unless the hub is closed.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.serving.Add(1)
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

// Serve runs conn until either side closes it. It blocks on the read loop;
// writes happen on a separate goroutine.
func (h *Hub) Serve(conn *websocket.Conn, handler Handler) {
	c := &Client{
		id:     xid.New().String(),
		remote: conn.RemoteAddr().String(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	if !h.register(c) {
		_ = conn.Close()
		return
	}
	defer h.serving.Done()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(c)
	}()

	handler.OnConnect(c)

	h.readLoop(c, handler)

	h.unregister(c)
	c.close()
	<-writerDone
	_ = conn.Close()
	handler.OnDisconnect(c)
}

func (h *Hub) readLoop(c *Client, handler Handler) {
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		typ, payload, err := c.conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "client", c.id, "err", err)
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		handler.OnMessage(c, payload)
	}
}

// writeLoop drains the send queue and keeps the connection alive with pings.
// On exit it unblocks the reader by closing the connection.
func (h *Hub) writeLoop(c *Client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "client", c.id, "err", err)
				}
				c.close()
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "client", c.id, "err", err)
				}
				c.close()
				return
			}
		}
	}
}

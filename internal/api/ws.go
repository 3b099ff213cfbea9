package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mtlprog/dripstat/internal/estimate"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 16
)

// wsClient owns one connection. Only its writer goroutine writes to conn.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster pushes estimate snapshots to connected WebSocket clients.
type Broadcaster struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	latest   func() (estimate.Snapshot, bool)
}

// NewBroadcaster creates a broadcaster. When latest is set, new clients get
// the current snapshot right after connecting.
func NewBroadcaster(latest func() (estimate.Snapshot, bool)) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		latest:   latest,
	}
}

// Broadcast queues snap for every client and returns without waiting for
// delivery. A client whose queue is full is disconnected. It satisfies
// estimate.Observer.
func (b *Broadcaster) Broadcast(snap estimate.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Broadcaster: failed to marshal snapshot", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			slog.Debug("Broadcaster: dropping slow client", "remote", c.conn.RemoteAddr().String())
			b.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Handler returns an http.HandlerFunc that accepts WebSocket connections.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("Broadcaster: upgrade failed", "error", err)
			return
		}

		c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
		if b.latest != nil {
			if snap, ok := b.latest(); ok {
				if msg, err := json.Marshal(snap); err == nil {
					c.send <- msg
				}
			}
		}

		b.mu.Lock()
		b.clients[c] = struct{}{}
		b.mu.Unlock()

		go b.writeLoop(c)
		go b.readLoop(c)
	}
}

// writeLoop delivers queued messages until the queue is closed or a write fails.
func (b *Broadcaster) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("Broadcaster: write failed", "remote", c.conn.RemoteAddr().String(), "error", err)
			b.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

// readLoop discards client messages and unregisters the client on close.
func (b *Broadcaster) readLoop(c *wsClient) {
	defer b.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(c *wsClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(c)
}

// removeLocked unregisters c and closes its queue, which stops its writer.
func (b *Broadcaster) removeLocked(c *wsClient) {
	if _, ok := b.clients[c]; !ok {
		return
	}
	delete(b.clients, c)
	close(c.send)
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		b.removeLocked(c)
	}
}

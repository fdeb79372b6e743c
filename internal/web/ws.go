package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/monitor"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the device serves its own page on an open access point
	},
}

// Hub pushes every cycle's state to connected websocket clients.
// It implements monitor.Publisher.
type Hub struct {
	log   *slog.Logger
	state StateSource

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns an empty hub. state supplies the snapshot sent on connect.
func NewHub(log *slog.Logger, state StateSource) *Hub {
	return &Hub{
		log:     log.With(slog.String("component", "ws")),
		state:   state,
		clients: make(map[*wsClient]struct{}),
	}
}

// Publish queues s for every client. Clients whose buffer is full miss
// this update rather than stalling the monitor loop.
func (h *Hub) Publish(s monitor.State) {
	payload, err := json.Marshal(s)
	if err != nil {
		h.log.Error("state marshal error", logger.Err(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Debug("client too slow, dropping update")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones. The HTTP server's
// Shutdown does not reach hijacked websocket connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.conn.Close()
	}
}

// ServeHTTP upgrades the request and streams states until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", logger.Err(err))
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if payload, err := json.Marshal(h.state.Latest()); err == nil {
		c.send <- payload
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.readLoop(c, done)
	h.writeLoop(c, done)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	conn.Close()
}

// readLoop discards client messages and closes done when the peer goes away.
func (h *Hub) readLoop(c *wsClient, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", logger.Err(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *wsClient, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debug("websocket write error", logger.Err(err))
				return
			}
		}
	}
}

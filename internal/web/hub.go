package web

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type     string        `json:"type"`
	Field    string        `json:"field,omitempty"`
	Value    *float64      `json:"value,omitempty"`
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans snapshots out to websocket clients. A client whose buffer is full
// misses frames; the clock never waits on the network.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	logger  *slog.Logger
	dropped atomic.Uint64
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: make(map[uuid.UUID]*client), logger: logger}
}

// OnSnapshot implements sim.Observer.
func (h *Hub) OnSnapshot(s sim.Snapshot) {
	frame, err := json.Marshal(Message{Type: "snapshot", Snapshot: &s})
	if err != nil {
		h.logger.Error("encode snapshot", "err", err)
		return
	}
	h.broadcast(frame)
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "client", c.id, "remote", conn.RemoteAddr().String())
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if ok {
		close(c.done)
		c.conn.Close()
		h.logger.Info("websocket client disconnected", "client", c.id)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of frames discarded for slow clients.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.remove(c)
	}
}

func (h *Hub) writePump(c *client) {
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// queue sends a frame to one client without blocking.
func (c *client) queue(m Message) {
	frame, err := json.Marshal(m)
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

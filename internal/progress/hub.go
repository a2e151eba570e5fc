// Package progress streams dataset and theographic loading progress to
// dashboard clients over a websocket.
package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ringmast4r/project147/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

type MessageType string

const (
	TypeProgress MessageType = "progress"
	TypeComplete MessageType = "complete"
	TypeError    MessageType = "error"
)

type Message struct {
	Type      MessageType    `json:"type"`
	Operation string         `json:"operation"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans progress messages out to every connected client. New clients
// first receive the latest message of each operation.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	pumps      sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	clients map[*client]bool
	last    map[string][]byte
}

// NewHub returns a hub accepting the given origins. No origins accepts
// every origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
		last:       make(map[string][]byte),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if slices.Contains(allowedOrigins, origin) {
				return true
			}
			logger.Warn("[Progress] Rejected websocket origin", "origin", origin)
			return false
		},
	}
	return h
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every connection and waits for the client goroutines to exit.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		h.closed = true
		close(h.done)
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
			c.conn.Close()
		}
		h.mu.Unlock()
		h.pumps.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			for _, msg := range h.last {
				c.send <- msg
			}
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("[Progress] Client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("[Progress] Client disconnected", "clients", n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. Messages are dropped when the
// queue is full.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[Progress] Could not encode message", "err", err)
		return
	}

	h.mu.Lock()
	h.last[msg.Operation] = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("[Progress] Broadcast queue full, dropping message", "operation", msg.Operation)
	}
}

// Reporter returns a progress callback for operation. 100 percent is sent
// as a completion message.
func (h *Hub) Reporter(operation string) func(percent int, message string) {
	return func(percent int, message string) {
		t := TypeProgress
		if percent >= 100 {
			t = TypeComplete
		}
		h.Broadcast(Message{Type: t, Operation: operation, Progress: percent, Message: message})
	}
}

func (h *Hub) Error(operation, message string) {
	h.Broadcast(Message{Type: TypeError, Operation: operation, Message: message})
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("[Progress] Websocket upgrade failed", "err", err)
		return
	}

	// Pumps are counted before the handoff so that Run cannot start
	// waiting on them in between.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.pumps.Add(2)
	h.mu.Unlock()

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		h.pumps.Add(-2)
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("[Progress] Websocket closed", "err", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

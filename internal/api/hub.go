package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tradejournal/internal/app"
	"tradejournal/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 16
	broadcastQueue = 64
)

// Message is the envelope pushed to dashboard clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Message types.
const (
	TypeDashboard  = "dashboard"
	TypeOpenEditor = "openEditor"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans dashboard updates out to websocket clients. A client whose buffer
// is full is dropped rather than blocking the journal.
type Hub struct {
	logger   ports.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	clients map[*client]struct{} // Owned by Run
	latest  []byte               // Owned by Run; greeted to new clients
	count   atomic.Int32
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger ports.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			if h.latest != nil {
				h.deliver(ctx, c, h.latest)
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			if len(msg) > 0 && isDashboard(msg) {
				h.latest = msg
			}
			for c := range h.clients {
				h.deliver(ctx, c, msg)
			}
		}
	}
}

func (h *Hub) deliver(ctx context.Context, c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn(ctx, "Dropping slow dashboard client", ports.Fields{"remote": c.conn.RemoteAddr().String()})
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Publish queues msg for every client. It never blocks; when the queue is
// full the message is discarded.
func (h *Hub) Publish(ctx context.Context, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(ctx, err, "Failed to encode hub message", ports.Fields{"type": msg.Type})
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn(ctx, "Hub queue full, message discarded", ports.Fields{"type": msg.Type})
	}
}

// PublishDashboard matches app.DashboardListener.
func (h *Hub) PublishDashboard(ctx context.Context, d app.Dashboard) {
	h.Publish(ctx, Message{Type: TypeDashboard, Data: d})
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "Websocket upgrade failed", ports.Fields{"error": err.Error()})
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	h.logger.Debug(r.Context(), "Dashboard client connected", ports.Fields{"remote": conn.RemoteAddr().String()})

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards inbound frames and keeps the pong deadline fresh.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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

func isDashboard(payload []byte) bool {
	var head struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(payload, &head) == nil && head.Type == TypeDashboard
}

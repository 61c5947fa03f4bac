// Package ws streams simulation frames to connected browsers over
// WebSocket, grounded on
// reddit-cluster-map/backend/internal/api/handlers.Hub (the client
// registry and fan-out broadcast loop) and
// reddit-cluster-map/backend/internal/middleware.RateLimiter (frame-rate
// throttling via golang.org/x/time/rate), routed through gorilla/mux.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/barneshut-nbody/distsim/render"
)

const (
	writeWait      = 10 * time.Second
	maxFrameBuffer = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// point is one drawn body within a frame.
type point struct {
	X float64      `json:"x"`
	Y float64      `json:"y"`
	C render.Color `json:"color"`
}

// frameMessage is one rendered frame, serialized to JSON for clients.
type frameMessage struct {
	Type   string  `json:"type"`
	Points []point `json:"points"`
}

// Hub fans frames out to every connected WebSocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty client registry.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Mux returns a gorilla/mux router exposing GET /ws for frame streaming.
func (h *Hub) Mux() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.handleUpgrade).Methods(http.MethodGet)
	return r
}

func (h *Hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("render/ws: upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, maxFrameBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go h.readUntilClose(c)
}

// readUntilClose drains (and discards) inbound messages so pings/pongs
// keep flowing, and deregisters the client once its connection drops.
func (h *Hub) readUntilClose(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// slow client: drop this frame rather than block the step loop.
		}
	}
}

// Renderer implements render.Renderer by accumulating DrawPoint calls
// into a frame buffer and broadcasting it on Flush, throttled to at most
// one frame per limiter tick so a fast simulation loop can't flood
// browser clients.
type Renderer struct {
	hub     *Hub
	limiter *rate.Limiter
	points  []point
}

// New creates a Renderer broadcasting through hub, throttled to
// framesPerSecond.
func New(hub *Hub, framesPerSecond float64) *Renderer {
	return &Renderer{
		hub:     hub,
		limiter: rate.NewLimiter(rate.Limit(framesPerSecond), 1),
	}
}

func (r *Renderer) Clear(render.Color) error {
	r.points = r.points[:0]
	return nil
}

func (r *Renderer) DrawPoint(x, y float64, c render.Color) error {
	r.points = append(r.points, point{X: x, Y: y, C: c})
	return nil
}

// Flush serializes the accumulated frame and broadcasts it, unless the
// frame-rate limiter is still cooling down, in which case the frame is
// silently dropped.
func (r *Renderer) Flush() error {
	if !r.limiter.Allow() {
		return nil
	}
	data, err := json.Marshal(frameMessage{Type: "frame", Points: r.points})
	if err != nil {
		return err
	}
	r.hub.broadcast(data)
	return nil
}

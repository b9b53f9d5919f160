// Package ws pushes refresh notifications to browser dashboards.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	topMovers  = 5
)

// Event is one frame sent to subscribers.
type Event struct {
	Type   string                `json:"type"`
	Status models.SnapshotStatus `json:"status"`
	Movers []models.Quote        `json:"movers,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans refresh events out to connected clients. Each client has a
// bounded queue; a client that falls behind is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	status   func() models.SnapshotStatus
	upgrader websocket.Upgrader
	buffer   int
	log      *applogger.Logger
}

func NewHub(status func() models.SnapshotStatus, buffer int, l *applogger.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		status:  status,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		buffer: buffer,
		log:    l.With("ws"),
	}
}

var _ drepo.SnapshotListener = (*Hub)(nil)

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/snapshots", h.Serve)
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnSnapshot broadcasts the refresh status and the biggest gainers.
func (h *Hub) OnSnapshot(_ context.Context, snap models.Snapshot) {
	ev := Event{Type: "snapshot", Movers: movers(snap, topMovers)}
	if h.status != nil {
		ev.Status = h.status()
	}
	h.Broadcast(ev)
}

// Broadcast queues ev for every client without blocking.
func (h *Hub) Broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode ws event", applogger.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow ws client", applogger.String("remote", c.conn.RemoteAddr().String()))
		h.remove(c)
	}
}

// Serve upgrades the request and streams events until the peer leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	if h.status != nil {
		if b, err := json.Marshal(Event{Type: "status", Status: h.status()}); err == nil {
			cl.send <- b
		}
	}

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// readLoop discards client frames and notices disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	cs := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		cs = append(cs, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range cs {
		c.close()
	}
	return nil
}

func movers(snap models.Snapshot, n int) []models.Quote {
	if snap.Empty() || n <= 0 {
		return nil
	}
	qs := append([]models.Quote(nil), snap.Quotes...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].ChangePct > qs[j].ChangePct })
	if len(qs) > n {
		qs = qs[:n]
	}
	return qs
}

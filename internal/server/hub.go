package server

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/metrics"
)

// Message types understood by the reload client.
const (
	MsgFullReload = "full_reload"
	MsgCSSUpdate  = "css_update"
	MsgBuildError = "build_error"
	MsgBuildOK    = "build_ok"
)

// UpdateMessage is sent to every connected browser.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected browser tab.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans reload events out to the connected clients. It implements
// pipeline.Notifier.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int32
	logger     logging.Logger
	metrics    *metrics.Metrics

	// lastError is replayed to clients that connect while a build is broken.
	mu        sync.Mutex
	lastError []byte
}

// NewHub creates a hub. Run must be called for messages to be delivered.
func NewHub(logger logging.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("reload"),
		metrics:    m,
	}
}

// Run delivers messages until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.setClients()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setClients()
			h.logger.Debug(ctx, "client connected", "clients", len(h.clients))
			h.mu.Lock()
			pending := h.lastError
			h.mu.Unlock()
			if pending != nil {
				c.send <- pending
			}

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.setClients()
				h.logger.Debug(ctx, "client disconnected", "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow client; drop it rather than stall the others.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.setClients()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

func (h *Hub) setClients() {
	h.count.Store(int32(len(h.clients)))
	h.metrics.SetClients(len(h.clients))
}

func (h *Hub) send(msg UpdateMessage) {
	msg.Timestamp = time.Now()
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(context.Background(), err, "cannot encode reload message")
		data = []byte(`{"type":"full_reload"}`)
	}

	h.mu.Lock()
	switch msg.Type {
	case MsgBuildError:
		h.lastError = data
	case MsgBuildOK:
		h.lastError = nil
	}
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

func (h *Hub) Reload() {
	h.send(UpdateMessage{Type: MsgFullReload})
}

func (h *Hub) CSSUpdate(path string) {
	h.send(UpdateMessage{Type: MsgCSSUpdate, Path: path})
}

func (h *Hub) BuildError(title, message string) {
	h.send(UpdateMessage{Type: MsgBuildError, Title: title, Message: message})
}

func (h *Hub) BuildOK() {
	h.send(UpdateMessage{Type: MsgBuildOK})
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

func (s *DevServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	origin, _ := url.Parse(r.Header.Get("Origin"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{origin.Host},
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  s.hub,
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go client.writePump()
	client.readPump(s.ctx)
}

// checkOrigin accepts same-host pages, the configured host and its loopback
// aliases, and any configured allowed origin.
func (s *DevServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	if r.Host != "" && originURL.Host == r.Host {
		return true
	}

	port := s.port()
	allowedHosts := []string{
		fmt.Sprintf("%s:%d", s.cfg.Server.Host, port),
		fmt.Sprintf("localhost:%d", port),
		fmt.Sprintf("127.0.0.1:%d", port),
	}
	for _, allowed := range allowedHosts {
		if originURL.Host == allowed {
			return true
		}
	}

	return false
}

// readPump drains the connection so control frames are processed, and
// unregisters the client when the peer goes away.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		// The reload client never sends data; Read returns when the peer
		// closes or ctx ends.
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				c.hub.logger.Debug(ctx, "websocket closed", "error", err.Error())
			}
			return
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// SPDX-License-Identifier: MIT

// Package web serves the spectrum to browser clients. An HTTP server
// owns two endpoints: / returns a canvas page that mirrors the native
// surfaces, and /ws streams bar geometry as JSON over WebSocket.
//
// The server implements render.Surface. Remote consumers are best
// effort: Update never fails, and a client that cannot keep up loses
// frames, never the connection.
package web

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"specviz/internal/config"
	"specviz/internal/log"
	"specviz/internal/render"
)

const (
	// clientSendBuffer bounds the per-client frame backlog.
	clientSendBuffer = 256

	writeTimeout = 5 * time.Second
)

// Wire messages. A layout message greets every client; frame messages
// follow, one per render tick, each bar encoded as [x0, y0, x1, y1] in
// canvas pixels.
type layoutMessage struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bars   int    `json:"bars"`
	Gap    int    `json:"gap"`
}

type frameMessage struct {
	Type string   `json:"type"`
	Bars [][4]int `json:"bars"`
}

// Server broadcasts bar geometry to WebSocket clients.
type Server struct {
	addr     string
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
	layout  render.Layout
	server  *http.Server
	lnAddr  string

	closeOnce sync.Once

	// bars is scratch for Update, which runs on the render loop
	// goroutine only.
	bars [][4]int
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer builds the surface from the configured listen address. The
// HTTP server starts in Open, not here.
func NewServer(cfg *config.Config, logger *logrus.Logger) *Server {
	return &Server{
		addr: cfg.ListenAddr,
		log:  log.WithComponent(logger, "web"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]bool),
	}
}

// Open binds the listen address and starts serving. Binding happens
// synchronously so a taken port fails startup instead of turning into
// a dead endpoint later.
func (s *Server) Open(layout render.Layout) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("web surface listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{Handler: mux}

	s.mu.Lock()
	s.layout = layout
	s.server = srv
	s.lnAddr = ln.Addr().String()
	s.mu.Unlock()

	s.log.WithField("addr", ln.Addr().String()).Info("web surface listening")

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("web surface server stopped")
		}
	}()
	return nil
}

// Addr reports the bound listen address once Open has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lnAddr
}

// ClientCount reports the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Update broadcasts one frame of bar geometry. Slow or gone clients
// lose the frame; the render loop never sees an error from here.
func (s *Server) Update(rects []render.Rect) error {
	if s.ClientCount() == 0 {
		return nil
	}

	s.bars = s.bars[:0]
	for _, r := range rects {
		s.bars = append(s.bars, [4]int{r.X0, r.Y0, r.X1, r.Y1})
	}
	data, err := json.Marshal(frameMessage{Type: "frame", Bars: s.bars})
	if err != nil {
		s.log.WithError(err).Error("marshal frame")
		return nil
	}

	s.mu.Lock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, this frame is lost for them.
		}
	}
	s.mu.Unlock()
	return nil
}

// Close disconnects every client and shuts the HTTP server down. Safe
// to call more than once.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		for c := range s.clients {
			delete(s.clients, c)
			close(c.send)
			c.conn.Close()
		}
		srv := s.server
		s.mu.Unlock()

		if srv != nil {
			err = srv.Close()
		}
		s.log.Info("web surface closed")
	})
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	// The greeting is queued before the client becomes visible to
	// Update, so every client sees the layout before any frame.
	s.mu.Lock()
	hello, merr := json.Marshal(layoutMessage{
		Type:   "layout",
		Width:  s.layout.Width,
		Height: s.layout.Height,
		Bars:   s.layout.Bars,
		Gap:    s.layout.Gap,
	})
	if merr == nil {
		c.send <- hello
	}
	s.clients[c] = true
	n := len(s.clients)
	s.mu.Unlock()

	s.log.WithField("clients", n).Debug("websocket client connected")

	go s.writePump(c)
	go s.readPump(c)
}

// readPump drains the connection until it errors, which is the only
// signal that a client is gone. Inbound payloads are ignored.
func (s *Server) readPump(c *client) {
	defer s.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.unregister(c)
			return
		}
	}
	// Send channel closed by unregister. Tell the client before
	// hanging up.
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// unregister removes the client and closes its send channel. The
// channel is closed only under mu after the client leaves the map, so
// Update can never write to a closed channel.
func (s *Server) unregister(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	if ok {
		delete(s.clients, c)
		close(c.send)
	}
	n := len(s.clients)
	s.mu.Unlock()

	c.conn.Close()
	if ok {
		s.log.WithField("clients", n).Debug("websocket client disconnected")
	}
}

var _ render.Surface = (*Server)(nil)

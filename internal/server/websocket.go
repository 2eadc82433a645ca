package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue queues frame without blocking; a full queue drops it.
func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) writeLoop(timeout time.Duration, logger log.Log) {
	defer c.conn.Close()
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("Websocket write failed", log.Error(err))
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout))
			return
		}
	}
}

// readLoop discards client frames until the connection fails.
func (c *client) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	buffer       int
	writeTimeout time.Duration
	logger       log.Log
}

func newHub(buffer int, writeTimeout time.Duration, logger log.Log) *hub {
	return &hub{
		clients:      make(map[*client]struct{}),
		buffer:       buffer,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(frame) {
			h.logger.Debug("Dropping frame for slow client",
				log.String("remote_addr", c.conn.RemoteAddr().String()))
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
	}
}

// handleWebSocket streams one simulation.Advanced frame per advance, starting
// with the current state.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, s.hub.buffer),
		done: make(chan struct{}),
	}
	if initial, err := json.Marshal(simulation.Advanced{Tick: s.source.Tick(), Snapshot: s.source.Snapshot()}); err == nil {
		c.enqueue(initial)
	}

	s.hub.add(c)
	clientLogger := s.logger.With(log.String("remote_addr", conn.RemoteAddr().String()))
	clientLogger.Info("Client connected", log.Int("total_clients", s.hub.len()))

	go c.writeLoop(s.hub.writeTimeout, clientLogger)
	c.readLoop()

	s.hub.remove(c)
	c.close()
	clientLogger.Info("Client disconnected", log.Int("total_clients", s.hub.len()))
}

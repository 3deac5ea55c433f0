package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/kurobon/nexusvc/internal/git"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// hub fans session events out to the WebSocket clients watching that
// session.
type hub struct {
	logger *log.Logger

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]string // conn -> session id

	broadcast chan git.Event
	writeWait time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func newHub(logger *log.Logger) *hub {
	h := &hub{
		logger:    logger.WithPrefix("ws"),
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan git.Event, 256),
		writeWait: writeWait,
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

// publish queues ev without blocking. Events are dropped when the buffer is
// full; clients resynchronize on the next state event.
func (h *hub) publish(ev git.Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "session", ev.Session, "type", ev.Type)
	}
}

func (h *hub) run() {
	for {
		select {
		case ev := <-h.broadcast:
			h.send(ev)
		case <-h.done:
			return
		}
	}
}

func (h *hub) send(ev git.Event) {
	h.clientsMu.RLock()
	var targets []*websocket.Conn
	for conn, session := range h.clients {
		if session == ev.Session {
			targets = append(targets, conn)
		}
	}
	h.clientsMu.RUnlock()

	for _, conn := range targets {
		if err := writeEvent(conn, ev, h.writeWait); err != nil {
			h.logger.Debug("write failed", "session", ev.Session, "err", err)
			h.remove(conn)
		}
	}
}

// writeEvent writes ev, failing when the client has not taken it within wait.
func writeEvent(conn *websocket.Conn, ev git.Event, wait time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

func (h *hub) add(conn *websocket.Conn, session string) int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[conn] = session
	return len(h.clients)
}

func (h *hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.clientsMu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

func (h *hub) count() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *hub) close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.clientsMu.Lock()
		for conn := range h.clients {
			_ = conn.Close()
		}
		h.clients = make(map[*websocket.Conn]string)
		h.clientsMu.Unlock()
	})
}

// handleWebSocket streams the events of one session. The current graph is
// sent first, then every state, busy and error event as it happens.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	initial := git.Event{Type: git.EventState, Session: session.ID, Data: session.Engine.GraphState()}
	if err := writeEvent(conn, initial, s.hub.writeWait); err != nil {
		_ = conn.Close()
		return
	}
	total := s.hub.add(conn, session.ID)
	s.logger.Info("websocket client connected", "session", session.ID, "clients", total)

	// Keep the connection open until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.remove(conn)
			s.logger.Info("websocket client disconnected", "session", session.ID, "clients", s.hub.count())
			return
		}
	}
}

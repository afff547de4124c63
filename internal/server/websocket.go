package server

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/skirmish/skirmish/internal/core/events"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frame is one broadcast payload: the world snapshot plus everything that
// happened since the last frame.
type frame struct {
	Entities []entityView   `json:"entities"`
	Events   []events.Event `json:"events"`
	Dropped  uint64         `json:"dropped_events,omitempty"`
}

// hub fans simulation frames out to every connected websocket at a fixed
// rate. Writes are serialized per connection; a failed write evicts the
// client.
type hub struct {
	sess     *session.Session
	interval time.Duration
	logger   log.Log

	mx      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

func newHub(sess *session.Session, interval time.Duration, logger log.Log) *hub {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &hub{
		sess:     sess,
		interval: interval,
		logger:   logger,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (h *hub) register(conn *websocket.Conn) {
	h.mx.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mx.Unlock()
	h.logger.Debug("websocket client connected",
		log.String("remote", conn.RemoteAddr().String()),
	)
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mx.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	h.mx.Unlock()
	if present {
		_ = conn.Close()
	}
}

func (h *hub) run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.advance()
			h.broadcast()
		}
	}
}

// moveSpeed is how fast the demo host walks entities toward their
// waypoints, in world units per second.
const moveSpeed = 120.0

// advance steps every active combatant toward its current waypoint.
// Movement is the host's job, not the engine's; this is the demo host's
// minimal take on it.
func (h *hub) advance() {
	step := moveSpeed * h.interval.Seconds()
	for _, id := range h.sess.ActiveCombatants() {
		wx, wy, ok := h.sess.GetWaypoint(id)
		if !ok {
			continue
		}
		x, y, ok := h.sess.GetPosition(id)
		if !ok {
			continue
		}
		dx, dy := wx-x, wy-y
		dist := math.Hypot(dx, dy)
		if dist <= step {
			h.sess.UpdatePosition(id, wx, wy)
			continue
		}
		h.sess.UpdatePosition(id, x+dx/dist*step, y+dy/dist*step)
	}
}

func (h *hub) broadcast() {
	h.mx.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, mu := range h.clients {
		conns[c] = mu
	}
	h.mx.Unlock()

	// Events are drained even with no listeners so the queue never sits
	// full between client connections.
	evs := h.sess.PollEvents()
	if len(conns) == 0 {
		return
	}

	snap := h.sess.Snapshot()
	views := make([]entityView, 0, len(snap))
	for _, r := range snap {
		views = append(views, toView(r))
	}
	f := frame{
		Entities: views,
		Events:   evs,
		Dropped:  h.sess.DroppedEvents(),
	}

	for conn, mu := range conns {
		mu.Lock()
		err := conn.WriteJSON(f)
		mu.Unlock()
		if err != nil {
			h.logger.Debug("websocket write failed, evicting client",
				log.Error(err),
			)
			h.unregister(conn)
		}
	}
}

func (h *hub) closeAll() {
	h.mx.Lock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mx.Unlock()
}

// handleWebsocket upgrades the connection and parks it in the hub. The
// read loop exists only to notice disconnects; the feed is one-way.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	s.hub.register(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unregister(conn)
			return
		}
	}
}

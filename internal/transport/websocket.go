// Package transport exposes tables over HTTP (table lifecycle) and
// WebSocket (join/action/view), translating wire messages into
// game.Table calls. A rejected call is relayed to the client as an
// "error" message carrying the error text; the game.EngineError kind
// is not mapped to a distinct status.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"poker-platform/internal/game"
	"poker-platform/pkg/rng"
)

// allowedOrigins is the set of client origins the websocket upgrader
// accepts, set via NewRegistry. A nil/empty set falls back to allowing
// any origin, matching the reference deployment's dev-mode default.
var allowedOrigins map[string]bool

func checkOrigin(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return allowedOrigins[origin]
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// roomConn is one WebSocket connection's membership in a table's room:
// the player it authenticated as (for per-observer sanitization) and
// a write lock, since gorilla/websocket forbids concurrent writers on
// the same connection and a broadcast from the table's owner goroutine
// can otherwise race a reply written from this connection's own read
// loop.
type roomConn struct {
	conn     *websocket.Conn
	observer string
	writeMu  sync.Mutex
}

func (rc *roomConn) send(data interface{}) {
	rc.writeMu.Lock()
	defer rc.writeMu.Unlock()
	_ = rc.conn.WriteJSON(data)
}

// room is the set of live WebSocket connections watching one table.
type room struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*roomConn
}

func newRoom() *room {
	return &room{conns: make(map[*websocket.Conn]*roomConn)}
}

// join registers conn in the room, or updates its observer identity if
// it already joined (e.g. it first connected to only "view", then
// later "join"ed as a seated player).
func (rm *room) join(conn *websocket.Conn, playerID string) *roomConn {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rc, ok := rm.conns[conn]
	if !ok {
		rc = &roomConn{conn: conn}
		rm.conns[conn] = rc
	}
	rc.observer = playerID
	return rc
}

func (rm *room) leave(conn *websocket.Conn) {
	rm.mu.Lock()
	delete(rm.conns, conn)
	rm.mu.Unlock()
}

// broadcastState sends every connection in the room its own sanitized
// view of snap, so each client only ever sees what it's entitled to
// (§4.6, §6 table_state broadcast).
func (rm *room) broadcastState(snap game.TableSnapshot) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, rc := range rm.conns {
		rc.send(gin.H{"type": "table_state", "view": game.Sanitize(snap, rc.observer)})
	}
}

// broadcastActionRequest tells every connection in the room which seat
// is on the clock, so clients can highlight it without polling (§6
// action_request broadcast).
func (rm *room) broadcastActionRequest(seat int, opts game.BettingOptions) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, rc := range rm.conns {
		rc.send(gin.H{"type": "action_request", "seat": seat, "options": opts})
	}
}

// Registry owns every live table, keyed by table ID.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*game.Table
	rooms  map[string]*room
	rng    *rng.System
	newBus func(tableID string) (onState func(game.TableSnapshot), onAction func(int, game.BettingOptions))
	log    *logrus.Entry

	reapStop chan struct{}
}

// NewRegistry creates an empty table registry backed by a production
// RNG system. hooks builds the state-change/action-request callbacks
// for a given table ID (wiring in internal/events and
// internal/metrics); pass nil for no side hooks. origins restricts the
// websocket upgrader's accepted client origins; pass nil to allow any
// origin.
func NewRegistry(rngSystem *rng.System, hooks func(tableID string) (func(game.TableSnapshot), func(int, game.BettingOptions)), origins []string) *Registry {
	if len(origins) > 0 {
		allowedOrigins = make(map[string]bool, len(origins))
		for _, o := range origins {
			allowedOrigins[o] = true
		}
	}
	r := &Registry{
		tables:   make(map[string]*game.Table),
		rooms:    make(map[string]*room),
		rng:      rngSystem,
		newBus:   hooks,
		log:      logrus.WithField("component", "registry"),
		reapStop: make(chan struct{}),
	}
	go r.reapLoop()
	return r
}

// roomFor returns the connection room for tableID, creating it if this
// is the first time anything has touched that table.
func (r *Registry) roomFor(tableID string) *room {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[tableID]
	if !ok {
		rm = newRoom()
		r.rooms[tableID] = rm
	}
	return rm
}

// BroadcastState pushes a state-change snapshot to every connection
// watching tableID, each sanitized to that connection's own observer.
// It is the hook main.go wires via game.WithStateChangeHook.
func (r *Registry) BroadcastState(tableID string, snap game.TableSnapshot) {
	r.roomFor(tableID).broadcastState(snap)
}

// BroadcastActionRequest pushes an action-request notice to every
// connection watching tableID. It is the hook main.go wires via
// game.WithActionRequestHook.
func (r *Registry) BroadcastActionRequest(tableID string, seat int, opts game.BettingOptions) {
	r.roomFor(tableID).broadcastActionRequest(seat, opts)
}

// reapLoop periodically stops and removes tables that have sat with no
// seated players for longer than their configured reap interval.
func (r *Registry) reapLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	emptySince := make(map[string]time.Time)

	for {
		select {
		case <-r.reapStop:
			return
		case <-ticker.C:
			r.mu.Lock()
			for id, t := range r.tables {
				view := t.View("")
				seated := 0
				for _, s := range view.Seats {
					if s != nil {
						seated++
					}
				}
				if seated > 0 {
					delete(emptySince, id)
					continue
				}
				since, ok := emptySince[id]
				if !ok {
					emptySince[id] = time.Now()
					continue
				}
				if time.Since(since) >= t.ReapInterval() {
					t.Stop()
					delete(r.tables, id)
					delete(r.rooms, id)
					delete(emptySince, id)
					r.log.WithField("table", id).Info("reaped empty table")
				}
			}
			r.mu.Unlock()
		}
	}
}

// CreateTable starts a new table and registers it.
func (r *Registry) CreateTable(tableID string, config game.TableConfig) *game.Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	var opts []game.Option
	if r.newBus != nil {
		onState, onAction := r.newBus(tableID)
		if onState != nil {
			opts = append(opts, game.WithStateChangeHook(onState))
		}
		if onAction != nil {
			opts = append(opts, game.WithActionRequestHook(onAction))
		}
	}
	opts = append(opts, game.WithLogger(r.log.WithField("table", tableID)))

	t := game.NewTable(tableID, config, r.rng, opts...)
	t.Start(context.Background())
	r.tables[tableID] = t
	return t
}

// Get returns a table by ID, creating it with default stakes if it
// doesn't exist yet.
func (r *Registry) Get(tableID string) *game.Table {
	r.mu.RLock()
	t, ok := r.tables[tableID]
	r.mu.RUnlock()
	if ok {
		return t
	}
	return r.CreateTable(tableID, game.TableConfig{})
}

// StopAll stops every registered table, for graceful shutdown.
func (r *Registry) StopAll() {
	close(r.reapStop)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tables {
		t.Stop()
	}
}

// RegisterRoutes wires the HTTP and WebSocket endpoints onto router.
func (r *Registry) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws/:tableId", r.handleWebSocket)

	router.POST("/api/tables", func(c *gin.Context) {
		var req struct {
			TableID    string `json:"table_id"`
			SmallBlind int64  `json:"small_blind"`
			BigBlind   int64  `json:"big_blind"`
			MaxPlayers int    `json:"max_players"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		t := r.CreateTable(req.TableID, game.TableConfig{
			SmallBlind: req.SmallBlind,
			BigBlind:   req.BigBlind,
			MaxPlayers: req.MaxPlayers,
		})
		c.JSON(http.StatusCreated, gin.H{"table_id": t.ID})
	})

	router.GET("/api/tables/:tableId", func(c *gin.Context) {
		tableID := c.Param("tableId")
		r.mu.RLock()
		t, exists := r.tables[tableID]
		r.mu.RUnlock()
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}
		observer := c.Query("as")
		c.JSON(http.StatusOK, t.View(observer))
	})
}

// inboundMessage is the envelope a client sends over the WebSocket.
type inboundMessage struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Chips      int64  `json:"chips"`
	Action     string `json:"action"`
	Amount     int64  `json:"amount"`
}

func (r *Registry) handleWebSocket(c *gin.Context) {
	tableID := c.Param("tableId")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	t := r.Get(tableID)
	rm := r.roomFor(tableID)
	rc := rm.join(conn, "") // registered with no observer identity until join/view names one
	conn.SetReadDeadline(time.Now().Add(10 * time.Minute))

	defer rm.leave(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			rc.send(gin.H{"type": "error", "message": "malformed message"})
			continue
		}
		r.dispatch(rc, rm, t, msg)
	}
}

func (r *Registry) dispatch(rc *roomConn, rm *room, t *game.Table, msg inboundMessage) {
	switch msg.Type {
	case "join":
		if err := t.Join(msg.PlayerID, msg.PlayerName, msg.Chips); err != nil {
			rc.send(gin.H{"type": "error", "message": err.Error()})
			return
		}
		rm.join(rc.conn, msg.PlayerID)
		rc.send(gin.H{"type": "joined", "view": t.View(msg.PlayerID)})

	case "leave":
		if err := t.Leave(msg.PlayerID); err != nil {
			rc.send(gin.H{"type": "error", "message": err.Error()})
		}
		rm.leave(rc.conn)

	case "action":
		action := game.Action{PlayerID: msg.PlayerID, Kind: parseActionKind(msg.Action), Amount: msg.Amount}
		if err := t.SubmitAction(action); err != nil {
			rc.send(gin.H{"type": "error", "message": err.Error()})
			return
		}
		rc.send(gin.H{"type": "view", "view": t.View(msg.PlayerID)})

	case "view":
		rm.join(rc.conn, msg.PlayerID)
		rc.send(gin.H{"type": "view", "view": t.View(msg.PlayerID)})

	default:
		rc.send(gin.H{"type": "error", "message": "unknown message type"})
	}
}

func parseActionKind(s string) game.ActionKind {
	switch s {
	case "fold":
		return game.ActionFold
	case "check":
		return game.ActionCheck
	case "call":
		return game.ActionCall
	case "bet":
		return game.ActionBet
	case "raise":
		return game.ActionRaise
	case "all_in":
		return game.ActionAllIn
	default:
		return game.ActionFold
	}
}


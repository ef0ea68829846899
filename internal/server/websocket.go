package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/vehicore/internal/core/math3d"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/core/variables"
	"github.com/zeusync/vehicore/pkg/generic"
)

const (
	// allEntities is the room of clients that did not pick an entity.
	allEntities = ""

	maxCommandSize = 4096
)

// Command types accepted from clients.
const (
	CommandChange   = "change"
	CommandInteract = "interact"
)

var bufferPool = generic.NewHotPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset, 16)

// Controller executes commands sent by clients. *sim.Simulation implements it.
type Controller interface {
	Apply(ctx context.Context, ev variables.ChangeEvent) error
	Interact(ctx context.Context, entityID string, start, end math3d.Vector3) error
}

// Command is a client message. A "change" carries a variable change to
// replay; an "interact" casts a ray from Start to End against Entity. An empty
// entity falls back to the one the client watches.
type Command struct {
	Type   string                 `json:"type"`
	Change *variables.ChangeEvent `json:"change,omitempty"`
	Entity string                 `json:"entity,omitempty"`
	Start  math3d.Vector3         `json:"start"`
	End    math3d.Vector3         `json:"end"`
}

// HubConfig bounds the websocket fan-out.
type HubConfig struct {
	MaxClients   int
	WriteTimeout time.Duration
	// PingInterval is how often the server pings; a client silent for two
	// intervals is disconnected. Zero disables the read deadline.
	PingInterval time.Duration
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxClients:   1000,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

type client struct {
	id     string
	entity string
	conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *client) write(messageType int, data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Hub streams variable change events to websocket observers. Each client
// watches one entity (?entity=<id>) or, without the parameter, every entity.
// Delivery is fire-and-forget: a client whose write fails is dropped.
type Hub struct {
	config     HubConfig
	controller Controller
	logger     log.Log
	upgrader   websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	rooms  map[string]map[*client]struct{}
	count  int
	closed bool

	sent     atomic.Uint64
	dropped  atomic.Uint64
	commands atomic.Uint64
	rejected atomic.Uint64
}

// NewHub creates a hub. Client commands go to controller; with a nil
// controller they are rejected.
func NewHub(config HubConfig, controller Controller, logger log.Log) *Hub {
	if logger == nil {
		logger = log.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:     config,
		controller: controller,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger.With(log.String("component", "hub")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rooms: make(map[string]map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")

	h.mu.RLock()
	full := h.config.MaxClients > 0 && h.count >= h.config.MaxClients
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if full {
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), entity: entity, conn: conn}
	if err = h.add(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	h.logger.Debug("client connected", log.String("client_id", c.id), log.String("entity", entity))

	h.readLoop(c)
}

// readLoop reads commands until the peer leaves or stops answering pings.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(maxCommandSize)
	h.extendDeadline(c)
	c.conn.SetPongHandler(func(string) error {
		h.extendDeadline(c)
		return nil
	})
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.extendDeadline(c)
		if messageType != websocket.TextMessage {
			continue
		}
		if err = h.dispatch(c, data); err != nil {
			h.rejected.Add(1)
			h.logger.Debug("command rejected", log.String("client_id", c.id), log.Error(err))
			continue
		}
		h.commands.Add(1)
	}
}

func (h *Hub) extendDeadline(c *client) {
	if h.config.PingInterval > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * h.config.PingInterval))
	}
}

func (h *Hub) dispatch(c *client, data []byte) error {
	if h.controller == nil {
		return ErrNoController
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	entity := cmd.Entity
	if entity == "" {
		entity = c.entity
	}
	switch cmd.Type {
	case CommandChange:
		if cmd.Change == nil || cmd.Change.Key == "" {
			return ErrInvalidCommand
		}
		ev := *cmd.Change
		if ev.EntityID == "" {
			ev.EntityID = entity
		}
		if ev.EntityID == "" {
			return ErrInvalidCommand
		}
		return h.controller.Apply(h.ctx, ev)
	case CommandInteract:
		if entity == "" {
			return ErrInvalidCommand
		}
		return h.controller.Interact(h.ctx, entity, cmd.Start, cmd.End)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, cmd.Type)
	}
}

func (h *Hub) add(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if h.config.MaxClients > 0 && h.count >= h.config.MaxClients {
		return ErrMaxClientsReached
	}
	room, ok := h.rooms[c.entity]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.entity] = room
	}
	room[c] = struct{}{}
	h.count++
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.entity]; ok {
		if _, ok = room[c]; ok {
			delete(room, c)
			h.count--
			if len(room) == 0 {
				delete(h.rooms, c.entity)
			}
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Handle is a bus handler: it forwards ev to the clients watching its entity
// and to the clients watching everything. It never fails.
func (h *Hub) Handle(_ string, ev variables.ChangeEvent) error {
	h.Broadcast(ev)
	return nil
}

// Broadcast implements variables.Broadcaster.
func (h *Hub) Broadcast(ev variables.ChangeEvent) {
	targets := h.targets(ev.EntityID)
	if len(targets) == 0 {
		return
	}
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)
	if err := json.NewEncoder(buf).Encode(ev); err != nil {
		h.logger.Error("encode change event", log.String("key", ev.Key), log.Error(err))
		return
	}
	data := buf.Bytes()
	for _, c := range targets {
		if err := c.write(websocket.TextMessage, data, h.config.WriteTimeout); err != nil {
			h.dropped.Add(1)
			h.logger.Info("dropping client after failed write",
				log.String("client_id", c.id), log.Error(err))
			h.remove(c)
			continue
		}
		h.sent.Add(1)
	}
}

func (h *Hub) targets(entity string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.rooms[entity])+len(h.rooms[allEntities]))
	for c := range h.rooms[entity] {
		out = append(out, c)
	}
	if entity != allEntities {
		for c := range h.rooms[allEntities] {
			out = append(out, c)
		}
	}
	return out
}

// Ping sends a ping to every client, dropping those that cannot be reached.
func (h *Hub) Ping() {
	for _, c := range h.all() {
		c.mu.Lock()
		err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.config.WriteTimeout))
		c.mu.Unlock()
		if err != nil {
			h.dropped.Add(1)
			h.remove(c)
		}
	}
}

func (h *Hub) all() []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, h.count)
	for _, room := range h.rooms {
		for c := range room {
			out = append(out, c)
		}
	}
	return out
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// HubStats counts deliveries and client commands since the hub was created.
type HubStats struct {
	Clients  int
	Sent     uint64
	Dropped  uint64
	Commands uint64
	Rejected uint64
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		Clients:  h.Clients(),
		Sent:     h.sent.Load(),
		Dropped:  h.dropped.Load(),
		Commands: h.commands.Load(),
		Rejected: h.rejected.Load(),
	}
}

// Close disconnects every client and refuses new ones. Commands still
// waiting for the controller are abandoned.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	for _, c := range h.all() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		h.remove(c)
	}
}

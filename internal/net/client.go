package net

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"liveboard/internal/state"
)

// ConnState is the connection lifecycle state of a SyncClient.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Config configures a SyncClient.
type Config struct {
	URL         string // websocket endpoint, e.g. ws://host:8888/ws
	UserID      string
	DisplayName string
	MaxRetries  int           // reconnect attempts before giving up
	Backoff     time.Duration // fixed delay between attempts
}

const (
	defaultMaxRetries = 5
	defaultBackoff    = 2 * time.Second
)

// inboundItem is one entry of the inbound queue: either a decoded
// remote event stamped with the join epoch current at decode time, or
// a deferred cursor-eviction check. Both are applied on the single
// dispatch goroutine, so merge logic never races the queue.
type inboundItem struct {
	epoch uint64
	env   *Envelope
	evict *evictCheck
}

type evictCheck struct {
	userID string
	seenAt time.Time
}

// SyncClient merges the stream of remote mutations into the canvas
// model and emits local intents, fire-and-forget. Remote mutations
// bypass History; the only exception is board_cleared, which resets it
// board-wide.
type SyncClient struct {
	cfg      Config
	board    *state.Board
	presence *state.Presence
	history  *state.History

	// Optional notifications. OnChange fires after any remote model
	// mutation; OnStatus after every connection state change.
	OnStatus     func(ConnState)
	OnChange     func()
	OnUserJoined func(userID, displayName string)
	OnUserLeft   func(userID string)
	OnUserCount  func(count int)

	mu        sync.Mutex // guards conn, connState, boardID, epoch
	conn      *websocket.Conn
	connState ConnState
	boardID   string
	epoch     uint64

	writeMu   sync.Mutex
	inbox     chan inboundItem
	done      chan struct{}
	closeOnce sync.Once
	runOnce   sync.Once
	schedule  func(d time.Duration, f func())
}

// NewSyncClient creates a client over the given model. It does not
// connect; call Connect, or feed events directly in tests.
func NewSyncClient(cfg Config, board *state.Board, presence *state.Presence, history *state.History) *SyncClient {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	return &SyncClient{
		cfg:      cfg,
		board:    board,
		presence: presence,
		history:  history,
		inbox:    make(chan inboundItem, 256),
		done:     make(chan struct{}),
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// State returns the current connection state.
func (c *SyncClient) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connState
}

func (c *SyncClient) setState(s ConnState) {
	c.mu.Lock()
	changed := c.connState != s
	c.connState = s
	c.mu.Unlock()
	if changed && c.OnStatus != nil {
		c.OnStatus(s)
	}
}

// JoinBoard switches to a board: history and presence reset, the join
// epoch advances so in-flight events from the previous board are
// dropped, and the join intent goes out.
func (c *SyncClient) JoinBoard(boardID string) {
	c.mu.Lock()
	c.boardID = boardID
	c.epoch++
	c.mu.Unlock()
	c.history.Clear()
	c.presence.Clear()
	c.send(EventJoinBoard, JoinBoardEvent{
		BoardID:     boardID,
		UserID:      c.cfg.UserID,
		DisplayName: c.cfg.DisplayName,
	})
}

// LeaveBoard leaves the current board. Remote events still in flight
// for it are ignored from here on.
func (c *SyncClient) LeaveBoard() {
	c.mu.Lock()
	boardID := c.boardID
	c.boardID = ""
	c.epoch++
	c.mu.Unlock()
	if boardID == "" {
		return
	}
	c.presence.Clear()
	c.send(EventLeaveBoard, LeaveBoardEvent{BoardID: boardID})
}

// BoardID returns the currently joined board id, or "".
func (c *SyncClient) BoardID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boardID
}

// UserID returns this client's identity on the wire.
func (c *SyncClient) UserID() string { return c.cfg.UserID }

// Outgoing intents. The SyncClient satisfies editor.Emitter, so the
// edit engine stays transport-agnostic.

func (c *SyncClient) StrokeStart(s state.Stroke) {
	c.send(EventStrokeStart, StrokeStartEvent{
		StrokeID: s.ID,
		UserID:   s.UserID,
		Tool:     s.Tool,
		Color:    s.Color,
		Size:     s.Size,
		LayerID:  s.LayerID,
	})
}

func (c *SyncClient) StrokeUpdate(id string, points []state.StrokePoint) {
	c.send(EventStrokeUpdate, StrokeUpdateEvent{StrokeID: id, Points: points})
}

func (c *SyncClient) StrokeEnd(id string) {
	c.send(EventStrokeEnd, StrokeEndEvent{StrokeID: id})
}

func (c *SyncClient) CursorMove(x, y float64) {
	c.send(EventCursorMove, CursorMoveEvent{X: x, Y: y})
}

func (c *SyncClient) ObjectAdd(o state.Object) {
	c.send(EventObjectAdd, ObjectAddEvent{
		ObjectID:   o.ID,
		Type:       o.Type,
		Properties: o.ObjectProps,
		LayerID:    o.LayerID,
		UserID:     c.cfg.UserID,
	})
}

func (c *SyncClient) ObjectUpdate(id string, patch state.ObjectPatch) {
	c.send(EventObjectUpdate, ObjectUpdateEvent{ObjectID: id, Properties: patch})
}

func (c *SyncClient) ObjectDelete(id string) {
	c.send(EventObjectDelete, ObjectDeleteEvent{ObjectID: id})
}

func (c *SyncClient) ClearBoard() {
	c.send(EventClearBoard, struct{}{})
}

// send marshals and writes one intent. An intent is considered sent
// once handed to the transport; failures are logged, never retried at
// this layer.
func (c *SyncClient) send(eventType string, payload any) {
	data, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("[sync] encode %s: %v", eventType, err)
		return
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		log.Printf("[sync] drop outgoing %s: not connected", eventType)
		return
	}
	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		log.Printf("[sync] write %s: %v", eventType, err)
	}
}

// enqueue stamps a decoded event with the current join epoch and puts
// it on the inbound queue.
func (c *SyncClient) enqueue(env Envelope) {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	select {
	case c.inbox <- inboundItem{epoch: epoch, env: &env}:
	case <-c.done:
	}
}

// run drains the inbound queue. It is the only goroutine applying
// remote mutations, so every merge is sequential.
func (c *SyncClient) run() {
	for {
		select {
		case <-c.done:
			return
		case item := <-c.inbox:
			c.dispatch(item)
		}
	}
}

func (c *SyncClient) dispatch(item inboundItem) {
	if item.evict != nil {
		if c.presence.EvictIfStale(item.evict.userID, item.evict.seenAt) {
			c.changed()
		}
		return
	}
	c.mu.Lock()
	current := c.epoch
	c.mu.Unlock()
	if item.epoch != current {
		log.Printf("[sync] drop stale %s from previous board session", item.env.Type)
		return
	}
	c.handleEvent(*item.env)
}

// handleEvent applies one remote event to the model. Malformed or
// referentially invalid events are dropped whole with a log line; the
// model is never left partially mutated.
func (c *SyncClient) handleEvent(env Envelope) {
	switch env.Type {
	case EventBoardState:
		var ev BoardStateEvent
		if !c.decode(env, &ev) {
			return
		}
		c.board.ReplaceStrokes(ev.Strokes)
		c.changed()

	case EventStrokeStart:
		var ev StrokeStartEvent
		if !c.decode(env, &ev) {
			return
		}
		s := &state.Stroke{
			ID:      ev.StrokeID,
			UserID:  ev.UserID,
			Tool:    ev.Tool,
			Color:   ev.Color,
			Size:    ev.Size,
			LayerID: ev.LayerID,
		}
		if err := c.board.StartRemoteStroke(s); err != nil {
			log.Printf("[sync] drop stroke_start: %v", err)
			return
		}
		c.changed()

	case EventStrokeUpdate:
		var ev StrokeUpdateEvent
		if !c.decode(env, &ev) {
			return
		}
		// Unknown ids are ignored: updates can outrun their start event.
		if c.board.AppendRemoteStroke(ev.StrokeID, ev.Points) {
			c.changed()
		}

	case EventStrokeEnd:
		var ev StrokeEndEvent
		if !c.decode(env, &ev) {
			return
		}
		if _, ok := c.board.EndRemoteStroke(ev.StrokeID); ok {
			c.changed()
		}

	case EventCursorUpdate:
		var ev CursorUpdateEvent
		if !c.decode(env, &ev) {
			return
		}
		seenAt := c.presence.Upsert(ev.UserID, ev.DisplayName, ev.X, ev.Y)
		userID := ev.UserID
		c.schedule(state.CursorStaleAfter, func() {
			select {
			case c.inbox <- inboundItem{evict: &evictCheck{userID: userID, seenAt: seenAt}}:
			case <-c.done:
			}
		})
		c.changed()

	case EventBoardCleared:
		c.board.Clear()
		c.history.Clear()
		c.presence.Clear()
		c.changed()

	case EventObjectAdded:
		var ev ObjectAddEvent
		if !c.decode(env, &ev) {
			return
		}
		o := &state.Object{
			ID:          ev.ObjectID,
			Type:        ev.Type,
			LayerID:     ev.LayerID,
			ObjectProps: ev.Properties,
		}
		if err := c.board.AddObject(o); err != nil {
			log.Printf("[sync] drop object_added: %v", err)
			return
		}
		c.changed()

	case EventObjectUpdated:
		var ev ObjectUpdateEvent
		if !c.decode(env, &ev) {
			return
		}
		if _, _, err := c.board.UpdateObject(ev.ObjectID, ev.Properties); err != nil {
			log.Printf("[sync] drop object_updated: %v", err)
			return
		}
		c.changed()

	case EventObjectDeleted:
		var ev ObjectDeleteEvent
		if !c.decode(env, &ev) {
			return
		}
		if _, err := c.board.RemoveObject(ev.ObjectID); err != nil {
			log.Printf("[sync] drop object_deleted: %v", err)
			return
		}
		c.changed()

	case EventUserJoined:
		var ev UserJoinedEvent
		if !c.decode(env, &ev) {
			return
		}
		if c.OnUserJoined != nil {
			c.OnUserJoined(ev.UserID, ev.DisplayName)
		}

	case EventUserLeft:
		var ev UserLeftEvent
		if !c.decode(env, &ev) {
			return
		}
		c.presence.Remove(ev.UserID)
		if c.OnUserLeft != nil {
			c.OnUserLeft(ev.UserID)
		}
		c.changed()

	case EventUserCount:
		var ev UserCountEvent
		if !c.decode(env, &ev) {
			return
		}
		if c.OnUserCount != nil {
			c.OnUserCount(ev.Count)
		}

	default:
		log.Printf("[sync] drop unknown event %q", env.Type)
	}
}

func (c *SyncClient) decode(env Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Printf("[sync] drop malformed %s: %v", env.Type, err)
		return false
	}
	return true
}

func (c *SyncClient) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

// Package net implements the board wire protocol: bidirectional JSON
// events over a persistent websocket, the connection lifecycle with
// bounded reconnect, and the merge of unordered remote mutations into
// the canvas model.
package net

import (
	"encoding/json"
	"fmt"

	"liveboard/internal/state"
)

// Event type names. The server relays client intents to the other
// members of a board room; some events change name on the way through
// (cursor_move becomes cursor_update, object_add becomes object_added).
const (
	EventJoinBoard     = "join_board"
	EventLeaveBoard    = "leave_board"
	EventStrokeStart   = "stroke_start"
	EventStrokeUpdate  = "stroke_update"
	EventStrokeEnd     = "stroke_end"
	EventCursorMove    = "cursor_move"
	EventCursorUpdate  = "cursor_update"
	EventObjectAdd     = "object_add"
	EventObjectAdded   = "object_added"
	EventObjectUpdate  = "object_update"
	EventObjectUpdated = "object_updated"
	EventObjectDelete  = "object_delete"
	EventObjectDeleted = "object_deleted"
	EventClearBoard    = "clear_board"
	EventBoardCleared  = "board_cleared"
	EventBoardState    = "board_state"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventUserCount     = "user_count"
)

// Envelope frames every message on the wire.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

// JoinBoardEvent announces membership in a board room.
type JoinBoardEvent struct {
	BoardID     string `json:"board_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// LeaveBoardEvent leaves the current board room.
type LeaveBoardEvent struct {
	BoardID string `json:"board_id"`
}

// StrokeStartEvent opens a streamed stroke. Points follow in
// stroke_update events.
type StrokeStartEvent struct {
	StrokeID string           `json:"stroke_id"`
	UserID   string           `json:"user_id,omitempty"`
	Tool     state.StrokeTool `json:"tool"`
	Color    state.ARGB       `json:"color"`
	Size     float64          `json:"size"`
	LayerID  string           `json:"layer_id"`
}

// StrokeUpdateEvent carries incremental points of an open stroke.
type StrokeUpdateEvent struct {
	StrokeID string              `json:"stroke_id"`
	Points   []state.StrokePoint `json:"points"`
}

// StrokeEndEvent finalizes a streamed stroke.
type StrokeEndEvent struct {
	StrokeID string `json:"stroke_id"`
}

// CursorMoveEvent is the outgoing cursor position.
type CursorMoveEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CursorUpdateEvent is a peer's cursor position as relayed by the
// server, which attributes the sender.
type CursorUpdateEvent struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// ObjectAddEvent creates a shape/text object.
type ObjectAddEvent struct {
	ObjectID   string            `json:"object_id"`
	Type       state.ObjectType  `json:"type"`
	Properties state.ObjectProps `json:"properties"`
	LayerID    string            `json:"layer_id"`
	UserID     string            `json:"user_id,omitempty"`
}

// ObjectUpdateEvent patches an object's properties; absent fields are
// left untouched.
type ObjectUpdateEvent struct {
	ObjectID   string            `json:"object_id"`
	Properties state.ObjectPatch `json:"properties"`
	UserID     string            `json:"user_id,omitempty"`
}

// ObjectDeleteEvent removes an object.
type ObjectDeleteEvent struct {
	ObjectID string `json:"object_id"`
	UserID   string `json:"user_id,omitempty"`
}

// BoardClearedEvent is the room-wide broadcast after a clear_board.
type BoardClearedEvent struct {
	ClearedBy string `json:"cleared_by,omitempty"`
}

// BoardStateEvent is the full snapshot sent to a client joining a
// board. Only strokes travel in the snapshot.
type BoardStateEvent struct {
	BoardID string         `json:"board_id,omitempty"`
	Strokes []state.Stroke `json:"strokes"`
}

// UserJoinedEvent announces a new room member.
type UserJoinedEvent struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// UserLeftEvent announces a departed room member.
type UserLeftEvent struct {
	UserID string `json:"user_id"`
}

// UserCountEvent carries the room's member count.
type UserCountEvent struct {
	Count int `json:"count"`
}

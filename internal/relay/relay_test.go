package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	boardnet "liveboard/internal/net"
	"liveboard/internal/state"
)

// testPeer is one websocket client talking to the relay under test.
type testPeer struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialPeer(t *testing.T, srv *httptest.Server) *testPeer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testPeer{t: t, conn: conn}
}

func (p *testPeer) send(eventType string, payload any) {
	p.t.Helper()
	data, err := boardnet.Encode(eventType, payload)
	if err != nil {
		p.t.Fatal(err)
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		p.t.Fatalf("write %s: %v", eventType, err)
	}
}

func (p *testPeer) join(boardID, userID, name string) {
	p.send(boardnet.EventJoinBoard, boardnet.JoinBoardEvent{
		BoardID: boardID, UserID: userID, DisplayName: name,
	})
}

// expect reads the next frame and requires the given event type,
// decoding its payload into out when non-nil.
func (p *testPeer) expect(eventType string, out any) {
	p.t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := p.conn.ReadMessage()
	if err != nil {
		p.t.Fatalf("read (waiting for %s): %v", eventType, err)
	}
	var env boardnet.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		p.t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != eventType {
		p.t.Fatalf("got event %q, want %q", env.Type, eventType)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			p.t.Fatalf("decode %s payload: %v", eventType, err)
		}
	}
}

func TestRelaySession(t *testing.T) {
	srv := httptest.NewServer(New())
	defer srv.Close()

	alice := dialPeer(t, srv)
	alice.join("room", "u1", "Alice")
	var snap boardnet.BoardStateEvent
	alice.expect(boardnet.EventBoardState, &snap)
	if len(snap.Strokes) != 0 {
		t.Fatalf("fresh board snapshot has %d strokes", len(snap.Strokes))
	}
	var count boardnet.UserCountEvent
	alice.expect(boardnet.EventUserCount, &count)
	if count.Count != 1 {
		t.Fatalf("count = %d, want 1", count.Count)
	}

	bob := dialPeer(t, srv)
	bob.join("room", "u2", "Bob")
	bob.expect(boardnet.EventBoardState, nil)
	bob.expect(boardnet.EventUserCount, &count)
	if count.Count != 2 {
		t.Fatalf("count = %d, want 2", count.Count)
	}

	var joined boardnet.UserJoinedEvent
	alice.expect(boardnet.EventUserJoined, &joined)
	if joined.UserID != "u2" || joined.DisplayName != "Bob" {
		t.Fatalf("user_joined = %+v", joined)
	}
	alice.expect(boardnet.EventUserCount, nil)

	// Drawing events reach the other member, attributed by the relay.
	alice.send(boardnet.EventStrokeStart, boardnet.StrokeStartEvent{
		StrokeID: "s1", Tool: state.StrokeToolPen,
		Color: state.RGBA(0, 0, 0, 255), Size: 3, LayerID: state.DefaultLayerID,
	})
	var start boardnet.StrokeStartEvent
	bob.expect(boardnet.EventStrokeStart, &start)
	if start.UserID != "u1" {
		t.Fatalf("relayed stroke_start user = %q, want the sender's id", start.UserID)
	}

	alice.send(boardnet.EventStrokeUpdate, boardnet.StrokeUpdateEvent{
		StrokeID: "s1", Points: []state.StrokePoint{{X: 1, Y: 1}},
	})
	bob.expect(boardnet.EventStrokeUpdate, nil)

	alice.send(boardnet.EventStrokeEnd, boardnet.StrokeEndEvent{StrokeID: "s1"})
	bob.expect(boardnet.EventStrokeEnd, nil)

	// Cursor positions change name on the way through.
	alice.send(boardnet.EventCursorMove, boardnet.CursorMoveEvent{X: 7, Y: 8})
	var cursor boardnet.CursorUpdateEvent
	bob.expect(boardnet.EventCursorUpdate, &cursor)
	if cursor.UserID != "u1" || cursor.DisplayName != "Alice" || cursor.X != 7 {
		t.Fatalf("cursor_update = %+v", cursor)
	}

	// A late joiner receives the finalized stroke in its snapshot.
	carol := dialPeer(t, srv)
	carol.join("room", "u3", "Carol")
	carol.expect(boardnet.EventBoardState, &snap)
	if len(snap.Strokes) != 1 || snap.Strokes[0].ID != "s1" || !snap.Strokes[0].Completed {
		t.Fatalf("late snapshot = %+v, want the completed stroke", snap.Strokes)
	}
	if len(snap.Strokes[0].Points) != 1 {
		t.Fatalf("snapshot stroke has %d points, want 1", len(snap.Strokes[0].Points))
	}
}

func TestRelayClearReachesEveryone(t *testing.T) {
	srv := httptest.NewServer(New())
	defer srv.Close()

	alice := dialPeer(t, srv)
	alice.join("room", "u1", "Alice")
	alice.expect(boardnet.EventBoardState, nil)
	alice.expect(boardnet.EventUserCount, nil)

	bob := dialPeer(t, srv)
	bob.join("room", "u2", "Bob")
	bob.expect(boardnet.EventBoardState, nil)
	bob.expect(boardnet.EventUserCount, nil)
	alice.expect(boardnet.EventUserJoined, nil)
	alice.expect(boardnet.EventUserCount, nil)

	// Unlike drawing events, the clear comes back to its sender too.
	alice.send(boardnet.EventClearBoard, struct{}{})
	var cleared boardnet.BoardClearedEvent
	alice.expect(boardnet.EventBoardCleared, &cleared)
	if cleared.ClearedBy != "u1" {
		t.Fatalf("cleared_by = %q, want u1", cleared.ClearedBy)
	}
	bob.expect(boardnet.EventBoardCleared, nil)

	// The room's state is gone for the next joiner.
	carol := dialPeer(t, srv)
	carol.join("room", "u3", "Carol")
	var snap boardnet.BoardStateEvent
	carol.expect(boardnet.EventBoardState, &snap)
	if len(snap.Strokes) != 0 {
		t.Fatalf("snapshot after clear has %d strokes", len(snap.Strokes))
	}
}

func TestRelayObjectLifecycle(t *testing.T) {
	srv := httptest.NewServer(New())
	defer srv.Close()

	alice := dialPeer(t, srv)
	alice.join("room", "u1", "Alice")
	alice.expect(boardnet.EventBoardState, nil)
	alice.expect(boardnet.EventUserCount, nil)

	bob := dialPeer(t, srv)
	bob.join("room", "u2", "Bob")
	bob.expect(boardnet.EventBoardState, nil)
	bob.expect(boardnet.EventUserCount, nil)
	alice.expect(boardnet.EventUserJoined, nil)
	alice.expect(boardnet.EventUserCount, nil)

	alice.send(boardnet.EventObjectAdd, boardnet.ObjectAddEvent{
		ObjectID: "o1", Type: state.ObjectRectangle, LayerID: state.DefaultLayerID,
		Properties: state.ObjectProps{X: 10, Y: 10, Width: 40, Height: 20},
	})
	var added boardnet.ObjectAddEvent
	bob.expect(boardnet.EventObjectAdded, &added)
	if added.ObjectID != "o1" || added.UserID != "u1" {
		t.Fatalf("object_added = %+v", added)
	}

	x := 50.0
	alice.send(boardnet.EventObjectUpdate, boardnet.ObjectUpdateEvent{
		ObjectID: "o1", Properties: state.ObjectPatch{X: &x},
	})
	var updated boardnet.ObjectUpdateEvent
	bob.expect(boardnet.EventObjectUpdated, &updated)
	if updated.Properties.X == nil || *updated.Properties.X != 50 {
		t.Fatalf("object_updated patch = %+v", updated.Properties)
	}

	alice.send(boardnet.EventObjectDelete, boardnet.ObjectDeleteEvent{ObjectID: "o1"})
	var deleted boardnet.ObjectDeleteEvent
	bob.expect(boardnet.EventObjectDeleted, &deleted)
	if deleted.ObjectID != "o1" {
		t.Fatalf("object_deleted = %+v", deleted)
	}
}

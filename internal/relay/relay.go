// Package relay is the host-mode message relay: it accepts websocket
// clients, keeps a per-board room with the authoritative stroke and
// object collections, sends a full snapshot to every joiner and
// rebroadcasts drawing events to the rest of the room. It is a LAN
// convenience, not a durable server: state lives in memory only.
package relay

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	boardnet "liveboard/internal/net"
	"liveboard/internal/state"
)

type client struct {
	conn        *websocket.Conn
	writeMu     sync.Mutex
	userID      string
	displayName string
	boardID     string
}

func (c *client) send(data []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[relay] send to %s: %v", c.conn.RemoteAddr(), err)
	}
}

// room is one board's live state and membership.
type room struct {
	strokes map[string]*state.Stroke
	order   []string
	objects map[string]*state.Object
	members map[*client]bool
}

func newRoom() *room {
	return &room{
		strokes: make(map[string]*state.Stroke),
		objects: make(map[string]*state.Object),
		members: make(map[*client]bool),
	}
}

func (r *room) snapshot() []state.Stroke {
	out := make([]state.Stroke, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.strokes[id])
	}
	return out
}

// Relay accepts and serves board clients.
type Relay struct {
	mu       sync.Mutex
	rooms    map[string]*room
	upgrader websocket.Upgrader
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{
		rooms: map[string]*room{},
		upgrader: websocket.Upgrader{
			// LAN relay: any origin on the local network may join.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ListenAndServe serves the websocket endpoint at /ws.
func (r *Relay) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", r)
	log.Printf("[relay] listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// ServeHTTP upgrades one client connection and runs its read loop.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("[relay] upgrade: %v", err)
		return
	}
	cl := &client{conn: conn}
	log.Printf("[relay] client connected from %s", conn.RemoteAddr())
	defer func() {
		r.disconnect(cl)
		conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[relay] client %s disconnected: %v", conn.RemoteAddr(), err)
			return
		}
		var env boardnet.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[relay] drop unparseable frame from %s: %v", conn.RemoteAddr(), err)
			continue
		}
		r.handle(cl, env)
	}
}

func (r *Relay) handle(cl *client, env boardnet.Envelope) {
	switch env.Type {
	case boardnet.EventJoinBoard:
		var ev boardnet.JoinBoardEvent
		if !decode(env, &ev) {
			return
		}
		r.join(cl, ev)

	case boardnet.EventLeaveBoard:
		r.leave(cl)

	case boardnet.EventStrokeStart:
		var ev boardnet.StrokeStartEvent
		if !decode(env, &ev) {
			return
		}
		ev.UserID = cl.userID
		r.withRoom(cl, func(rm *room) {
			s := &state.Stroke{
				ID:      ev.StrokeID,
				UserID:  cl.userID,
				Tool:    ev.Tool,
				Color:   ev.Color,
				Size:    ev.Size,
				LayerID: ev.LayerID,
			}
			if _, ok := rm.strokes[s.ID]; !ok {
				rm.order = append(rm.order, s.ID)
			}
			rm.strokes[s.ID] = s
			r.broadcast(rm, boardnet.EventStrokeStart, ev, cl)
		})

	case boardnet.EventStrokeUpdate:
		var ev boardnet.StrokeUpdateEvent
		if !decode(env, &ev) {
			return
		}
		r.withRoom(cl, func(rm *room) {
			if s, ok := rm.strokes[ev.StrokeID]; ok && !s.Completed {
				s.Points = append(s.Points, ev.Points...)
			}
			r.broadcast(rm, boardnet.EventStrokeUpdate, ev, cl)
		})

	case boardnet.EventStrokeEnd:
		var ev boardnet.StrokeEndEvent
		if !decode(env, &ev) {
			return
		}
		r.withRoom(cl, func(rm *room) {
			if s, ok := rm.strokes[ev.StrokeID]; ok {
				s.Completed = true
			}
			r.broadcast(rm, boardnet.EventStrokeEnd, ev, cl)
		})

	case boardnet.EventCursorMove:
		var ev boardnet.CursorMoveEvent
		if !decode(env, &ev) {
			return
		}
		r.withRoom(cl, func(rm *room) {
			r.broadcast(rm, boardnet.EventCursorUpdate, boardnet.CursorUpdateEvent{
				UserID:      cl.userID,
				DisplayName: cl.displayName,
				X:           ev.X,
				Y:           ev.Y,
			}, cl)
		})

	case boardnet.EventClearBoard:
		r.withRoom(cl, func(rm *room) {
			rm.strokes = make(map[string]*state.Stroke)
			rm.order = nil
			rm.objects = make(map[string]*state.Object)
			// Everyone clears on the broadcast, the sender included.
			r.broadcast(rm, boardnet.EventBoardCleared, boardnet.BoardClearedEvent{ClearedBy: cl.userID}, nil)
		})
		log.Printf("[relay] board cleared by %s", cl.displayName)

	case boardnet.EventObjectAdd:
		var ev boardnet.ObjectAddEvent
		if !decode(env, &ev) {
			return
		}
		ev.UserID = cl.userID
		r.withRoom(cl, func(rm *room) {
			rm.objects[ev.ObjectID] = &state.Object{
				ID:          ev.ObjectID,
				Type:        ev.Type,
				LayerID:     ev.LayerID,
				ObjectProps: ev.Properties,
			}
			r.broadcast(rm, boardnet.EventObjectAdded, ev, cl)
		})

	case boardnet.EventObjectUpdate:
		var ev boardnet.ObjectUpdateEvent
		if !decode(env, &ev) {
			return
		}
		ev.UserID = cl.userID
		r.withRoom(cl, func(rm *room) {
			if o, ok := rm.objects[ev.ObjectID]; ok {
				ev.Properties.Apply(&o.ObjectProps)
			}
			r.broadcast(rm, boardnet.EventObjectUpdated, ev, cl)
		})

	case boardnet.EventObjectDelete:
		var ev boardnet.ObjectDeleteEvent
		if !decode(env, &ev) {
			return
		}
		ev.UserID = cl.userID
		r.withRoom(cl, func(rm *room) {
			delete(rm.objects, ev.ObjectID)
			r.broadcast(rm, boardnet.EventObjectDeleted, ev, cl)
		})

	default:
		log.Printf("[relay] drop unknown event %q from %s", env.Type, cl.conn.RemoteAddr())
	}
}

func (r *Relay) join(cl *client, ev boardnet.JoinBoardEvent) {
	r.leave(cl)
	boardID := ev.BoardID
	if boardID == "" {
		boardID = "default"
	}
	r.mu.Lock()
	rm, ok := r.rooms[boardID]
	if !ok {
		rm = newRoom()
		r.rooms[boardID] = rm
	}
	cl.userID = ev.UserID
	cl.displayName = ev.DisplayName
	cl.boardID = boardID
	rm.members[cl] = true
	snapshot := rm.snapshot()
	count := len(rm.members)
	r.mu.Unlock()

	log.Printf("[relay] %s joined board %s", ev.DisplayName, boardID)
	if data, err := boardnet.Encode(boardnet.EventBoardState, boardnet.BoardStateEvent{
		BoardID: boardID,
		Strokes: snapshot,
	}); err == nil {
		cl.send(data)
	}
	r.mu.Lock()
	r.broadcast(rm, boardnet.EventUserJoined, boardnet.UserJoinedEvent{
		UserID:      ev.UserID,
		DisplayName: ev.DisplayName,
	}, cl)
	r.broadcast(rm, boardnet.EventUserCount, boardnet.UserCountEvent{Count: count}, nil)
	r.mu.Unlock()
}

func (r *Relay) leave(cl *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[cl.boardID]
	if !ok || !rm.members[cl] {
		cl.boardID = ""
		return
	}
	delete(rm.members, cl)
	cl.boardID = ""
	r.broadcast(rm, boardnet.EventUserLeft, boardnet.UserLeftEvent{UserID: cl.userID}, nil)
	r.broadcast(rm, boardnet.EventUserCount, boardnet.UserCountEvent{Count: len(rm.members)}, nil)
}

func (r *Relay) disconnect(cl *client) {
	r.leave(cl)
}

// withRoom runs fn with the client's room under the relay lock.
// Clients that have not joined a board are ignored.
func (r *Relay) withRoom(cl *client, fn func(*room)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[cl.boardID]
	if !ok {
		return
	}
	fn(rm)
}

func decode(env boardnet.Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Printf("[relay] drop malformed %s: %v", env.Type, err)
		return false
	}
	return true
}

// broadcast relays an event to every room member except skip.
func (r *Relay) broadcast(rm *room, eventType string, payload any, skip *client) {
	data, err := boardnet.Encode(eventType, payload)
	if err != nil {
		log.Printf("[relay] encode %s: %v", eventType, err)
		return
	}
	for member := range rm.members {
		if member != skip {
			member.send(data)
		}
	}
}

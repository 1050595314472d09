// Package editor turns pointer input into canvas model mutations,
// history entries and outgoing sync intents. It owns the tool state
// machine and the screen-to-canvas transform; it never touches the
// network directly.
package editor

import (
	"time"

	"liveboard/internal/state"
)

// Point is a position in screen or canvas coordinates.
type Point struct{ X, Y float64 }

// Emitter hands outgoing intents to the sync client. Emits are
// fire-and-forget; the engine never waits for acknowledgment. A fake
// Emitter makes the engine fully testable without a socket.
type Emitter interface {
	StrokeStart(s state.Stroke)
	StrokeUpdate(id string, points []state.StrokePoint)
	StrokeEnd(id string)
	CursorMove(x, y float64)
	ObjectAdd(o state.Object)
	ObjectUpdate(id string, patch state.ObjectPatch)
	ObjectDelete(id string)
	ClearBoard()
}

// TextPrompt synchronously asks the user for text. ok=false or an
// empty string cancels the text tool.
type TextPrompt func() (string, bool)

const (
	minZoom = 0.3
	maxZoom = 3.0
	// minShapeSize discards accidental click-shapes: a dragged box is
	// kept only if one side exceeds this (lines/arrows always finalize).
	minShapeSize = 5.0

	defaultFontSize   = 16.0
	defaultFontFamily = "sans-serif"
)

// Editor is the local edit state machine. It runs on the UI event
// thread; the board and history carry their own locks for the sync
// client running beside it.
type Editor struct {
	board   *state.Board
	history *state.History
	emit    Emitter
	prompt  TextPrompt
	userID  string

	tool  Tool
	color state.ARGB
	size  float64

	cur        *state.Stroke // in-progress local stroke
	shape      *state.Object // in-progress shape drag
	selectedID string
	anchor     Point // drag origin for shapes
	last       Point // previous move position for incremental deltas
	dragging   bool

	pan   Point
	scale float64

	now func() time.Time
}

// New creates an editor over the given board. The emitter receives
// every outgoing intent; pass a no-op emitter for offline use.
func New(board *state.Board, history *state.History, emit Emitter) *Editor {
	return &Editor{
		board:   board,
		history: history,
		emit:    emit,
		tool:    ToolPen,
		color:   state.RGBA(0, 0, 0, 255),
		size:    3.0,
		scale:   1.0,
		now:     time.Now,
	}
}

func (e *Editor) SetTool(t Tool)             { e.tool = t }
func (e *Editor) Tool() Tool                 { return e.tool }
func (e *Editor) SetColor(c state.ARGB)      { e.color = c }
func (e *Editor) Color() state.ARGB          { return e.color }
func (e *Editor) SetSize(s float64)          { e.size = s }
func (e *Editor) Size() float64              { return e.size }
func (e *Editor) SetUserID(id string)        { e.userID = id }
func (e *Editor) SetTextPrompt(p TextPrompt) { e.prompt = p }

// SetClock overrides the time source, for tests.
func (e *Editor) SetClock(now func() time.Time) { e.now = now }

// Pan returns the canvas pan offset in screen units.
func (e *Editor) Pan() Point { return e.pan }

// PanBy shifts the viewport.
func (e *Editor) PanBy(dx, dy float64) {
	e.pan.X += dx
	e.pan.Y += dy
}

// Zoom returns the current scale factor.
func (e *Editor) Zoom() float64 { return e.scale }

// SetZoom sets the scale factor, clamped to [0.3, 3.0].
func (e *Editor) SetZoom(scale float64) {
	if scale < minZoom {
		scale = minZoom
	} else if scale > maxZoom {
		scale = maxZoom
	}
	e.scale = scale
}

// toCanvas converts a screen position to canvas coordinates.
func (e *Editor) toCanvas(p Point) Point {
	return Point{X: (p.X - e.pan.X) / e.scale, Y: (p.Y - e.pan.Y) / e.scale}
}

// PointerDown starts a tool gesture at a screen position.
func (e *Editor) PointerDown(screen Point) {
	pos := e.toCanvas(screen)
	layers := e.board.Layers()
	active := layers.Active()
	if l, ok := layers.Get(active); ok && l.Locked && e.tool != ToolSelect {
		return
	}

	switch {
	case e.tool.penFamily():
		e.cur = &state.Stroke{
			ID:      state.NewID(),
			UserID:  e.userID,
			Tool:    state.StrokeToolPen,
			Color:   e.color,
			Size:    e.size,
			LayerID: active,
			Points:  []state.StrokePoint{state.NewStrokePoint(pos.X, pos.Y, e.now())},
		}
		e.emit.StrokeStart(*e.cur)

	case e.tool == ToolEraser:
		e.dragging = true
		e.eraseAt(pos)

	case e.tool == ToolSelect:
		e.selectedID = ""
		e.dragging = false
		objects := e.board.Objects()
		// Topmost wins: scan in reverse insertion order.
		for i := len(objects) - 1; i >= 0; i-- {
			if objectHit(objects[i], pos) {
				e.selectedID = objects[i].ID
				e.anchor = pos
				e.last = pos
				e.dragging = true
				break
			}
		}

	case e.tool.shapeTool():
		o := &state.Object{
			ID:      state.NewID(),
			Type:    e.tool.objectType(),
			LayerID: active,
			ObjectProps: state.ObjectProps{
				X:           pos.X,
				Y:           pos.Y,
				Color:       e.color,
				StrokeWidth: e.size,
			},
		}
		if endpointType(o.Type) {
			o.X2, o.Y2 = pos.X, pos.Y
		}
		e.shape = o
		e.anchor = pos

	case e.tool == ToolText:
		e.placeText(pos)
	}
}

// PointerMove advances the active gesture and always emits cursor
// presence, whatever the tool.
func (e *Editor) PointerMove(screen Point) {
	pos := e.toCanvas(screen)
	e.emit.CursorMove(pos.X, pos.Y)

	switch {
	case e.tool.penFamily() && e.cur != nil:
		pt := state.NewStrokePoint(pos.X, pos.Y, e.now())
		e.cur.Points = append(e.cur.Points, pt)
		e.emit.StrokeUpdate(e.cur.ID, []state.StrokePoint{pt})

	case e.tool == ToolEraser && e.dragging:
		e.eraseAt(pos)

	case e.tool.shapeTool() && e.shape != nil:
		if endpointType(e.shape.Type) {
			e.shape.X2, e.shape.Y2 = pos.X, pos.Y
			return
		}
		// Normalize so dragging in any direction yields a positive box.
		dx, dy := pos.X-e.anchor.X, pos.Y-e.anchor.Y
		e.shape.Width = abs(dx)
		e.shape.Height = abs(dy)
		e.shape.X = min(e.anchor.X, pos.X)
		e.shape.Y = min(e.anchor.Y, pos.Y)

	case e.tool == ToolSelect && e.dragging && e.selectedID != "":
		dx, dy := pos.X-e.last.X, pos.Y-e.last.Y
		e.moveSelected(dx, dy)
		e.last = pos
	}
}

// PointerUp completes the active gesture.
func (e *Editor) PointerUp(screen Point) {
	switch {
	case e.tool.penFamily() && e.cur != nil:
		s := e.cur
		e.cur = nil
		s.Completed = true
		if err := e.board.AddStroke(s); err != nil {
			return
		}
		e.history.Push(state.AddStrokeAction{Stroke: s.Clone()})
		e.emit.StrokeEnd(s.ID)

	case e.tool.shapeTool() && e.shape != nil:
		o := e.shape
		e.shape = nil
		if !endpointType(o.Type) && o.Width <= minShapeSize && o.Height <= minShapeSize {
			return
		}
		if err := e.board.AddObject(o); err != nil {
			return
		}
		e.history.Push(state.AddObjectAction{Object: o.Clone()})
		e.emit.ObjectAdd(*o)

	default:
		e.dragging = false
	}
}

// eraseAt deletes every completed stroke with a point inside the erase
// radius. Each deletion gets its own history entry. The wire protocol
// has no stroke-delete event, so erasures stay local until the next
// board snapshot.
func (e *Editor) eraseAt(pos Point) {
	for _, s := range e.board.Strokes() {
		if !strokeHit(s, pos, e.size) {
			continue
		}
		removed, err := e.board.RemoveStroke(s.ID)
		if err != nil {
			continue
		}
		e.history.Push(state.DeleteStrokeAction{Stroke: removed})
	}
}

// moveSelected applies an incremental drag delta to the selection.
func (e *Editor) moveSelected(dx, dy float64) {
	o, ok := e.board.Object(e.selectedID)
	if !ok {
		e.selectedID = ""
		e.dragging = false
		return
	}
	x, y := o.X+dx, o.Y+dy
	patch := state.ObjectPatch{X: &x, Y: &y}
	if endpointType(o.Type) {
		x2, y2 := o.X2+dx, o.Y2+dy
		patch.X2, patch.Y2 = &x2, &y2
	}
	if _, _, err := e.board.UpdateObject(e.selectedID, patch); err != nil {
		return
	}
	e.emit.ObjectUpdate(e.selectedID, patch)
}

// placeText opens the text prompt and, on a non-empty confirmation,
// creates a finalized text object at the pointer position. No
// streaming: one add, one history entry, one intent.
func (e *Editor) placeText(pos Point) {
	if e.prompt == nil {
		return
	}
	text, ok := e.prompt()
	if !ok || text == "" {
		return
	}
	o := &state.Object{
		ID:      state.NewID(),
		Type:    state.ObjectText,
		LayerID: e.board.Layers().Active(),
		ObjectProps: state.ObjectProps{
			X:          pos.X,
			Y:          pos.Y,
			Color:      e.color,
			Text:       text,
			FontSize:   defaultFontSize,
			FontFamily: defaultFontFamily,
		},
	}
	if err := e.board.AddObject(o); err != nil {
		return
	}
	e.history.Push(state.AddObjectAction{Object: o.Clone()})
	e.emit.ObjectAdd(*o)
}

// ResetHistory drops undo/redo, for board loads that replace the whole
// model out from under the recorded actions.
func (e *Editor) ResetHistory() {
	e.selectedID = ""
	e.history.Clear()
}

// Undo reverses the latest local action. No-op on an empty stack.
func (e *Editor) Undo() bool { return e.history.Undo(e.board) }

// Redo replays the latest undone action.
func (e *Editor) Redo() bool { return e.history.Redo(e.board) }

// ClearCanvas wipes strokes and objects, records a single reversible
// history entry and broadcasts the clear.
func (e *Editor) ClearCanvas() {
	strokes, objects := e.board.Clear()
	e.selectedID = ""
	e.history.Push(state.ClearCanvasAction{Strokes: strokes, Objects: objects})
	e.emit.ClearBoard()
}

// DeleteSelected removes the selected object, if any.
func (e *Editor) DeleteSelected() {
	if e.selectedID == "" {
		return
	}
	removed, err := e.board.RemoveObject(e.selectedID)
	e.selectedID = ""
	if err != nil {
		return
	}
	e.history.Push(state.DeleteObjectAction{Object: removed})
	e.emit.ObjectDelete(removed.ID)
}

// Selected returns the id of the selected object, or "".
func (e *Editor) Selected() string { return e.selectedID }

// CurrentStroke returns a copy of the in-progress local stroke for
// live rendering, or false when idle.
func (e *Editor) CurrentStroke() (state.Stroke, bool) {
	if e.cur == nil {
		return state.Stroke{}, false
	}
	return *e.cur, true
}

// CurrentShape returns a copy of the in-progress shape drag.
func (e *Editor) CurrentShape() (state.Object, bool) {
	if e.shape == nil {
		return state.Object{}, false
	}
	return *e.shape, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

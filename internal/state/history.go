package state

import "sync"

// Action is one reversible local mutation. Concrete actions own deep
// snapshots of the state they replace, so undo and redo never depend
// on model state that may have changed since.
type Action interface {
	Undo(b *Board)
	Redo(b *Board)
}

// AddStrokeAction records a locally finalized stroke.
type AddStrokeAction struct{ Stroke *Stroke }

func (a AddStrokeAction) Undo(b *Board) { b.RemoveStroke(a.Stroke.ID) }
func (a AddStrokeAction) Redo(b *Board) { b.AddStroke(a.Stroke.Clone()) }

// DeleteStrokeAction records a locally erased stroke.
type DeleteStrokeAction struct{ Stroke *Stroke }

func (a DeleteStrokeAction) Undo(b *Board) { b.AddStroke(a.Stroke.Clone()) }
func (a DeleteStrokeAction) Redo(b *Board) { b.RemoveStroke(a.Stroke.ID) }

// AddObjectAction records a locally created object.
type AddObjectAction struct{ Object *Object }

func (a AddObjectAction) Undo(b *Board) { b.RemoveObject(a.Object.ID) }
func (a AddObjectAction) Redo(b *Board) { b.AddObject(a.Object.Clone()) }

// UpdateObjectAction records both sides of a local property change.
type UpdateObjectAction struct{ Prev, Next Object }

func (a UpdateObjectAction) Undo(b *Board) { b.restoreObject(a.Prev) }
func (a UpdateObjectAction) Redo(b *Board) { b.restoreObject(a.Next) }

// DeleteObjectAction records a locally deleted object.
type DeleteObjectAction struct{ Object *Object }

func (a DeleteObjectAction) Undo(b *Board) { b.AddObject(a.Object.Clone()) }
func (a DeleteObjectAction) Redo(b *Board) { b.RemoveObject(a.Object.ID) }

// ClearCanvasAction snapshots everything a local clear wiped.
type ClearCanvasAction struct {
	Strokes []*Stroke
	Objects []*Object
}

func (a ClearCanvasAction) Undo(b *Board) {
	for _, s := range a.Strokes {
		b.AddStroke(s.Clone())
	}
	for _, o := range a.Objects {
		b.AddObject(o.Clone())
	}
}

func (a ClearCanvasAction) Redo(b *Board) { b.Clear() }

// restoreObject puts a snapshotted object state back, re-adding it if
// it has been removed in the meantime.
func (b *Board) restoreObject(snapshot Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[snapshot.ID]; !ok {
		b.objectOrder = append(b.objectOrder, snapshot.ID)
	}
	o := snapshot
	b.objects[snapshot.ID] = &o
}

// maxUndo bounds the undo stack; the oldest entry is dropped first.
const maxUndo = 100

// History is the local-only undo/redo stack. It never emits network
// intents and never receives remote mutations: undoing a local add
// does not tell peers to remove the object, so peers retain it until
// the next full board snapshot.
type History struct {
	mu   sync.Mutex
	undo []Action
	redo []Action
}

// NewHistory creates an empty history.
func NewHistory() *History { return &History{} }

// Push records a completed local mutation and invalidates redo.
func (h *History) Push(a Action) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = append(h.undo, a)
	if len(h.undo) > maxUndo {
		h.undo = h.undo[len(h.undo)-maxUndo:]
	}
	h.redo = h.redo[:0]
}

// Undo reverses the most recent action against the board. Returns
// false on an empty stack (a no-op, never an error).
func (h *History) Undo(b *Board) bool {
	h.mu.Lock()
	if len(h.undo) == 0 {
		h.mu.Unlock()
		return false
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, a)
	h.mu.Unlock()
	a.Undo(b)
	return true
}

// Redo replays the most recently undone action.
func (h *History) Redo(b *Board) bool {
	h.mu.Lock()
	if len(h.redo) == 0 {
		h.mu.Unlock()
		return false
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, a)
	h.mu.Unlock()
	a.Redo(b)
	return true
}

// Clear drops both stacks. Used on board switches and when a peer
// clears the board.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

// UndoLen reports the undo stack depth.
func (h *History) UndoLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoLen reports the redo stack depth.
func (h *History) RedoLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Mutation errors. Referentially invalid mutations are rejected whole;
// the model is never left partially updated.
var (
	ErrUnknownLayer  = errors.New("unknown layer")
	ErrUnknownStroke = errors.New("unknown stroke")
	ErrUnknownObject = errors.New("unknown object")
)

// Board is the in-memory canvas model: id-keyed arenas for finalized
// strokes, pending remote strokes and objects, plus the layer stack.
// Cross-references (layer membership, selection) are ids, never
// pointers. Only the edit engine (local operations) and the sync
// client (remote merges) mutate a Board.
type Board struct {
	mu          sync.RWMutex
	layers      *LayerStack
	strokes     map[string]*Stroke
	strokeOrder []string
	pending     map[string]*Stroke
	objects     map[string]*Object
	objectOrder []string
}

// NewBoard creates an empty board with the default layer.
func NewBoard() *Board {
	return &Board{
		layers:  NewLayerStack(),
		strokes: make(map[string]*Stroke),
		pending: make(map[string]*Stroke),
		objects: make(map[string]*Object),
	}
}

// Layers returns the board's layer stack.
func (b *Board) Layers() *LayerStack { return b.layers }

// AddStroke inserts a finalized stroke. The referenced layer must
// exist. Re-adding an existing id overwrites in place (last writer
// wins at whole-object granularity).
func (b *Board) AddStroke(s *Stroke) error {
	if !b.layers.Exists(s.LayerID) {
		return fmt.Errorf("add stroke %s: %w: %s", s.ID, ErrUnknownLayer, s.LayerID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.strokes[s.ID]; !ok {
		b.strokeOrder = append(b.strokeOrder, s.ID)
	}
	b.strokes[s.ID] = s
	return nil
}

// RemoveStroke deletes a stroke by id, returning it for history.
func (b *Board) RemoveStroke(id string) (*Stroke, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.strokes[id]
	if !ok {
		return nil, fmt.Errorf("remove stroke %s: %w", id, ErrUnknownStroke)
	}
	delete(b.strokes, id)
	b.strokeOrder = removeID(b.strokeOrder, id)
	return s, nil
}

// Stroke returns a finalized stroke by id.
func (b *Board) Stroke(id string) (*Stroke, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.strokes[id]
	return s, ok
}

// Strokes returns the finalized strokes in insertion order. The
// returned copies share point slices, which are immutable once a
// stroke is completed.
func (b *Board) Strokes() []Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Stroke, 0, len(b.strokeOrder))
	for _, id := range b.strokeOrder {
		out = append(out, *b.strokes[id])
	}
	return out
}

// AddObject inserts an object. The referenced layer must exist.
func (b *Board) AddObject(o *Object) error {
	if !b.layers.Exists(o.LayerID) {
		return fmt.Errorf("add object %s: %w: %s", o.ID, ErrUnknownLayer, o.LayerID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[o.ID]; !ok {
		b.objectOrder = append(b.objectOrder, o.ID)
	}
	b.objects[o.ID] = o
	return nil
}

// UpdateObject applies a partial property update and returns deep
// copies of the object before and after, for history snapshots.
func (b *Board) UpdateObject(id string, patch ObjectPatch) (prev, next Object, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[id]
	if !ok {
		return Object{}, Object{}, fmt.Errorf("update object %s: %w", id, ErrUnknownObject)
	}
	prev = *o
	patch.Apply(&o.ObjectProps)
	return prev, *o, nil
}

// RemoveObject deletes an object by id, returning it for history.
func (b *Board) RemoveObject(id string) (*Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.objects[id]
	if !ok {
		return nil, fmt.Errorf("remove object %s: %w", id, ErrUnknownObject)
	}
	delete(b.objects, id)
	b.objectOrder = removeID(b.objectOrder, id)
	return o, nil
}

// Object returns a copy of an object by id.
func (b *Board) Object(id string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.objects[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Objects returns copies of all objects in insertion order; hit tests
// scan this backwards so the topmost (most recent) object wins.
func (b *Board) Objects() []Object {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Object, 0, len(b.objectOrder))
	for _, id := range b.objectOrder {
		out = append(out, *b.objects[id])
	}
	return out
}

// Clear empties finalized strokes, pending remote strokes and objects,
// returning deep snapshots of the cleared strokes and objects for the
// history entry. Layers are untouched.
func (b *Board) Clear() (strokes []*Stroke, objects []*Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.strokeOrder {
		strokes = append(strokes, b.strokes[id].Clone())
	}
	for _, id := range b.objectOrder {
		objects = append(objects, b.objects[id].Clone())
	}
	b.strokes = make(map[string]*Stroke)
	b.strokeOrder = nil
	b.pending = make(map[string]*Stroke)
	b.objects = make(map[string]*Object)
	b.objectOrder = nil
	return strokes, objects
}

// DeleteLayer removes a layer and cascades deletion of every stroke
// and object on it. Deleting the last remaining layer is a no-op. The
// removed items are returned so callers can inspect what was dropped.
func (b *Board) DeleteLayer(id string) (strokes []*Stroke, objects []*Object, ok bool) {
	if !b.layers.Remove(id) {
		return nil, nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	keptStrokes := b.strokeOrder[:0]
	for _, sid := range b.strokeOrder {
		s := b.strokes[sid]
		if s.LayerID == id {
			strokes = append(strokes, s)
			delete(b.strokes, sid)
		} else {
			keptStrokes = append(keptStrokes, sid)
		}
	}
	b.strokeOrder = keptStrokes
	keptObjects := b.objectOrder[:0]
	for _, oid := range b.objectOrder {
		o := b.objects[oid]
		if o.LayerID == id {
			objects = append(objects, o)
			delete(b.objects, oid)
		} else {
			keptObjects = append(keptObjects, oid)
		}
	}
	b.objectOrder = keptObjects
	for pid, p := range b.pending {
		if p.LayerID == id {
			delete(b.pending, pid)
		}
	}
	return strokes, objects, true
}

// StartRemoteStroke tracks a peer's in-progress stroke with an empty
// point list until its end event arrives.
func (b *Board) StartRemoteStroke(s *Stroke) error {
	if !b.layers.Exists(s.LayerID) {
		return fmt.Errorf("remote stroke %s: %w: %s", s.ID, ErrUnknownLayer, s.LayerID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s.Points = nil
	s.Completed = false
	b.pending[s.ID] = s
	return nil
}

// AppendRemoteStroke appends streamed points to a pending remote
// stroke. Unknown ids are ignored: updates can arrive out of order.
func (b *Board) AppendRemoteStroke(id string, points []StrokePoint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.pending[id]
	if !ok {
		return false
	}
	s.Points = append(s.Points, points...)
	return true
}

// EndRemoteStroke promotes a pending remote stroke into the finalized
// collection, marked completed.
func (b *Board) EndRemoteStroke(id string) (*Stroke, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.pending[id]
	if !ok {
		return nil, false
	}
	delete(b.pending, id)
	s.Completed = true
	if _, exists := b.strokes[id]; !exists {
		b.strokeOrder = append(b.strokeOrder, id)
	}
	b.strokes[id] = s
	return s, true
}

// PendingStrokes returns copies of the in-flight remote strokes, for
// live rendering.
func (b *Board) PendingStrokes() []Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Stroke, 0, len(b.pending))
	for _, s := range b.pending {
		out = append(out, *s)
	}
	return out
}

// ReplaceStrokes swaps the finalized collection for a full board
// snapshot, keeping only completed strokes. Objects, layers and
// pending remote strokes are untouched; the snapshot protocol carries
// strokes only.
func (b *Board) ReplaceStrokes(snapshot []Stroke) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strokes = make(map[string]*Stroke, len(snapshot))
	b.strokeOrder = b.strokeOrder[:0]
	for i := range snapshot {
		s := snapshot[i]
		if !s.Completed {
			continue
		}
		if _, ok := b.strokes[s.ID]; !ok {
			b.strokeOrder = append(b.strokeOrder, s.ID)
		}
		b.strokes[s.ID] = &s
	}
}

// boardFile is the on-disk save format.
type boardFile struct {
	Layers  []Layer  `json:"layers"`
	Strokes []Stroke `json:"strokes"`
	Objects []Object `json:"objects"`
}

// Save writes the full local model (layers, finalized strokes,
// objects) as indented JSON.
func (b *Board) Save(w io.Writer) error {
	file := boardFile{Layers: b.layers.Ordered(), Strokes: b.Strokes(), Objects: b.Objects()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Load replaces the entire model with a previously saved board. Files
// without layers get the default layer so the at-least-one-layer
// invariant holds.
func (b *Board) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read board: %w", err)
	}
	var file boardFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode board: %w", err)
	}
	if len(file.Layers) == 0 {
		file.Layers = []Layer{{ID: DefaultLayerID, Name: "Layer 1", Visible: true, Opacity: 1}}
	}
	b.layers.replace(file.Layers)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strokes = make(map[string]*Stroke, len(file.Strokes))
	b.strokeOrder = nil
	for i := range file.Strokes {
		s := file.Strokes[i]
		b.strokes[s.ID] = &s
		b.strokeOrder = append(b.strokeOrder, s.ID)
	}
	b.pending = make(map[string]*Stroke)
	b.objects = make(map[string]*Object, len(file.Objects))
	b.objectOrder = nil
	for i := range file.Objects {
		o := file.Objects[i]
		b.objects[o.ID] = &o
		b.objectOrder = append(b.objectOrder, o.ID)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

package state

import (
	"sort"
	"sync"
)

// DefaultLayerID is the id of the layer every board starts with,
// matching the relay's initial board state.
const DefaultLayerID = "default"

// LayerStack owns the layer lifecycle and resolves display order.
// Invariants: at least one layer always exists, and the active layer
// always names an existing layer.
type LayerStack struct {
	mu       sync.RWMutex
	layers   []*Layer
	activeID string
}

// NewLayerStack creates a stack holding the default layer.
func NewLayerStack() *LayerStack {
	base := &Layer{ID: DefaultLayerID, Name: "Layer 1", Visible: true, Opacity: 1}
	return &LayerStack{layers: []*Layer{base}, activeID: base.ID}
}

// Add appends a new visible layer on top of the stack and returns a
// copy of it.
func (ls *LayerStack) Add(name string) Layer {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	z := 0
	for _, l := range ls.layers {
		if l.ZIndex >= z {
			z = l.ZIndex + 1
		}
	}
	l := &Layer{ID: NewID(), Name: name, Visible: true, Opacity: 1, ZIndex: z}
	ls.layers = append(ls.layers, l)
	return *l
}

// Remove drops a layer from the stack. Deleting the last remaining
// layer is a no-op. If the removed layer was active, the topmost
// remaining layer becomes active. Returns false when nothing changed;
// the caller (Board.DeleteLayer) cascades item deletion on true.
func (ls *LayerStack) Remove(id string) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if len(ls.layers) <= 1 {
		return false
	}
	idx := -1
	for i, l := range ls.layers {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	ls.layers = append(ls.layers[:idx], ls.layers[idx+1:]...)
	if ls.activeID == id {
		ls.activeID = ls.orderedLocked()[0].ID
	}
	return true
}

// Reorder moves the layer at oldIndex (in display order, topmost
// first) to newIndex and recomputes z-indices as a dense, strictly
// descending sequence so ties never occur.
func (ls *LayerStack) Reorder(oldIndex, newIndex int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ordered := ls.orderedLocked()
	n := len(ordered)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n || oldIndex == newIndex {
		return
	}
	moved := ordered[oldIndex]
	ordered = append(ordered[:oldIndex], ordered[oldIndex+1:]...)
	ordered = append(ordered[:newIndex], append([]*Layer{moved}, ordered[newIndex:]...)...)
	for i, l := range ordered {
		l.ZIndex = n - 1 - i
	}
}

// Ordered returns copies of all layers in display order, topmost first.
func (ls *LayerStack) Ordered() []Layer {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	out := make([]Layer, 0, len(ls.layers))
	for _, l := range ls.orderedLocked() {
		out = append(out, *l)
	}
	return out
}

func (ls *LayerStack) orderedLocked() []*Layer {
	ordered := make([]*Layer, len(ls.layers))
	copy(ordered, ls.layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ZIndex > ordered[j].ZIndex
	})
	return ordered
}

// Get returns a copy of the layer with the given id.
func (ls *LayerStack) Get(id string) (Layer, bool) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	for _, l := range ls.layers {
		if l.ID == id {
			return *l, true
		}
	}
	return Layer{}, false
}

// Exists reports whether a layer id is valid.
func (ls *LayerStack) Exists(id string) bool {
	_, ok := ls.Get(id)
	return ok
}

// VisibleIDs returns the set of layer ids currently visible.
func (ls *LayerStack) VisibleIDs() map[string]bool {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	ids := make(map[string]bool, len(ls.layers))
	for _, l := range ls.layers {
		if l.Visible {
			ids[l.ID] = true
		}
	}
	return ids
}

// OpacityOf returns the layer's opacity, or 1.0 for an unknown layer.
// Items can transiently reference a just-deleted layer during a merge;
// they render fully opaque rather than vanishing.
func (ls *LayerStack) OpacityOf(id string) float64 {
	l, ok := ls.Get(id)
	if !ok {
		return 1.0
	}
	return l.Opacity
}

// Active returns the active layer id.
func (ls *LayerStack) Active() string {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.activeID
}

// SetActive switches the active layer; unknown ids are ignored.
func (ls *LayerStack) SetActive(id string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, l := range ls.layers {
		if l.ID == id {
			ls.activeID = id
			return
		}
	}
}

// SetVisible toggles layer visibility.
func (ls *LayerStack) SetVisible(id string, visible bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, l := range ls.layers {
		if l.ID == id {
			l.Visible = visible
			return
		}
	}
}

// SetLocked toggles layer locking.
func (ls *LayerStack) SetLocked(id string, locked bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, l := range ls.layers {
		if l.ID == id {
			l.Locked = locked
			return
		}
	}
}

// SetOpacity sets a layer's opacity, clamped to [0, 1].
func (ls *LayerStack) SetOpacity(id string, opacity float64) {
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, l := range ls.layers {
		if l.ID == id {
			l.Opacity = opacity
			return
		}
	}
}

// Len returns the number of layers.
func (ls *LayerStack) Len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.layers)
}

// FilterVisible keeps only the strokes and objects whose layer is
// currently visible, for the render step.
func (ls *LayerStack) FilterVisible(strokes []Stroke, objects []Object) ([]Stroke, []Object) {
	visible := ls.VisibleIDs()
	outStrokes := make([]Stroke, 0, len(strokes))
	for _, s := range strokes {
		if visible[s.LayerID] {
			outStrokes = append(outStrokes, s)
		}
	}
	outObjects := make([]Object, 0, len(objects))
	for _, o := range objects {
		if visible[o.LayerID] {
			outObjects = append(outObjects, o)
		}
	}
	return outStrokes, outObjects
}

// replace swaps in a whole new layer set (board load). The slice must
// be non-empty; the topmost layer becomes active.
func (ls *LayerStack) replace(layers []Layer) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.layers = ls.layers[:0]
	for i := range layers {
		l := layers[i]
		ls.layers = append(ls.layers, &l)
	}
	ls.activeID = ls.orderedLocked()[0].ID
}

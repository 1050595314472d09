package state

import "testing"

func TestLayerStackStartsWithDefault(t *testing.T) {
	ls := NewLayerStack()
	if ls.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ls.Len())
	}
	if ls.Active() != DefaultLayerID {
		t.Fatalf("Active() = %q, want %q", ls.Active(), DefaultLayerID)
	}
	l, ok := ls.Get(DefaultLayerID)
	if !ok || !l.Visible || l.Opacity != 1 {
		t.Fatalf("default layer = %+v, want visible with opacity 1", l)
	}
}

func TestLayerStackAddStacksOnTop(t *testing.T) {
	ls := NewLayerStack()
	a := ls.Add("a")
	b := ls.Add("b")
	ordered := ls.Ordered()
	if len(ordered) != 3 {
		t.Fatalf("Ordered() has %d layers, want 3", len(ordered))
	}
	if ordered[0].ID != b.ID || ordered[1].ID != a.ID || ordered[2].ID != DefaultLayerID {
		t.Fatalf("display order = [%s %s %s], want [b a default]",
			ordered[0].Name, ordered[1].Name, ordered[2].Name)
	}
}

func TestLayerStackRemoveLastIsNoop(t *testing.T) {
	ls := NewLayerStack()
	if ls.Remove(DefaultLayerID) {
		t.Fatal("removing the only layer should be a no-op")
	}
	if ls.Len() != 1 {
		t.Fatalf("Len() = %d after no-op remove, want 1", ls.Len())
	}
}

func TestLayerStackRemoveReassignsActive(t *testing.T) {
	ls := NewLayerStack()
	top := ls.Add("top")
	ls.SetActive(top.ID)
	if !ls.Remove(top.ID) {
		t.Fatal("Remove returned false")
	}
	if ls.Active() != DefaultLayerID {
		t.Fatalf("Active() = %q after removing active layer, want %q", ls.Active(), DefaultLayerID)
	}
}

func TestLayerStackReorder(t *testing.T) {
	ls := NewLayerStack()
	a := ls.Add("a")
	b := ls.Add("b")
	// Display order is now [b a default]; move the bottom to the top.
	ls.Reorder(2, 0)
	ordered := ls.Ordered()
	if ordered[0].ID != DefaultLayerID || ordered[1].ID != b.ID || ordered[2].ID != a.ID {
		t.Fatalf("display order after reorder = [%s %s %s], want [default b a]",
			ordered[0].Name, ordered[1].Name, ordered[2].Name)
	}
	// Z-indices must be dense and strictly descending.
	for i, l := range ordered {
		if want := len(ordered) - 1 - i; l.ZIndex != want {
			t.Errorf("layer %d z-index = %d, want %d", i, l.ZIndex, want)
		}
	}
}

func TestLayerStackReorderOutOfRange(t *testing.T) {
	ls := NewLayerStack()
	ls.Add("a")
	before := ls.Ordered()
	ls.Reorder(-1, 0)
	ls.Reorder(0, 5)
	after := ls.Ordered()
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatal("out-of-range reorder changed the stack")
		}
	}
}

func TestLayerStackOpacity(t *testing.T) {
	ls := NewLayerStack()
	ls.SetOpacity(DefaultLayerID, 0.5)
	if got := ls.OpacityOf(DefaultLayerID); got != 0.5 {
		t.Fatalf("OpacityOf = %v, want 0.5", got)
	}
	ls.SetOpacity(DefaultLayerID, 3)
	if got := ls.OpacityOf(DefaultLayerID); got != 1 {
		t.Fatalf("opacity not clamped high: %v", got)
	}
	ls.SetOpacity(DefaultLayerID, -1)
	if got := ls.OpacityOf(DefaultLayerID); got != 0 {
		t.Fatalf("opacity not clamped low: %v", got)
	}
	if got := ls.OpacityOf("no-such-layer"); got != 1 {
		t.Fatalf("OpacityOf(unknown) = %v, want 1", got)
	}
}

func TestLayerStackFilterVisible(t *testing.T) {
	ls := NewLayerStack()
	hidden := ls.Add("hidden")
	ls.SetVisible(hidden.ID, false)

	strokes := []Stroke{
		{ID: "s1", LayerID: DefaultLayerID},
		{ID: "s2", LayerID: hidden.ID},
	}
	objects := []Object{
		{ID: "o1", LayerID: hidden.ID},
		{ID: "o2", LayerID: DefaultLayerID},
	}
	gotStrokes, gotObjects := ls.FilterVisible(strokes, objects)
	if len(gotStrokes) != 1 || gotStrokes[0].ID != "s1" {
		t.Fatalf("visible strokes = %v, want just s1", gotStrokes)
	}
	if len(gotObjects) != 1 || gotObjects[0].ID != "o2" {
		t.Fatalf("visible objects = %v, want just o2", gotObjects)
	}
}

func TestLayerStackLocking(t *testing.T) {
	ls := NewLayerStack()
	ls.SetLocked(DefaultLayerID, true)
	l, _ := ls.Get(DefaultLayerID)
	if !l.Locked {
		t.Fatal("layer not locked")
	}
	ls.SetLocked(DefaultLayerID, false)
	l, _ = ls.Get(DefaultLayerID)
	if l.Locked {
		t.Fatal("layer still locked")
	}
}

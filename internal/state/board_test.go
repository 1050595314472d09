package state

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func testStroke(id, layerID string, points ...StrokePoint) *Stroke {
	return &Stroke{
		ID:        id,
		Tool:      StrokeToolPen,
		Color:     RGBA(0, 0, 0, 255),
		Size:      3,
		LayerID:   layerID,
		Points:    points,
		Completed: true,
	}
}

func TestBoardAddStrokeUnknownLayer(t *testing.T) {
	b := NewBoard()
	err := b.AddStroke(testStroke("s1", "nope"))
	if !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("err = %v, want ErrUnknownLayer", err)
	}
	if len(b.Strokes()) != 0 {
		t.Fatal("rejected stroke was stored")
	}
}

func TestBoardAddStrokeOverwrites(t *testing.T) {
	b := NewBoard()
	at := time.Now()
	first := testStroke("s1", DefaultLayerID, NewStrokePoint(1, 1, at))
	second := testStroke("s1", DefaultLayerID, NewStrokePoint(2, 2, at), NewStrokePoint(3, 3, at))
	if err := b.AddStroke(first); err != nil {
		t.Fatal(err)
	}
	if err := b.AddStroke(second); err != nil {
		t.Fatal(err)
	}
	strokes := b.Strokes()
	if len(strokes) != 1 {
		t.Fatalf("len(Strokes) = %d, want 1", len(strokes))
	}
	if len(strokes[0].Points) != 2 {
		t.Fatalf("last write should win whole: got %d points, want 2", len(strokes[0].Points))
	}
}

func TestBoardRemoteStrokeMerge(t *testing.T) {
	b := NewBoard()
	at := time.Now()
	p1 := NewStrokePoint(10, 10, at)
	p2 := NewStrokePoint(20, 20, at)

	s := testStroke("remote", DefaultLayerID, NewStrokePoint(99, 99, at))
	s.Completed = false
	if err := b.StartRemoteStroke(s); err != nil {
		t.Fatal(err)
	}
	// Start resets the point list; points arrive only via updates.
	if pending := b.PendingStrokes(); len(pending) != 1 || len(pending[0].Points) != 0 {
		t.Fatalf("pending after start = %+v, want one empty stroke", pending)
	}
	if !b.AppendRemoteStroke("remote", []StrokePoint{p1}) {
		t.Fatal("append p1 failed")
	}
	if !b.AppendRemoteStroke("remote", []StrokePoint{p2}) {
		t.Fatal("append p2 failed")
	}
	done, ok := b.EndRemoteStroke("remote")
	if !ok {
		t.Fatal("end failed")
	}
	if !done.Completed {
		t.Fatal("promoted stroke not marked completed")
	}
	if len(done.Points) != 2 || done.Points[0] != p1 || done.Points[1] != p2 {
		t.Fatalf("points = %v, want [p1 p2] in arrival order", done.Points)
	}
	if len(b.PendingStrokes()) != 0 {
		t.Fatal("stroke still pending after end")
	}
	if got := b.Strokes(); len(got) != 1 || got[0].ID != "remote" {
		t.Fatalf("finalized strokes = %v, want the promoted one", got)
	}
}

func TestBoardRemoteStrokeUnknownIDsIgnored(t *testing.T) {
	b := NewBoard()
	if b.AppendRemoteStroke("ghost", []StrokePoint{{X: 1}}) {
		t.Fatal("append to unknown pending stroke should report false")
	}
	if _, ok := b.EndRemoteStroke("ghost"); ok {
		t.Fatal("ending an unknown pending stroke should report false")
	}
}

func TestBoardStartRemoteStrokeUnknownLayer(t *testing.T) {
	b := NewBoard()
	err := b.StartRemoteStroke(testStroke("s1", "missing"))
	if !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("err = %v, want ErrUnknownLayer", err)
	}
}

func TestBoardReplaceStrokesKeepsCompletedOnly(t *testing.T) {
	b := NewBoard()
	b.AddStroke(testStroke("old", DefaultLayerID))
	snapshot := []Stroke{
		{ID: "a", LayerID: DefaultLayerID, Completed: true},
		{ID: "b", LayerID: DefaultLayerID, Completed: false},
		{ID: "c", LayerID: DefaultLayerID, Completed: true},
	}
	b.ReplaceStrokes(snapshot)
	got := b.Strokes()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("strokes after snapshot = %v, want [a c]", got)
	}
}

func TestBoardObjectLifecycle(t *testing.T) {
	b := NewBoard()
	o := &Object{ID: "o1", Type: ObjectRectangle, LayerID: DefaultLayerID,
		ObjectProps: ObjectProps{X: 10, Y: 10, Width: 50, Height: 30, Color: RGBA(0, 0, 0, 255)}}
	if err := b.AddObject(o); err != nil {
		t.Fatal(err)
	}

	x := 25.0
	prev, next, err := b.UpdateObject("o1", ObjectPatch{X: &x})
	if err != nil {
		t.Fatal(err)
	}
	if prev.X != 10 || next.X != 25 {
		t.Fatalf("prev.X = %v next.X = %v, want 10 and 25", prev.X, next.X)
	}
	if next.Width != 50 {
		t.Fatal("unset patch fields must be left alone")
	}

	if _, _, err := b.UpdateObject("ghost", ObjectPatch{}); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("update unknown: err = %v, want ErrUnknownObject", err)
	}

	removed, err := b.RemoveObject("o1")
	if err != nil {
		t.Fatal(err)
	}
	if removed.X != 25 {
		t.Fatalf("removed snapshot X = %v, want latest value 25", removed.X)
	}
	if _, err := b.RemoveObject("o1"); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("double remove: err = %v, want ErrUnknownObject", err)
	}
}

func TestBoardClearSnapshotsEverything(t *testing.T) {
	b := NewBoard()
	b.AddStroke(testStroke("s1", DefaultLayerID, NewStrokePoint(1, 1, time.Now())))
	b.AddObject(&Object{ID: "o1", Type: ObjectCircle, LayerID: DefaultLayerID})
	b.StartRemoteStroke(testStroke("pending", DefaultLayerID))

	strokes, objects := b.Clear()
	if len(strokes) != 1 || len(objects) != 1 {
		t.Fatalf("cleared %d strokes %d objects, want 1 and 1", len(strokes), len(objects))
	}
	if len(b.Strokes()) != 0 || len(b.Objects()) != 0 || len(b.PendingStrokes()) != 0 {
		t.Fatal("board not empty after clear")
	}
	if b.Layers().Len() != 1 {
		t.Fatal("clear must not touch layers")
	}

	// The snapshot restores the board exactly.
	restore := ClearCanvasAction{Strokes: strokes, Objects: objects}
	restore.Undo(b)
	if got := b.Strokes(); len(got) != 1 || got[0].Points[0].X != 1 {
		t.Fatalf("restored strokes = %v", got)
	}
	if _, ok := b.Object("o1"); !ok {
		t.Fatal("object not restored")
	}
}

func TestBoardDeleteLayerCascades(t *testing.T) {
	b := NewBoard()
	doomed := b.Layers().Add("doomed")
	b.AddStroke(testStroke("s1", doomed.ID))
	b.AddStroke(testStroke("s2", doomed.ID))
	b.AddStroke(testStroke("keep", DefaultLayerID))
	b.AddObject(&Object{ID: "o1", Type: ObjectText, LayerID: doomed.ID})
	b.StartRemoteStroke(testStroke("p1", doomed.ID))
	b.Layers().SetActive(doomed.ID)

	strokes, objects, ok := b.DeleteLayer(doomed.ID)
	if !ok {
		t.Fatal("DeleteLayer returned false")
	}
	if len(strokes) != 2 || len(objects) != 1 {
		t.Fatalf("cascaded %d strokes %d objects, want 2 and 1", len(strokes), len(objects))
	}
	if got := b.Strokes(); len(got) != 1 || got[0].ID != "keep" {
		t.Fatalf("surviving strokes = %v, want [keep]", got)
	}
	if len(b.PendingStrokes()) != 0 {
		t.Fatal("pending stroke on deleted layer survived")
	}
	if b.Layers().Active() != DefaultLayerID {
		t.Fatalf("active layer = %q, want reassigned to %q", b.Layers().Active(), DefaultLayerID)
	}

	// The last remaining layer cannot be deleted.
	if _, _, ok := b.DeleteLayer(DefaultLayerID); ok {
		t.Fatal("deleted the last layer")
	}
}

func TestBoardSaveLoadRoundTrip(t *testing.T) {
	b := NewBoard()
	extra := b.Layers().Add("extra")
	b.AddStroke(testStroke("s1", DefaultLayerID, NewStrokePoint(5, 5, time.Now())))
	b.AddObject(&Object{ID: "o1", Type: ObjectArrow, LayerID: extra.ID,
		ObjectProps: ObjectProps{X: 1, Y: 2, X2: 3, Y2: 4, Color: RGBA(255, 0, 0, 255)}})

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		t.Fatal(err)
	}

	loaded := NewBoard()
	if err := loaded.Load(&buf); err != nil {
		t.Fatal(err)
	}
	if loaded.Layers().Len() != 2 {
		t.Fatalf("loaded %d layers, want 2", loaded.Layers().Len())
	}
	strokes := loaded.Strokes()
	if len(strokes) != 1 || strokes[0].ID != "s1" || len(strokes[0].Points) != 1 {
		t.Fatalf("loaded strokes = %v", strokes)
	}
	o, ok := loaded.Object("o1")
	if !ok || o.X2 != 3 || o.Color != RGBA(255, 0, 0, 255) {
		t.Fatalf("loaded object = %+v", o)
	}
}

func TestBoardLoadWithoutLayers(t *testing.T) {
	b := NewBoard()
	if err := b.Load(bytes.NewBufferString(`{"strokes":[],"objects":[]}`)); err != nil {
		t.Fatal(err)
	}
	if !b.Layers().Exists(DefaultLayerID) {
		t.Fatal("load without layers must inject the default layer")
	}
}

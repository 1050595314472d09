package ui

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"liveboard/internal/editor"
	"liveboard/internal/state"
)

// BoardWidget renders the canvas model and forwards pointer events
// into the edit engine. All drawing logic lives in the engine; this
// widget only translates fyne events and paints the scene.
type BoardWidget struct {
	widget.BaseWidget
	editor   *editor.Editor
	board    *state.Board
	presence *state.Presence
	win      fyne.Window
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget creates the canvas widget.
func NewBoardWidget(ed *editor.Editor, board *state.Board, presence *state.Presence) *BoardWidget {
	b := &BoardWidget{editor: ed, board: board, presence: presence}
	b.ExtendBaseWidget(b)
	return b
}

// SetWindow attaches the parent window, needed for the text dialog.
func (b *BoardWidget) SetWindow(win fyne.Window) { b.win = win }

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	pos := editor.Point{X: float64(e.Position.X), Y: float64(e.Position.Y)}
	if b.editor.Tool() == editor.ToolText && b.win != nil {
		// Dialogs are asynchronous in fyne; capture the text first and
		// hand it to the engine's synchronous prompt on confirm.
		dialog.ShowEntryDialog("Add Text", "Text:", func(text string) {
			b.editor.SetTextPrompt(func() (string, bool) { return text, text != "" })
			b.editor.PointerDown(pos)
			b.Refresh()
		}, b.win)
		return
	}
	b.editor.PointerDown(pos)
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.editor.PointerUp(editor.Point{X: float64(e.Position.X), Y: float64(e.Position.Y)})
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.editor.PointerMove(editor.Point{X: float64(e.Position.X), Y: float64(e.Position.Y)})
	b.Refresh()
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut()                   {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	// Hover still emits cursor presence.
	b.editor.PointerMove(editor.Point{X: float64(e.Position.X), Y: float64(e.Position.Y)})
}

// Scrolled pans the viewport.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.editor.PanBy(float64(e.Scrolled.DX), float64(e.Scrolled.DY))
	b.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	return r
}

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	b := r.board
	objects := []fyne.CanvasObject{r.background}

	layers := b.board.Layers()
	strokes, shapes := layers.FilterVisible(b.board.Strokes(), b.board.Objects())
	visible := layers.VisibleIDs()

	for _, s := range strokes {
		objects = append(objects, r.strokeLines(s, layers.OpacityOf(s.LayerID))...)
	}
	for _, s := range b.board.PendingStrokes() {
		if visible[s.LayerID] {
			objects = append(objects, r.strokeLines(s, layers.OpacityOf(s.LayerID))...)
		}
	}
	if s, ok := b.editor.CurrentStroke(); ok {
		objects = append(objects, r.strokeLines(s, layers.OpacityOf(s.LayerID))...)
	}
	for _, o := range shapes {
		objects = append(objects, r.shapeObjects(o, layers.OpacityOf(o.LayerID))...)
	}
	if o, ok := b.editor.CurrentShape(); ok {
		objects = append(objects, r.shapeObjects(o, 1)...)
	}
	objects = append(objects, r.cursorObjects()...)
	return objects
}

// mapPos converts a canvas position to screen space.
func (r *boardRenderer) mapPos(x, y float64) fyne.Position {
	pan := r.board.editor.Pan()
	scale := r.board.editor.Zoom()
	return fyne.NewPos(float32(x*scale+pan.X), float32(y*scale+pan.Y))
}

func fade(c state.ARGB, opacity float64) color.NRGBA {
	n := c.NRGBA()
	n.A = uint8(float64(n.A) * opacity)
	return n
}

func (r *boardRenderer) strokeLines(s state.Stroke, opacity float64) []fyne.CanvasObject {
	if len(s.Points) < 2 {
		return nil
	}
	scale := r.board.editor.Zoom()
	col := fade(s.Color, opacity)
	lines := make([]fyne.CanvasObject, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		seg := canvas.NewLine(col)
		seg.StrokeWidth = float32(s.Size * scale)
		seg.Position1 = r.mapPos(s.Points[i-1].X, s.Points[i-1].Y)
		seg.Position2 = r.mapPos(s.Points[i].X, s.Points[i].Y)
		lines = append(lines, seg)
	}
	return lines
}

func (r *boardRenderer) shapeObjects(o state.Object, opacity float64) []fyne.CanvasObject {
	scale := r.board.editor.Zoom()
	col := fade(o.Color, opacity)
	strokeWidth := float32(o.StrokeWidth * scale)
	topLeft := r.mapPos(o.X, o.Y)
	size := fyne.NewSize(float32(o.Width*scale), float32(o.Height*scale))

	var out []fyne.CanvasObject
	switch o.Type {
	case state.ObjectRectangle:
		rect := canvas.NewRectangle(color.Transparent)
		if o.Filled {
			rect.FillColor = fade(o.FillColor, opacity)
		}
		rect.StrokeColor = col
		rect.StrokeWidth = strokeWidth
		rect.Move(topLeft)
		rect.Resize(size)
		out = append(out, rect)
	case state.ObjectCircle, state.ObjectEllipse:
		circ := canvas.NewCircle(color.Transparent)
		if o.Filled {
			circ.FillColor = fade(o.FillColor, opacity)
		}
		circ.StrokeColor = col
		circ.StrokeWidth = strokeWidth
		circ.Move(topLeft)
		circ.Resize(size)
		out = append(out, circ)
	case state.ObjectLine, state.ObjectArrow:
		line := canvas.NewLine(col)
		line.StrokeWidth = strokeWidth
		line.Position1 = r.mapPos(o.X, o.Y)
		line.Position2 = r.mapPos(o.X2, o.Y2)
		out = append(out, line)
		if o.Type == state.ObjectArrow {
			out = append(out, arrowBarbs(line.Position1, line.Position2, col, strokeWidth)...)
		}
	case state.ObjectText:
		txt := canvas.NewText(o.Text, col)
		txt.TextSize = float32(o.FontSize * scale)
		txt.Move(topLeft)
		out = append(out, txt)
	}

	if o.ID == r.board.editor.Selected() {
		sel := canvas.NewRectangle(color.Transparent)
		sel.StrokeColor = color.NRGBA{R: 52, G: 152, B: 219, A: 200}
		sel.StrokeWidth = 1
		sel.Move(fyne.NewPos(topLeft.X-4, topLeft.Y-4))
		sel.Resize(fyne.NewSize(size.Width+8, size.Height+8))
		out = append(out, sel)
	}
	return out
}

func (r *boardRenderer) cursorObjects() []fyne.CanvasObject {
	var out []fyne.CanvasObject
	for _, c := range r.board.presence.Cursors() {
		pos := r.mapPos(c.X, c.Y)
		dot := canvas.NewCircle(c.Color.NRGBA())
		dot.Move(fyne.NewPos(pos.X-4, pos.Y-4))
		dot.Resize(fyne.NewSize(8, 8))
		name := canvas.NewText(c.DisplayName, c.Color.NRGBA())
		name.TextSize = 11
		name.Move(fyne.NewPos(pos.X+6, pos.Y-6))
		out = append(out, dot, name)
	}
	return out
}

func arrowBarbs(from, to fyne.Position, col color.NRGBA, width float32) []fyne.CanvasObject {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	// Unit vector back along the shaft, then rotate ±30 degrees.
	inv := 12.0 / length
	bx, by := -dx*inv, -dy*inv
	barbs := make([]fyne.CanvasObject, 0, 2)
	for _, sign := range []float64{1, -1} {
		// cos 30 = 0.866, sin 30 = 0.5
		rx := bx*0.866 - by*0.5*sign
		ry := bx*0.5*sign + by*0.866
		barb := canvas.NewLine(col)
		barb.StrokeWidth = width
		barb.Position1 = to
		barb.Position2 = fyne.NewPos(to.X+float32(rx), to.Y+float32(ry))
		barbs = append(barbs, barb)
	}
	return barbs
}

func (r *boardRenderer) Layout(size fyne.Size) { r.background.Resize(size) }
func (r *boardRenderer) MinSize() fyne.Size    { return fyne.NewSize(400, 300) }
func (r *boardRenderer) Refresh()              { canvas.Refresh(r.board) }
func (r *boardRenderer) Destroy()              {}

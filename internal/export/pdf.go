// Package export renders the board to files for sharing outside a
// live session.
package export

import (
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"

	"liveboard/internal/state"
)

// Canvas units are screen-ish pixels; divide by 3 to land on sensible
// millimeter coordinates for an A4 page.
const mmScale = 3.0

// PDF writes the visible layers of the board to an A4 landscape PDF,
// bottom layer first so stacking matches the screen.
func PDF(path string, board *state.Board) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()
	p.SetFont("Helvetica", "", 12)

	strokes, objects := board.Layers().FilterVisible(board.Strokes(), board.Objects())
	ordered := board.Layers().Ordered()
	for i := len(ordered) - 1; i >= 0; i-- {
		layerID := ordered[i].ID
		for _, s := range strokes {
			if s.LayerID == layerID {
				drawStroke(p, s)
			}
		}
		for _, o := range objects {
			if o.LayerID == layerID {
				drawObject(p, o)
			}
		}
	}
	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export pdf %s: %w", path, err)
	}
	return nil
}

func drawStroke(p *gofpdf.Fpdf, s state.Stroke) {
	if len(s.Points) < 2 {
		return
	}
	setDraw(p, s.Color)
	p.SetLineWidth(s.Size / mmScale)
	for i := 1; i < len(s.Points); i++ {
		p.Line(
			s.Points[i-1].X/mmScale, s.Points[i-1].Y/mmScale,
			s.Points[i].X/mmScale, s.Points[i].Y/mmScale,
		)
	}
}

func drawObject(p *gofpdf.Fpdf, o state.Object) {
	setDraw(p, o.Color)
	width := o.StrokeWidth
	if width <= 0 {
		width = 1
	}
	p.SetLineWidth(width / mmScale)
	style := "D"
	if o.Filled {
		p.SetFillColor(int(o.FillColor.Red()), int(o.FillColor.Green()), int(o.FillColor.Blue()))
		style = "FD"
	}
	x, y := o.X/mmScale, o.Y/mmScale
	w, h := o.Width/mmScale, o.Height/mmScale

	switch o.Type {
	case state.ObjectRectangle:
		p.Rect(x, y, w, h, style)
	case state.ObjectCircle, state.ObjectEllipse:
		p.Ellipse(x+w/2, y+h/2, w/2, h/2, 0, style)
	case state.ObjectLine:
		p.Line(x, y, o.X2/mmScale, o.Y2/mmScale)
	case state.ObjectArrow:
		x2, y2 := o.X2/mmScale, o.Y2/mmScale
		p.Line(x, y, x2, y2)
		drawArrowHead(p, x, y, x2, y2)
	case state.ObjectText:
		if o.Text == "" {
			return
		}
		size := o.FontSize
		if size <= 0 {
			size = 16
		}
		p.SetTextColor(int(o.Color.Red()), int(o.Color.Green()), int(o.Color.Blue()))
		p.SetFontSize(size)
		p.Text(x, y, o.Text)
	}
}

// drawArrowHead adds two short barbs at the arrow's endpoint.
func drawArrowHead(p *gofpdf.Fpdf, x1, y1, x2, y2 float64) {
	angle := math.Atan2(y2-y1, x2-x1)
	const barb = 4.0 // mm
	for _, spread := range []float64{math.Pi / 6, -math.Pi / 6} {
		p.Line(x2, y2,
			x2-barb*math.Cos(angle-spread),
			y2-barb*math.Sin(angle-spread))
	}
}

func setDraw(p *gofpdf.Fpdf, c state.ARGB) {
	p.SetDrawColor(int(c.Red()), int(c.Green()), int(c.Blue()))
}

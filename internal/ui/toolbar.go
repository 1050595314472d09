package ui

import (
	"image/color"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"liveboard/internal/editor"
	"liveboard/internal/export"
	"liveboard/internal/state"
)

// colorSwatch is a clickable color square.
type colorSwatch struct {
	widget.BaseWidget
	Color    state.ARGB
	OnTapped func(state.ARGB)
}

func newColorSwatch(c state.ARGB, tapped func(state.ARGB)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color.NRGBA())
	rect.SetMinSize(fyne.NewSize(28, 28))
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1
	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

var palette = []state.ARGB{
	state.RGBA(0, 0, 0, 255),
	state.RGBA(231, 76, 60, 255),
	state.RGBA(46, 204, 113, 255),
	state.RGBA(52, 152, 219, 255),
	state.RGBA(241, 196, 15, 255),
	state.RGBA(155, 89, 182, 255),
}

// NewToolbar builds the tool/color/size controls above the board.
func NewToolbar(ed *editor.Editor, boardWidget *BoardWidget, board *state.Board, win fyne.Window) fyne.CanvasObject {
	tools := []struct {
		label string
		tool  editor.Tool
	}{
		{"Pen", editor.ToolPen},
		{"Marker", editor.ToolMarker},
		{"Eraser", editor.ToolEraser},
		{"Select", editor.ToolSelect},
		{"Rect", editor.ToolRectangle},
		{"Circle", editor.ToolCircle},
		{"Line", editor.ToolLine},
		{"Arrow", editor.ToolArrow},
		{"Text", editor.ToolText},
	}
	toolNames := make([]string, len(tools))
	for i, t := range tools {
		toolNames[i] = t.label
	}
	toolSelect := widget.NewSelect(toolNames, func(label string) {
		for _, t := range tools {
			if t.label == label {
				ed.SetTool(t.tool)
				return
			}
		}
	})
	toolSelect.SetSelected("Pen")

	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, ed.SetColor))
	}

	sizeSlider := widget.NewSlider(1, 30)
	sizeSlider.SetValue(ed.Size())
	sizeSlider.OnChanged = ed.SetSize
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), sizeSlider)

	undoBtn := widget.NewButton("Undo", func() {
		ed.Undo()
		boardWidget.Refresh()
	})
	redoBtn := widget.NewButton("Redo", func() {
		ed.Redo()
		boardWidget.Refresh()
	})
	clearBtn := widget.NewButton("Clear", func() {
		ed.ClearCanvas()
		boardWidget.Refresh()
	})
	deleteBtn := widget.NewButton("Delete", func() {
		ed.DeleteSelected()
		boardWidget.Refresh()
	})
	zoomInBtn := widget.NewButton("+", func() {
		ed.SetZoom(ed.Zoom() * 1.25)
		boardWidget.Refresh()
	})
	zoomOutBtn := widget.NewButton("-", func() {
		ed.SetZoom(ed.Zoom() / 1.25)
		boardWidget.Refresh()
	})
	layerBtn := widget.NewButton("Add Layer", func() {
		l := board.Layers().Add("Layer")
		board.Layers().SetActive(l.ID)
	})
	exportBtn := widget.NewButton("Export PDF", func() {
		if err := export.PDF("board.pdf", board); err != nil {
			log.Printf("[ui] export failed: %v", err)
			dialog.ShowError(err, win)
			return
		}
		dialog.ShowInformation("Export", "Saved board.pdf", win)
	})
	saveBtn := widget.NewButton("Save", func() {
		f, err := os.Create("board.json")
		if err == nil {
			err = board.Save(f)
			f.Close()
		}
		if err != nil {
			log.Printf("[ui] save failed: %v", err)
			dialog.ShowError(err, win)
			return
		}
		dialog.ShowInformation("Save", "Saved board.json", win)
	})
	openBtn := widget.NewButton("Open", func() {
		f, err := os.Open("board.json")
		if err == nil {
			err = board.Load(f)
			f.Close()
		}
		if err != nil {
			log.Printf("[ui] open failed: %v", err)
			dialog.ShowError(err, win)
			return
		}
		ed.ResetHistory()
		boardWidget.Refresh()
	})

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		toolSelect,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderBox,
		widget.NewSeparator(),
		zoomInBtn, zoomOutBtn,
		undoBtn, redoBtn, deleteBtn, clearBtn, layerBtn, saveBtn, openBtn, exportBtn,
		layout.NewSpacer(),
	)
}

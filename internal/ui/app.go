package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"liveboard/internal/editor"
	"liveboard/internal/state"
)

// App wires the widgets together and owns the status bar.
type App struct {
	Board  *BoardWidget
	Status *widget.Label
	win    fyne.Window
}

// NewApp builds the main window around the edit engine.
func NewApp(ed *editor.Editor, board *state.Board, presence *state.Presence) *App {
	fyneApp := app.New()
	win := fyneApp.NewWindow("LiveBoard")
	win.Resize(fyne.NewSize(1024, 768))

	boardWidget := NewBoardWidget(ed, board, presence)
	boardWidget.SetWindow(win)
	status := widget.NewLabel("Ready")
	toolbar := NewToolbar(ed, boardWidget, board, win)

	win.SetContent(container.NewBorder(toolbar, status, nil, nil, boardWidget))
	return &App{Board: boardWidget, Status: status, win: win}
}

// SetStatus updates the status bar from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.Status.SetText(text) })
}

// RefreshBoard repaints the canvas from any goroutine.
func (a *App) RefreshBoard() {
	fyne.Do(a.Board.Refresh)
}

// Run shows the window and blocks until it closes.
func (a *App) Run() {
	a.win.ShowAndRun()
}

package editor

import "liveboard/internal/state"

// Tool is the closed set of drawing tools. Pencil and marker are
// aliases of pen: they differ only in the stroke presets the UI picks,
// not in engine behavior.
type Tool int

const (
	ToolPen Tool = iota
	ToolPencil
	ToolMarker
	ToolEraser
	ToolSelect
	ToolRectangle
	ToolCircle
	ToolEllipse
	ToolLine
	ToolArrow
	ToolText
)

func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolPencil:
		return "pencil"
	case ToolMarker:
		return "marker"
	case ToolEraser:
		return "eraser"
	case ToolSelect:
		return "select"
	case ToolRectangle:
		return "rectangle"
	case ToolCircle:
		return "circle"
	case ToolEllipse:
		return "ellipse"
	case ToolLine:
		return "line"
	case ToolArrow:
		return "arrow"
	case ToolText:
		return "text"
	}
	return "unknown"
}

// penFamily reports whether the tool draws freehand strokes.
func (t Tool) penFamily() bool {
	return t == ToolPen || t == ToolPencil || t == ToolMarker
}

// shapeTool reports whether the tool drags out a shape object.
func (t Tool) shapeTool() bool {
	switch t {
	case ToolRectangle, ToolCircle, ToolEllipse, ToolLine, ToolArrow:
		return true
	}
	return false
}

// objectType maps a shape tool to the object type it creates.
func (t Tool) objectType() state.ObjectType {
	switch t {
	case ToolRectangle:
		return state.ObjectRectangle
	case ToolCircle:
		return state.ObjectCircle
	case ToolEllipse:
		return state.ObjectEllipse
	case ToolLine:
		return state.ObjectLine
	case ToolArrow:
		return state.ObjectArrow
	case ToolText:
		return state.ObjectText
	}
	return state.ObjectRectangle
}

// endpointType reports whether the object is defined by two endpoints
// rather than a bounding box.
func endpointType(t state.ObjectType) bool {
	return t == state.ObjectLine || t == state.ObjectArrow
}

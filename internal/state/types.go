package state

import "time"

// StrokeTool identifies how a freehand stroke is rendered.
type StrokeTool string

const (
	StrokeToolPen    StrokeTool = "pen"
	StrokeToolEraser StrokeTool = "eraser"
)

// StrokePoint is a single timestamped sample of a freehand stroke.
// Immutable once appended.
type StrokePoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Pressure    float64 `json:"pressure"`
	Tilt        float64 `json:"tilt"`
	TimestampMs uint64  `json:"timestamp"`
}

// NewStrokePoint builds a point with the default pressure (0.5) and tilt (0).
func NewStrokePoint(x, y float64, at time.Time) StrokePoint {
	return StrokePoint{X: x, Y: y, Pressure: 0.5, TimestampMs: uint64(at.UnixMilli())}
}

// Stroke is a freehand ink path on one layer. Points are append-only
// while the stroke is active; once Completed is set the stroke is
// immutable.
type Stroke struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id,omitempty"`
	Tool      StrokeTool    `json:"tool"`
	Color     ARGB          `json:"color"`
	Size      float64       `json:"size"`
	LayerID   string        `json:"layer_id"`
	Points    []StrokePoint `json:"points"`
	Completed bool          `json:"completed"`
}

// Clone returns a deep copy, safe to retain in history snapshots.
func (s *Stroke) Clone() *Stroke {
	c := *s
	c.Points = make([]StrokePoint, len(s.Points))
	copy(c.Points, s.Points)
	return &c
}

// ObjectType identifies a discrete shape/text primitive.
type ObjectType string

const (
	ObjectRectangle ObjectType = "rectangle"
	ObjectCircle    ObjectType = "circle"
	ObjectEllipse   ObjectType = "ellipse"
	ObjectLine      ObjectType = "line"
	ObjectArrow     ObjectType = "arrow"
	ObjectText      ObjectType = "text"
)

// ObjectProps are the mutable properties of an object. They travel on
// the wire as the `properties` payload of object events. X2/Y2 are the
// second endpoint and are meaningful only for line/arrow; every other
// type occupies the box (X, Y, X+Width, Y+Height).
type ObjectProps struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotation    float64 `json:"rotation"`
	Color       ARGB    `json:"color"`
	StrokeWidth float64 `json:"stroke_width"`
	Filled      bool    `json:"filled"`
	FillColor   ARGB    `json:"fill_color,omitempty"`
	Text        string  `json:"text,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	FontFamily  string  `json:"font_family,omitempty"`
	X2          float64 `json:"x2,omitempty"`
	Y2          float64 `json:"y2,omitempty"`
}

// Object is a shape or text primitive on one layer.
type Object struct {
	ID      string     `json:"id"`
	Type    ObjectType `json:"type"`
	LayerID string     `json:"layer_id"`
	ObjectProps
}

// Clone returns a copy safe to retain in history snapshots.
func (o *Object) Clone() *Object {
	c := *o
	return &c
}

// ObjectPatch is a partial update of ObjectProps; nil fields are left
// untouched. It unmarshals directly from an object_update `properties`
// payload.
type ObjectPatch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	Color       *ARGB    `json:"color,omitempty"`
	StrokeWidth *float64 `json:"stroke_width,omitempty"`
	Filled      *bool    `json:"filled,omitempty"`
	FillColor   *ARGB    `json:"fill_color,omitempty"`
	Text        *string  `json:"text,omitempty"`
	FontSize    *float64 `json:"font_size,omitempty"`
	FontFamily  *string  `json:"font_family,omitempty"`
	X2          *float64 `json:"x2,omitempty"`
	Y2          *float64 `json:"y2,omitempty"`
}

// Apply overwrites the set fields of props, leaving the rest alone.
func (p ObjectPatch) Apply(props *ObjectProps) {
	if p.X != nil {
		props.X = *p.X
	}
	if p.Y != nil {
		props.Y = *p.Y
	}
	if p.Width != nil {
		props.Width = *p.Width
	}
	if p.Height != nil {
		props.Height = *p.Height
	}
	if p.Rotation != nil {
		props.Rotation = *p.Rotation
	}
	if p.Color != nil {
		props.Color = *p.Color
	}
	if p.StrokeWidth != nil {
		props.StrokeWidth = *p.StrokeWidth
	}
	if p.Filled != nil {
		props.Filled = *p.Filled
	}
	if p.FillColor != nil {
		props.FillColor = *p.FillColor
	}
	if p.Text != nil {
		props.Text = *p.Text
	}
	if p.FontSize != nil {
		props.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		props.FontFamily = *p.FontFamily
	}
	if p.X2 != nil {
		props.X2 = *p.X2
	}
	if p.Y2 != nil {
		props.Y2 = *p.Y2
	}
}

// Layer groups strokes and objects for visibility, locking, opacity
// and z-ordering.
type Layer struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Locked  bool    `json:"locked"`
	Opacity float64 `json:"opacity"`
	ZIndex  int     `json:"z_index"`
}

// CursorInfo is the last known cursor position of a remote peer.
type CursorInfo struct {
	UserID      string
	DisplayName string
	X, Y        float64
	Color       ARGB
	LastUpdate  time.Time
}

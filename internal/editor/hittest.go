package editor

import (
	"math"

	"liveboard/internal/state"
)

const (
	// boxHitSlop inflates an object's bounding box for selection.
	boxHitSlop = 10.0
	// segmentHitDistance is the selection distance for lines/arrows.
	segmentHitDistance = 15.0
)

// strokeHit reports whether an erase at p touches the stroke. The
// erase radius grows with both the eraser size and the target stroke's
// own width; any single point inside it is a hit.
func strokeHit(s state.Stroke, p Point, eraserSize float64) bool {
	radius := 2*eraserSize + 0.5*s.Size
	for _, sp := range s.Points {
		if math.Hypot(sp.X-p.X, sp.Y-p.Y) <= radius {
			return true
		}
	}
	return false
}

// objectHit reports whether a click at p selects the object. Lines
// and arrows use distance to the segment; everything else uses the
// inflated bounding box.
func objectHit(o state.Object, p Point) bool {
	if endpointType(o.Type) {
		a := Point{X: o.X, Y: o.Y}
		b := Point{X: o.X2, Y: o.Y2}
		return pointSegmentDistance(p, a, b) < segmentHitDistance
	}
	return p.X >= o.X-boxHitSlop && p.X <= o.X+o.Width+boxHitSlop &&
		p.Y >= o.Y-boxHitSlop && p.Y <= o.Y+o.Height+boxHitSlop
}

// pointSegmentDistance is the distance from p to the segment ab: the
// projection of p onto the segment with the parameter clamped to
// [0,1], falling back to point distance for a zero-length segment.
func pointSegmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

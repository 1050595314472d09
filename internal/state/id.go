package state

import "github.com/google/uuid"

// NewID returns a fresh unique id for strokes, objects and layers.
// UUIDs keep concurrently drawing peers from ever colliding.
func NewID() string {
	return uuid.NewString()
}
